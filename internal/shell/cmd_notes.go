package shell

import (
	"context"
	"errors"
	"strings"

	"github.com/starford/notesh/internal/apperr"
	"github.com/starford/notesh/internal/models"
)

func (d *Dispatcher) cmdNew(ctx context.Context, sc *Context, args string) (*Result, error) {
	title, rest := ParseTitle(args)
	if title == "" {
		return d.usageError("new", "title is required"), nil
	}
	var tags []string
	for _, f := range Fields(rest) {
		tags = append(tags, strings.TrimPrefix(f, "#"))
	}

	n, err := d.store.CreateNote(ctx, title, "", tags, sc.Cwd)
	switch {
	case errors.Is(err, apperr.ErrInvalid):
		return d.invalidResult("new", err), nil
	case errors.Is(err, apperr.ErrNotFound):
		return errorResult("new: current folder no longer exists; cd / and try again"), nil
	case err != nil:
		return nil, err
	}

	res := &Result{OpenEditor: &EditorRequest{Note: *n, IsNew: true}}
	res.Successf("created note #%d %q", n.ID, n.Title)
	return res, nil
}

func (d *Dispatcher) cmdOpen(ctx context.Context, _ *Context, args string) (*Result, error) {
	n, res, err := d.findNote(ctx, "open", args)
	if n == nil {
		return res, err
	}
	if n.Deleted {
		return trashedResult("open", n), nil
	}

	res = &Result{}
	res.Highlightf("%s", n.Title)
	meta := "#" + formatID(n.ID) + "  updated " + n.UpdatedAt.Local().Format(d.dateLayout(ctx))
	if n.Pinned {
		meta += "  pinned"
	}
	if len(n.Tags) > 0 {
		meta += "  " + hashTags(n.Tags)
	}
	res.Dimf("%s", meta)
	if strings.TrimSpace(n.Body) == "" {
		res.Dimf("(empty note, edit %d to write)", n.ID)
	} else {
		res.Rich(n.Body)
	}
	return res, nil
}

func (d *Dispatcher) cmdEdit(ctx context.Context, _ *Context, args string) (*Result, error) {
	n, res, err := d.findNote(ctx, "edit", args)
	if n == nil {
		return res, err
	}
	if n.Deleted {
		return trashedResult("edit", n), nil
	}
	res = &Result{OpenEditor: &EditorRequest{Note: *n}}
	res.Infof("editing #%d %q", n.ID, n.Title)
	return res, nil
}

func (d *Dispatcher) cmdRename(ctx context.Context, _ *Context, args string) (*Result, error) {
	id, bad := d.parseIDArg("rename", args)
	if bad != nil {
		return bad, nil
	}
	_, rest := cutWord(args)
	title, _ := ParseTitle(rest)
	if title == "" {
		return d.usageError("rename", "new title is required"), nil
	}
	old, res, err := d.liveNote(ctx, "rename", id)
	if old == nil {
		return res, err
	}

	n, err := d.store.UpdateNote(ctx, id, models.NotePatch{Title: &title})
	if errors.Is(err, apperr.ErrInvalid) {
		return d.invalidResult("rename", err), nil
	}
	if err != nil {
		return nil, err
	}
	res = &Result{}
	res.Successf("renamed #%d %q to %q", n.ID, old.Title, n.Title)
	return res, nil
}

func (d *Dispatcher) cmdPin(ctx context.Context, _ *Context, args string) (*Result, error) {
	return d.setPinned(ctx, "pin", args, true)
}

func (d *Dispatcher) cmdUnpin(ctx context.Context, _ *Context, args string) (*Result, error) {
	return d.setPinned(ctx, "unpin", args, false)
}

func (d *Dispatcher) setPinned(ctx context.Context, name, args string, pinned bool) (*Result, error) {
	id, bad := d.parseIDArg(name, args)
	if bad != nil {
		return bad, nil
	}
	n, res, err := d.liveNote(ctx, name, id)
	if n == nil {
		return res, err
	}

	res = &Result{}
	if n.Pinned == pinned {
		if pinned {
			res.Warnf("note #%d %q is already pinned", n.ID, n.Title)
		} else {
			res.Warnf("note #%d %q is not pinned", n.ID, n.Title)
		}
		return res, nil
	}
	if _, err := d.store.UpdateNote(ctx, id, models.NotePatch{Pinned: &pinned}); err != nil {
		return nil, err
	}
	if pinned {
		res.Successf("pinned #%d %q", n.ID, n.Title)
	} else {
		res.Successf("unpinned #%d %q", n.ID, n.Title)
	}
	return res, nil
}

func (d *Dispatcher) cmdTag(ctx context.Context, _ *Context, args string) (*Result, error) {
	id, bad := d.parseIDArg("tag", args)
	if bad != nil {
		return bad, nil
	}
	_, rest := cutWord(args)
	changes := Fields(rest)
	if len(changes) == 0 {
		return d.usageError("tag", "at least one tag is required"), nil
	}
	n, res, err := d.liveNote(ctx, "tag", id)
	if n == nil {
		return res, err
	}

	tags := append([]string(nil), n.Tags...)
	for _, c := range changes {
		if strings.HasPrefix(c, "-") {
			drop := strings.ToLower(strings.TrimPrefix(strings.TrimPrefix(c, "-"), "#"))
			tags = removeString(tags, drop)
			continue
		}
		tags = append(tags, strings.TrimPrefix(c, "+"))
	}

	n, err = d.store.UpdateNote(ctx, id, models.NotePatch{Tags: &tags})
	if errors.Is(err, apperr.ErrInvalid) {
		return d.invalidResult("tag", err), nil
	}
	if err != nil {
		return nil, err
	}
	res = &Result{}
	if len(n.Tags) == 0 {
		res.Successf("#%d %q has no tags", n.ID, n.Title)
	} else {
		res.Successf("#%d %q tagged %s", n.ID, n.Title, hashTags(n.Tags))
	}
	return res, nil
}

// dailyTag marks notes created by today.
const dailyTag = "daily"

// cmdToday finds or creates the daily note. New daily notes go in the root
// folder whatever the current folder is.

func (d *Dispatcher) cmdToday(ctx context.Context, _ *Context, _ string) (*Result, error) {
	now := d.now()
	title := "Daily " + now.Format("2006-01-02")

	notes, err := d.store.ListNotes(ctx, false)
	if err != nil {
		return nil, err
	}
	for i := range notes {
		if notes[i].Title == title {
			res := &Result{OpenEditor: &EditorRequest{Note: notes[i]}}
			res.Infof("opening today's note #%d", notes[i].ID)
			return res, nil
		}
	}

	body := "# " + now.Format("Monday, January 2, 2006") + "\n\n"
	n, err := d.store.CreateNote(ctx, title, body, []string{dailyTag}, nil)
	if err != nil {
		return nil, err
	}
	res := &Result{OpenEditor: &EditorRequest{Note: *n, IsNew: true}}
	res.Successf("created today's note #%d %q in /", n.ID, n.Title)
	return res, nil
}

func removeString(list []string, s string) []string {
	out := list[:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
