package shell

import (
	"context"
	"errors"
	"strings"

	"github.com/starford/notesh/internal/apperr"
)

func (d *Dispatcher) cmdDelete(ctx context.Context, _ *Context, args string) (*Result, error) {
	id, bad := d.parseIDArg("delete", args)
	if bad != nil {
		return bad, nil
	}
	n, err := d.store.SoftDeleteNote(ctx, id)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return errorResult("delete: no note with id %d", id), nil
	case errors.Is(err, apperr.ErrConflict):
		res := &Result{}
		res.Warnf("note #%d is already in the trash", id)
		return res, nil
	case err != nil:
		return nil, err
	}

	res := &Result{Undo: &UndoToken{ID: n.ID, Title: n.Title}}
	res.Successf("moved #%d %q to the trash", n.ID, n.Title)
	res.Dimf("undo with: restore %d", n.ID)
	return res, nil
}

func (d *Dispatcher) cmdRestore(ctx context.Context, _ *Context, args string) (*Result, error) {
	id, bad := d.parseIDArg("restore", args)
	if bad != nil {
		return bad, nil
	}
	n, err := d.store.RestoreNote(ctx, id)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return errorResult("restore: no note with id %d", id), nil
	case errors.Is(err, apperr.ErrConflict):
		res := &Result{}
		res.Warnf("note #%d is not in the trash", id)
		return res, nil
	case err != nil:
		return nil, err
	}

	res := &Result{}
	res.Successf("restored #%d %q", n.ID, n.Title)
	return res, nil
}

func (d *Dispatcher) cmdTrash(ctx context.Context, _ *Context, _ string) (*Result, error) {
	notes, err := d.store.ListDeleted(ctx)
	if err != nil {
		return nil, err
	}
	res := &Result{}
	if len(notes) == 0 {
		res.Infof("trash is empty")
		return res, nil
	}
	layout := d.dateLayout(ctx)
	for i := range notes {
		n := &notes[i]
		line := Line{
			Kind:    KindPlain,
			Content: "  #" + formatID(n.ID) + " " + n.Title,
			Action:  &Action{Kind: ActionRun, Payload: "restore " + formatID(n.ID)},
		}
		if n.DeletedAt != nil {
			line.Content += "  (deleted " + n.DeletedAt.Local().Format(layout) + ")"
		}
		res.Add(line)
	}
	res.Dimf("%s in trash; restore <id> to recover, purge <id> to delete forever", plural(len(notes), "note"))
	return res, nil
}

func (d *Dispatcher) cmdPurge(ctx context.Context, _ *Context, args string) (*Result, error) {
	if strings.EqualFold(strings.TrimSpace(args), "all") {
		n, err := d.store.PurgeDeleted(ctx)
		if err != nil {
			return nil, err
		}
		res := &Result{}
		if n == 0 {
			res.Infof("trash is already empty")
		} else {
			res.Successf("permanently deleted %s", plural(n, "note"))
		}
		return res, nil
	}

	id, bad := d.parseIDArg("purge", args)
	if bad != nil {
		return bad, nil
	}
	err := d.store.PurgeNote(ctx, id)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return errorResult("purge: no note with id %d", id), nil
	case errors.Is(err, apperr.ErrConflict):
		res := &Result{}
		res.Warnf("note #%d is not in the trash; delete it first", id)
		return res, nil
	case err != nil:
		return nil, err
	}
	res := &Result{}
	res.Successf("permanently deleted note #%d", id)
	return res, nil
}
