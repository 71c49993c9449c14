package shell

import (
	"context"
	"regexp"
	"strings"
)

func (d *Dispatcher) cmdSearch(ctx context.Context, _ *Context, args string) (*Result, error) {
	query, _ := ParseTitle(args)
	if query == "" {
		return d.usageError("search", "search text is required"), nil
	}
	notes, err := d.store.SearchNotes(ctx, query)
	if err != nil {
		return nil, err
	}
	res := &Result{}
	if len(notes) == 0 {
		res.Infof("no notes match %q", query)
		return res, nil
	}
	res.Infof("%s matching %q", plural(len(notes), "note"), query)
	for i := range notes {
		res.Add(noteLine(&notes[i]))
	}
	return res, nil
}

// cmdGrep filters piped lines. Each stdin entry may hold several lines; they
// are matched one at a time and emitted in their original order.
func (d *Dispatcher) cmdGrep(_ context.Context, sc *Context, args string) (*Result, error) {
	if len(sc.Stdin) == 0 {
		res := errorResult("grep: no input to filter")
		res.Dimf("grep reads piped output, e.g.: list | grep idea")
		return res, nil
	}
	pattern, _ := ParseTitle(args)
	if pattern == "" {
		return d.usageError("grep", "pattern is required"), nil
	}

	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		re = regexp.MustCompile("(?i)" + regexp.QuoteMeta(pattern))
	}

	res := &Result{}
	for _, entry := range sc.Stdin {
		for _, line := range strings.Split(entry, "\n") {
			if re.MatchString(line) {
				res.Plainf("%s", line)
			}
		}
	}
	if len(res.Lines) == 0 {
		res.Dimf("(no matches)")
	}
	return res, nil
}

func (d *Dispatcher) cmdTags(ctx context.Context, _ *Context, args string) (*Result, error) {
	if word, _ := cutWord(args); word != "" {
		tag := strings.ToLower(strings.TrimPrefix(word, "#"))
		notes, err := d.store.NotesByTag(ctx, tag)
		if err != nil {
			return nil, err
		}
		res := &Result{}
		if len(notes) == 0 {
			res.Infof("no notes tagged #%s", tag)
			return res, nil
		}
		res.Infof("%s tagged #%s", plural(len(notes), "note"), tag)
		for i := range notes {
			res.Add(noteLine(&notes[i]))
		}
		return res, nil
	}

	counts, err := d.store.TagCounts(ctx)
	if err != nil {
		return nil, err
	}
	res := &Result{}
	if len(counts) == 0 {
		res.Infof("no tags yet; add one with: tag <id> <tag>")
		return res, nil
	}
	for _, tc := range counts {
		res.Add(Line{
			Kind:    KindPlain,
			Content: "#" + tc.Tag + " (" + formatID(int64(tc.Count)) + ")",
			Action:  &Action{Kind: ActionRun, Payload: "tags " + tc.Tag},
		})
	}
	return res, nil
}

func (d *Dispatcher) cmdStats(ctx context.Context, _ *Context, _ string) (*Result, error) {
	s, err := d.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	res := &Result{}
	res.Highlightf("notesh statistics")
	res.Plainf("notes     %d", s.Notes)
	res.Plainf("pinned    %d", s.Pinned)
	res.Plainf("trashed   %d", s.Deleted)
	res.Plainf("folders   %d", s.Folders)
	res.Plainf("tags      %d", s.Tags)
	res.Plainf("words     %d", s.Words)
	return res, nil
}
