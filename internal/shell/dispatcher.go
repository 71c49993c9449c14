package shell

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/starford/notesh/internal/apperr"
	"github.com/starford/notesh/internal/models"
)

// Context is the per-stage environment a command runs in. It is built
// fresh for every stage; cd writes the new folder back into Cwd.
type Context struct {
	// Cwd is the current folder; nil is the root.
	Cwd *int64
	// Stdin holds the text of the previous stage's lines; nil for the first stage.
	Stdin []string
	// History is a snapshot of the session's command history.
	History []string
}

type handlerFunc func(ctx context.Context, sc *Context, args string) (*Result, error)

// Dispatcher executes resolved commands against a Store. It keeps no state
// between calls.
type Dispatcher struct {
	store    Store
	registry *Registry
	now      func() time.Time
	version  string
	handlers map[string]handlerFunc
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithRegistry replaces the default command registry.
func WithRegistry(r *Registry) DispatcherOption {
	return func(d *Dispatcher) {
		d.registry = r
	}
}

// WithClock sets the time source used by today and date formatting.
func WithClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) {
		d.now = now
	}
}

// WithVersion sets the string reported by the version command.
func WithVersion(v string) DispatcherOption {
	return func(d *Dispatcher) {
		d.version = v
	}
}

// NewDispatcher creates a dispatcher over store.
func NewDispatcher(store Store, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		store:    store,
		registry: DefaultRegistry(),
		now:      time.Now,
		version:  "dev",
	}
	for _, opt := range opts {
		opt(d)
	}
	d.handlers = map[string]handlerFunc{
		"new":     d.cmdNew,
		"open":    d.cmdOpen,
		"edit":    d.cmdEdit,
		"rename":  d.cmdRename,
		"today":   d.cmdToday,
		"mkdir":   d.cmdMkdir,
		"cd":      d.cmdCd,
		"pwd":     d.cmdPwd,
		"list":    d.cmdList,
		"pin":     d.cmdPin,
		"unpin":   d.cmdUnpin,
		"tag":     d.cmdTag,
		"tags":    d.cmdTags,
		"delete":  d.cmdDelete,
		"restore": d.cmdRestore,
		"trash":   d.cmdTrash,
		"purge":   d.cmdPurge,
		"search":  d.cmdSearch,
		"grep":    d.cmdGrep,
		"export":  d.cmdExport,
		"import":  d.cmdImport,
		"stats":   d.cmdStats,
		"config":  d.cmdConfig,
		"history": d.cmdHistory,
		"clear":   d.cmdClear,
		"version": d.cmdVersion,
		"help":    d.cmdHelp,
		"exit":    d.cmdExit,
	}
	return d
}

// Registry returns the command registry in use.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Dispatch resolves command and runs it with args in sc. Expected failures
// come back as error lines in the Result; a non-nil error means the store
// failed in a way the command could not handle.
func (d *Dispatcher) Dispatch(ctx context.Context, command, args string, sc *Context) (*Result, error) {
	if sc == nil {
		sc = &Context{}
	}
	name, ok := d.registry.Resolve(command)
	if !ok {
		return d.unknown(command), nil
	}
	h, ok := d.handlers[name]
	if !ok {
		return d.unknown(command), nil
	}
	res, err := h(ctx, sc, args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if res == nil {
		res = &Result{}
	}
	return res, nil
}

func (d *Dispatcher) unknown(token string) *Result {
	res := errorResult("command not found: %s", token)
	if s, ok := d.registry.Suggest(token); ok {
		res.Infof("did you mean '%s'?", s)
	}
	res.Dimf("type 'help' to see available commands")
	return res
}

// usageError reports invalid arguments with the command's usage and first example.
func (d *Dispatcher) usageError(name, format string, args ...any) *Result {
	res := errorResult(name+": "+format, args...)
	if c, ok := d.registry.Lookup(name); ok {
		res.Dimf("usage: %s", c.Usage)
		if len(c.Examples) > 0 {
			res.Dimf("example: %s", c.Examples[0])
		}
	}
	return res
}

// parseIDArg parses the id argument of name, or returns a usage error result.
func (d *Dispatcher) parseIDArg(name, args string) (int64, *Result) {
	word, _ := cutWord(args)
	if word == "" {
		return 0, d.usageError(name, "note id is required")
	}
	id, err := ParseID(word)
	if err != nil {
		return 0, d.usageError(name, "invalid note id %q", word)
	}
	return id, nil
}

// findNote resolves an id or a title. Titles match exactly (ignoring case)
// first, then by substring; the first hit in listing order wins. A nil note
// comes with a result describing why.
func (d *Dispatcher) findNote(ctx context.Context, name, args string) (*models.Note, *Result, error) {
	if strings.TrimSpace(args) == "" {
		return nil, d.usageError(name, "note id or title is required"), nil
	}
	if id, err := ParseID(args); err == nil {
		n, err := d.store.GetNote(ctx, id)
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, errorResult("%s: no note with id %d", name, id), nil
		}
		if err != nil {
			return nil, nil, err
		}
		return n, nil, nil
	}

	title, _ := ParseTitle(args)
	if title == "" {
		return nil, d.usageError(name, "note id or title is required"), nil
	}
	notes, err := d.store.ListNotes(ctx, false)
	if err != nil {
		return nil, nil, err
	}
	for i := range notes {
		if strings.EqualFold(notes[i].Title, title) {
			return &notes[i], nil, nil
		}
	}
	lower := strings.ToLower(title)
	for i := range notes {
		if strings.Contains(strings.ToLower(notes[i].Title), lower) {
			return &notes[i], nil, nil
		}
	}
	res := errorResult("%s: no note matching %q", name, title)
	res.Dimf("try: search %s", title)
	return nil, res, nil
}

// liveNote fetches a note by id and rejects trashed ones.
func (d *Dispatcher) liveNote(ctx context.Context, name string, id int64) (*models.Note, *Result, error) {
	n, err := d.store.GetNote(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, errorResult("%s: no note with id %d", name, id), nil
	}
	if err != nil {
		return nil, nil, err
	}
	if n.Deleted {
		return nil, trashedResult(name, n), nil
	}
	return n, nil, nil
}

func trashedResult(name string, n *models.Note) *Result {
	res := errorResult("%s: note #%d %q is in the trash", name, n.ID, n.Title)
	res.Dimf("restore it with: restore %d", n.ID)
	return res
}

// invalidResult turns a store validation error into an error line plus usage.
func (d *Dispatcher) invalidResult(name string, err error) *Result {
	msg := strings.TrimPrefix(err.Error(), apperr.ErrInvalid.Error()+": ")
	return d.usageError(name, "%s", msg)
}

func (d *Dispatcher) dateLayout(ctx context.Context) string {
	v, err := d.store.ConfigValue(ctx, "date_format")
	if err != nil {
		return dateLayouts["iso"]
	}
	if layout, ok := dateLayouts[v]; ok {
		return layout
	}
	return dateLayouts["iso"]
}

func noteLine(n *models.Note) Line {
	mark := " "
	if n.Pinned {
		mark = "*"
	}
	content := fmt.Sprintf("%s #%-4d %s", mark, n.ID, n.Title)
	if len(n.Tags) > 0 {
		content += "  " + hashTags(n.Tags)
	}
	return Line{
		Kind:    KindPlain,
		Content: content,
		Action:  &Action{Kind: ActionOpen, Payload: strconv.FormatInt(n.ID, 10)},
	}
}

func folderLine(f *models.Folder) Line {
	return Line{
		Kind:    KindHighlight,
		Content: f.Name + "/",
		Action:  &Action{Kind: ActionCd, Payload: f.Name},
	}
}

func hashTags(tags []string) string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = "#" + t
	}
	return strings.Join(out, " ")
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
