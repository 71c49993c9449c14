// Package repl is the interactive terminal front end: it reads lines with
// liner, runs them through a shell session and acts on the result flags.
package repl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/atomic"
	"github.com/peterh/liner"

	"github.com/starford/notesh/internal/metrics"
	"github.com/starford/notesh/internal/models"
	"github.com/starford/notesh/internal/render"
	"github.com/starford/notesh/internal/shell"
	"github.com/starford/notesh/internal/store"
)

// Store is what the front end needs beyond the session: snapshot transfer,
// saving edited bodies and reading display preferences.
type Store interface {
	Export(ctx context.Context) ([]byte, error)
	Import(ctx context.Context, data []byte) (*models.ImportSummary, error)
	UpdateNote(ctx context.Context, id int64, patch models.NotePatch) (*models.Note, error)
	ConfigValue(ctx context.Context, key string) (string, error)
}

// REPL is the interactive command loop.
type REPL struct {
	session  *shell.Session
	store    Store
	renderer *render.Renderer
	out      io.Writer
	logger   *slog.Logger
	now      func() time.Time

	exportDir   string
	editor      string
	historyPath string

	// runEditor opens path in an editor and waits for it to exit.
	runEditor func(ctx context.Context, path string) error
	// ask reads one line of input for follow-up questions.
	ask func(prompt string) (string, error)

	pendingUndo *shell.UndoToken
	liner       *liner.State
}

// Option configures a REPL.
type Option func(*REPL)

// WithOutput sets where rendered output goes.
func WithOutput(w io.Writer) Option {
	return func(r *REPL) { r.out = w }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *REPL) { r.logger = l }
}

// WithExportDir sets the directory exports are written to.
func WithExportDir(dir string) Option {
	return func(r *REPL) { r.exportDir = dir }
}

// WithEditor sets the editor command used when no preference is stored.
func WithEditor(cmd string) Option {
	return func(r *REPL) { r.editor = cmd }
}

// WithHistoryFile persists liner history at path; empty disables it.
func WithHistoryFile(path string) Option {
	return func(r *REPL) { r.historyPath = path }
}

// WithEditorRunner replaces the external editor launcher.
func WithEditorRunner(fn func(ctx context.Context, path string) error) Option {
	return func(r *REPL) { r.runEditor = fn }
}

// WithAsk replaces the follow-up question reader.
func WithAsk(fn func(prompt string) (string, error)) Option {
	return func(r *REPL) { r.ask = fn }
}

// WithClock sets the time source for export file names.
func WithClock(now func() time.Time) Option {
	return func(r *REPL) { r.now = now }
}

// New creates a REPL over session and st.
func New(session *shell.Session, st Store, opts ...Option) *REPL {
	r := &REPL{
		session:   session,
		store:     st,
		renderer:  render.New("default", 80),
		out:       os.Stdout,
		logger:    slog.Default(),
		now:       time.Now,
		exportDir: ".",
	}
	r.runEditor = r.execEditor
	r.ask = r.prompt
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run starts the REPL loop. It returns when the user exits, on Ctrl-C or
// EOF, or when ctx is cancelled between commands.
func (r *REPL) Run(ctx context.Context) error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(func(line string) []string {
		return r.complete(ctx, line)
	})

	if r.historyPath != "" {
		if f, err := os.Open(r.historyPath); err == nil {
			r.liner.ReadHistory(f)
			f.Close()
		}
	}
	for _, h := range r.session.History() {
		r.liner.AppendHistory(h)
	}
	defer r.saveHistory()

	r.applyPreferences(ctx)
	fmt.Fprintln(r.out, r.renderer.Theme().HighlightStyle.Render("notesh"), "- type 'help' for commands, 'exit' to leave")

	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := r.liner.Prompt(r.session.Prompt())
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out)
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		r.liner.AppendHistory(strings.TrimSpace(line))

		done, err := r.Submit(ctx, line)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// Submit runs one line and reacts to the result. It reports whether the
// user asked to leave.
func (r *REPL) Submit(ctx context.Context, line string) (bool, error) {
	if strings.EqualFold(strings.TrimSpace(line), "undo") && r.pendingUndo != nil {
		line = fmt.Sprintf("restore %d", r.pendingUndo.ID)
		r.pendingUndo = nil
	}

	res, err := r.session.Execute(ctx, line)
	if err != nil {
		return false, err
	}
	if res == nil {
		return false, nil
	}
	return r.handle(ctx, res), nil
}

func (r *REPL) handle(ctx context.Context, res *shell.Result) bool {
	if res.Clear {
		fmt.Fprint(r.out, "\033[H\033[2J")
	}
	r.applyPreferences(ctx)
	r.print(res.Lines)

	if res.Undo != nil {
		r.pendingUndo = res.Undo
		r.dim("type 'undo' to restore #%d", res.Undo.ID)
	}
	if res.OpenEditor != nil {
		r.edit(ctx, res.OpenEditor)
	}
	if res.Export {
		r.export(ctx)
	}
	if res.Import {
		r.importFile(ctx)
	}
	return res.Exit
}

// edit writes the note body to a temp file, opens the editor on it and
// stores the result if it changed.
func (r *REPL) edit(ctx context.Context, req *shell.EditorRequest) {
	f, err := os.CreateTemp("", "notesh-*.md")
	if err != nil {
		r.fail("edit: %v", err)
		return
	}
	path := f.Name()
	defer os.Remove(path)
	_, err = f.WriteString(req.Note.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		r.fail("edit: %v", err)
		return
	}

	if err := r.runEditor(ctx, path); err != nil {
		r.fail("edit: editor failed: %v", err)
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		r.fail("edit: %v", err)
		return
	}
	body := string(data)
	if body == req.Note.Body {
		r.dim("no changes to #%d", req.Note.ID)
		return
	}
	if _, err := r.store.UpdateNote(ctx, req.Note.ID, models.NotePatch{Body: &body}); err != nil {
		r.fail("edit: save #%d: %v", req.Note.ID, err)
		return
	}
	r.print([]shell.Line{{Kind: shell.KindSuccess, Content: fmt.Sprintf("saved #%d %q", req.Note.ID, req.Note.Title)}})
}

func (r *REPL) export(ctx context.Context) {
	data, err := r.store.Export(ctx)
	if err != nil {
		r.fail("export: %v", err)
		return
	}
	if err := os.MkdirAll(r.exportDir, 0o755); err != nil {
		r.fail("export: %v", err)
		return
	}
	name := fmt.Sprintf("notesh-export-%s.json", r.now().Format("20060102-150405"))
	path := filepath.Join(r.exportDir, name)
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		r.fail("export: %v", err)
		return
	}
	r.logger.Info("exported snapshot", "path", path, "bytes", len(data))
	r.print([]shell.Line{{Kind: shell.KindSuccess, Content: "exported to " + path}})
}

func (r *REPL) importFile(ctx context.Context) {
	path, err := r.ask("file to import: ")
	if err != nil {
		r.dim("import cancelled")
		return
	}
	path = strings.Trim(strings.TrimSpace(path), `"'`)
	if path == "" {
		r.dim("import cancelled")
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		r.fail("import: %v", err)
		return
	}
	if info.Size() > store.MaxImportSize {
		r.fail("import: %s is too large (%d bytes, limit %d)", path, info.Size(), store.MaxImportSize)
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		r.fail("import: %v", err)
		return
	}
	sum, err := r.store.Import(ctx, data)
	metrics.RecordImport("shell", err == nil)
	if err != nil {
		r.fail("import: %v", err)
		return
	}
	r.logger.Info("imported snapshot", "path", path, "imported", sum.Imported, "skipped", sum.Skipped, "duplicates", sum.Duplicates)
	r.print([]shell.Line{{
		Kind:    shell.KindSuccess,
		Content: fmt.Sprintf("imported %d notes (%d skipped, %d renamed duplicates)", sum.Imported, sum.Skipped, sum.Duplicates),
	}})
}

// applyPreferences syncs theme and sound with the stored preferences.
func (r *REPL) applyPreferences(ctx context.Context) {
	if theme, err := r.store.ConfigValue(ctx, "theme"); err == nil && theme != r.renderer.Theme().Name {
		r.renderer.SetTheme(theme)
	}
	if sound, err := r.store.ConfigValue(ctx, "sound"); err == nil {
		r.renderer.Bell = sound != "off"
	}
}

// editorCommand picks the editor: stored preference, then configured
// default, then $EDITOR, then vi.
func (r *REPL) editorCommand(ctx context.Context) []string {
	candidates := []string{"", r.editor, os.Getenv("EDITOR"), "vi"}
	if pref, err := r.store.ConfigValue(ctx, "editor"); err == nil {
		candidates[0] = pref
	}
	for _, c := range candidates {
		if f := strings.Fields(c); len(f) > 0 {
			return f
		}
	}
	return []string{"vi"}
}

func (r *REPL) execEditor(ctx context.Context, path string) error {
	argv := append(r.editorCommand(ctx), path)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func (r *REPL) prompt(p string) (string, error) {
	if r.liner == nil {
		return "", io.EOF
	}
	return r.liner.Prompt(p)
}

// complete offers command names for the first word and note titles after it.
func (r *REPL) complete(ctx context.Context, line string) []string {
	head, tail, found := strings.Cut(line, " ")
	registry := r.session.Registry()
	if !found {
		return registry.Complete(head)
	}
	name, ok := registry.Resolve(head)
	if !ok {
		return nil
	}
	switch name {
	case "open", "edit":
	default:
		return nil
	}
	titles, err := r.session.Titles(ctx)
	if err != nil {
		return nil
	}
	prefix := strings.TrimLeft(strings.TrimLeft(tail, " "), `"`)
	var out []string
	for _, t := range titles {
		if strings.HasPrefix(strings.ToLower(t.Title), strings.ToLower(prefix)) {
			out = append(out, fmt.Sprintf(`%s "%s"`, head, t.Title))
		}
	}
	return out
}

func (r *REPL) saveHistory() {
	if r.historyPath == "" {
		return
	}
	if f, err := os.Create(r.historyPath); err == nil {
		r.liner.WriteHistory(f)
		f.Close()
	}
}

func (r *REPL) print(lines []shell.Line) {
	if err := r.renderer.Write(r.out, lines); err != nil {
		r.logger.Error("write output", "error", err)
	}
}

func (r *REPL) fail(format string, args ...any) {
	r.logger.Warn("front end action failed", "error", fmt.Sprintf(format, args...))
	r.print([]shell.Line{{Kind: shell.KindError, Content: fmt.Sprintf(format, args...)}})
}

func (r *REPL) dim(format string, args ...any) {
	r.print([]shell.Line{{Kind: shell.KindDim, Content: fmt.Sprintf(format, args...)}})
}
