package shell

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/starford/notesh/internal/metrics"
	"github.com/starford/notesh/internal/models"
)

// ErrBusy is returned by Execute while another line is still running.
var ErrBusy = errors.New("shell is busy")

// DefaultOutputLimit is how many lines the visible output log keeps.
const DefaultOutputLimit = 2000

// Session is one running shell: current folder, command history and the
// visible output log. Execute runs one line at a time; a submission made
// while a line is in flight is rejected with ErrBusy.
type Session struct {
	dispatcher *Dispatcher
	logger     *slog.Logger
	now        func() time.Time

	maxInput    int
	outputLimit int
	observe     func(PipelineEvent)

	running atomic.Bool

	mu      sync.Mutex
	history *History
	cwd     *int64
	path    string
	output  []Line
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = l
	}
}

// WithHistoryLimit bounds the command history.
func WithHistoryLimit(n int) SessionOption {
	return func(s *Session) {
		s.history = NewHistory(n)
	}
}

// WithMaxInputLength sets the longest accepted line, in characters.
func WithMaxInputLength(n int) SessionOption {
	return func(s *Session) {
		if n > 0 {
			s.maxInput = n
		}
	}
}

// WithOutputLimit bounds the visible output log.
func WithOutputLimit(n int) SessionOption {
	return func(s *Session) {
		if n > 0 {
			s.outputLimit = n
		}
	}
}

// PipelineEvent describes one executed line for observers.
type PipelineEvent struct {
	Line string
	// Commands holds each stage's resolved command name, or the raw word
	// when it did not resolve.
	Commands []string
	Failed   bool
	Duration time.Duration
}

// WithObserver registers fn to be called after every executed line.
// fn runs on the executing goroutine and must not call back into the session.
func WithObserver(fn func(PipelineEvent)) SessionOption {
	return func(s *Session) {
		s.observe = fn
	}
}

// NewSession creates a session at the root folder.
func NewSession(d *Dispatcher, opts ...SessionOption) *Session {
	s := &Session{
		dispatcher:  d,
		logger:      slog.Default(),
		now:         d.now,
		maxInput:    DefaultMaxInputLength,
		outputLimit: DefaultOutputLimit,
		history:     NewHistory(DefaultHistoryLimit),
		path:        "/",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Execute runs one submitted line. A blank line is a no-op and returns a
// nil Result. Otherwise the line is echoed to the output log, recorded in
// history and run as a pipeline: each stage gets the previous stage's line
// contents as stdin, and the first stage producing an error line ends the
// pipeline with its own result. Store failures and panics become a single
// error line; Execute itself only fails with ErrBusy.
func (s *Session) Execute(ctx context.Context, raw string) (*Result, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer s.running.Store(false)

	s.mu.Lock()
	defer s.mu.Unlock()

	line := strings.TrimSpace(raw)
	if line == "" {
		return nil, nil
	}
	if n := utf8.RuneCountInString(line); n > s.maxInput {
		res := errorResult("input too long: %d characters (max %d)", n, s.maxInput)
		s.appendOutput(res.Lines)
		return res, nil
	}

	start := time.Now()
	s.appendOutput([]Line{{Kind: KindPrompt, Content: line, Path: s.path, Timestamp: s.now()}})
	s.history.Push(line)

	stages := SplitPipeline(line)
	res := s.runPipeline(ctx, stages)
	elapsed := time.Since(start)
	metrics.RecordPipeline(len(stages), elapsed)
	status := "ok"
	if res.HasError() {
		status = "error"
	}
	s.logger.Debug("pipeline executed", "stages", len(stages), "duration", elapsed, "status", status)
	if s.observe != nil {
		s.observe(PipelineEvent{
			Line:     line,
			Commands: s.stageCommands(stages),
			Failed:   res.HasError(),
			Duration: elapsed,
		})
	}

	s.refreshPath(ctx)
	if res.Clear {
		s.output = nil
	} else {
		s.appendOutput(res.Lines)
	}
	return res, nil
}

func (s *Session) runPipeline(ctx context.Context, stages []string) *Result {
	for _, st := range stages {
		if st == "" {
			return errorResult("syntax error: empty command in pipeline")
		}
	}

	var (
		res   *Result
		stdin []string
	)
	for i, st := range stages {
		p, err := ParseLine(st, 0)
		if err != nil {
			return errorResult("%v", err)
		}
		sc := &Context{Cwd: s.cwd, Stdin: stdin, History: s.history.Entries()}
		res = s.runStage(ctx, p, sc)
		s.cwd = sc.Cwd

		if res.HasError() {
			s.logger.Debug("pipeline stopped", "stage", i+1, "command", p.Command)
			return res
		}
		stdin = res.Contents()
	}
	return res
}

func (s *Session) stageCommands(stages []string) []string {
	names := make([]string, 0, len(stages))
	for _, st := range stages {
		p, err := ParseLine(st, 0)
		if err != nil || p.Command == "" {
			continue
		}
		name, _ := s.dispatcher.Registry().Resolve(p.Command)
		names = append(names, name)
	}
	return names
}

// runStage dispatches one stage, converting errors and panics into an error line.
func (s *Session) runStage(ctx context.Context, p Parsed, sc *Context) (res *Result) {
	name, resolved := s.dispatcher.Registry().Resolve(p.Command)
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("command panicked", "command", name, "panic", r)
			metrics.RecordFault()
			res = errorResult("%s: internal error: %v", name, r)
		}
		metrics.RecordCommand(name, resolved, res.HasError())
	}()

	res, err := s.dispatcher.Dispatch(ctx, p.Command, p.Args, sc)
	if err != nil {
		s.logger.Error("command failed", "command", name, "error", err)
		metrics.RecordFault()
		return errorResult("%v", err)
	}
	return res
}

// refreshPath recomputes the display path. A current folder that no longer
// resolves sends the session back to the root.
func (s *Session) refreshPath(ctx context.Context) {
	path, err := s.dispatcher.Path(ctx, s.cwd)
	if err != nil {
		s.logger.Warn("current folder lost, returning to root", "error", err)
		s.cwd = nil
		path = "/"
	}
	s.path = path
}

func (s *Session) appendOutput(lines []Line) {
	s.output = append(s.output, lines...)
	if over := len(s.output) - s.outputLimit; over > 0 {
		s.output = append([]Line(nil), s.output[over:]...)
	}
}

// IsProcessing reports whether a line is executing.
func (s *Session) IsProcessing() bool {
	return s.running.Load()
}

// History returns the remembered commands, oldest first.
func (s *Session) History() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Entries()
}

// HistoryPrev steps the history cursor back.
func (s *Session) HistoryPrev() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Prev()
}

// HistoryNext steps the history cursor forward.
func (s *Session) HistoryNext() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Next()
}

// Cwd returns the current folder id; nil is the root.
func (s *Session) Cwd() *int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cwd == nil {
		return nil
	}
	id := *s.cwd
	return &id
}

// Path returns the current folder as a display path.
func (s *Session) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// Prompt renders the input prompt for the current folder.
func (s *Session) Prompt() string {
	return fmt.Sprintf("notesh:%s$ ", s.Path())
}

// Output returns a copy of the visible output log.
func (s *Session) Output() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Line, len(s.output))
	copy(out, s.output)
	return out
}

// ClearOutput wipes the visible output log.
func (s *Session) ClearOutput() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.output = nil
}

// Registry returns the command registry the session dispatches through.
func (s *Session) Registry() *Registry {
	return s.dispatcher.Registry()
}

// Titles lists live note titles for completion.
func (s *Session) Titles(ctx context.Context) ([]models.NoteTitle, error) {
	return s.dispatcher.store.NoteTitles(ctx)
}

// Reset returns the session to the root with empty history and output.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history.Clear()
	s.cwd = nil
	s.path = "/"
	s.output = nil
}
