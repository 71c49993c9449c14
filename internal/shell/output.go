package shell

import (
	"fmt"
	"time"

	"github.com/starford/notesh/internal/models"
)

// Kind classifies an output line for the display layer.
type Kind int

const (
	KindPrompt Kind = iota
	KindPlain
	KindError
	KindWarning
	KindInfo
	KindSuccess
	KindDim
	KindRichText
	KindHighlight
)

var kindNames = [...]string{
	KindPrompt:    "prompt",
	KindPlain:     "plain",
	KindError:     "error",
	KindWarning:   "warning",
	KindInfo:      "info",
	KindSuccess:   "success",
	KindDim:       "dim",
	KindRichText:  "richText",
	KindHighlight: "highlight",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// MarshalText lets kinds serialize by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ActionKind is what activating a line does.
type ActionKind int

const (
	ActionOpen ActionKind = iota + 1
	ActionCd
	ActionRun
)

func (a ActionKind) String() string {
	switch a {
	case ActionOpen:
		return "open"
	case ActionCd:
		return "cd"
	case ActionRun:
		return "run"
	}
	return fmt.Sprintf("ActionKind(%d)", int(a))
}

// Action makes a line activatable: open a note, enter a folder, or run a command line.
type Action struct {
	Kind    ActionKind
	Payload string
}

// Command returns the shell command line equivalent to activating the action.
func (a Action) Command() string {
	switch a.Kind {
	case ActionOpen:
		return "open " + a.Payload
	case ActionCd:
		return `cd "` + a.Payload + `"`
	}
	return a.Payload
}

// Line is one unit of shell output. Prompt lines carry the path the
// command was typed in.
type Line struct {
	Kind      Kind
	Content   string
	Path      string
	Timestamp time.Time
	Action    *Action
}

// EditorRequest asks the front end to open a note for editing.
type EditorRequest struct {
	Note  models.Note
	IsNew bool
}

// UndoToken identifies a deletion the front end may offer to undo.
type UndoToken struct {
	ID    int64
	Title string
}

// Result is what a dispatched command produces: output lines plus
// side-effect requests for the front end.
type Result struct {
	Lines      []Line
	OpenEditor *EditorRequest
	Clear      bool
	Export     bool
	Import     bool
	Undo       *UndoToken
	Exit       bool
}

// HasError reports whether any line is an error. Warnings do not count.
func (r *Result) HasError() bool {
	for _, l := range r.Lines {
		if l.Kind == KindError {
			return true
		}
	}
	return false
}

// Contents returns the text of every line, dropping kinds and actions.
func (r *Result) Contents() []string {
	out := make([]string, len(r.Lines))
	for i, l := range r.Lines {
		out[i] = l.Content
	}
	return out
}

// Add appends lines verbatim.
func (r *Result) Add(lines ...Line) {
	r.Lines = append(r.Lines, lines...)
}

func (r *Result) addf(kind Kind, format string, args ...any) {
	r.Lines = append(r.Lines, Line{Kind: kind, Content: fmt.Sprintf(format, args...)})
}

func (r *Result) Plainf(format string, args ...any)     { r.addf(KindPlain, format, args...) }
func (r *Result) Errorf(format string, args ...any)     { r.addf(KindError, format, args...) }
func (r *Result) Warnf(format string, args ...any)      { r.addf(KindWarning, format, args...) }
func (r *Result) Infof(format string, args ...any)      { r.addf(KindInfo, format, args...) }
func (r *Result) Successf(format string, args ...any)   { r.addf(KindSuccess, format, args...) }
func (r *Result) Dimf(format string, args ...any)       { r.addf(KindDim, format, args...) }
func (r *Result) Highlightf(format string, args ...any) { r.addf(KindHighlight, format, args...) }

// Rich appends markdown content rendered by the display layer.
func (r *Result) Rich(content string) {
	r.Lines = append(r.Lines, Line{Kind: KindRichText, Content: content})
}

func errorResult(format string, args ...any) *Result {
	r := &Result{}
	r.Errorf(format, args...)
	return r
}
