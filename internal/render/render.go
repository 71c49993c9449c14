package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/starford/notesh/internal/shell"
)

// Renderer writes shell output lines to a terminal.
type Renderer struct {
	theme Theme
	width int
	// Bell rings the terminal bell on error lines.
	Bell bool
}

// New creates a renderer for a theme name and wrap width.
func New(theme string, width int) *Renderer {
	if width <= 0 {
		width = 80
	}
	return &Renderer{theme: NewTheme(theme), width: width, Bell: true}
}

// SetTheme switches to another theme.
func (r *Renderer) SetTheme(name string) {
	r.theme = NewTheme(name)
}

// Theme returns the active theme.
func (r *Renderer) Theme() Theme {
	return r.theme
}

// Line renders one output line without a trailing newline.
func (r *Renderer) Line(l shell.Line) string {
	t := r.theme
	switch l.Kind {
	case shell.KindPrompt:
		return t.PromptStyle.Render(fmt.Sprintf("notesh:%s$", l.Path)) + " " + t.PlainStyle.Render(l.Content)
	case shell.KindError:
		return t.ErrorStyle.Render(l.Content)
	case shell.KindWarning:
		return t.WarningStyle.Render(l.Content)
	case shell.KindInfo:
		return t.InfoStyle.Render(l.Content)
	case shell.KindSuccess:
		return t.SuccessStyle.Render(l.Content)
	case shell.KindDim:
		return t.DimStyle.Render(l.Content)
	case shell.KindHighlight:
		return t.HighlightStyle.Render(l.Content)
	case shell.KindRichText:
		return Markdown(l.Content, r.width)
	}
	return t.PlainStyle.Render(l.Content)
}

// Write renders lines to w, one per line.
func (r *Renderer) Write(w io.Writer, lines []shell.Line) error {
	var b strings.Builder
	bell := false
	for _, l := range lines {
		b.WriteString(r.Line(l))
		b.WriteByte('\n')
		if l.Kind == shell.KindError {
			bell = true
		}
	}
	if bell && r.Bell {
		b.WriteByte('\a')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Markdown renders markdown text using Glamour. On failure the source is
// returned unchanged.
func Markdown(content string, width int) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	if width <= 0 {
		width = 80
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content
	}

	rendered, err := r.Render(content)
	if err != nil {
		return content
	}

	return strings.Trim(rendered, "\n")
}
