// Package render turns shell output lines into styled terminal text.
package render

import "github.com/charmbracelet/lipgloss"

// Palette holds the colors of one theme.
type Palette struct {
	Prompt    lipgloss.Color
	Text      lipgloss.Color
	Error     lipgloss.Color
	Warning   lipgloss.Color
	Info      lipgloss.Color
	Success   lipgloss.Color
	Dim       lipgloss.Color
	Highlight lipgloss.Color
}

// palettes maps the theme preference to colors.
var palettes = map[string]Palette{
	"default": {
		Prompt:    lipgloss.Color("#7C3AED"),
		Text:      lipgloss.Color("#E5E7EB"),
		Error:     lipgloss.Color("#EF4444"),
		Warning:   lipgloss.Color("#F59E0B"),
		Info:      lipgloss.Color("#06B6D4"),
		Success:   lipgloss.Color("#10B981"),
		Dim:       lipgloss.Color("#6B7280"),
		Highlight: lipgloss.Color("#A78BFA"),
	},
	"dracula": {
		Prompt:    lipgloss.Color("#BD93F9"),
		Text:      lipgloss.Color("#F8F8F2"),
		Error:     lipgloss.Color("#FF5555"),
		Warning:   lipgloss.Color("#FFB86C"),
		Info:      lipgloss.Color("#8BE9FD"),
		Success:   lipgloss.Color("#50FA7B"),
		Dim:       lipgloss.Color("#6272A4"),
		Highlight: lipgloss.Color("#FF79C6"),
	},
	"nord": {
		Prompt:    lipgloss.Color("#88C0D0"),
		Text:      lipgloss.Color("#ECEFF4"),
		Error:     lipgloss.Color("#BF616A"),
		Warning:   lipgloss.Color("#EBCB8B"),
		Info:      lipgloss.Color("#81A1C1"),
		Success:   lipgloss.Color("#A3BE8C"),
		Dim:       lipgloss.Color("#4C566A"),
		Highlight: lipgloss.Color("#8FBCBB"),
	},
	"solarized": {
		Prompt:    lipgloss.Color("#268BD2"),
		Text:      lipgloss.Color("#839496"),
		Error:     lipgloss.Color("#DC322F"),
		Warning:   lipgloss.Color("#B58900"),
		Info:      lipgloss.Color("#2AA198"),
		Success:   lipgloss.Color("#859900"),
		Dim:       lipgloss.Color("#586E75"),
		Highlight: lipgloss.Color("#D33682"),
	},
	"matrix": {
		Prompt:    lipgloss.Color("#00FF41"),
		Text:      lipgloss.Color("#00CC33"),
		Error:     lipgloss.Color("#FF3333"),
		Warning:   lipgloss.Color("#CCFF00"),
		Info:      lipgloss.Color("#33FF99"),
		Success:   lipgloss.Color("#00FF41"),
		Dim:       lipgloss.Color("#006622"),
		Highlight: lipgloss.Color("#66FF66"),
	},
	"amber": {
		Prompt:    lipgloss.Color("#FFB000"),
		Text:      lipgloss.Color("#FFCC66"),
		Error:     lipgloss.Color("#FF5500"),
		Warning:   lipgloss.Color("#FFDD00"),
		Info:      lipgloss.Color("#FFC040"),
		Success:   lipgloss.Color("#FFE080"),
		Dim:       lipgloss.Color("#996A00"),
		Highlight: lipgloss.Color("#FFD966"),
	},
}

// PaletteFor returns the named palette, falling back to "default".
func PaletteFor(theme string) Palette {
	if p, ok := palettes[theme]; ok {
		return p
	}
	return palettes["default"]
}

// Theme is a palette with its prebuilt styles.
type Theme struct {
	Name    string
	Palette Palette

	PromptStyle    lipgloss.Style
	PlainStyle     lipgloss.Style
	ErrorStyle     lipgloss.Style
	WarningStyle   lipgloss.Style
	InfoStyle      lipgloss.Style
	SuccessStyle   lipgloss.Style
	DimStyle       lipgloss.Style
	HighlightStyle lipgloss.Style
}

// NewTheme builds the styles for a theme name.
func NewTheme(name string) Theme {
	if _, ok := palettes[name]; !ok {
		name = "default"
	}
	p := palettes[name]
	return Theme{
		Name:    name,
		Palette: p,

		PromptStyle: lipgloss.NewStyle().
			Foreground(p.Prompt).
			Bold(true),
		PlainStyle: lipgloss.NewStyle().
			Foreground(p.Text),
		ErrorStyle: lipgloss.NewStyle().
			Foreground(p.Error).
			Bold(true),
		WarningStyle: lipgloss.NewStyle().
			Foreground(p.Warning),
		InfoStyle: lipgloss.NewStyle().
			Foreground(p.Info),
		SuccessStyle: lipgloss.NewStyle().
			Foreground(p.Success),
		DimStyle: lipgloss.NewStyle().
			Foreground(p.Dim),
		HighlightStyle: lipgloss.NewStyle().
			Foreground(p.Highlight).
			Bold(true),
	}
}
