package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/starford/notesh/internal/shell"
)

func TestEveryThemeHasPalette(t *testing.T) {
	for _, name := range shell.Themes {
		if _, ok := palettes[name]; !ok {
			t.Errorf("theme %q has no palette", name)
		}
		if got := NewTheme(name).Name; got != name {
			t.Errorf("NewTheme(%q).Name = %q", name, got)
		}
	}
	if len(palettes) != len(shell.Themes) {
		t.Errorf("%d palettes for %d themes", len(palettes), len(shell.Themes))
	}
}

func TestUnknownThemeFallsBack(t *testing.T) {
	if got := NewTheme("neon").Name; got != "default" {
		t.Errorf("NewTheme(neon).Name = %q", got)
	}
	if PaletteFor("neon") != palettes["default"] {
		t.Error("PaletteFor(neon) should be the default palette")
	}
}

func TestWriteKeepsContent(t *testing.T) {
	r := New("nord", 60)
	lines := []shell.Line{
		{Kind: shell.KindPrompt, Content: "list", Path: "/work"},
		{Kind: shell.KindPlain, Content: "#1 Standup"},
		{Kind: shell.KindError, Content: "boom"},
	}
	var buf bytes.Buffer
	if err := r.Write(&buf, lines); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"notesh:/work$", "list", "#1 Standup", "boom", "\a"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %q", want, out)
		}
	}

	buf.Reset()
	r.Bell = false
	r.Write(&buf, lines)
	if strings.Contains(buf.String(), "\a") {
		t.Error("bell rang with Bell disabled")
	}
}

func TestMarkdown(t *testing.T) {
	if got := Markdown("   ", 40); got != "" {
		t.Errorf("blank markdown = %q", got)
	}
	if got := Markdown("# Title\n\nsome **bold** text", 40); !strings.Contains(got, "bold") {
		t.Errorf("rendered markdown lost text: %q", got)
	}
}
