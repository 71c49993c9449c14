package shell

import (
	"strings"
	"testing"
)

func TestDefaultRegistryResolvesAliases(t *testing.T) {
	r := DefaultRegistry()
	for _, c := range r.Commands() {
		if got, ok := r.Resolve(c.Name); !ok || got != c.Name {
			t.Errorf("Resolve(%q) = %q, %v", c.Name, got, ok)
		}
		for _, a := range c.Aliases {
			if got, ok := r.Resolve(a); !ok || got != c.Name {
				t.Errorf("Resolve(%q) = %q, %v; want %q", a, got, ok, c.Name)
			}
		}
	}
}

func TestResolve(t *testing.T) {
	r := DefaultRegistry()
	tests := []struct {
		token string
		want  string
		ok    bool
	}{
		{"rm", "delete", true},
		{"ls", "list", true},
		{"LS", "list", true},
		{"Delete", "delete", true},
		{"?", "help", true},
		{"badcmd", "badcmd", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := r.Resolve(tt.token)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Resolve(%q) = %q, %v; want %q, %v", tt.token, got, ok, tt.want, tt.ok)
		}
	}
}

func TestNewRegistryRejectsCollisions(t *testing.T) {
	tests := []struct {
		name string
		cmds []Command
	}{
		{"duplicate name", []Command{{Name: "a"}, {Name: "A"}}},
		{"alias shadows name", []Command{{Name: "a"}, {Name: "b", Aliases: []string{"a"}}}},
		{"alias reused", []Command{{Name: "a", Aliases: []string{"x"}}, {Name: "b", Aliases: []string{"x"}}}},
		{"empty name", []Command{{Name: ""}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewRegistry(tt.cmds); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestSuggest(t *testing.T) {
	r := DefaultRegistry()
	tests := []struct {
		token string
		want  string
		ok    bool
	}{
		{"rm", "delete", true},
		{"sea", "search", true},
		{"pinn", "pin", true},
		{"opne", "open", true},
		// positional mismatches: a transposition costs 2 and ties go to
		// the earlier command, so "lsit" lands on edit rather than list.
		{"lsit", "edit", true},
		{"xyzzy", "", false},
		{"   ", "", false},
	}
	for _, tt := range tests {
		got, ok := r.Suggest(tt.token)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Suggest(%q) = %q, %v; want %q, %v", tt.token, got, ok, tt.want, tt.ok)
		}
	}
}

func TestApproxDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"list", "list", 0},
		{"lst", "list", 3},
		{"opne", "open", 2},
		{"", "pwd", 3},
	}
	for _, tt := range tests {
		if got := approxDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("approxDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestComplete(t *testing.T) {
	r := DefaultRegistry()
	got := strings.Join(r.Complete("pu"), ",")
	if got != "purge" {
		t.Errorf("Complete(pu) = %s", got)
	}
	got = strings.Join(r.Complete("re"), ",")
	if got != "read,recover,remove,rename,restore" {
		t.Errorf("Complete(re) = %s", got)
	}
}

func TestCommandsGroupedByCategory(t *testing.T) {
	seen := map[Category]bool{}
	var last Category = -1
	for _, c := range DefaultRegistry().Commands() {
		if c.Category != last {
			if seen[c.Category] {
				t.Fatalf("category %s is split in the command table", c.Category)
			}
			seen[c.Category] = true
			last = c.Category
		}
		if c.Usage == "" || c.Description == "" || len(c.Examples) == 0 {
			t.Errorf("command %q is missing help text", c.Name)
		}
	}
}
