// Package shell implements the notesh command shell: the command registry,
// the line grammar, the dispatcher and the session that runs pipelines.
package shell

import (
	"fmt"
	"sort"
	"strings"
)

// Category groups commands in help output.
type Category int

const (
	CategoryNotes Category = iota
	CategoryNavigation
	CategoryOrganize
	CategoryTrash
	CategorySearch
	CategoryData
	CategorySystem
)

func (c Category) String() string {
	switch c {
	case CategoryNotes:
		return "Notes"
	case CategoryNavigation:
		return "Navigation"
	case CategoryOrganize:
		return "Organize"
	case CategoryTrash:
		return "Trash"
	case CategorySearch:
		return "Search"
	case CategoryData:
		return "Data"
	case CategorySystem:
		return "System"
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// Command describes one shell command.
type Command struct {
	Name        string
	Usage       string
	Description string
	Examples    []string
	Category    Category
	Aliases     []string
}

// DefaultCommands is the built-in command table, in help order.
var DefaultCommands = []Command{
	{
		Name: "new", Usage: `new "<title>" [#tag ...]`, Category: CategoryNotes,
		Description: "Create a note in the current folder and open it",
		Examples:    []string{`new "Meeting notes" #work`, `new Shopping list`},
		Aliases:     []string{"create", "touch", "add"},
	},
	{
		Name: "open", Usage: "open <id|title>", Category: CategoryNotes,
		Description: "Show a note by id or title",
		Examples:    []string{"open 12", `open "My Ideas"`},
		Aliases:     []string{"cat", "view", "show", "read"},
	},
	{
		Name: "edit", Usage: "edit <id|title>", Category: CategoryNotes,
		Description: "Open a note in the editor",
		Examples:    []string{"edit 12", `edit "My Ideas"`},
		Aliases:     []string{"vim", "vi", "nano"},
	},
	{
		Name: "rename", Usage: `rename <id> "<new title>"`, Category: CategoryNotes,
		Description: "Change a note's title",
		Examples:    []string{`rename 12 "Better title"`},
		Aliases:     []string{"mv"},
	},
	{
		Name: "today", Usage: "today", Category: CategoryNotes,
		Description: "Open today's daily note, creating it in the root folder if needed",
		Examples:    []string{"today"},
		Aliases:     []string{"daily", "journal"},
	},
	{
		Name: "mkdir", Usage: "mkdir <name>", Category: CategoryNavigation,
		Description: "Create a folder in the current folder",
		Examples:    []string{"mkdir projects"},
		Aliases:     []string{"md"},
	},
	{
		Name: "cd", Usage: "cd [folder|..|/|~]", Category: CategoryNavigation,
		Description: "Change the current folder",
		Examples:    []string{"cd projects", "cd ..", "cd /"},
		Aliases:     []string{"chdir"},
	},
	{
		Name: "pwd", Usage: "pwd", Category: CategoryNavigation,
		Description: "Print the current folder path",
		Examples:    []string{"pwd"},
	},
	{
		Name: "list", Usage: "list [folder]", Category: CategoryNavigation,
		Description: "List folders and notes in the current folder",
		Examples:    []string{"list", "list projects", "list | grep idea"},
		Aliases:     []string{"ls", "dir", "ll"},
	},
	{
		Name: "pin", Usage: "pin <id>", Category: CategoryOrganize,
		Description: "Pin a note to the top of listings",
		Examples:    []string{"pin 12"},
		Aliases:     []string{"star"},
	},
	{
		Name: "unpin", Usage: "unpin <id>", Category: CategoryOrganize,
		Description: "Unpin a note",
		Examples:    []string{"unpin 12"},
		Aliases:     []string{"unstar"},
	},
	{
		Name: "tag", Usage: "tag <id> <tag|-tag> ...", Category: CategoryOrganize,
		Description: "Add tags to a note, or remove them with a leading '-'",
		Examples:    []string{"tag 12 work urgent", "tag 12 -urgent"},
		Aliases:     []string{"label"},
	},
	{
		Name: "tags", Usage: "tags [tag]", Category: CategoryOrganize,
		Description: "List tags with counts, or the notes carrying one tag",
		Examples:    []string{"tags", "tags work"},
		Aliases:     []string{"labels"},
	},
	{
		Name: "delete", Usage: "delete <id>", Category: CategoryTrash,
		Description: "Move a note to the trash",
		Examples:    []string{"delete 12"},
		Aliases:     []string{"rm", "del", "remove"},
	},
	{
		Name: "restore", Usage: "restore <id>", Category: CategoryTrash,
		Description: "Bring a note back from the trash",
		Examples:    []string{"restore 12"},
		Aliases:     []string{"undelete", "recover"},
	},
	{
		Name: "trash", Usage: "trash", Category: CategoryTrash,
		Description: "List notes in the trash",
		Examples:    []string{"trash"},
		Aliases:     []string{"bin", "deleted"},
	},
	{
		Name: "purge", Usage: "purge <id|all>", Category: CategoryTrash,
		Description: "Permanently delete a trashed note, or empty the trash",
		Examples:    []string{"purge 12", "purge all"},
		Aliases:     []string{"shred"},
	},
	{
		Name: "search", Usage: "search <text>", Category: CategorySearch,
		Description: "Find notes whose title, body or tags contain text",
		Examples:    []string{"search roadmap", `search "due friday"`},
		Aliases:     []string{"find"},
	},
	{
		Name: "grep", Usage: "<command> | grep <pattern>", Category: CategorySearch,
		Description: "Keep only piped lines matching a pattern (case-insensitive)",
		Examples:    []string{"list | grep idea", "tags | grep work"},
		Aliases:     []string{"filter"},
	},
	{
		Name: "export", Usage: "export", Category: CategoryData,
		Description: "Export all notes, folders and settings to a JSON file",
		Examples:    []string{"export"},
		Aliases:     []string{"backup"},
	},
	{
		Name: "import", Usage: "import", Category: CategoryData,
		Description: "Import notes from an exported JSON file",
		Examples:    []string{"import"},
		Aliases:     []string{"load"},
	},
	{
		Name: "stats", Usage: "stats", Category: CategoryData,
		Description: "Show counts of notes, folders, tags and words",
		Examples:    []string{"stats"},
		Aliases:     []string{"info"},
	},
	{
		Name: "config", Usage: "config [key] [value]", Category: CategorySystem,
		Description: "List, read or change preferences",
		Examples:    []string{"config", "config theme", "config theme dracula"},
		Aliases:     []string{"settings", "set", "prefs"},
	},
	{
		Name: "history", Usage: "history", Category: CategorySystem,
		Description: "Show commands entered in this session",
		Examples:    []string{"history", "history | grep new"},
		Aliases:     []string{"hist"},
	},
	{
		Name: "clear", Usage: "clear", Category: CategorySystem,
		Description: "Clear the screen",
		Examples:    []string{"clear"},
		Aliases:     []string{"cls"},
	},
	{
		Name: "version", Usage: "version", Category: CategorySystem,
		Description: "Show the notesh version",
		Examples:    []string{"version"},
		Aliases:     []string{"ver"},
	},
	{
		Name: "help", Usage: "help [command]", Category: CategorySystem,
		Description: "List commands or describe one",
		Examples:    []string{"help", "help list"},
		Aliases:     []string{"?", "man", "commands"},
	},
	{
		Name: "exit", Usage: "exit", Category: CategorySystem,
		Description: "Leave the shell",
		Examples:    []string{"exit"},
		Aliases:     []string{"quit", "q"},
	},
}

// Registry is an ordered, immutable table of commands indexed by canonical
// name and alias.
type Registry struct {
	commands []Command
	byName   map[string]int
	byAlias  map[string]int
}

// NewRegistry builds a registry. Canonical names must be unique, and no alias
// may repeat or shadow a canonical name.
func NewRegistry(cmds []Command) (*Registry, error) {
	r := &Registry{
		commands: make([]Command, len(cmds)),
		byName:   make(map[string]int, len(cmds)),
		byAlias:  make(map[string]int),
	}
	copy(r.commands, cmds)

	for i, c := range r.commands {
		name := strings.ToLower(c.Name)
		if name == "" {
			return nil, fmt.Errorf("registry: command %d has no name", i)
		}
		if _, dup := r.byName[name]; dup {
			return nil, fmt.Errorf("registry: duplicate command %q", name)
		}
		r.byName[name] = i
	}
	for i, c := range r.commands {
		for _, a := range c.Aliases {
			a = strings.ToLower(a)
			if _, clash := r.byName[a]; clash {
				return nil, fmt.Errorf("registry: alias %q of %q shadows a command", a, c.Name)
			}
			if j, dup := r.byAlias[a]; dup {
				return nil, fmt.Errorf("registry: alias %q used by %q and %q", a, r.commands[j].Name, c.Name)
			}
			r.byAlias[a] = i
		}
	}
	return r, nil
}

// DefaultRegistry returns a registry over DefaultCommands.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultCommands)
	if err != nil {
		panic(err)
	}
	return r
}

// Resolve maps a typed token to its canonical command name: first by
// canonical name, then by alias. Matching ignores case. Unresolved tokens
// are returned unchanged with ok == false.
func (r *Registry) Resolve(token string) (name string, ok bool) {
	t := strings.ToLower(token)
	if i, found := r.byName[t]; found {
		return r.commands[i].Name, true
	}
	if i, found := r.byAlias[t]; found {
		return r.commands[i].Name, true
	}
	return token, false
}

// Lookup returns the command registered under a canonical name or alias.
func (r *Registry) Lookup(token string) (Command, bool) {
	name, ok := r.Resolve(token)
	if !ok {
		return Command{}, false
	}
	return r.commands[r.byName[name]], true
}

// Commands returns the table in registration order.
func (r *Registry) Commands() []Command {
	out := make([]Command, len(r.commands))
	copy(out, r.commands)
	return out
}

// Complete returns every name and alias starting with prefix, sorted.
func (r *Registry) Complete(prefix string) []string {
	prefix = strings.ToLower(prefix)
	var out []string
	for name := range r.byName {
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	for alias := range r.byAlias {
		if strings.HasPrefix(alias, prefix) {
			out = append(out, alias)
		}
	}
	sort.Strings(out)
	return out
}

// maxSuggestDistance is the largest approximate distance Suggest accepts.
const maxSuggestDistance = 2

// Suggest proposes a canonical command for a token that did not resolve.
//
// Candidates are tried in registry order: an alias equal to the lowercased
// token, then prefix containment in either direction (first hit wins), then
// the smallest approxDistance not above maxSuggestDistance, ties going to
// the earlier command.
func (r *Registry) Suggest(token string) (string, bool) {
	t := strings.ToLower(strings.TrimSpace(token))
	if t == "" {
		return "", false
	}
	for _, c := range r.commands {
		for _, a := range c.Aliases {
			if strings.ToLower(a) == t {
				return c.Name, true
			}
		}
	}
	for _, c := range r.commands {
		if strings.HasPrefix(c.Name, t) || strings.HasPrefix(t, c.Name) {
			return c.Name, true
		}
	}
	best, bestDist := "", maxSuggestDistance+1
	for _, c := range r.commands {
		if d := approxDistance(t, c.Name); d < bestDist {
			best, bestDist = c.Name, d
		}
	}
	return best, best != ""
}

// approxDistance counts positional mismatches over the shared prefix length
// plus the difference in length. It is not an edit distance: a transposition
// costs 2 and an insertion near the start shifts every later position.
func approxDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	n := min(len(ra), len(rb))
	d := 0
	for i := 0; i < n; i++ {
		if ra[i] != rb[i] {
			d++
		}
	}
	if len(ra) > len(rb) {
		return d + len(ra) - len(rb)
	}
	return d + len(rb) - len(ra)
}
