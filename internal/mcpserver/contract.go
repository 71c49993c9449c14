package mcpserver

import (
	"fmt"
	"strings"

	"github.com/starford/notesh/internal/shell"
)

// CommandReference renders the shell command table as Markdown so a model
// can suggest commands a user can type.
func CommandReference(reg *shell.Registry) string {
	var b strings.Builder
	b.WriteString("# notesh Command Reference\n\n")
	b.WriteString("Commands can be chained with `|`; each stage receives the previous stage's output lines.\n")

	var current shell.Category = -1
	for _, c := range reg.Commands() {
		if c.Category != current {
			current = c.Category
			fmt.Fprintf(&b, "\n## %s\n\n", current)
		}
		fmt.Fprintf(&b, "- `%s` %s", c.Usage, c.Description)
		if len(c.Aliases) > 0 {
			fmt.Fprintf(&b, " (aliases: %s)", strings.Join(c.Aliases, ", "))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
