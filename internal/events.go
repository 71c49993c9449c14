package internal

import (
	"time"

	"github.com/starford/notesh/internal/models"
	"github.com/starford/notesh/internal/shell"
	"github.com/starford/notesh/internal/sse"
)

// mutating lists the commands that can change notes or folders. export and
// import are included because the front end acts on their flags.
var mutating = map[string]bool{
	"new": true, "edit": true, "rename": true, "today": true,
	"mkdir": true, "pin": true, "unpin": true, "tag": true,
	"delete": true, "restore": true, "purge": true, "import": true,
}

// startEvents creates the SSE broker; it is closed with the runtime.
func (rt *runtime) startEvents() {
	rt.events = sse.NewBroker(2 * time.Second)
	rt.closers = append(rt.closers, closerFunc(rt.events.Close))
}

type closerFunc func()

func (f closerFunc) Close() error {
	f()
	return nil
}

func publishPipeline(b *sse.Broker, ev shell.PipelineEvent) {
	changed := false
	if !ev.Failed {
		for _, c := range ev.Commands {
			changed = changed || mutating[c]
		}
	}
	b.Publish(sse.Event{
		Type: "command.executed",
		Data: map[string]any{
			"line":        ev.Line,
			"commands":    ev.Commands,
			"failed":      ev.Failed,
			"duration_ms": ev.Duration.Milliseconds(),
		},
		Changed: changed,
	})
}

func publishImport(b *sse.Broker, path string, sum *models.ImportSummary, err error) {
	if err != nil {
		b.Publish(sse.Event{
			Type: "inbox.failed",
			Data: map[string]string{"path": path, "error": err.Error()},
		})
		return
	}
	b.Publish(sse.Event{
		Type:    "inbox.imported",
		Data:    map[string]any{"path": path, "summary": sum},
		Changed: true,
	})
}
