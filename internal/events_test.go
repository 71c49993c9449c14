package internal

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/starford/notesh/internal/models"
	"github.com/starford/notesh/internal/shell"
	"github.com/starford/notesh/internal/sse"
)

func drain(ch chan []byte) []string {
	time.Sleep(50 * time.Millisecond)
	var out []string
	for {
		select {
		case msg := <-ch:
			out = append(out, string(msg))
		default:
			return out
		}
	}
}

func TestPublishPipeline(t *testing.T) {
	b := sse.NewBroker(time.Hour)
	defer b.Close()
	ch := b.Subscribe()

	publishPipeline(b, shell.PipelineEvent{Line: "list | grep x", Commands: []string{"list", "grep"}})
	msgs := drain(ch)
	if len(msgs) != 1 || !strings.Contains(msgs[0], `"commands":["list","grep"]`) {
		t.Fatalf("read-only pipeline = %q", msgs)
	}

	publishPipeline(b, shell.PipelineEvent{Line: "delete 9", Commands: []string{"delete"}, Failed: true})
	if msgs := drain(ch); len(msgs) != 1 {
		t.Fatalf("failed pipeline = %q", msgs)
	}

	publishPipeline(b, shell.PipelineEvent{Line: "new x", Commands: []string{"new"}})
	msgs = drain(ch)
	if len(msgs) != 2 || !strings.Contains(msgs[1], "event: notes.changed") {
		t.Fatalf("mutating pipeline = %q", msgs)
	}
}

func TestPublishImport(t *testing.T) {
	b := sse.NewBroker(time.Hour)
	defer b.Close()
	ch := b.Subscribe()

	publishImport(b, "/inbox/a.json", nil, errors.New("bad version"))
	msgs := drain(ch)
	if len(msgs) != 1 || !strings.Contains(msgs[0], "event: inbox.failed") || !strings.Contains(msgs[0], "bad version") {
		t.Fatalf("failed import = %q", msgs)
	}

	publishImport(b, "/inbox/b.json", &models.ImportSummary{Imported: 2}, nil)
	msgs = drain(ch)
	if len(msgs) != 2 || !strings.Contains(msgs[0], `"imported":2`) {
		t.Fatalf("import = %q", msgs)
	}
}
