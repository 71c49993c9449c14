package mcpserver

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/notesh/internal/store"
	"github.com/starford/notesh/internal/testutil"
)

var _ Store = (*store.DB)(nil)

func testServer(t *testing.T) (*Server, *store.DB) {
	t.Helper()
	db := testutil.TestStore(t)
	return New(db, "test"), db
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var (
		result *mcp.CallToolResult
		err    error
	)
	switch name {
	case "search_notes":
		result, err = srv.searchNotes(ctx, req)
	case "read_note":
		result, err = srv.readNote(ctx, req)
	case "list_tags":
		result, err = srv.listTags(ctx, req)
	case "list_folder":
		result, err = srv.listFolder(ctx, req)
	case "get_command_reference":
		result, err = srv.getCommandReference(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}
	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestReadNote(t *testing.T) {
	srv, db := testServer(t)
	n, err := db.CreateNote(context.Background(), "Plan", "ship it", []string{"work", "q3"}, nil)
	if err != nil {
		t.Fatal(err)
	}

	r := callTool(t, srv, "read_note", map[string]any{"id": float64(n.ID)})
	want := "# Plan\n\nTags: #work #q3\n\nship it"
	if got := resultText(r); got != want {
		t.Errorf("read = %q, want %q", got, want)
	}
}

func TestReadNoteMissingOrDeleted(t *testing.T) {
	srv, db := testServer(t)
	if r := callTool(t, srv, "read_note", map[string]any{"id": float64(42)}); !r.IsError {
		t.Error("expected error for missing note")
	}

	ctx := context.Background()
	n, _ := db.CreateNote(ctx, "Gone", "", nil, nil)
	if _, err := db.SoftDeleteNote(ctx, n.ID); err != nil {
		t.Fatal(err)
	}
	r := callTool(t, srv, "read_note", map[string]any{"id": float64(n.ID)})
	if !r.IsError || !strings.Contains(resultText(r), "trash") {
		t.Errorf("deleted note = %q", resultText(r))
	}

	if r := callTool(t, srv, "read_note", map[string]any{}); !r.IsError {
		t.Error("expected error without id")
	}
}

func TestSearchNotes(t *testing.T) {
	srv, db := testServer(t)
	ctx := context.Background()
	_, _ = db.CreateNote(ctx, "Standup", "blockers: none", nil, nil)
	_, _ = db.CreateNote(ctx, "Groceries", "milk", nil, nil)

	text := resultText(callTool(t, srv, "search_notes", map[string]any{"query": "BLOCKERS"}))
	if !strings.Contains(text, `"Standup"`) || strings.Contains(text, "Groceries") {
		t.Errorf("search = %s", text)
	}

	text = resultText(callTool(t, srv, "search_notes", map[string]any{"query": "zzz"}))
	if text != `no notes match "zzz"` {
		t.Errorf("empty search = %q", text)
	}
}

func TestListTagsAndFolder(t *testing.T) {
	srv, db := testServer(t)
	ctx := context.Background()

	if got := resultText(callTool(t, srv, "list_tags", nil)); got != "no tags yet" {
		t.Errorf("no tags = %q", got)
	}

	work, err := db.CreateFolder(ctx, "work", nil)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = db.CreateNote(ctx, "Standup", "", []string{"work"}, &work.ID)
	_, _ = db.CreateNote(ctx, "Loose", "", nil, nil)

	if got := resultText(callTool(t, srv, "list_tags", nil)); got != "#work (1)" {
		t.Errorf("tags = %q", got)
	}

	root := resultText(callTool(t, srv, "list_folder", map[string]any{}))
	if !strings.HasPrefix(root, "work/ (folder") || !strings.Contains(root, "Loose") {
		t.Errorf("root = %q", root)
	}

	inside := resultText(callTool(t, srv, "list_folder", map[string]any{"folder_id": float64(work.ID)}))
	if !strings.Contains(inside, "Standup") || strings.Contains(inside, "Loose") {
		t.Errorf("work = %q", inside)
	}
}

func TestCommandReference(t *testing.T) {
	srv, _ := testServer(t)
	text := resultText(callTool(t, srv, "get_command_reference", nil))
	for _, want := range []string{"## Notes", "`cd", "aliases:", "|"} {
		if !strings.Contains(text, want) {
			t.Errorf("reference missing %q", want)
		}
	}

	contents, err := srv.readCommandReference(context.Background(), mcp.ReadResourceRequest{})
	if err != nil || len(contents) != 1 {
		t.Fatalf("resource = %v, %v", contents, err)
	}
}
