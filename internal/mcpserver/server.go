// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes read-only notesh tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/notesh/internal/apperr"
	"github.com/starford/notesh/internal/models"
	"github.com/starford/notesh/internal/shell"
)

const commandReferenceURI = "notesh://commands"

// Store is the read side of the note store the tools query.
type Store interface {
	GetNote(ctx context.Context, id int64) (*models.Note, error)
	SearchNotes(ctx context.Context, query string) ([]models.Note, error)
	TagCounts(ctx context.Context) ([]models.TagCount, error)
	FolderContents(ctx context.Context, parentID *int64) ([]models.Note, []models.Folder, error)
}

// Server wraps the MCP server with notesh tools.
type Server struct {
	mcp   *server.MCPServer
	store Store
	ref   string
}

// New creates a new MCP server with all notesh tools registered.
func New(st Store, version string) *Server {
	s := &Server{store: st, ref: CommandReference(shell.DefaultRegistry())}

	s.mcp = server.NewMCPServer(
		"notesh",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Case-insensitive search through note titles, bodies and tags. Deleted notes are excluded."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read one note by its numeric id, as Markdown with its tags."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Note id, as shown by search_notes or list_folder")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("list_tags",
		mcp.WithDescription("List every tag with the number of live notes carrying it."),
	), s.listTags)

	s.mcp.AddTool(mcp.NewTool("list_folder",
		mcp.WithDescription("List the sub-folders and notes directly inside a folder."),
		mcp.WithNumber("folder_id", mcp.Description("Folder id; omit for the root folder")),
	), s.listFolder)

	s.mcp.AddTool(mcp.NewTool("get_command_reference",
		mcp.WithDescription("Returns the notesh shell command reference, for suggesting commands to the user."),
	), s.getCommandReference)

	s.mcp.AddResource(
		mcp.NewResource(commandReferenceURI, "Command Reference",
			mcp.WithResourceDescription("Every notesh shell command with usage and aliases."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readCommandReference,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	notes, err := s.store.SearchNotes(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(notes) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("no notes match %q", query)), nil
	}
	type hit struct {
		ID    int64    `json:"id"`
		Title string   `json:"title"`
		Tags  []string `json:"tags"`
	}
	hits := make([]hit, 0, len(notes))
	for _, n := range notes {
		hits = append(hits, hit{ID: n.ID, Title: n.Title, Tags: n.Tags})
	}
	out, _ := json.MarshalIndent(hits, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.store.GetNote(ctx, int64(id))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: #%d", id)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	if n.Deleted {
		return mcp.NewToolResultError(fmt.Sprintf("note #%d is in the trash", id)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", n.Title)
	if len(n.Tags) > 0 {
		b.WriteString("Tags: #" + strings.Join(n.Tags, " #") + "\n\n")
	}
	b.WriteString(n.Body)
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) listTags(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tags, err := s.store.TagCounts(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(tags) == 0 {
		return mcp.NewToolResultText("no tags yet"), nil
	}
	lines := make([]string, 0, len(tags))
	for _, t := range tags {
		lines = append(lines, fmt.Sprintf("#%s (%d)", t.Tag, t.Count))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) listFolder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var parent *int64
	if id := req.GetInt("folder_id", 0); id > 0 {
		p := int64(id)
		parent = &p
	}
	notes, folders, err := s.store.FolderContents(ctx, parent)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(notes) == 0 && len(folders) == 0 {
		return mcp.NewToolResultText("folder is empty"), nil
	}
	var lines []string
	for _, f := range folders {
		lines = append(lines, fmt.Sprintf("%s/ (folder %d)", f.Name, f.ID))
	}
	for _, n := range notes {
		lines = append(lines, fmt.Sprintf("#%d %s", n.ID, n.Title))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) getCommandReference(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.ref), nil
}

func (s *Server) readCommandReference(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      commandReferenceURI,
			MIMEType: "text/markdown",
			Text:     s.ref,
		},
	}, nil
}
