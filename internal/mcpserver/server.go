// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Almanac notes and tasks for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/almanac/internal/apperr"
	"github.com/starford/almanac/internal/parser"
	"github.com/starford/almanac/internal/query"
	"github.com/starford/almanac/internal/records"
	"github.com/starford/almanac/internal/storage"
	"github.com/starford/almanac/internal/versioning"
)

const formatURI = "almanac://note-format"

// Server wraps the MCP server with Almanac tools. Every call acts as userID.
type Server struct {
	mcp    *server.MCPServer
	svc    *records.Service
	files  storage.Provider
	userID string
}

// New creates a new MCP server with all Almanac tools registered. files may be
// nil, in which case attach_file is not offered.
func New(svc *records.Service, files storage.Provider, userID string) *Server {
	s := &Server{svc: svc, files: files, userID: userID}

	s.mcp = server.NewMCPServer(
		"Almanac",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Case-insensitive search over note titles, content, categories and tags. Pinned notes come first."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search term")),
		mcp.WithString("category", mcp.Description("Optional category filter")),
		mcp.WithString("note_type", mcp.Description("Optional note type filter")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read a note with its linked skill, project, event and task. Records a view."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a note from Markdown. "+
			"Content MUST follow the note format (YAML frontmatter with title, "+
			"optional category, note_type and tags, then a Markdown body). Read the contract first via "+
			"the get_note_contract tool or the "+formatURI+" resource."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown content following the note format contract")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("update_note",
		mcp.WithDescription("Replace a note's title and body from Markdown. The previous state is kept as a version. "+
			"Frontmatter category, note_type and tags replace the stored values when present."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown content following the note format contract")),
		mcp.WithNumber("expected_version", mcp.Description("Reject the update unless the note is still at this version")),
	), s.updateNote)

	s.mcp.AddTool(mcp.NewTool("list_note_versions",
		mcp.WithDescription("List the stored versions of a note, newest first."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.listNoteVersions)

	s.mcp.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("List tasks, optionally filtered by status and due-date timeline."),
		mcp.WithString("status", mcp.Description("todo, in-progress or done")),
		mcp.WithString("timeline", mcp.Description("all, today, week, month, year or overdue")),
	), s.listTasks)

	s.mcp.AddTool(mcp.NewTool("get_note_contract",
		mcp.WithDescription("Returns the canonical Almanac note format contract. "+
			"Call this before creating or updating notes to ensure correct structure."),
	), s.getNoteContract)

	if files != nil {
		s.mcp.AddTool(mcp.NewTool("attach_file",
			mcp.WithDescription("Store an image or PDF from an http(s) URL or a base64 data URI as an attachment. "+
				"Returns a Markdown snippet to paste into a note body."),
			mcp.WithString("url", mcp.Required(), mcp.Description("http(s) URL or data: URI")),
			mcp.WithString("filename", mcp.Description("Optional file name; derived from the URL when empty")),
		), s.attachFile)
	}

	// Resource: note format contract.
	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Note Format Contract",
			mcp.WithResourceDescription("Markdown note format accepted by create_note and update_note."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
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

// noteSummary is the search result shape; content is left out.
type noteSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Category  string    `json:"category,omitempty"`
	NoteType  string    `json:"note_type"`
	Tags      []string  `json:"tags"`
	Version   int       `json:"version"`
	IsPinned  bool      `json:"is_pinned"`
	UpdatedAt time.Time `json:"updated_at"`
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// toolError turns a service error into a tool-level error message.
func toolError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError("not found")
	case errors.Is(err, apperr.ErrValidation), errors.Is(err, apperr.ErrConflict):
		return mcp.NewToolResultError(err.Error())
	default:
		return mcp.NewToolResultError("internal error: " + err.Error())
	}
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p := query.Params{Search: q, Equals: map[string]string{}}
	if c := req.GetString("category", ""); c != "" {
		p.Equals["category"] = c
	}
	if nt := req.GetString("note_type", ""); nt != "" {
		p.Equals["note_type"] = nt
	}
	view, err := s.svc.Notes.List(ctx, s.userID, p)
	if err != nil {
		return toolError(err), nil
	}
	out := make([]noteSummary, 0, len(view.Items))
	for _, n := range view.Items {
		out = append(out, noteSummary{
			ID: n.ID, Title: n.Title, Category: n.Category, NoteType: n.NoteType,
			Tags: n.Tags, Version: n.Version, IsPinned: n.IsPinned, UpdatedAt: n.UpdatedAt,
		})
	}
	return jsonResult(out)
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.Versions.RecordView(ctx, s.userID, id); err != nil {
		return toolError(err), nil
	}
	d, err := s.svc.NoteDetail(ctx, s.userID, id)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(d)
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := parser.Parse([]byte(content))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.svc.CreateNote(ctx, s.userID, res.Note(""))
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s (version %d)", n.ID, n.Version)), nil
}

func (s *Server) updateNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := parser.Parse([]byte(content))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	ch := versioning.NoteChanges{
		Content:         &res.Body,
		ExpectedVersion: req.GetInt("expected_version", 0),
	}
	if res.Title != "" {
		ch.Title = &res.Title
	}
	if fm := res.Frontmatter; fm != nil {
		if fm.Category != "" {
			ch.Category = &fm.Category
		}
		if fm.NoteType != "" {
			nt := strings.ToLower(fm.NoteType)
			ch.NoteType = &nt
		}
	}
	if len(res.Tags) > 0 {
		ch.Tags = &res.Tags
	}

	n, err := s.svc.UpdateNote(ctx, s.userID, id, ch)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("updated: %s (version %d)", n.ID, n.Version)), nil
}

func (s *Server) listNoteVersions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	versions, err := s.svc.Versions.ListVersions(ctx, s.userID, id)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(versions)
}

func (s *Server) listTasks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tl, err := query.ParseTimeline(req.GetString("timeline", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p := query.Params{Equals: map[string]string{}, Timeline: tl}
	if st := req.GetString("status", ""); st != "" && st != "all" {
		p.Equals["status"] = st
	}
	view, err := s.svc.Tasks.List(ctx, s.userID, p)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(map[string]any{
		"tasks": view.Items,
		"total": view.Total,
		"stats": view.Stats,
	})
}

func (s *Server) getNoteContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormatContract), nil
}

func (s *Server) readNoteFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}
