package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/almanac/internal/models"
	"github.com/starford/almanac/internal/records"
	"github.com/starford/almanac/internal/storage"
	"github.com/starford/almanac/internal/testutil"
)

const testUser = "agent"

func testServer(t *testing.T) (*Server, *records.Service, storage.Provider) {
	t.Helper()
	db := testutil.TestDB(t)
	_, files := testutil.TestAttachments(t)
	svc := records.NewService(db)
	return New(svc, files, testUser), svc, files
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no in-process "call tool" helper, so dispatch to the handlers.
	var (
		result *mcp.CallToolResult
		err    error
	)
	switch name {
	case "search_notes":
		result, err = srv.searchNotes(ctx, req)
	case "read_note":
		result, err = srv.readNote(ctx, req)
	case "create_note":
		result, err = srv.createNote(ctx, req)
	case "update_note":
		result, err = srv.updateNote(ctx, req)
	case "list_note_versions":
		result, err = srv.listNoteVersions(ctx, req)
	case "list_tasks":
		result, err = srv.listTasks(ctx, req)
	case "get_note_contract":
		result, err = srv.getNoteContract(ctx, req)
	case "attach_file":
		result, err = srv.attachFile(ctx, req)
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

func createdID(t *testing.T, r *mcp.CallToolResult) string {
	t.Helper()
	text := resultText(r)
	if r.IsError || !strings.HasPrefix(text, "created: ") {
		t.Fatalf("create result = %q", text)
	}
	id, _, _ := strings.Cut(strings.TrimPrefix(text, "created: "), " ")
	return id
}

func TestCreateAndReadNote(t *testing.T) {
	srv, svc, _ := testServer(t)

	r := callTool(t, srv, "create_note", map[string]any{
		"content": "---\ntitle: Test\nnote_type: Concept\ntags: [go]\n---\nHello",
	})
	id := createdID(t, r)
	if !strings.HasSuffix(resultText(r), "(version 1)") {
		t.Errorf("create result = %q", resultText(r))
	}

	r = callTool(t, srv, "read_note", map[string]any{"id": id})
	var got models.Note
	if err := json.Unmarshal([]byte(resultText(r)), &got); err != nil {
		t.Fatalf("read result = %q: %v", resultText(r), err)
	}
	if got.Title != "Test" || got.Content != "Hello" || got.NoteType != models.NoteConcept {
		t.Errorf("note = %+v", got)
	}
	if got.UserID != testUser {
		t.Errorf("owner = %q, want %q", got.UserID, testUser)
	}

	stored, err := svc.Versions.GetNote(context.Background(), testUser, id)
	if err != nil {
		t.Fatal(err)
	}
	if stored.ViewCount != 1 {
		t.Errorf("view_count = %d, want 1", stored.ViewCount)
	}
}

func TestCreateNote_RequiresTitle(t *testing.T) {
	srv, _, _ := testServer(t)
	r := callTool(t, srv, "create_note", map[string]any{"content": "no heading here"})
	if !r.IsError {
		t.Error("expected error for a note without a title")
	}
}

func TestReadNoteMissing(t *testing.T) {
	srv, _, _ := testServer(t)
	r := callTool(t, srv, "read_note", map[string]any{"id": "nope"})
	if !r.IsError || resultText(r) != "not found" {
		t.Errorf("result = %q, error = %v", resultText(r), r.IsError)
	}
}

func TestUpdateNote_KeepsHistory(t *testing.T) {
	srv, _, _ := testServer(t)
	id := createdID(t, callTool(t, srv, "create_note", map[string]any{"content": "# First\nv1"}))

	r := callTool(t, srv, "update_note", map[string]any{"id": id, "content": "# Second\nv2", "expected_version": 1})
	if r.IsError || resultText(r) != "updated: "+id+" (version 2)" {
		t.Fatalf("update result = %q", resultText(r))
	}

	r = callTool(t, srv, "update_note", map[string]any{"id": id, "content": "# Third\nv3", "expected_version": 1})
	if !r.IsError {
		t.Error("stale expected_version should fail")
	}

	r = callTool(t, srv, "list_note_versions", map[string]any{"id": id})
	var versions []models.NoteVersion
	if err := json.Unmarshal([]byte(resultText(r)), &versions); err != nil {
		t.Fatalf("versions = %q: %v", resultText(r), err)
	}
	if len(versions) != 1 || versions[0].Title != "First" || versions[0].VersionNumber != 1 {
		t.Errorf("versions = %+v", versions)
	}
}

func TestSearchNotes(t *testing.T) {
	srv, _, _ := testServer(t)
	createdID(t, callTool(t, srv, "create_note", map[string]any{"content": "---\ntitle: WAL tuning\ncategory: databases\n---\ncheckpoint"}))
	createdID(t, callTool(t, srv, "create_note", map[string]any{"content": "# Goroutines\nchannels"}))

	r := callTool(t, srv, "search_notes", map[string]any{"query": "CHECKPOINT"})
	var hits []noteSummary
	if err := json.Unmarshal([]byte(resultText(r)), &hits); err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].Title != "WAL tuning" {
		t.Errorf("hits = %+v", hits)
	}

	r = callTool(t, srv, "search_notes", map[string]any{"query": "goroutines", "category": "databases"})
	hits = nil
	_ = json.Unmarshal([]byte(resultText(r)), &hits)
	if len(hits) != 0 {
		t.Errorf("category filter hits = %+v, want none", hits)
	}
}

func TestListTasks(t *testing.T) {
	srv, svc, _ := testServer(t)
	ctx := context.Background()
	for _, task := range []*models.Task{
		{Title: "old", DueDate: "2000-01-01"},
		{Title: "finished", DueDate: "2000-01-01", Status: models.TaskDone},
		{Title: "someday"},
	} {
		if _, err := svc.Tasks.Create(ctx, testUser, task); err != nil {
			t.Fatal(err)
		}
	}

	r := callTool(t, srv, "list_tasks", map[string]any{"timeline": "overdue"})
	var out struct {
		Tasks []models.Task `json:"tasks"`
		Total int           `json:"total"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &out); err != nil {
		t.Fatalf("list_tasks = %q: %v", resultText(r), err)
	}
	if out.Total != 1 || out.Tasks[0].Title != "old" {
		t.Errorf("overdue = %+v", out.Tasks)
	}

	r = callTool(t, srv, "list_tasks", map[string]any{"timeline": "someday"})
	if !r.IsError {
		t.Error("unknown timeline should fail")
	}
}

func TestGetNoteContract(t *testing.T) {
	srv, _, _ := testServer(t)
	r := callTool(t, srv, "get_note_contract", nil)
	if !strings.Contains(resultText(r), "Almanac Note Format Contract") {
		t.Error("contract text missing")
	}
}

// 1x1 transparent PNG.
const pixel = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="

func TestAttachFile_DataURI(t *testing.T) {
	srv, _, files := testServer(t)

	r := callTool(t, srv, "attach_file", map[string]any{"url": "data:image/png;base64," + pixel, "filename": "dot.png"})
	if r.IsError {
		t.Fatalf("attach = %q", resultText(r))
	}
	var res attachResult
	if err := json.Unmarshal([]byte(resultText(r)), &res); err != nil {
		t.Fatal(err)
	}
	if res.URL != "/attachments/dot.png" || res.Markdown != "![dot.png](/attachments/dot.png)" {
		t.Errorf("result = %+v", res)
	}

	rc, _, err := files.Get(context.Background(), "dot.png")
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	want, _ := base64.StdEncoding.DecodeString(pixel)
	if string(data) != string(want) {
		t.Error("stored bytes differ from the data URI payload")
	}

	r = callTool(t, srv, "attach_file", map[string]any{"url": "data:image/png;base64," + pixel, "filename": "dot.png"})
	if !r.IsError {
		t.Error("second attach with the same name should fail")
	}
}

func TestAttachFile_Rejects(t *testing.T) {
	srv, _, _ := testServer(t)
	cases := map[string]map[string]any{
		"mismatched content": {"url": "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("plain text")), "filename": "x.png"},
		"unsupported ext":    {"url": "data:image/png;base64," + pixel, "filename": "x.exe"},
		"not base64":         {"url": "data:image/png,raw"},
		"loopback":           {"url": "http://127.0.0.1/x.png"},
		"scheme":             {"url": "ftp://example.com/x.png"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			if r := callTool(t, srv, "attach_file", args); !r.IsError {
				t.Errorf("expected error, got %q", resultText(r))
			}
		})
	}
}

func TestCleanName(t *testing.T) {
	tests := map[string]string{
		"../../etc/passwd": "passwd",
		".hidden.png":      "hidden.png",
		"my photo (1).jpg": "my_photo__1_.jpg",
		"":                 "",
	}
	for in, want := range tests {
		if got := cleanName(in); got != want {
			t.Errorf("cleanName(%q) = %q, want %q", in, got, want)
		}
	}
}
