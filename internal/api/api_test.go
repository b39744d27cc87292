package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/starford/almanac/internal/models"
	"github.com/starford/almanac/internal/records"
	"github.com/starford/almanac/internal/sse"
	"github.com/starford/almanac/internal/storage"
	"github.com/starford/almanac/internal/testutil"
)

const testUser = "local"

// testEnv sets up a temp SQLite DB, attachment dir, service, and router.
func testEnv(t *testing.T, auth Auth) (*records.Service, http.Handler) {
	t.Helper()
	svc, router, _ := testEnvFull(t, auth, nil)
	return svc, router
}

func testEnvFull(t *testing.T, auth Auth, limiter *RateLimiter) (*records.Service, http.Handler, storage.Provider) {
	t.Helper()
	if auth.UserID == "" {
		auth.UserID = testUser
	}
	db := testutil.TestDB(t)
	_, files := testutil.TestAttachments(t)
	broker := sse.NewBroker(time.Second)
	t.Cleanup(broker.Close)

	svc := records.NewService(db, records.WithPublisher(broker))
	router := NewRouter(Deps{Service: svc, Files: files, Broker: broker, Limiter: limiter, Auth: auth})
	return svc, router, files
}

func do(t *testing.T, h http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func TestPeopleCRUD(t *testing.T) {
	_, router := testEnv(t, Auth{})

	w := do(t, router, http.MethodPost, "/people", map[string]any{"name": "Ada", "relationship": "mentor", "company": "Analytical"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	ada := decode[models.Person](t, w)
	if ada.ID == "" || ada.UserID != testUser {
		t.Fatalf("created = %+v", ada)
	}

	w = do(t, router, http.MethodGet, "/people/"+ada.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}

	w = do(t, router, http.MethodPut, "/people/"+ada.ID, map[string]any{"name": "Ada Lovelace", "relationship": "friend"})
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", w.Code, w.Body.String())
	}
	updated := decode[models.Person](t, w)
	if updated.Name != "Ada Lovelace" || !updated.CreatedAt.Equal(ada.CreatedAt) {
		t.Errorf("updated = %+v", updated)
	}

	w = do(t, router, http.MethodDelete, "/people/"+ada.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}
	w = do(t, router, http.MethodGet, "/people/"+ada.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get deleted = %d, want 404", w.Code)
	}
}

func TestCreatePerson_Invalid(t *testing.T) {
	_, router := testEnv(t, Auth{})

	w := do(t, router, http.MethodPost, "/people", map[string]any{"email": "x@example.com"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing name = %d, want 400", w.Code)
	}
	req := httptest.NewRequest(http.MethodPost, "/people", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad json = %d, want 400", rec.Code)
	}
}

func TestListPeople_FiltersAndStats(t *testing.T) {
	_, router := testEnv(t, Auth{})

	for _, p := range []map[string]any{
		{"name": "Ada", "relationship": "mentor", "is_favorite": true},
		{"name": "Grace", "relationship": "colleague"},
		{"name": "Alan", "relationship": "colleague"},
	} {
		if w := do(t, router, http.MethodPost, "/people", p); w.Code != http.StatusCreated {
			t.Fatalf("seed %v = %d", p["name"], w.Code)
		}
	}

	w := do(t, router, http.MethodGet, "/people?relationship=colleague", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	view := decode[struct {
		Items   []models.Person     `json:"items"`
		Total   int                 `json:"total"`
		Stats   map[string]any      `json:"stats"`
		Options map[string][]string `json:"options"`
	}](t, w)
	if view.Total != 2 || len(view.Items) != 2 {
		t.Fatalf("total = %d, items = %d, want 2", view.Total, len(view.Items))
	}
	if got := view.Stats["total"]; got != float64(3) {
		t.Errorf("stats total = %v, want 3 (computed over the full set)", got)
	}
	if got := view.Options["relationship"]; len(got) != 2 {
		t.Errorf("relationship options = %v", got)
	}

	w = do(t, router, http.MethodGet, "/people?is_favorite=true&q=ad", nil)
	view = decode[struct {
		Items   []models.Person     `json:"items"`
		Total   int                 `json:"total"`
		Stats   map[string]any      `json:"stats"`
		Options map[string][]string `json:"options"`
	}](t, w)
	if view.Total != 1 || view.Items[0].Name != "Ada" {
		t.Errorf("favorites = %+v", view.Items)
	}

	w = do(t, router, http.MethodGet, "/people?timeline=fortnight", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad timeline = %d, want 400", w.Code)
	}
}

func TestTaskDetail_ResolvesReferences(t *testing.T) {
	_, router := testEnv(t, Auth{})

	w := do(t, router, http.MethodPost, "/projects", map[string]any{"name": "Almanac", "status": "active"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create project = %d, body = %s", w.Code, w.Body.String())
	}
	proj := decode[models.Project](t, w)

	w = do(t, router, http.MethodPost, "/tasks", map[string]any{
		"title":      "Ship it",
		"project_id": proj.ID,
		"skill_id":   "gone",
		"subtasks":   []map[string]any{{"title": "b"}, {"title": "a"}},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create task = %d, body = %s", w.Code, w.Body.String())
	}
	task := decode[models.Task](t, w)

	w = do(t, router, http.MethodGet, "/tasks/"+task.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get task = %d", w.Code)
	}
	detail := decode[records.TaskDetail](t, w)
	if detail.Project == nil || detail.Project.ID != proj.ID {
		t.Errorf("project = %+v, want %s", detail.Project, proj.ID)
	}
	if detail.Skill != nil {
		t.Errorf("dangling skill resolved to %+v", detail.Skill)
	}
	if len(detail.Subtasks) != 2 || detail.Subtasks[0].Title != "b" || detail.Subtasks[1].OrderIndex != 1 {
		t.Errorf("subtasks = %+v", detail.Subtasks)
	}
}

func TestNoteLifecycle(t *testing.T) {
	_, router := testEnv(t, Auth{})

	w := do(t, router, http.MethodPost, "/notes", map[string]any{"title": "A", "content": "x"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d, body = %s", w.Code, w.Body.String())
	}
	n := decode[models.Note](t, w)
	if n.Version != 1 || w.Header().Get("ETag") != `"1"` {
		t.Fatalf("version = %d, etag = %q", n.Version, w.Header().Get("ETag"))
	}

	w = do(t, router, http.MethodPut, "/notes/"+n.ID, map[string]any{"content": "y"})
	if w.Code != http.StatusOK {
		t.Fatalf("update = %d, body = %s", w.Code, w.Body.String())
	}
	if got := decode[models.Note](t, w); got.Version != 2 || got.Content != "y" {
		t.Errorf("updated = %+v", got)
	}

	w = do(t, router, http.MethodGet, "/notes/"+n.ID+"/versions", nil)
	versions := decode[struct {
		Versions []models.NoteVersion `json:"versions"`
		Total    int                  `json:"total"`
	}](t, w)
	if versions.Total != 1 || versions.Versions[0].VersionNumber != 1 || versions.Versions[0].Content != "x" {
		t.Fatalf("versions = %+v", versions)
	}

	w = do(t, router, http.MethodPost, "/notes/"+n.ID+"/versions/1/restore", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("restore = %d, body = %s", w.Code, w.Body.String())
	}
	if got := decode[models.Note](t, w); got.Version != 3 || got.Content != "x" {
		t.Errorf("restored = %+v", got)
	}

	w = do(t, router, http.MethodPost, "/notes/"+n.ID+"/versions/9/restore", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("restore missing version = %d, want 404", w.Code)
	}

	if w = do(t, router, http.MethodPost, "/notes/"+n.ID+"/view", nil); w.Code != http.StatusNoContent {
		t.Fatalf("view = %d", w.Code)
	}
	w = do(t, router, http.MethodPost, "/notes/"+n.ID+"/pin", nil)
	pinned := decode[models.Note](t, w)
	if !pinned.IsPinned || pinned.Version != 3 || pinned.ViewCount != 1 {
		t.Errorf("pinned = %+v", pinned)
	}

	w = do(t, router, http.MethodDelete, "/notes/"+n.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", w.Code)
	}
	w = do(t, router, http.MethodGet, "/notes/"+n.ID+"/versions", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("versions of deleted note = %d, want 404", w.Code)
	}
}

func TestUpdateNote_IfMatch(t *testing.T) {
	_, router := testEnv(t, Auth{})

	w := do(t, router, http.MethodPost, "/notes", map[string]any{"title": "lock", "content": "v1"})
	n := decode[models.Note](t, w)

	w = do(t, router, http.MethodPut, "/notes/"+n.ID, map[string]any{"content": "v2"}, "If-Match", `"1"`)
	if w.Code != http.StatusOK {
		t.Fatalf("update with current version = %d, body = %s", w.Code, w.Body.String())
	}

	w = do(t, router, http.MethodPut, "/notes/"+n.ID, map[string]any{"content": "v3"}, "If-Match", `"1"`)
	if w.Code != http.StatusConflict {
		t.Errorf("update with stale version = %d, want 409", w.Code)
	}

	w = do(t, router, http.MethodPut, "/notes/"+n.ID, map[string]any{"content": "v3"}, "If-Match", "abc")
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed If-Match = %d, want 400", w.Code)
	}

	w = do(t, router, http.MethodPut, "/notes/"+n.ID, map[string]any{"title": "  "})
	if w.Code != http.StatusBadRequest {
		t.Errorf("blank title = %d, want 400", w.Code)
	}
}

func TestUpdateNote_NotFound(t *testing.T) {
	_, router := testEnv(t, Auth{})

	w := do(t, router, http.MethodPut, "/notes/ghost", map[string]any{"content": "x"})
	if w.Code != http.StatusNotFound {
		t.Errorf("update missing = %d, want 404", w.Code)
	}
}

func TestAuthMiddleware_Token(t *testing.T) {
	_, router := testEnv(t, Auth{Mode: AuthToken, Token: "secret123"})

	if w := do(t, router, http.MethodGet, "/notes", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
	for _, bad := range []string{"Bearer wrong", "Bearer secret12", "Bearer secret1234", "Bearer "} {
		if w := do(t, router, http.MethodGet, "/notes", nil, "Authorization", bad); w.Code != http.StatusUnauthorized {
			t.Errorf("%q = %d, want 401", bad, w.Code)
		}
	}
	if w := do(t, router, http.MethodGet, "/notes", nil, "Authorization", "Bearer secret123"); w.Code != http.StatusOK {
		t.Errorf("authed = %d, want 200", w.Code)
	}
}

func signed(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return "Bearer " + tok
}

func TestAuthMiddleware_JWTScopesByUser(t *testing.T) {
	_, router := testEnv(t, Auth{Mode: AuthJWT, JWTSecret: "s3cret"})
	alice := signed(t, "s3cret", jwt.MapClaims{"sub": "alice"})
	bob := signed(t, "s3cret", jwt.MapClaims{"user_id": "bob"})

	w := do(t, router, http.MethodPost, "/skills", map[string]any{"name": "Go"}, "Authorization", alice)
	if w.Code != http.StatusCreated {
		t.Fatalf("create as alice = %d, body = %s", w.Code, w.Body.String())
	}
	skill := decode[models.Skill](t, w)
	if skill.UserID != "alice" {
		t.Errorf("owner = %q, want alice", skill.UserID)
	}

	if w = do(t, router, http.MethodGet, "/skills/"+skill.ID, nil, "Authorization", bob); w.Code != http.StatusNotFound {
		t.Errorf("bob reads alice's skill = %d, want 404", w.Code)
	}
	if w = do(t, router, http.MethodDelete, "/skills/"+skill.ID, nil, "Authorization", bob); w.Code != http.StatusNotFound {
		t.Errorf("bob deletes alice's skill = %d, want 404", w.Code)
	}

	forged := signed(t, "other", jwt.MapClaims{"sub": "alice"})
	if w = do(t, router, http.MethodGet, "/skills", nil, "Authorization", forged); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong signature = %d, want 401", w.Code)
	}
	anon := signed(t, "s3cret", jwt.MapClaims{"role": "admin"})
	if w = do(t, router, http.MethodGet, "/skills", nil, "Authorization", anon); w.Code != http.StatusUnauthorized {
		t.Errorf("no subject = %d, want 401", w.Code)
	}
}

func TestRateLimit_Mutations(t *testing.T) {
	_, router, _ := testEnvFull(t, Auth{}, NewRateLimiter(0.001, 1))

	if w := do(t, router, http.MethodPost, "/skills", map[string]any{"name": "Go"}); w.Code != http.StatusCreated {
		t.Fatalf("first create = %d", w.Code)
	}
	w := do(t, router, http.MethodPost, "/skills", map[string]any{"name": "Rust"})
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("second create = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
	if w := do(t, router, http.MethodGet, "/skills", nil); w.Code != http.StatusOK {
		t.Errorf("reads are not limited, got %d", w.Code)
	}
}

func TestRateLimiter_CleanupDropsOnlyIdle(t *testing.T) {
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(0.01, 1)
	rl.now = func() time.Time { return clock }

	if !rl.Allow("active") {
		t.Fatal("first request should pass")
	}
	for i := range 3 {
		rl.GetLimiter(fmt.Sprintf("idle-%d", i))
	}

	clock = clock.Add(idleTTL + time.Minute)
	if rl.Allow("active") {
		t.Fatal("active user should still be limited")
	}
	rl.Cleanup()

	if n := len(rl.limiters); n != 1 {
		t.Errorf("limiters after cleanup = %d, want 1", n)
	}
	if _, ok := rl.limiters["active"]; !ok {
		t.Fatal("active bucket was dropped")
	}
	if rl.Allow("active") {
		t.Error("cleanup reset an active user's bucket")
	}
}

func multipartBody(t *testing.T, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = fw.Write(data)
	_ = mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestAttachments_UploadAndServe(t *testing.T) {
	_, router, files := testEnvFull(t, Auth{}, nil)

	body, ct := multipartBody(t, "diagram.png", []byte("PNGDATA"))
	req := httptest.NewRequest(http.MethodPost, "/attachments", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("upload = %d, body = %s", w.Code, w.Body.String())
	}
	resp := decode[map[string]any](t, w)
	if resp["url"] != "/attachments/diagram.png" {
		t.Errorf("url = %v", resp["url"])
	}

	public := chi.NewRouter()
	public.Get("/attachments/{filename}", NewAttachmentHandler(files).ServeFile)

	w = do(t, public, http.MethodGet, "/attachments/diagram.png", nil)
	if w.Code != http.StatusOK || w.Body.String() != "PNGDATA" {
		t.Fatalf("serve = %d %q", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Content-Type"); got != "image/png" {
		t.Errorf("content type = %q", got)
	}
	if w = do(t, public, http.MethodGet, "/attachments/missing.png", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing = %d, want 404", w.Code)
	}
	if w = do(t, public, http.MethodGet, "/attachments/.hidden", nil); w.Code != http.StatusBadRequest {
		t.Errorf("hidden = %d, want 400", w.Code)
	}
}

func TestAttachments_RejectsTraversal(t *testing.T) {
	_, router := testEnv(t, Auth{})

	body, ct := multipartBody(t, "../escape.txt", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/attachments", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("traversal upload = %d, want 400", w.Code)
	}
}

func TestPeople_ExportThenImportSkipsDuplicates(t *testing.T) {
	svc, router := testEnv(t, Auth{})
	ctx := context.Background()
	if _, err := svc.People.Create(ctx, testUser, &models.Person{Name: "Ada", Email: "ada@example.com"}); err != nil {
		t.Fatal(err)
	}

	w := do(t, router, http.MethodGet, "/people/export", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export = %d, body = %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Content-Type"); got != xlsxContentType {
		t.Errorf("content type = %q", got)
	}

	body, ct := multipartBody(t, "people.xlsx", w.Body.Bytes())
	req := httptest.NewRequest(http.MethodPost, "/people/import", body)
	req.Header.Set("Content-Type", ct)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("import = %d, body = %s", w.Code, w.Body.String())
	}
	rep := decode[records.ImportReport](t, w)
	if rep.Imported != 0 || len(rep.Duplicates) != 1 {
		t.Errorf("report = %+v, want 0 imported and 1 duplicate", rep)
	}
}

func TestPeopleImport_NotASpreadsheet(t *testing.T) {
	_, router := testEnv(t, Auth{})

	body, ct := multipartBody(t, "people.xlsx", []byte("not a zip"))
	req := httptest.NewRequest(http.MethodPost, "/people/import", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("garbage import = %d, want 400", w.Code)
	}
}

func TestEventStream_AuthProtected(t *testing.T) {
	_, router := testEnv(t, Auth{Mode: AuthToken, Token: "secret"})

	if w := do(t, router, http.MethodGet, "/events/stream", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("stream no auth = %d, want 401", w.Code)
	}
}

func TestEventStream_Streams(t *testing.T) {
	_, router := testEnv(t, Auth{})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events/stream", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("stream = %d, want 200", w.Code)
	}
	if got := w.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("content type = %q", got)
	}
}

func TestEventsCollection_NotShadowedByStream(t *testing.T) {
	_, router := testEnv(t, Auth{})

	w := do(t, router, http.MethodPost, "/events", map[string]any{"title": "GopherCon", "start_date": "2026-11-01"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create event = %d, body = %s", w.Code, w.Body.String())
	}
	ev := decode[models.Event](t, w)
	if w = do(t, router, http.MethodGet, "/events/"+ev.ID, nil); w.Code != http.StatusOK {
		t.Errorf("get event = %d", w.Code)
	}
}
