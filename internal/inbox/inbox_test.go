package inbox

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/almanac/internal/models"
	"github.com/starford/almanac/internal/records"
	"github.com/starford/almanac/internal/sheet"
	"github.com/starford/almanac/internal/testutil"
)

func inboxTestEnv(t *testing.T) (string, *records.Service, *Watcher) {
	t.Helper()
	dir := t.TempDir()
	db := testutil.TestDB(t)
	svc := records.NewService(db)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return dir, svc, New(dir, "u1", svc, db, logger)
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestIngest_MarkdownOnce(t *testing.T) {
	dir, svc, w := inboxTestEnv(t)
	ctx := context.Background()
	path := filepath.Join(dir, "joins.md")
	if err := os.WriteFile(path, []byte("---\nnote_type: concept\ntags: [sql]\n---\nInner joins keep matching rows.\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ok, err := w.Ingest(ctx, path)
	if err != nil || !ok {
		t.Fatalf("first ingest = %v, %v", ok, err)
	}
	ok, err = w.Ingest(ctx, path)
	if err != nil || ok {
		t.Fatalf("second ingest = %v, %v; want skipped", ok, err)
	}

	notes, err := svc.Notes.All(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) != 1 {
		t.Fatalf("notes = %d, want 1", len(notes))
	}
	n := notes[0]
	if n.Title != "joins" || n.NoteType != models.NoteConcept || len(n.Tags) != 1 || n.Version != 1 {
		t.Errorf("note = %+v", n)
	}
}

func TestScan_PeopleSheet(t *testing.T) {
	dir, svc, w := inboxTestEnv(t)
	ctx := context.Background()

	f, err := os.Create(filepath.Join(dir, "contacts.xlsx"))
	if err != nil {
		t.Fatal(err)
	}
	err = sheet.WritePeople(f, []*models.Person{
		{Name: "Ada", Email: "ada@example.com"},
		{Name: "Ada again", Email: "ADA@example.com"},
	})
	f.Close()
	if err != nil {
		t.Fatal(err)
	}
	_ = os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0o644)

	if err := w.Scan(ctx); err != nil {
		t.Fatal(err)
	}
	people, _ := svc.People.All(ctx, "u1")
	if len(people) != 1 || people[0].Name != "Ada" {
		t.Errorf("people = %d", len(people))
	}
}

func TestRun_NewFileIngested(t *testing.T) {
	dir, svc, w := inboxTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go w.Run(ctx)
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(dir, "new.md"), []byte("# Fresh\nbody"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		notes, _ := svc.Notes.All(context.Background(), "u1")
		return len(notes) == 1 && notes[0].Title == "Fresh"
	}, "new inbox file not ingested")
}

func TestSupported(t *testing.T) {
	cases := map[string]bool{
		"a.md":          true,
		"b.XLSX":        true,
		"~$b.xlsx":      false,
		".draft.md":     false,
		"notes.txt":     false,
		"dir/nested.md": true,
	}
	for name, want := range cases {
		if got := supported(name); got != want {
			t.Errorf("supported(%q) = %v, want %v", name, got, want)
		}
	}
}
