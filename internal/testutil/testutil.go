// Package testutil opens throwaway stores for tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/starford/almanac/internal/storage"
	"github.com/starford/almanac/internal/store"
)

// TestDB opens a migrated SQLite database under the test's temp dir and
// closes it when the test ends.
func TestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "almanac.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return db
}

// TestAttachments returns a filesystem attachment provider rooted in a fresh
// temp dir, along with that dir.
func TestAttachments(t *testing.T) (string, storage.Provider) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "attachments")
	files, err := storage.NewFS(root)
	if err != nil {
		t.Fatalf("open attachments: %v", err)
	}
	return root, files
}
