// Package inbox ingests files dropped into a watched directory: .xlsx contact
// sheets become People, .md files become Notes.
package inbox

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/almanac/internal/checksum"
	"github.com/starford/almanac/internal/models"
	"github.com/starford/almanac/internal/parser"
	"github.com/starford/almanac/internal/records"
)

// Ingester creates records from inbox files. *records.Service satisfies it.
type Ingester interface {
	ImportPeopleSheet(ctx context.Context, userID string, r io.Reader) (*records.ImportReport, error)
	CreateNote(ctx context.Context, userID string, draft *models.Note) (*models.Note, error)
}

// Checksums remembers what has been ingested. *store.DB satisfies it.
type Checksums interface {
	FileChecksum(ctx context.Context, path string) (string, error)
	SetFileChecksum(ctx context.Context, path, checksum string) error
}

const settleDelay = 250 * time.Millisecond

// Watcher ingests inbox files on behalf of a single user.
type Watcher struct {
	root   string
	userID string
	svc    Ingester
	sums   Checksums
	log    *slog.Logger
}

// New creates a watcher for root. Files are ingested as userID.
func New(root, userID string, svc Ingester, sums Checksums, logger *slog.Logger) *Watcher {
	return &Watcher{root: root, userID: userID, svc: svc, sums: sums, log: logger}
}

func supported(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "~$") {
		return false
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".md", ".xlsx":
		return true
	}
	return false
}

// Ingest processes one file. It reports false when the file's content was
// already ingested.
func (w *Watcher) Ingest(ctx context.Context, abs string) (bool, error) {
	rel, err := filepath.Rel(w.root, abs)
	if err != nil {
		return false, err
	}
	sum, err := checksum.File(abs)
	if err != nil {
		return false, fmt.Errorf("inbox: %s: %w", rel, err)
	}
	prev, err := w.sums.FileChecksum(ctx, rel)
	if err != nil {
		return false, err
	}
	if prev == sum {
		return false, nil
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return false, fmt.Errorf("inbox: read %s: %w", rel, err)
	}
	// Record what was actually ingested; the file may have grown since hashing.
	sum = checksum.Sum(data)

	switch strings.ToLower(filepath.Ext(abs)) {
	case ".xlsx":
		rep, err := w.svc.ImportPeopleSheet(ctx, w.userID, bytes.NewReader(data))
		if err != nil {
			return false, fmt.Errorf("inbox: import %s: %w", rel, err)
		}
		w.log.Info("inbox: people imported",
			slog.String("path", rel),
			slog.Int("imported", rep.Imported),
			slog.Int("duplicates", len(rep.Duplicates)),
			slog.Int("invalid", len(rep.Invalid)))
	case ".md":
		res, err := parser.Parse(data)
		if err != nil {
			return false, fmt.Errorf("inbox: parse %s: %w", rel, err)
		}
		fallback := strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
		n, err := w.svc.CreateNote(ctx, w.userID, res.Note(fallback))
		if err != nil {
			return false, fmt.Errorf("inbox: create note from %s: %w", rel, err)
		}
		w.log.Info("inbox: note created", slog.String("path", rel), slog.String("note_id", n.ID))
	default:
		return false, nil
	}

	if err := w.sums.SetFileChecksum(ctx, rel, sum); err != nil {
		return true, err
	}
	return true, nil
}

// Scan ingests every supported file already present under root.
func (w *Watcher) Scan(ctx context.Context) error {
	return filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !supported(path) {
			return nil
		}
		if _, ingestErr := w.Ingest(ctx, path); ingestErr != nil {
			w.log.Warn("inbox: scan ingest failed", slog.String("path", path), slog.String("error", ingestErr.Error()))
		}
		return nil
	})
}

// Run scans root once and then watches it until ctx is cancelled. Events are
// batched until the directory has been quiet for a short while, so files
// written in several chunks are read once they are complete.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := addDirsRecursive(fw, w.root); err != nil {
		return err
	}
	w.log.Info("inbox: started", slog.String("root", w.root))

	if err := w.Scan(ctx); err != nil {
		w.log.Warn("inbox: initial scan failed", slog.String("error", err.Error()))
	}

	pending := make(map[string]struct{})
	var settle *time.Timer
	var settleCh <-chan time.Time
	schedule := func() {
		if settle == nil {
			settle = time.NewTimer(settleDelay)
			settleCh = settle.C
		} else {
			settle.Reset(settleDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if settle != nil {
				settle.Stop()
			}
			w.log.Info("inbox: stopped")
			return nil

		case <-settleCh:
			for path := range pending {
				delete(pending, path)
				ok, ingestErr := w.Ingest(ctx, path)
				if ingestErr != nil {
					w.log.Warn("inbox: ingest failed", slog.String("path", path), slog.String("error", ingestErr.Error()))
					continue
				}
				if ok {
					w.log.Debug("inbox: ingested", slog.String("path", path))
				}
			}

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(fw, ev.Name); addErr != nil {
						w.log.Warn("inbox: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					_ = filepath.WalkDir(ev.Name, func(p string, d fs.DirEntry, err error) error {
						if err == nil && !d.IsDir() && supported(p) {
							pending[p] = struct{}{}
						}
						return nil
					})
					schedule()
					continue
				}
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 && supported(ev.Name) {
				pending[ev.Name] = struct{}{}
				schedule()
			}

		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Error("inbox: watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
