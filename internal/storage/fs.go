package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/starford/almanac/internal/apperr"
)

// FS implements Provider backed by a local directory.
type FS struct {
	root string // absolute path to the attachment directory
}

var _ Provider = (*FS)(nil)

// NewFS creates a new FS provider rooted at the given directory, creating it
// when missing.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// safePath resolves name under root and rejects anything that escapes it.
func (f *FS) safePath(name string) (string, error) {
	clean, err := SafeName(name)
	if err != nil {
		return "", err
	}
	abs := filepath.Join(f.root, clean)
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage: path escapes root: %s", name)
	}
	return abs, nil
}

// Put writes atomically: tmp file, fsync, rename.
func (f *FS) Put(_ context.Context, name string, r io.Reader, _ int64, contentType string) (Object, error) {
	abs, err := f.safePath(name)
	if err != nil {
		return Object{}, err
	}
	tmp, err := os.CreateTemp(f.root, ".almanac-tmp-*")
	if err != nil {
		return Object{}, fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	written, err := io.Copy(tmp, r)
	if err != nil {
		return Object{}, fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return Object{}, fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return Object{}, fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return Object{}, fmt.Errorf("storage: rename: %w", err)
	}
	success = true

	info, err := os.Stat(abs)
	if err != nil {
		return Object{}, fmt.Errorf("storage: stat %s: %w", name, err)
	}
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(name))
	}
	return Object{Name: filepath.Base(abs), Size: written, ContentType: contentType, ModTime: info.ModTime()}, nil
}

func (f *FS) Get(_ context.Context, name string) (io.ReadCloser, Object, error) {
	abs, err := f.safePath(name)
	if err != nil {
		return nil, Object{}, err
	}
	file, err := os.Open(abs)
	if errors.Is(err, os.ErrNotExist) {
		return nil, Object{}, fmt.Errorf("attachment %s: %w", name, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, Object{}, fmt.Errorf("storage: open %s: %w", name, err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, Object{}, fmt.Errorf("storage: stat %s: %w", name, err)
	}
	return file, Object{
		Name:        info.Name(),
		Size:        info.Size(),
		ContentType: mime.TypeByExtension(filepath.Ext(name)),
		ModTime:     info.ModTime(),
	}, nil
}

func (f *FS) Delete(_ context.Context, name string) error {
	abs, err := f.safePath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("attachment %s: %w", name, apperr.ErrNotFound)
		}
		return fmt.Errorf("storage: delete %s: %w", name, err)
	}
	return nil
}

// List returns the regular files directly under root, sorted by name.
func (f *FS) List(_ context.Context) ([]Object, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	out := []Object{}
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("storage: list: %w", err)
		}
		out = append(out, Object{
			Name:        e.Name(),
			Size:        info.Size(),
			ContentType: mime.TypeByExtension(filepath.Ext(e.Name())),
			ModTime:     info.ModTime(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
