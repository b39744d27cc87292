// Package storage holds uploaded attachment files.
package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
)

// Object describes one stored attachment.
type Object struct {
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type,omitempty"`
	ModTime     time.Time `json:"mod_time"`
}

// Provider is the interface for attachment storage backends.
type Provider interface {
	// Put stores r under name, replacing any existing object.
	Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) (Object, error)
	// Get opens the object for reading. Missing objects wrap apperr.ErrNotFound.
	Get(ctx context.Context, name string) (io.ReadCloser, Object, error)
	// Delete removes the object.
	Delete(ctx context.Context, name string) error
	// List returns every stored object.
	List(ctx context.Context) ([]Object, error)
}

// SafeName validates that name is a plain file name: no separators, no
// traversal, no hidden files.
func SafeName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("storage: filename is required")
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") ||
		strings.ContainsAny(cleaned, `/\`) || strings.HasPrefix(cleaned, ".") {
		return "", fmt.Errorf("storage: invalid filename: %s", name)
	}
	return cleaned, nil
}
