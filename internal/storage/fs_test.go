package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/starford/almanac/internal/apperr"
)

func tempStore(t *testing.T) *FS {
	t.Helper()
	fs, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestPutAndGet(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	obj, err := s.Put(ctx, "diagram.png", strings.NewReader("png-bytes"), 9, "")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if obj.Size != 9 || obj.ContentType != "image/png" {
		t.Errorf("obj = %+v", obj)
	}
	rc, info, err := s.Get(ctx, "diagram.png")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if string(got) != "png-bytes" || info.Size != 9 {
		t.Errorf("content = %q, size = %d", got, info.Size)
	}
}

func TestGetMissing(t *testing.T) {
	s := tempStore(t)
	if _, _, err := s.Get(context.Background(), "nope.txt"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if err := s.Delete(context.Background(), "nope.txt"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("delete err = %v, want ErrNotFound", err)
	}
}

func TestSafeName_RejectsTraversal(t *testing.T) {
	for _, name := range []string{"", "../etc/passwd", "a/b.txt", ".hidden", `..\x`} {
		if _, err := SafeName(name); err == nil {
			t.Errorf("SafeName(%q) accepted", name)
		}
	}
	if _, err := SafeName("notes.pdf"); err != nil {
		t.Errorf("SafeName(notes.pdf) = %v", err)
	}
}

func TestListSkipsTempFiles(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	_, _ = s.Put(ctx, "b.txt", strings.NewReader("b"), 1, "")
	_, _ = s.Put(ctx, "a.txt", strings.NewReader("a"), 1, "")

	objs, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(objs) != 2 || objs[0].Name != "a.txt" {
		t.Errorf("objects = %+v", objs)
	}
}
