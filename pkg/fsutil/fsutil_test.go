package fsutil_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yaklabco/srcbuf/pkg/fsutil"
)

func TestReadFile(t *testing.T) {
	t.Parallel()

	t.Run("reads content and metadata", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "doc.md")
		content := []byte("# Title\n")
		if err := os.WriteFile(path, content, 0o640); err != nil {
			t.Fatalf("setup: %v", err)
		}

		got, info, err := fsutil.ReadFile(context.Background(), path)
		if err != nil {
			t.Fatalf("ReadFile() error = %v", err)
		}
		if string(got) != string(content) {
			t.Errorf("content = %q, want %q", got, content)
		}
		if info.Path != path || info.Size != int64(len(content)) {
			t.Errorf("info = %+v", info)
		}
		if info.Mode.Perm() != 0o640 {
			t.Errorf("Mode = %o, want 640", info.Mode.Perm())
		}
		if info.Hash == ([32]byte{}) {
			t.Error("Hash should not be zero")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, _, err := fsutil.ReadFile(context.Background(), filepath.Join(t.TempDir(), "nope.md"))
		if !errors.Is(err, fsutil.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected the os error to stay wrapped, got %v", err)
		}
	})

	t.Run("directory", func(t *testing.T) {
		t.Parallel()

		_, _, err := fsutil.ReadFile(context.Background(), t.TempDir())
		if !errors.Is(err, fsutil.ErrIsDirectory) {
			t.Fatalf("expected ErrIsDirectory, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, _, err := fsutil.ReadFile(ctx, "doc.md"); !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	})
}

func TestCheckModified(t *testing.T) {
	t.Parallel()

	setup := func(t *testing.T) (string, *fsutil.FileInfo) {
		t.Helper()
		path := filepath.Join(t.TempDir(), "doc.md")
		if err := os.WriteFile(path, []byte("original"), 0o644); err != nil {
			t.Fatalf("setup: %v", err)
		}
		_, info, err := fsutil.ReadFile(context.Background(), path)
		if err != nil {
			t.Fatalf("setup read: %v", err)
		}
		return path, info
	}

	tests := []struct {
		name   string
		change func(t *testing.T, path string, info *fsutil.FileInfo)
		want   bool
	}{
		{
			name:   "unchanged",
			change: func(*testing.T, string, *fsutil.FileInfo) {},
			want:   false,
		},
		{
			name: "content and size changed",
			change: func(t *testing.T, path string, _ *fsutil.FileInfo) {
				if err := os.WriteFile(path, []byte("something longer"), 0o644); err != nil {
					t.Fatal(err)
				}
			},
			want: true,
		},
		{
			name: "same size, same mtime, different content",
			change: func(t *testing.T, path string, info *fsutil.FileInfo) {
				if err := os.WriteFile(path, []byte("ORIGINAL"), 0o644); err != nil {
					t.Fatal(err)
				}
				if err := os.Chtimes(path, time.Now(), info.ModTime); err != nil {
					t.Fatal(err)
				}
			},
			want: true,
		},
		{
			name: "deleted",
			change: func(t *testing.T, path string, _ *fsutil.FileInfo) {
				if err := os.Remove(path); err != nil {
					t.Fatal(err)
				}
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path, info := setup(t)
			tt.change(t, path, info)

			got, err := fsutil.CheckModified(context.Background(), info)
			if err != nil {
				t.Fatalf("CheckModified() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("CheckModified() = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("nil info", func(t *testing.T) {
		t.Parallel()

		if _, err := fsutil.CheckModified(context.Background(), nil); !errors.Is(err, fsutil.ErrNilFileInfo) {
			t.Fatalf("expected ErrNilFileInfo, got %v", err)
		}
	})
}
