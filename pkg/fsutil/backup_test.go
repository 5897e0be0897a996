package fsutil_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/yaklabco/srcbuf/pkg/fsutil"
)

func TestBackupPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mode fsutil.BackupMode
		want string
	}{
		{fsutil.BackupModeSidecar, "/docs/readme.md.srcbuf.bak"},
		{fsutil.BackupModeNone, ""},
		{"unknown", "/docs/readme.md.srcbuf.bak"},
	}

	for _, tt := range tests {
		if got := fsutil.BackupPath("/docs/readme.md", tt.mode); got != tt.want {
			t.Errorf("BackupPath(%q) = %q, want %q", tt.mode, got, tt.want)
		}
	}
}

func TestCreateBackup(t *testing.T) {
	t.Parallel()

	sidecar := fsutil.BackupConfig{Enabled: true, Mode: fsutil.BackupModeSidecar}

	write := func(t *testing.T, path, content string) {
		t.Helper()
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("setup: %v", err)
		}
	}
	read := func(t *testing.T, path string) string {
		t.Helper()
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		return string(data)
	}

	t.Run("copies the original", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "doc.md")
		write(t, path, "original")

		created, err := fsutil.CreateBackup(context.Background(), path, sidecar)
		if err != nil {
			t.Fatalf("CreateBackup() error = %v", err)
		}
		if !created {
			t.Error("expected a backup to be created")
		}
		if got := read(t, fsutil.BackupPath(path, sidecar.Mode)); got != "original" {
			t.Errorf("backup = %q, want %q", got, "original")
		}
	})

	t.Run("keeps the first backup", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "doc.md")
		write(t, path, "first")
		if _, err := fsutil.CreateBackup(context.Background(), path, sidecar); err != nil {
			t.Fatal(err)
		}
		write(t, path, "second")

		created, err := fsutil.CreateBackup(context.Background(), path, sidecar)
		if err != nil {
			t.Fatalf("CreateBackup() error = %v", err)
		}
		if created {
			t.Error("existing backup must not be replaced")
		}
		if got := read(t, fsutil.BackupPath(path, sidecar.Mode)); got != "first" {
			t.Errorf("backup = %q, want %q", got, "first")
		}
	})

	t.Run("disabled", func(t *testing.T) {
		t.Parallel()

		for _, cfg := range []fsutil.BackupConfig{
			{Enabled: false, Mode: fsutil.BackupModeSidecar},
			{Enabled: true, Mode: fsutil.BackupModeNone},
		} {
			path := filepath.Join(t.TempDir(), "doc.md")
			write(t, path, "original")

			created, err := fsutil.CreateBackup(context.Background(), path, cfg)
			if err != nil || created {
				t.Errorf("CreateBackup(%+v) = %v, %v", cfg, created, err)
			}
			if _, err := os.Stat(path + fsutil.BackupSuffix); !os.IsNotExist(err) {
				t.Errorf("unexpected backup for %+v", cfg)
			}
		}
	})

	t.Run("missing original", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "new.md")
		created, err := fsutil.CreateBackup(context.Background(), path, sidecar)
		if err != nil || created {
			t.Errorf("CreateBackup() = %v, %v", created, err)
		}
	})
}
