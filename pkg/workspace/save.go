package workspace

import (
	"context"
	"fmt"

	"github.com/yaklabco/srcbuf/internal/logging"
	"github.com/yaklabco/srcbuf/pkg/fsutil"
)

// SaveOptions controls Save.
type SaveOptions struct {
	// Force overwrites a file that changed on disk since it was loaded.
	Force bool
}

// Save writes path to disk atomically and marks it saved. A document that
// was opened from memory is written to its path as a new file.
//
// The loop is held for the whole write, so the saved text is exactly the
// text at the saved version.
func (w *Workspace) Save(ctx context.Context, path string, opts SaveOptions) error {
	return w.withDoc(ctx, "save", path, func(doc *document) error {
		if doc.disk != nil && !opts.Force {
			changed, err := fsutil.CheckModified(ctx, doc.disk)
			if err != nil {
				return err
			}
			if changed {
				return ErrModifiedOnDisk
			}
		}

		mode := fsutil.DefaultFileMode
		if doc.disk != nil {
			mode = doc.disk.Mode.Perm()
			if _, err := fsutil.CreateBackup(ctx, path, w.opts.Backup); err != nil {
				return err
			}
		}

		content := []byte(doc.buf.Text())
		if err := fsutil.WriteAtomic(ctx, path, content, mode); err != nil {
			return err
		}

		_, info, err := fsutil.ReadFile(ctx, path)
		if err != nil {
			return err
		}
		doc.disk = info
		doc.buf.MarkSaved()
		w.logger.Debug("document saved",
			logging.FieldDocument, path,
			logging.FieldVersion, doc.buf.Version())
		return nil
	})
}

// SaveAll saves every modified document and returns the paths written.
// It stops at the first error.
func (w *Workspace) SaveAll(ctx context.Context, opts SaveOptions) ([]string, error) {
	docs, err := w.Documents(ctx)
	if err != nil {
		return nil, err
	}
	var saved []string
	for _, doc := range docs {
		if !doc.Modified {
			continue
		}
		if err := w.Save(ctx, doc.Path, opts); err != nil {
			return saved, fmt.Errorf("save all: %w", err)
		}
		saved = append(saved, doc.Path)
	}
	return saved, nil
}
