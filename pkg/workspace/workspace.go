// Package workspace ties buffers, the mutation loop and the analysis
// scheduler together.
//
// Every method marshals onto the loop goroutine, so a Workspace may be used
// from any goroutine. Each edit, undo or redo issues a fresh analysis request
// for the document, carrying the text of the other modified documents.
package workspace

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/yaklabco/srcbuf/internal/logging"
	"github.com/yaklabco/srcbuf/pkg/analysis"
	"github.com/yaklabco/srcbuf/pkg/buffer"
	"github.com/yaklabco/srcbuf/pkg/fsutil"
	"github.com/yaklabco/srcbuf/pkg/langdetect"
	"github.com/yaklabco/srcbuf/pkg/text"
)

// Workspace errors
var (
	// ErrNotOpen indicates an operation on a document that is not loaded.
	ErrNotOpen = errors.New("document is not open")

	// ErrAlreadyOpen indicates a second Open of the same path.
	ErrAlreadyOpen = errors.New("document is already open")

	// ErrModifiedOnDisk indicates the file changed on disk after it was loaded.
	ErrModifiedOnDisk = errors.New("file was modified on disk")
)

// Loop runs functions on the goroutine that owns the buffers.
type Loop interface {
	Invoke(ctx context.Context, fn func()) error
}

// Scheduler is the part of analysis.Scheduler the workspace drives.
type Scheduler interface {
	Open(path string, buf *buffer.Buffer)
	Track(path string, buf *buffer.Buffer)
	Close(path string)
	SetActive(path string)
	Enqueue(req analysis.Request) error
}

// Options configures a Workspace.
type Options struct {
	Buffer buffer.Options

	// Args returns the engine arguments for a document. nil means none.
	Args func(path string) []string

	// Backup controls the copy kept of a file before Save first overwrites it.
	Backup fsutil.BackupConfig

	Logger *log.Logger
}

// Document describes a loaded document.
type Document struct {
	Path     string
	Language string
	Open     bool

	// Modified is true when the buffer has changes that are not on disk.
	Modified bool

	Version uint64
}

type document struct {
	path     string
	language string
	open     bool
	args     []string
	buf      *buffer.Buffer

	// disk is the file state at load or last save; nil for documents that
	// were never read from disk.
	disk *fsutil.FileInfo
}

// Workspace is a set of loaded documents.
type Workspace struct {
	loop   Loop
	sched  Scheduler
	opts   Options
	logger *log.Logger

	// docs is owned by the loop goroutine.
	docs map[string]*document
}

// New creates an empty workspace.
func New(loop Loop, sched Scheduler, opts Options) *Workspace {
	return &Workspace{
		loop:   loop,
		sched:  sched,
		opts:   opts,
		logger: logging.OrDiscard(opts.Logger),
		docs:   make(map[string]*document),
	}
}

// Canonical returns the absolute, cleaned form of path used as document id.
func Canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	return filepath.Clean(abs), nil
}

// Open loads a file as an open document and requests its first analysis.
func (w *Workspace) Open(ctx context.Context, path string) (string, error) {
	return w.load(ctx, path, true)
}

// Track loads a file for batch analysis at the lowest priority.
func (w *Workspace) Track(ctx context.Context, path string) (string, error) {
	return w.load(ctx, path, false)
}

func (w *Workspace) load(ctx context.Context, path string, open bool) (string, error) {
	canonical, err := Canonical(path)
	if err != nil {
		return "", err
	}
	content, info, err := fsutil.ReadFile(ctx, canonical)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	return canonical, w.add(ctx, canonical, string(content), info, open)
}

// OpenText opens an in-memory document under path.
func (w *Workspace) OpenText(ctx context.Context, path, content string) (string, error) {
	canonical, err := Canonical(path)
	if err != nil {
		return "", err
	}
	return canonical, w.add(ctx, canonical, content, nil, true)
}

func (w *Workspace) add(ctx context.Context, path, content string, info *fsutil.FileInfo, open bool) error {
	doc := &document{
		path:     path,
		language: langdetect.ForPath(path, []byte(content)),
		open:     open,
		args:     w.args(path),
		disk:     info,
	}
	return w.invoke(ctx, func() error {
		if _, ok := w.docs[path]; ok {
			return fmt.Errorf("open %s: %w", path, ErrAlreadyOpen)
		}
		doc.buf = buffer.New(content, w.opts.Buffer)
		w.docs[path] = doc
		if open {
			w.sched.Open(path, doc.buf)
		} else {
			w.sched.Track(path, doc.buf)
		}
		w.logger.Debug("document loaded",
			logging.FieldDocument, path,
			logging.FieldLanguage, doc.language)
		return w.request(doc, analysis.ModeFull)
	})
}

func (w *Workspace) args(path string) []string {
	if w.opts.Args == nil {
		return nil
	}
	return slices.Clone(w.opts.Args(path))
}

// Close unloads a document, discarding unsaved changes.
func (w *Workspace) Close(ctx context.Context, path string) error {
	return w.invoke(ctx, func() error {
		if _, ok := w.docs[path]; !ok {
			return fmt.Errorf("close %s: %w", path, ErrNotOpen)
		}
		delete(w.docs, path)
		w.sched.Close(path)
		return nil
	})
}

// Activate makes path the active document, analysed ahead of the others.
func (w *Workspace) Activate(ctx context.Context, path string) error {
	return w.invoke(ctx, func() error {
		if _, ok := w.docs[path]; !ok {
			return fmt.Errorf("activate %s: %w", path, ErrNotOpen)
		}
		w.sched.SetActive(path)
		return nil
	})
}

// Edit replaces r with newText as one undo step.
func (w *Workspace) Edit(ctx context.Context, path string, r text.Range, newText string) error {
	return w.withDoc(ctx, "edit", path, func(doc *document) error {
		if err := doc.buf.Replace(r, newText, true); err != nil {
			return err
		}
		return w.request(doc, analysis.ModeFull)
	})
}

// Undo reverts the last edit step. It reports false if there was none.
func (w *Workspace) Undo(ctx context.Context, path string) (bool, error) {
	return w.step(ctx, "undo", path, (*buffer.Buffer).Undo)
}

// Redo reapplies the last undone step. It reports false if there was none.
func (w *Workspace) Redo(ctx context.Context, path string) (bool, error) {
	return w.step(ctx, "redo", path, (*buffer.Buffer).Redo)
}

func (w *Workspace) step(ctx context.Context, op, path string, move func(*buffer.Buffer) bool) (bool, error) {
	var moved bool
	err := w.withDoc(ctx, op, path, func(doc *document) error {
		if moved = move(doc.buf); !moved {
			return nil
		}
		return w.request(doc, analysis.ModeFull)
	})
	return moved, err
}

// ApplyFixits applies the fix-its of one problem.
func (w *Workspace) ApplyFixits(ctx context.Context, path string, problem int) error {
	return w.withDoc(ctx, "apply fix-its", path, func(doc *document) error {
		if err := doc.buf.ApplyFixits(problem); err != nil {
			return err
		}
		return w.request(doc, analysis.ModeFull)
	})
}

// ApplyAllFixits applies the fix-its of every problem of path.
func (w *Workspace) ApplyAllFixits(ctx context.Context, path string) (buffer.FixitSummary, error) {
	var summary buffer.FixitSummary
	err := w.withDoc(ctx, "apply fix-its", path, func(doc *document) error {
		var err error
		if summary, err = doc.buf.ApplyAllFixits(); err != nil {
			return err
		}
		if summary.Applied == 0 {
			return nil
		}
		return w.request(doc, analysis.ModeFull)
	})
	return summary, err
}

// Reanalyze issues a new request for path without changing it.
func (w *Workspace) Reanalyze(ctx context.Context, path string, mode analysis.Mode) error {
	return w.withDoc(ctx, "reanalyze", path, func(doc *document) error {
		return w.request(doc, mode)
	})
}

// View runs fn with the buffer of path on the loop goroutine. fn must not
// keep the buffer or modify it.
func (w *Workspace) View(ctx context.Context, path string, fn func(*buffer.Buffer)) error {
	return w.withDoc(ctx, "view", path, func(doc *document) error {
		fn(doc.buf)
		return nil
	})
}

// Document returns a description of path.
func (w *Workspace) Document(ctx context.Context, path string) (Document, error) {
	var out Document
	err := w.withDoc(ctx, "describe", path, func(doc *document) error {
		out = doc.describe()
		return nil
	})
	return out, err
}

// Documents returns every loaded document, sorted by path.
func (w *Workspace) Documents(ctx context.Context) ([]Document, error) {
	var out []Document
	err := w.invoke(ctx, func() error {
		for _, doc := range w.docs {
			out = append(out, doc.describe())
		}
		return nil
	})
	slices.SortFunc(out, func(a, b Document) int { return cmp.Compare(a.Path, b.Path) })
	return out, err
}

func (d *document) describe() Document {
	return Document{
		Path:     d.path,
		Language: d.language,
		Open:     d.open,
		Modified: d.unsaved(),
		Version:  d.buf.Version(),
	}
}

// unsaved reports whether the buffer differs from the file on disk.
func (d *document) unsaved() bool {
	return d.disk == nil || d.buf.IsModified()
}

// request issues an analysis request for doc. It runs on the loop.
func (w *Workspace) request(doc *document, mode analysis.Mode) error {
	req := analysis.NewRequest(doc.path, doc.buf, doc.args, mode)
	for path, other := range w.docs {
		if path != doc.path && other.unsaved() {
			req.Unsaved = append(req.Unsaved, analysis.UnsavedFile{Path: path, Text: other.buf.Text()})
		}
	}
	if err := w.sched.Enqueue(req); err != nil {
		return fmt.Errorf("request analysis of %s: %w", doc.path, err)
	}
	return nil
}

func (w *Workspace) withDoc(ctx context.Context, op, path string, fn func(*document) error) error {
	return w.invoke(ctx, func() error {
		doc, ok := w.docs[path]
		if !ok {
			return fmt.Errorf("%s %s: %w", op, path, ErrNotOpen)
		}
		if err := fn(doc); err != nil {
			return fmt.Errorf("%s %s: %w", op, path, err)
		}
		return nil
	})
}

// invoke runs fn on the loop and returns its error.
func (w *Workspace) invoke(ctx context.Context, fn func() error) error {
	var err error
	if ierr := w.loop.Invoke(ctx, func() { err = fn() }); ierr != nil {
		return ierr
	}
	return err
}
