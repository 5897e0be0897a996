package runner

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/yaklabco/srcbuf/internal/logging"
	"github.com/yaklabco/srcbuf/pkg/analysis"
	"github.com/yaklabco/srcbuf/pkg/buffer"
	"github.com/yaklabco/srcbuf/pkg/text"
	"github.com/yaklabco/srcbuf/pkg/workspace"
)

// Runner analyses many files with one workspace session.
type Runner struct {
	// Engine replaces the Markdown engine. nil means the default.
	Engine analysis.Engine

	Logger *log.Logger
}

// New creates a Runner logging to logger.
func New(logger *log.Logger) *Runner {
	return &Runner{Logger: logger}
}

// Run discovers files under opts.Paths, tracks them in a fresh session and
// waits until the scheduler has analysed all of them. With Config.Fix set,
// every fix-it is applied and the changed files are saved before the final
// snapshot is taken.
//
// Files are ordered deterministically by path. A file that cannot be read
// or saved gets an Error and does not stop the run.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	logger := logging.OrDiscard(r.Logger)

	files, err := Discover(ctx, opts)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Files: make([]FileOutcome, 0, len(files)),
		Stats: newStats(),
	}
	result.Stats.FilesDiscovered = len(files)
	if len(files) == 0 {
		return result, nil
	}

	cfg := opts.effectiveConfig()
	session, err := NewSession(ctx, SessionOptions{Config: cfg, Engine: r.Engine, Logger: logger})
	if err != nil {
		return nil, err
	}
	defer session.Close()

	ws := session.Workspace
	outcomes := make([]FileOutcome, len(files))
	for i, path := range files {
		outcomes[i].Path = path
		canonical, err := ws.Track(ctx, path)
		if err != nil {
			outcomes[i].Error = err
			continue
		}
		outcomes[i].Path = canonical
	}

	if err := session.WaitIdle(ctx); err != nil {
		return nil, fmt.Errorf("run cancelled: %w", err)
	}

	if cfg.Fix {
		if err := r.fix(ctx, session, outcomes, workspace.SaveOptions{Force: cfg.Force}); err != nil {
			return nil, err
		}
	}

	for i := range outcomes {
		if outcomes[i].Error == nil {
			outcomes[i].Error = snapshot(ctx, ws, &outcomes[i])
		}
		result.accumulate(outcomes[i])
	}

	result.Stats.Analysis = session.Scheduler.Stats()
	logger.Debug("run complete",
		logging.FieldFilesDiscovered, result.Stats.FilesDiscovered,
		logging.FieldFilesProcessed, result.Stats.FilesProcessed,
		logging.FieldProblemsTotal, result.Stats.ProblemsTotal,
		logging.FieldFilesModified, result.Stats.FilesModified,
		logging.FieldPublished, result.Stats.Analysis.Published,
		logging.FieldStale, result.Stats.Analysis.Stale,
		logging.FieldFailed, result.Stats.Analysis.Failed,
		logging.FieldExhausted, result.Stats.Analysis.Exhausted)

	if ctx.Err() != nil {
		return result, fmt.Errorf("run cancelled: %w", ctx.Err())
	}
	return result, nil
}

// fix applies all fix-its, waits for the re-analysis and saves the files
// that changed.
func (r *Runner) fix(ctx context.Context, session *Session, outcomes []FileOutcome, opts workspace.SaveOptions) error {
	ws := session.Workspace
	for i := range outcomes {
		if outcomes[i].Error != nil {
			continue
		}
		summary, err := ws.ApplyAllFixits(ctx, outcomes[i].Path)
		if err != nil {
			outcomes[i].Error = err
			continue
		}
		outcomes[i].Fixed = summary.Applied
	}

	if err := session.WaitIdle(ctx); err != nil {
		return fmt.Errorf("run cancelled: %w", err)
	}

	for i := range outcomes {
		if outcomes[i].Error != nil || outcomes[i].Fixed == 0 {
			continue
		}
		if err := ws.Save(ctx, outcomes[i].Path, opts); err != nil {
			outcomes[i].Error = err
			continue
		}
		outcomes[i].Written = true
	}
	return nil
}

// snapshot copies the published state of outcome.Path into outcome.
func snapshot(ctx context.Context, ws *workspace.Workspace, outcome *FileOutcome) error {
	doc, err := ws.Document(ctx, outcome.Path)
	if err != nil {
		return err
	}
	outcome.Language = doc.Language
	outcome.Version = doc.Version

	return ws.View(ctx, outcome.Path, func(buf *buffer.Buffer) {
		outcome.Problems, outcome.Contexts = Collect(buf)
	})
}

// Collect returns the published problems and contexts of buf with their line
// positions, problems ordered by start. It must run where buf may be read,
// such as inside workspace.View.
func Collect(buf *buffer.Buffer) ([]Problem, []Context) {
	var problems []Problem
	for _, p := range buf.Problems() {
		line, col := buf.LineOf(p.Range.Start)
		problems = append(problems, Problem{
			Problem:    p,
			Line:       line + 1,
			Column:     col + 1,
			SourceLine: LineText(buf, line),
		})
	}
	slices.SortStableFunc(problems, func(a, b Problem) int {
		return cmp.Compare(a.Range.Start, b.Range.Start)
	})

	var contexts []Context
	for _, c := range buf.Contexts() {
		start, _ := buf.LineOf(c.Range.Start)
		end := start
		if !c.Range.IsEmpty() {
			end, _ = buf.LineOf(c.Range.End - 1)
		}
		contexts = append(contexts, Context{Context: c, StartLine: start + 1, EndLine: end + 1})
	}
	return problems, contexts
}

// LineText returns the text of a 0-based line without its terminator.
func LineText(buf *buffer.Buffer, line int) string {
	end := text.Location(buf.Len())
	if line+1 < buf.LineCount() {
		end = buf.LineStart(line + 1)
	}
	return strings.TrimRight(buf.TextRange(text.MustRange(buf.LineStart(line), end)), "\r\n")
}
