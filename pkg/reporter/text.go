package reporter

import (
	"bufio"
	"context"
	"fmt"

	"github.com/yaklabco/srcbuf/internal/ui/pretty"
	"github.com/yaklabco/srcbuf/pkg/runner"
)

// TextReporter formats results as styled terminal output grouped by file.
type TextReporter struct {
	opts   Options
	styles *pretty.Styles
	bw     *bufio.Writer
}

// NewTextReporter creates a new text reporter.
func NewTextReporter(opts Options) *TextReporter {
	return &TextReporter{
		opts:   opts,
		styles: pretty.NewStyles(pretty.IsColorEnabled(opts.Color, opts.Writer)),
		bw:     bufio.NewWriterSize(opts.Writer, bufWriterSize),
	}
}

// Report implements Reporter.
func (r *TextReporter) Report(ctx context.Context, result *runner.Result) (_ int, err error) {
	defer func() {
		if flushErr := r.bw.Flush(); err == nil {
			err = flushErr
		}
	}()

	if result == nil || len(result.Files) == 0 {
		if r.opts.ShowSummary {
			fmt.Fprintln(r.bw, r.styles.Success.Render("No files to analyse."))
		}
		return 0, nil
	}

	var total int
	for _, file := range result.Files {
		if err := ctx.Err(); err != nil {
			return total, fmt.Errorf("report: %w", err)
		}
		total += r.reportFile(file)
	}

	if r.opts.ShowSummary {
		fmt.Fprint(r.bw, r.styles.FormatSummaryOneLine(result.Stats))
		if r.opts.Verbose {
			fmt.Fprint(r.bw, r.styles.FormatAnalysisStats(result.Stats))
		}
	}

	return total, nil
}

func (r *TextReporter) reportFile(file runner.FileOutcome) int {
	path := displayPath(file.Path, r.opts.WorkingDir)

	if file.Error != nil {
		fmt.Fprintf(r.bw, "%s: %s\n",
			r.styles.FilePath.Render(path),
			r.styles.Error.Render(fmt.Sprintf("error: %v", file.Error)),
		)
		return 0
	}

	showContexts := r.opts.ShowContexts && len(file.Contexts) > 0
	if len(file.Problems) == 0 && !showContexts {
		return 0
	}

	fmt.Fprintln(r.bw, r.styles.FormatFileHeader(path, len(file.Problems)))
	for _, p := range file.Problems {
		source := ""
		if r.opts.ShowContext {
			source = p.SourceLine
		}
		fmt.Fprint(r.bw, r.styles.FormatProblem(path, p, source))
	}
	if showContexts {
		for _, c := range file.Contexts {
			fmt.Fprint(r.bw, r.styles.FormatContext(c))
		}
	}
	fmt.Fprintln(r.bw)

	return len(file.Problems)
}
