package runner

import (
	"github.com/yaklabco/srcbuf/pkg/analysis"
	"github.com/yaklabco/srcbuf/pkg/buffer"
)

// FileOutcome is the analysis snapshot of one file after the run.
type FileOutcome struct {
	// Path is the canonical file path.
	Path string

	// Language is the detected document language.
	Language string

	// Version is the buffer version the snapshot was taken at.
	Version uint64

	// Problems are the published problems, ordered by range start.
	Problems []Problem

	// Contexts are the published contexts (Markdown sections).
	Contexts []Context

	// Fixed is the number of fix-it edits applied with --fix.
	Fixed int

	// Written is true if the file was saved.
	Written bool

	// Error is set if the file could not be processed.
	Error error
}

// Problem is a published problem with the 1-based position of its start.
type Problem struct {
	buffer.Problem

	Line   int
	Column int

	// SourceLine is the text of Line without its terminator.
	SourceLine string
}

// Context is a published context with the 1-based lines it spans.
type Context struct {
	buffer.Context

	StartLine int
	EndLine   int
}

// Stats captures aggregate information about a run.
type Stats struct {
	// FilesDiscovered is the total number of files found during discovery.
	FilesDiscovered int

	// FilesProcessed is the number of files analysed.
	FilesProcessed int

	// FilesErrored is the number of files that encountered errors.
	FilesErrored int

	// ProblemsTotal is the total number of problems across all files.
	ProblemsTotal int

	// ProblemsFixable is the number of problems that carry fix-its.
	ProblemsFixable int

	// ProblemsBySeverity maps severity names to counts.
	ProblemsBySeverity map[string]int

	// FilesWithProblems is the number of files with at least one problem.
	FilesWithProblems int

	// FilesModified is the number of files saved by --fix.
	FilesModified int

	// EditsApplied is the total number of fix-it edits applied.
	EditsApplied int

	// Analysis holds the scheduler counters.
	Analysis analysis.Stats
}

// Result is the overall runner result.
type Result struct {
	// Files contains the outcome for each processed file, ordered by path.
	Files []FileOutcome

	// Stats contains aggregate statistics for the run.
	Stats Stats
}

// HasFailures reports whether any problems with error severity occurred.
func (r *Result) HasFailures() bool {
	if r == nil {
		return false
	}
	return r.Stats.ProblemsBySeverity[buffer.SeverityError.String()] > 0
}

// HasIssues reports whether any problems were found.
func (r *Result) HasIssues() bool {
	if r == nil {
		return false
	}
	return r.Stats.ProblemsTotal > 0
}

// newStats creates a new Stats with initialized maps.
func newStats() Stats {
	return Stats{
		ProblemsBySeverity: make(map[string]int),
	}
}

// accumulate updates the result with a file outcome.
func (r *Result) accumulate(outcome FileOutcome) {
	r.Files = append(r.Files, outcome)

	if outcome.Error != nil {
		r.Stats.FilesErrored++
		return
	}

	r.Stats.FilesProcessed++
	if outcome.Written {
		r.Stats.FilesModified++
	}
	r.Stats.EditsApplied += outcome.Fixed

	r.Stats.ProblemsTotal += len(outcome.Problems)
	if len(outcome.Problems) > 0 {
		r.Stats.FilesWithProblems++
	}
	for _, p := range outcome.Problems {
		if len(p.Fixits) > 0 {
			r.Stats.ProblemsFixable++
		}
		r.Stats.ProblemsBySeverity[p.Severity.String()]++
	}
}
