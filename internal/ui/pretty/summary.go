package pretty

import (
	"fmt"
	"strings"

	"github.com/yaklabco/srcbuf/pkg/runner"
)

const (
	wordFile  = "file"
	wordFiles = "files"
)

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// FormatSummaryOneLine formats run statistics as a single line.
// Example: "5 problems (1 error, 4 warnings) in 2 files, 3 fixable".
func (s *Styles) FormatSummaryOneLine(stats runner.Stats) string {
	if stats.ProblemsTotal == 0 {
		msg := s.Success.Render("No problems found") +
			s.Dim.Render(fmt.Sprintf(" (%d %s analysed)", stats.FilesProcessed, plural(stats.FilesProcessed, wordFile, wordFiles)))
		if stats.EditsApplied > 0 {
			msg += ", " + s.fixed(stats)
		}
		return msg + "\n"
	}

	var parts []string

	var severityParts []string
	if n := stats.ProblemsBySeverity["error"]; n > 0 {
		severityParts = append(severityParts, s.Error.Render(fmt.Sprintf("%d %s", n, plural(n, "error", "errors"))))
	}
	if n := stats.ProblemsBySeverity["warning"]; n > 0 {
		severityParts = append(severityParts, s.Warning.Render(fmt.Sprintf("%d %s", n, plural(n, "warning", "warnings"))))
	}
	if n := stats.ProblemsBySeverity["info"]; n > 0 {
		severityParts = append(severityParts, s.Info.Render(fmt.Sprintf("%d info", n)))
	}

	total := fmt.Sprintf("%d %s", stats.ProblemsTotal, plural(stats.ProblemsTotal, "problem", "problems"))
	if len(severityParts) > 0 {
		total += " (" + strings.Join(severityParts, ", ") + ")"
	}
	parts = append(parts, total,
		fmt.Sprintf("in %d %s", stats.FilesWithProblems, plural(stats.FilesWithProblems, wordFile, wordFiles)))

	if stats.ProblemsFixable > 0 {
		parts = append(parts, s.Success.Render(fmt.Sprintf("%d fixable", stats.ProblemsFixable)))
	}
	if stats.EditsApplied > 0 {
		parts = append(parts, s.fixed(stats))
	}
	if stats.FilesErrored > 0 {
		parts = append(parts, s.Failure.Render(fmt.Sprintf("%d %s failed", stats.FilesErrored, plural(stats.FilesErrored, wordFile, wordFiles))))
	}

	return strings.Join(parts, ", ") + "\n"
}

func (s *Styles) fixed(stats runner.Stats) string {
	return s.Success.Render(fmt.Sprintf("%d %s applied in %d %s",
		stats.EditsApplied, plural(stats.EditsApplied, "edit", "edits"),
		stats.FilesModified, plural(stats.FilesModified, wordFile, wordFiles)))
}

// FormatAnalysisStats formats the scheduler counters for verbose output.
func (s *Styles) FormatAnalysisStats(stats runner.Stats) string {
	a := stats.Analysis
	return s.Dim.Render(fmt.Sprintf("analysis: %d requests (%d coalesced), %d published, %d stale, %d failed, %d exhausted",
		a.Enqueued, a.Coalesced, a.Published, a.Stale, a.Failed, a.Exhausted)) + "\n"
}
