package reporter

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"

	"github.com/yaklabco/srcbuf/pkg/analysis"
	"github.com/yaklabco/srcbuf/pkg/runner"
)

// jsonSchemaVersion is bumped when the output shape changes incompatibly.
const jsonSchemaVersion = "1.0.0"

// JSONOutput is the top-level JSON structure.
type JSONOutput struct {
	Version string           `json:"version"`
	Files   []JSONFileResult `json:"files"`
	Summary JSONSummary      `json:"summary"`
}

// JSONFileResult represents a single file's results.
type JSONFileResult struct {
	Path     string        `json:"path"`
	Language string        `json:"language,omitempty"`
	Version  uint64        `json:"version"`
	Problems []JSONProblem `json:"problems"`
	Contexts []JSONContext `json:"contexts"`
	Fixed    int           `json:"fixed,omitempty"`
	Modified bool          `json:"modified,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// JSONProblem represents a single problem. Offsets are in characters.
type JSONProblem struct {
	ID          int           `json:"id"`
	Severity    string        `json:"severity"`
	Message     string        `json:"message"`
	Line        int           `json:"line"`
	Column      int           `json:"column"`
	StartOffset int           `json:"startOffset"`
	EndOffset   int           `json:"endOffset"`
	Fixable     bool          `json:"fixable"`
	Fixes       []JSONFix     `json:"fixes,omitempty"`
	Related     []JSONRelated `json:"related,omitempty"`
}

// JSONFix represents a proposed replacement.
type JSONFix struct {
	StartOffset int    `json:"startOffset"`
	EndOffset   int    `json:"endOffset"`
	NewText     string `json:"newText"`
}

// JSONRelated is a secondary range of a problem.
type JSONRelated struct {
	StartOffset int    `json:"startOffset"`
	EndOffset   int    `json:"endOffset"`
	Message     string `json:"message,omitempty"`
}

// JSONContext is a named region of a document.
type JSONContext struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	StartLine   int    `json:"startLine"`
	EndLine     int    `json:"endLine"`
}

// JSONSummary contains aggregate statistics.
type JSONSummary struct {
	FilesAnalysed     int            `json:"filesAnalysed"`
	FilesWithProblems int            `json:"filesWithProblems"`
	FilesModified     int            `json:"filesModified"`
	FilesErrored      int            `json:"filesErrored"`
	TotalProblems     int            `json:"totalProblems"`
	FixableProblems   int            `json:"fixableProblems"`
	EditsApplied      int            `json:"editsApplied"`
	BySeverity        map[string]int `json:"bySeverity"`
	Analysis          JSONAnalysis   `json:"analysis"`
}

// JSONAnalysis mirrors analysis.Stats.
type JSONAnalysis struct {
	Enqueued          int `json:"enqueued"`
	Coalesced         int `json:"coalesced"`
	Published         int `json:"published"`
	Stale             int `json:"stale"`
	Failed            int `json:"failed"`
	Exhausted         int `json:"exhausted"`
	ProblemsPublished int `json:"problemsPublished"`
}

// JSONReporter formats results as JSON.
type JSONReporter struct {
	opts Options
	bw   *bufio.Writer
}

// NewJSONReporter creates a new JSON reporter.
func NewJSONReporter(opts Options) *JSONReporter {
	return &JSONReporter{
		opts: opts,
		bw:   bufio.NewWriterSize(opts.Writer, bufWriterSize),
	}
}

// Report implements Reporter.
func (r *JSONReporter) Report(_ context.Context, result *runner.Result) (_ int, err error) {
	defer func() {
		if flushErr := r.bw.Flush(); err == nil {
			err = flushErr
		}
	}()

	output := r.buildOutput(result)

	encoder := json.NewEncoder(r.bw)
	if !r.opts.Compact {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(output); err != nil {
		return 0, fmt.Errorf("encode JSON: %w", err)
	}

	return output.Summary.TotalProblems, nil
}

func (r *JSONReporter) buildOutput(result *runner.Result) *JSONOutput {
	output := &JSONOutput{
		Version: jsonSchemaVersion,
		Files:   make([]JSONFileResult, 0),
		Summary: JSONSummary{BySeverity: make(map[string]int)},
	}
	if result == nil {
		return output
	}

	for _, file := range result.Files {
		output.Files = append(output.Files, r.buildFile(file))
	}

	stats := result.Stats
	output.Summary = JSONSummary{
		FilesAnalysed:     stats.FilesProcessed,
		FilesWithProblems: stats.FilesWithProblems,
		FilesModified:     stats.FilesModified,
		FilesErrored:      stats.FilesErrored,
		TotalProblems:     stats.ProblemsTotal,
		FixableProblems:   stats.ProblemsFixable,
		EditsApplied:      stats.EditsApplied,
		BySeverity:        stats.ProblemsBySeverity,
		Analysis:          jsonAnalysis(stats.Analysis),
	}
	if output.Summary.BySeverity == nil {
		output.Summary.BySeverity = make(map[string]int)
	}

	return output
}

func (r *JSONReporter) buildFile(file runner.FileOutcome) JSONFileResult {
	out := JSONFileResult{
		Path:     displayPath(file.Path, r.opts.WorkingDir),
		Language: file.Language,
		Version:  file.Version,
		Problems: make([]JSONProblem, 0, len(file.Problems)),
		Contexts: make([]JSONContext, 0, len(file.Contexts)),
		Fixed:    file.Fixed,
		Modified: file.Written,
	}
	if file.Error != nil {
		out.Error = file.Error.Error()
	}

	for _, p := range file.Problems {
		jp := JSONProblem{
			ID:          p.ID,
			Severity:    p.Severity.String(),
			Message:     p.Message,
			Line:        p.Line,
			Column:      p.Column,
			StartOffset: int(p.Range.Start),
			EndOffset:   int(p.Range.End),
			Fixable:     len(p.Fixits) > 0,
		}
		for _, edit := range p.Fixits {
			jp.Fixes = append(jp.Fixes, JSONFix{
				StartOffset: edit.StartOffset,
				EndOffset:   edit.EndOffset,
				NewText:     edit.NewText,
			})
		}
		for _, rel := range p.Ranges {
			jp.Related = append(jp.Related, JSONRelated{
				StartOffset: int(rel.Range.Start),
				EndOffset:   int(rel.Range.End),
				Message:     rel.Message,
			})
		}
		out.Problems = append(out.Problems, jp)
	}

	for _, c := range file.Contexts {
		out.Contexts = append(out.Contexts, JSONContext{
			Name:        c.Name,
			Description: c.Description,
			StartLine:   c.StartLine,
			EndLine:     c.EndLine,
		})
	}

	return out
}

func jsonAnalysis(s analysis.Stats) JSONAnalysis {
	return JSONAnalysis{
		Enqueued:          s.Enqueued,
		Coalesced:         s.Coalesced,
		Published:         s.Published,
		Stale:             s.Stale,
		Failed:            s.Failed,
		Exhausted:         s.Exhausted,
		ProblemsPublished: s.ProblemsPublished,
	}
}
