package buffer

import (
	"fmt"
	"slices"

	"github.com/yaklabco/srcbuf/pkg/fix"
	"github.com/yaklabco/srcbuf/pkg/text"
)

// Severity ranks problems.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns the lower-case name of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// ProblemRange is a secondary range attached to a problem.
type ProblemRange struct {
	Range   text.Range
	Message string
}

// Problem is a diagnostic attached to the document.
type Problem struct {
	// ID is assigned by AddProblem.
	ID       int
	Severity Severity
	Message  string
	Range    text.Range

	// Ranges are related sub-ranges, e.g. the notes of a compiler error.
	Ranges []ProblemRange

	// Fixits are replacements that resolve the problem, in document offsets.
	Fixits []fix.TextEdit
}

func (p *Problem) clone() Problem {
	out := *p
	out.Ranges = slices.Clone(p.Ranges)
	out.Fixits = slices.Clone(p.Fixits)
	return out
}

// AddProblem adds p to the problem set and returns its id. The lines the
// primary range touches are flagged with the matching line attribute.
func (b *Buffer) AddProblem(p Problem) int {
	b.nextProblemID++
	p.ID = b.nextProblemID
	p.Ranges = slices.Clone(p.Ranges)
	p.Fixits = slices.Clone(p.Fixits)
	b.problems = append(b.problems, &p)
	b.markProblemLines(&p)
	return p.ID
}

// AddProblemRange attaches a secondary range to problem id.
func (b *Buffer) AddProblemRange(id int, r text.Range, message string) error {
	p := b.problem(id)
	if p == nil {
		return fmt.Errorf("add range to problem %d: %w", id, ErrNoProblem)
	}
	b.checkRange(r)
	p.Ranges = append(p.Ranges, ProblemRange{Range: r, Message: message})
	return nil
}

// ClearProblems removes all problems and their line flags.
func (b *Buffer) ClearProblems() {
	b.problems = nil
	for _, blk := range b.blocks {
		for i := range blk.lines {
			blk.lines[i].Attrs &^= problemAttrs
		}
	}
}

// Problems returns copies of all problems in insertion order.
func (b *Buffer) Problems() []Problem {
	out := make([]Problem, 0, len(b.problems))
	for _, p := range b.problems {
		out = append(out, p.clone())
	}
	return out
}

// Problem returns a copy of problem id.
func (b *Buffer) Problem(id int) (Problem, bool) {
	p := b.problem(id)
	if p == nil {
		return Problem{}, false
	}
	return p.clone(), true
}

// ProblemsAt returns the problems whose primary range contains loc.
func (b *Buffer) ProblemsAt(loc text.Location) []Problem {
	var out []Problem
	for _, p := range b.problems {
		if p.Range.Contains(loc) || (p.Range.IsEmpty() && p.Range.Start == loc) {
			out = append(out, p.clone())
		}
	}
	return out
}

// ApplyFixits applies the fix-its of problem id as one undo step.
func (b *Buffer) ApplyFixits(id int) error {
	p := b.problem(id)
	if p == nil {
		return fmt.Errorf("apply fix-its of problem %d: %w", id, ErrNoProblem)
	}
	if len(p.Fixits) == 0 {
		return fmt.Errorf("apply fix-its of problem %d: %w", id, ErrNoFixits)
	}

	edits, err := fix.PrepareEdits(p.Fixits, b.length)
	if err != nil {
		return fmt.Errorf("apply fix-its of problem %d: %w", id, err)
	}

	b.BeginCombinedStep()
	defer b.EndCombinedStep()

	// Back to front so earlier offsets stay valid.
	for i := len(edits) - 1; i >= 0; i-- {
		edit := edits[i]
		r := text.MustRange(text.Location(edit.StartOffset), text.Location(edit.EndOffset))
		if err := b.Replace(r, edit.NewText, true); err != nil {
			return fmt.Errorf("apply fix-its of problem %d: %w", id, err)
		}
	}
	return nil
}

// FixitSummary counts the outcome of ApplyAllFixits.
type FixitSummary struct {
	Applied int
	Merged  int
	Skipped int
}

// ApplyAllFixits applies the fix-its of every problem as one undo step.
// Overlapping deletions are merged; other conflicting fix-its are skipped,
// the earlier one winning.
func (b *Buffer) ApplyAllFixits() (FixitSummary, error) {
	var all []fix.TextEdit
	for _, p := range b.problems {
		all = append(all, p.Fixits...)
	}
	if len(all) == 0 {
		return FixitSummary{}, nil
	}

	edits, skipped, merged, err := fix.PrepareEditsFiltered(all, b.length)
	if err != nil {
		return FixitSummary{}, fmt.Errorf("apply fix-its: %w", err)
	}

	b.BeginCombinedStep()
	defer b.EndCombinedStep()

	for i := len(edits) - 1; i >= 0; i-- {
		edit := edits[i]
		r := text.MustRange(text.Location(edit.StartOffset), text.Location(edit.EndOffset))
		if err := b.Replace(r, edit.NewText, true); err != nil {
			return FixitSummary{}, fmt.Errorf("apply fix-its: %w", err)
		}
	}
	return FixitSummary{Applied: len(edits), Merged: merged, Skipped: len(skipped)}, nil
}

func (b *Buffer) problem(id int) *Problem {
	for _, p := range b.problems {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (b *Buffer) markProblemLines(p *Problem) {
	var attr LineAttr
	switch p.Severity {
	case SeverityError:
		attr = LineHasError
	case SeverityWarning:
		attr = LineHasWarning
	default:
		return
	}
	if !p.Range.IsValid() || int(p.Range.End) > b.length {
		return
	}
	firstLine, _ := b.LineOf(p.Range.Start)
	lastLoc := p.Range.End
	if !p.Range.IsEmpty() {
		lastLoc--
	}
	lastLine, _ := b.LineOf(lastLoc)
	for line := firstLine; line <= lastLine; line++ {
		b.setLineAttrs(line, b.LineAttributes(line)|attr)
	}
}
