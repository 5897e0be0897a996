package analysis

import (
	"github.com/yaklabco/srcbuf/pkg/buffer"
	"github.com/yaklabco/srcbuf/pkg/fix"
	"github.com/yaklabco/srcbuf/pkg/text"
)

type highlight struct {
	Range   text.Range
	Style   buffer.StyleID
	NonCode bool
}

// results is what a worker copies out of a unit before publication.
type results struct {
	mode        Mode
	highlights  []highlight
	spans       []StyleSpan
	scopes      []Scope
	diagnostics []Diagnostic

	// dropped counts items whose ranges did not fit the analysed text.
	dropped int
}

// collect drains the unit's iterators. Ranges are checked against the length
// of the analysed text so publication cannot trip the buffer's range checks.
func collect(unit Unit, mode Mode, length int, classify Classifier) *results {
	res := &results{mode: mode}
	fits := func(r text.Range) bool {
		if r.Start < 0 || r.End < r.Start || int(r.End) > length {
			res.dropped++
			return false
		}
		return true
	}

	for scope := range unit.Scopes() {
		if fits(scope.Range) {
			res.scopes = append(res.scopes, scope)
		}
	}
	if mode == ModeIndexOnly {
		return res
	}

	for tok := range unit.Tokens() {
		style, nonCode := classify(tok.Kind)
		if style == buffer.StyleNone && !nonCode {
			continue
		}
		if fits(tok.Range) {
			res.highlights = append(res.highlights, highlight{Range: tok.Range, Style: style, NonCode: nonCode})
		}
	}
	for span := range unit.Spans() {
		if fits(span.Range) {
			res.spans = append(res.spans, span)
		}
	}
	for diag := range unit.Diagnostics() {
		if !fits(diag.Range) {
			continue
		}
		related := diag.Related[:0:0]
		for _, rel := range diag.Related {
			if fits(rel.Range) {
				related = append(related, rel)
			}
		}
		diag.Related = related
		if err := fix.ValidateEdits(diag.Fixits, length); err != nil {
			diag.Fixits = nil
			res.dropped++
		}
		res.diagnostics = append(res.diagnostics, diag)
	}
	return res
}

// apply replaces the buffer's annotations with res and returns the number of
// problems published. It runs inside Buffer.Publish.
func (res *results) apply(buf *buffer.Buffer) int {
	buf.ClearContexts()
	for _, scope := range res.scopes {
		buf.AddContext(buffer.Context{Name: scope.Name, Description: scope.Description, Range: scope.Range})
	}
	if res.mode == ModeIndexOnly {
		return 0
	}

	buf.ClearHighlightRanges(buffer.LayerSyntax)
	buf.ClearHighlightRanges(buffer.LayerOverlay)
	for _, h := range res.highlights {
		buf.AddHighlightRange(h.Range, h.NonCode, h.Style, buffer.LayerSyntax)
	}
	for _, span := range res.spans {
		buf.AddHighlightRange(span.Range, false, span.Style, buffer.LayerOverlay)
	}

	buf.ClearProblems()
	for _, diag := range res.diagnostics {
		problem := buffer.Problem{
			Severity: diag.Severity,
			Message:  diag.Message,
			Range:    diag.Range,
			Fixits:   diag.Fixits,
		}
		for _, rel := range diag.Related {
			problem.Ranges = append(problem.Ranges, buffer.ProblemRange{Range: rel.Range, Message: rel.Message})
		}
		buf.AddProblem(problem)
	}
	return len(res.diagnostics)
}
