// Package history implements the undo/redo version graph of a buffer.
//
// Nodes live in an arena and refer to each other by index. Every node except
// the most current one stores the replacements that turn the text of its
// more current neighbour into its own text; the opposite direction is
// rebuilt by inverting those replacements.
package history

import (
	"unicode/utf8"

	"github.com/yaklabco/srcbuf/pkg/text"
)

// Replacement is one step of an edit: the characters in Range are replaced
// by NewText. OldText holds the replaced characters so the step can be
// inverted without consulting the document.
type Replacement struct {
	Range   text.Range
	NewText string
	OldText string
}

// Invert returns the replacement that undoes r.
func (r Replacement) Invert() Replacement {
	n := utf8.RuneCountInString(r.NewText)
	return Replacement{
		Range:   text.Span(r.Range.Start, n),
		NewText: r.OldText,
		OldText: r.NewText,
	}
}

// InvertAll inverts a sequence of replacements. The result applies in
// reverse order, undoing the last step first.
func InvertAll(steps []Replacement) []Replacement {
	out := make([]Replacement, len(steps))
	for i, step := range steps {
		out[len(steps)-1-i] = step.Invert()
	}
	return out
}
