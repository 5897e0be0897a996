// Package buffer implements the block-structured document buffer: text split
// into bounded blocks with per-block line tables and style layers, an
// undo/redo version graph, and the problem and context sets published by
// background analysis.
package buffer

import "errors"

// Edit errors
var (
	// ErrPublishing indicates an edit was attempted while analysis results
	// were being published into the buffer.
	ErrPublishing = errors.New("buffer is publishing analysis results")

	// ErrCorrupt indicates a block invariant does not hold.
	ErrCorrupt = errors.New("buffer invariant violated")
)

// Annotation errors
var (
	// ErrNoProblem indicates that a problem id does not exist.
	ErrNoProblem = errors.New("problem not found")

	// ErrNoFixits indicates that a problem has no fix-it replacements.
	ErrNoFixits = errors.New("problem has no fix-its")
)
