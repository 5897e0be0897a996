// Package text defines the position types shared by the buffer and the
// analysis scheduler.
package text

import "fmt"

// Location is an absolute character (rune) offset into a document.
type Location int

// Invalid marks a Location that does not point into any text.
const Invalid Location = -1

// IsValid reports whether the location points into text.
func (l Location) IsValid() bool {
	return l >= 0
}

// Range is a half-open span [Start, End) of characters.
type Range struct {
	// Start is the first character of the range (inclusive).
	Start Location

	// End is the character after the range (exclusive).
	End Location
}

// InvalidRange is the zero-information range.
//
//nolint:gochecknoglobals // Read-only sentinel value.
var InvalidRange = Range{Start: Invalid, End: Invalid}

// MustRange returns the range [start, end).
// It panics if end is before start, since that is always a caller bug.
func MustRange(start, end Location) Range {
	if end.IsValid() && end < start {
		panic(fmt.Sprintf("text: range end %d is before start %d", end, start))
	}
	return Range{Start: start, End: end}
}

// Span returns the range of length n starting at start.
func Span(start Location, n int) Range {
	return MustRange(start, start+Location(n))
}

// IsValid reports whether the range is usable. A range is invalid iff its end is.
func (r Range) IsValid() bool {
	return r.End.IsValid()
}

// Len returns the number of characters covered by the range.
func (r Range) Len() int {
	return int(r.End - r.Start)
}

// IsEmpty reports whether the range covers no characters.
func (r Range) IsEmpty() bool {
	return r.Start == r.End
}

// Contains reports whether loc lies within [Start, End).
func (r Range) Contains(loc Location) bool {
	return loc >= r.Start && loc < r.End
}

// ContainsRange reports whether other lies entirely within r.
func (r Range) ContainsRange(other Range) bool {
	return other.Start >= r.Start && other.End <= r.End
}

// Overlaps reports whether the two ranges share at least one character.
func (r Range) Overlaps(other Range) bool {
	return r.Start < other.End && other.Start < r.End
}

// String formats the range as "[start,end)".
func (r Range) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}
