package buffer

// LineAttr is a bitmask of per-line flags.
type LineAttr uint8

const (
	// LineHasError marks a line touched by an error problem.
	LineHasError LineAttr = 1 << iota

	// LineHasWarning marks a line touched by a warning problem.
	LineHasWarning

	// LineBookmark is a user bookmark.
	LineBookmark
)

// problemAttrs are the flags owned by the problem set.
const problemAttrs = LineHasError | LineHasWarning

// sentinelOffset is the line-start offset of the first line of a document.
const sentinelOffset = -1

// LineStart marks the beginning of a line inside a block. The line begins at
// block-relative offset Offset+1: Offset is the newline that ends the
// previous line, or sentinelOffset for the first line of the document.
type LineStart struct {
	Offset int
	Attrs  LineAttr
}

// buildLineStarts scans text for newlines.
func buildLineStarts(text []rune, first bool) []LineStart {
	var lines []LineStart
	if first {
		lines = append(lines, LineStart{Offset: sentinelOffset})
	}
	for i, r := range text {
		if r == '\n' {
			lines = append(lines, LineStart{Offset: i})
		}
	}
	return lines
}

// replaceLineStarts updates lines for the replacement of [start, end) by ins.
// Entries before the edit keep their offsets, entries for removed newlines
// vanish, and entries after the edit shift by the length change.
func replaceLineStarts(lines []LineStart, start, end int, ins []rune) []LineStart {
	delta := len(ins) - (end - start)
	out := make([]LineStart, 0, len(lines)+4)

	idx := 0
	for idx < len(lines) && lines[idx].Offset < start {
		out = append(out, lines[idx])
		idx++
	}
	for idx < len(lines) && lines[idx].Offset < end {
		idx++
	}
	for i, r := range ins {
		if r == '\n' {
			out = append(out, LineStart{Offset: start + i})
		}
	}
	for ; idx < len(lines); idx++ {
		out = append(out, LineStart{Offset: lines[idx].Offset + delta, Attrs: lines[idx].Attrs})
	}
	return out
}
