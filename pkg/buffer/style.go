package buffer

import (
	"sort"
	"unicode"
)

// StyleID identifies a highlight style. Its meaning is owned by whoever
// publishes highlights; the buffer only stores it.
type StyleID uint16

// StyleNone is the "no style" id every layer defaults to.
const StyleNone StyleID = 0

// Layer selects one of the independent style partitions of a block.
type Layer int

const (
	// LayerSyntax holds token-level (lexical) styles.
	LayerSyntax Layer = iota

	// LayerOverlay holds styles derived from the syntax tree.
	LayerOverlay

	// NumLayers is the number of style layers.
	NumLayers = 2
)

// Style is what a style run assigns to its characters.
type Style struct {
	ID StyleID

	// NonCode marks comments, strings and other text that is not code.
	NonCode bool
}

// NoStyle is the default style.
//
//nolint:gochecknoglobals // Read-only zero value.
var NoStyle = Style{}

// StyleRun starts a style at a block-relative offset. It extends to the next
// run's start or to the end of the block.
type StyleRun struct {
	Start int
	Style Style
}

// styleAt returns the style covering pos.
func styleAt(runs []StyleRun, pos int) Style {
	idx := sort.Search(len(runs), func(i int) bool { return runs[i].Start > pos }) - 1
	if idx < 0 {
		return NoStyle
	}
	return runs[idx].Style
}

// runStartsAt reports whether some run begins exactly at pos.
func runStartsAt(runs []StyleRun, pos int) bool {
	idx := sort.Search(len(runs), func(i int) bool { return runs[i].Start >= pos })
	return idx < len(runs) && runs[idx].Start == pos
}

// normalizeRuns restores the partition invariant: a first run at 0, strictly
// increasing starts below length, no two adjacent runs with equal styles.
func normalizeRuns(runs []StyleRun, length int) []StyleRun {
	out := make([]StyleRun, 0, len(runs))
	for _, run := range runs {
		if length > 0 && run.Start >= length {
			break
		}
		if n := len(out); n > 0 && out[n-1].Start >= run.Start {
			// The previous run is empty.
			out = out[:n-1]
		}
		if n := len(out); n > 0 && out[n-1].Style == run.Style {
			continue
		}
		out = append(out, run)
	}
	if len(out) == 0 {
		out = append(out, StyleRun{Start: 0, Style: NoStyle})
	}
	out[0].Start = 0
	return out
}

// edgeStyles carries the styles borrowed from neighbouring blocks.
type edgeStyles struct {
	prev, next       Style
	hasPrev, hasNext bool
}

// replaceRuns applies the replacement of [start, end) by ins to one layer.
//
// Runs inside the replaced span vanish and a run crossing the right edge is
// clipped to begin at the new right edge. Inserted text made only of
// alphanumerics continues the style on its left (or right, at the start of
// the document). Inserted text containing anything else is unstyled, except
// that a non-default style ending exactly at the insertion edge is extended
// up to the first non-alphanumeric character; the left side wins ties.
// This is an immediate approximation that the next analysis pass replaces.
func replaceRuns(runs []StyleRun, oldLen, start, end int, ins []rune, edge edgeStyles) []StyleRun {
	n := len(ins)
	newLen := oldLen - (end - start) + n
	delta := n - (end - start)

	left, hasLeft, leftEnds := leftNeighbour(runs, oldLen, start, edge)
	right, hasRight, rightStarts := rightNeighbour(runs, oldLen, end, edge)

	out := make([]StyleRun, 0, len(runs)+3)
	for _, run := range runs {
		if run.Start >= start {
			break
		}
		out = append(out, run)
	}

	if n > 0 {
		out = append(out, insertedRuns(start, ins, left, hasLeft && leftEnds, hasLeft, right, hasRight && rightStarts, hasRight)...)
	}

	if end < oldLen {
		out = append(out, StyleRun{Start: start + n, Style: styleAt(runs, end)})
		for _, run := range runs {
			if run.Start > end {
				out = append(out, StyleRun{Start: run.Start + delta, Style: run.Style})
			}
		}
	}

	return normalizeRuns(out, newLen)
}

// insertedRuns styles freshly inserted text starting at start.
func insertedRuns(
	start int,
	ins []rune,
	left Style, leftEnds, hasLeft bool,
	right Style, rightStarts, hasRight bool,
) []StyleRun {
	n := len(ins)
	firstOther := -1
	lastOther := -1
	for i, r := range ins {
		if !isAlnum(r) {
			if firstOther < 0 {
				firstOther = i
			}
			lastOther = i
		}
	}

	if firstOther < 0 {
		fill := NoStyle
		switch {
		case hasLeft:
			fill = left
		case hasRight:
			fill = right
		}
		return []StyleRun{{Start: start, Style: fill}}
	}

	out := make([]StyleRun, 0, 3)
	if leftEnds && left != NoStyle && firstOther > 0 {
		out = append(out, StyleRun{Start: start, Style: left})
	}
	out = append(out, StyleRun{Start: start + firstOther, Style: NoStyle})
	if rightStarts && right != NoStyle && lastOther < n-1 {
		out = append(out, StyleRun{Start: start + lastOther + 1, Style: right})
	}
	if out[0].Start > start {
		// Leading alphanumerics without a provable left style stay unstyled.
		out = append([]StyleRun{{Start: start, Style: NoStyle}}, out...)
	}
	return out
}

// leftNeighbour returns the style of the character before start and whether
// its run provably ends at start.
func leftNeighbour(runs []StyleRun, oldLen, start int, edge edgeStyles) (Style, bool, bool) {
	if start > 0 {
		style := styleAt(runs, start-1)
		ends := runStartsAt(runs, start)
		if start == oldLen {
			ends = !edge.hasNext || edge.next != style
		}
		return style, true, ends
	}
	if !edge.hasPrev {
		return NoStyle, false, false
	}
	ends := oldLen == 0 || styleAt(runs, 0) != edge.prev
	return edge.prev, true, ends
}

// rightNeighbour returns the style of the character at end and whether its
// run provably starts at end.
func rightNeighbour(runs []StyleRun, oldLen, end int, edge edgeStyles) (Style, bool, bool) {
	if end < oldLen {
		style := styleAt(runs, end)
		starts := runStartsAt(runs, end) && end > 0
		if end == 0 {
			starts = !edge.hasPrev || edge.prev != style
		}
		return style, true, starts
	}
	if !edge.hasNext {
		return NoStyle, false, false
	}
	starts := oldLen == 0 || styleAt(runs, oldLen-1) != edge.next
	return edge.next, true, starts
}

func isAlnum(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
