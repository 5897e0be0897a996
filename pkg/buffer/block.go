package buffer

import (
	"fmt"
	"slices"
)

// Block is a bounded fragment of document text with its own line table and
// style layers. All offsets inside a block are block-relative.
type Block struct {
	text   []rune
	lines  []LineStart
	styles [NumLayers][]StyleRun

	// Absolute position cache, valid only while cacheEpoch matches the
	// owning buffer's layout epoch.
	cacheEpoch uint64
	cacheStart int
	cacheLine  int
}

// NewBlock creates a block holding s. The first block of a document also
// carries the sentinel line start of the first line.
func NewBlock(s string, first bool) *Block {
	return newBlock([]rune(s), first)
}

func newBlock(text []rune, first bool) *Block {
	blk := &Block{
		text:  text,
		lines: buildLineStarts(text, first),
	}
	for layer := range blk.styles {
		blk.styles[layer] = []StyleRun{{Start: 0, Style: NoStyle}}
	}
	return blk
}

// Len returns the number of characters in the block.
func (b *Block) Len() int {
	return len(b.text)
}

// Text returns the block's text.
func (b *Block) Text() string {
	return string(b.text)
}

// LineStarts returns a copy of the block's line table.
func (b *Block) LineStarts() []LineStart {
	return slices.Clone(b.lines)
}

// StyleRuns returns a copy of one style layer.
func (b *Block) StyleRuns(layer Layer) []StyleRun {
	return slices.Clone(b.styles[layer])
}

// isFirst reports whether the block carries the first-line sentinel.
func (b *Block) isFirst() bool {
	return len(b.lines) > 0 && b.lines[0].Offset == sentinelOffset
}

// Replace replaces the characters [start, end) with ins. prev and next are
// the neighbouring blocks (nil at the document edges); their boundary styles
// may be borrowed when styling the inserted text.
func (b *Block) Replace(start, end int, ins string, prev, next *Block) {
	b.replace(start, end, []rune(ins), prev, next)
}

func (b *Block) replace(start, end int, ins []rune, prev, next *Block) {
	if start < 0 || end < start || end > len(b.text) {
		panic(fmt.Sprintf("buffer: block replace [%d,%d) outside block of length %d", start, end, len(b.text)))
	}

	oldLen := len(b.text)
	for layer := range b.styles {
		edge := edgeStyles{}
		if prev != nil && prev.Len() > 0 {
			edge.prev, edge.hasPrev = prev.lastStyle(Layer(layer)), true
		}
		if next != nil && next.Len() > 0 {
			edge.next, edge.hasNext = next.firstStyle(Layer(layer)), true
		}
		b.styles[layer] = replaceRuns(b.styles[layer], oldLen, start, end, ins, edge)
	}

	b.lines = replaceLineStarts(b.lines, start, end, ins)
	b.text = slices.Replace(b.text, start, end, ins...)
}

// InsertStyleRange sets the style of [start, end) on layer, clipping the
// neighbouring runs so the layer stays a partition.
func (b *Block) InsertStyleRange(start, end int, style Style, layer Layer) {
	if start < 0 || end > len(b.text) || end < start {
		panic(fmt.Sprintf("buffer: style range [%d,%d) outside block of length %d", start, end, len(b.text)))
	}
	if start == end {
		return
	}

	runs := b.styles[layer]
	out := make([]StyleRun, 0, len(runs)+2)
	for _, run := range runs {
		if run.Start >= start {
			break
		}
		out = append(out, run)
	}
	out = append(out, StyleRun{Start: start, Style: style})
	if end < len(b.text) {
		out = append(out, StyleRun{Start: end, Style: styleAt(runs, end)})
		for _, run := range runs {
			if run.Start > end {
				out = append(out, run)
			}
		}
	}
	b.styles[layer] = normalizeRuns(out, len(b.text))
}

// clearStyles resets one layer to the default style.
func (b *Block) clearStyles(layer Layer) {
	b.styles[layer] = []StyleRun{{Start: 0, Style: NoStyle}}
}

// Split cuts the block into contiguous pieces of at most desiredSize
// characters. Offsets in every piece are rebased to zero.
func (b *Block) Split(desiredSize int) []*Block {
	if desiredSize <= 0 || len(b.text) <= desiredSize {
		return []*Block{b}
	}

	pieces := make([]*Block, 0, len(b.text)/desiredSize+1)
	lineIdx := 0
	for pieceStart := 0; pieceStart < len(b.text); pieceStart += desiredSize {
		pieceEnd := min(pieceStart+desiredSize, len(b.text))
		piece := &Block{text: slices.Clone(b.text[pieceStart:pieceEnd])}

		for lineIdx < len(b.lines) && b.lines[lineIdx].Offset < pieceEnd {
			entry := b.lines[lineIdx]
			if entry.Offset != sentinelOffset {
				entry.Offset -= pieceStart
			}
			piece.lines = append(piece.lines, entry)
			lineIdx++
		}

		for layer := range b.styles {
			runs := b.styles[layer]
			pieceRuns := []StyleRun{{Start: 0, Style: styleAt(runs, pieceStart)}}
			for _, run := range runs {
				if run.Start > pieceStart && run.Start < pieceEnd {
					pieceRuns = append(pieceRuns, StyleRun{Start: run.Start - pieceStart, Style: run.Style})
				}
			}
			piece.styles[layer] = normalizeRuns(pieceRuns, len(piece.text))
		}

		pieces = append(pieces, piece)
	}
	return pieces
}

// Append concatenates other onto the end of b. Style runs meeting at the seam
// merge when their styles match.
func (b *Block) Append(other *Block) {
	shift := len(b.text)
	for _, entry := range other.lines {
		if entry.Offset == sentinelOffset {
			continue
		}
		entry.Offset += shift
		b.lines = append(b.lines, entry)
	}
	for layer := range b.styles {
		runs := slices.Clone(b.styles[layer])
		if shift == 0 {
			runs = runs[:0]
		}
		for _, run := range other.styles[layer] {
			runs = append(runs, StyleRun{Start: run.Start + shift, Style: run.Style})
		}
		b.styles[layer] = normalizeRuns(runs, shift+len(other.text))
	}
	b.text = append(b.text, other.text...)
}

func (b *Block) firstStyle(layer Layer) Style {
	return b.styles[layer][0].Style
}

func (b *Block) lastStyle(layer Layer) Style {
	runs := b.styles[layer]
	return runs[len(runs)-1].Style
}

// Validate checks the block invariants: one line start per newline (plus
// the sentinel in the first block) and gap-free, overlap-free style layers
// starting at zero.
func (b *Block) Validate(first bool) error {
	newlines := 0
	for _, r := range b.text {
		if r == '\n' {
			newlines++
		}
	}
	want := newlines
	if first {
		want++
	}
	if len(b.lines) != want {
		return fmt.Errorf("%w: %d line starts for %d newlines (first=%t)", ErrCorrupt, len(b.lines), newlines, first)
	}
	for i, entry := range b.lines {
		if entry.Offset == sentinelOffset {
			if i != 0 || !first {
				return fmt.Errorf("%w: misplaced first-line sentinel", ErrCorrupt)
			}
			continue
		}
		if entry.Offset < 0 || entry.Offset >= len(b.text) || b.text[entry.Offset] != '\n' {
			return fmt.Errorf("%w: line start %d does not follow a newline", ErrCorrupt, entry.Offset)
		}
	}

	for layer, runs := range b.styles {
		if len(runs) == 0 || runs[0].Start != 0 {
			return fmt.Errorf("%w: layer %d does not start at offset 0", ErrCorrupt, layer)
		}
		for i := 1; i < len(runs); i++ {
			if runs[i].Start <= runs[i-1].Start || runs[i].Start >= len(b.text) {
				return fmt.Errorf("%w: layer %d run %d at %d out of order", ErrCorrupt, layer, i, runs[i].Start)
			}
		}
	}
	return nil
}
