package buffer

import "github.com/yaklabco/srcbuf/pkg/text"

// StyleSpan is a style run in absolute document coordinates.
type StyleSpan struct {
	Range text.Range
	Style Style
}

// AddHighlightRange sets the style of r on layer. It is the authoritative
// path used when publishing analysis results, and it corrects whatever the
// edit-time heuristic guessed.
func (b *Buffer) AddHighlightRange(r text.Range, isNonCodeRange bool, style StyleID, layer Layer) {
	b.checkRange(r)
	if r.IsEmpty() {
		return
	}

	first, last := b.locate(r)
	value := Style{ID: style, NonCode: isNonCodeRange}
	for idx := first; idx <= last; idx++ {
		blk := b.blocks[idx]
		start := max(int(r.Start)-blk.cacheStart, 0)
		end := min(int(r.End)-blk.cacheStart, blk.Len())
		blk.InsertStyleRange(start, end, value, layer)
	}
}

// ClearHighlightRanges resets layer to the default style everywhere.
func (b *Buffer) ClearHighlightRanges(layer Layer) {
	for _, blk := range b.blocks {
		blk.clearStyles(layer)
	}
}

// StyleAt returns the style of the character at loc on layer.
func (b *Buffer) StyleAt(loc text.Location, layer Layer) Style {
	if !loc.IsValid() || int(loc) >= b.length {
		return NoStyle
	}
	blk := b.blocks[b.blockIndex(int(loc))]
	return styleAt(blk.styles[layer], int(loc)-blk.cacheStart)
}

// IsNonCodeAt reports whether the syntax layer marks loc as non-code.
func (b *Buffer) IsNonCodeAt(loc text.Location) bool {
	return b.StyleAt(loc, LayerSyntax).NonCode
}

// StyleSpans returns layer as absolute spans, merging runs that continue
// across block boundaries.
func (b *Buffer) StyleSpans(layer Layer) []StyleSpan {
	b.reindex()
	var spans []StyleSpan
	for _, blk := range b.blocks {
		runs := blk.styles[layer]
		for i, run := range runs {
			start := blk.cacheStart + run.Start
			end := blk.cacheStart + blk.Len()
			if i+1 < len(runs) {
				end = blk.cacheStart + runs[i+1].Start
			}
			if start == end {
				continue
			}
			if n := len(spans); n > 0 && spans[n-1].Style == run.Style && int(spans[n-1].Range.End) == start {
				spans[n-1].Range.End = text.Location(end)
				continue
			}
			spans = append(spans, StyleSpan{
				Range: text.MustRange(text.Location(start), text.Location(end)),
				Style: run.Style,
			})
		}
	}
	return spans
}
