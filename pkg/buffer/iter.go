package buffer

import (
	"iter"
	"sort"
	"strings"

	"github.com/yaklabco/srcbuf/pkg/text"
)

// Text returns the whole document.
func (b *Buffer) Text() string {
	var sb strings.Builder
	sb.Grow(b.length)
	for _, blk := range b.blocks {
		for _, r := range blk.text {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// TextRange returns the characters in r.
func (b *Buffer) TextRange(r text.Range) string {
	b.checkRange(r)
	var sb strings.Builder
	sb.Grow(r.Len())
	for loc, ch := range b.Chars(r.Start) {
		if loc >= r.End {
			break
		}
		sb.WriteRune(ch)
	}
	return sb.String()
}

func (b *Buffer) runes() []rune {
	out := make([]rune, 0, b.length)
	for _, blk := range b.blocks {
		out = append(out, blk.text...)
	}
	return out
}

// Chars yields the characters from loc to the end of the document.
func (b *Buffer) Chars(from text.Location) iter.Seq2[text.Location, rune] {
	return func(yield func(text.Location, rune) bool) {
		if int(from) >= b.length || from < 0 {
			return
		}
		first := b.blockIndex(int(from))
		for idx := first; idx < len(b.blocks); idx++ {
			blk := b.blocks[idx]
			offset := 0
			if idx == first {
				offset = int(from) - blk.cacheStart
			}
			for i := offset; i < len(blk.text); i++ {
				if !yield(text.Location(blk.cacheStart+i), blk.text[i]) {
					return
				}
			}
		}
	}
}

// LineCount returns the number of lines. An empty document has one line.
func (b *Buffer) LineCount() int {
	count := 0
	for _, blk := range b.blocks {
		count += len(blk.lines)
	}
	return count
}

// lineEntry finds the block and index of a 0-based line.
func (b *Buffer) lineEntry(line int) (*Block, int, bool) {
	if line < 0 {
		return nil, 0, false
	}
	b.reindex()
	idx := sort.Search(len(b.blocks), func(i int) bool { return b.blocks[i].cacheLine > line }) - 1
	if idx < 0 {
		return nil, 0, false
	}
	blk := b.blocks[idx]
	k := line - blk.cacheLine
	if k >= len(blk.lines) {
		return nil, 0, false
	}
	return blk, k, true
}

// LineStart returns the location of the first character of a 0-based line,
// or text.Invalid if the line does not exist.
func (b *Buffer) LineStart(line int) text.Location {
	blk, k, ok := b.lineEntry(line)
	if !ok {
		return text.Invalid
	}
	return text.Location(blk.cacheStart + blk.lines[k].Offset + 1)
}

// LineOf returns the 0-based line and column of loc.
func (b *Buffer) LineOf(loc text.Location) (int, int) {
	if loc < 0 {
		return 0, 0
	}
	loc = min(loc, text.Location(b.length))
	idx := b.blockIndex(int(loc))
	local := int(loc) - b.blocks[idx].cacheStart

	for ; idx >= 0; idx-- {
		blk := b.blocks[idx]
		k := sort.Search(len(blk.lines), func(i int) bool { return blk.lines[i].Offset+1 > local }) - 1
		if k >= 0 {
			line := blk.cacheLine + k
			return line, int(loc) - (blk.cacheStart + blk.lines[k].Offset + 1)
		}
		if idx > 0 {
			local = b.blocks[idx-1].Len()
		}
	}
	return 0, int(loc)
}

// LineAttributes returns the flags of a 0-based line.
func (b *Buffer) LineAttributes(line int) LineAttr {
	blk, k, ok := b.lineEntry(line)
	if !ok {
		return 0
	}
	return blk.lines[k].Attrs
}

// SetLineAttributes replaces the flags of a 0-based line.
func (b *Buffer) SetLineAttributes(line int, attrs LineAttr) {
	b.setLineAttrs(line, attrs)
}

func (b *Buffer) setLineAttrs(line int, attrs LineAttr) {
	blk, k, ok := b.lineEntry(line)
	if !ok {
		return
	}
	blk.lines[k].Attrs = attrs
}

// Lines yields each 0-based line number with its text, without the newline.
func (b *Buffer) Lines() iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		line := 0
		var sb strings.Builder
		for _, blk := range b.blocks {
			for _, r := range blk.text {
				if r == '\n' {
					if !yield(line, sb.String()) {
						return
					}
					sb.Reset()
					line++
					continue
				}
				sb.WriteRune(r)
			}
		}
		yield(line, sb.String())
	}
}
