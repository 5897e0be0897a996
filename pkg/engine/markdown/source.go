package markdown

import (
	"sort"
	"unicode/utf8"

	"github.com/yaklabco/srcbuf/pkg/text"
)

// line is one line of the source in byte offsets.
type line struct {
	// start is the offset of the first byte.
	start int

	// end is the offset of the line terminator, or the end of the source.
	end int
}

// source is the text of a document with a line index and a byte to rune
// offset map. goldmark works in bytes; the buffer works in runes.
type source struct {
	src   []byte
	lines []line
	runes []int
}

func newSource(content string) *source {
	src := []byte(content)
	s := &source{src: src, runes: make([]int, len(src)+1)}

	n := 0
	for i := 0; i < len(src); {
		_, size := utf8.DecodeRune(src[i:])
		for k := range size {
			s.runes[i+k] = n
		}
		n++
		i += size
	}
	s.runes[len(src)] = n

	start := 0
	for i, b := range src {
		if b != '\n' {
			continue
		}
		end := i
		if end > start && src[end-1] == '\r' {
			end--
		}
		s.lines = append(s.lines, line{start: start, end: end})
		start = i + 1
	}
	if start < len(src) || len(s.lines) == 0 {
		s.lines = append(s.lines, line{start: start, end: len(src)})
	}
	return s
}

// loc converts a byte offset to a document location.
func (s *source) loc(b int) text.Location {
	b = min(max(b, 0), len(s.src))
	return text.Location(s.runes[b])
}

// span converts a byte range to a document range.
func (s *source) span(start, end int) text.Range {
	return text.MustRange(s.loc(start), s.loc(max(start, end)))
}

// length is the document length in characters.
func (s *source) length() int {
	return s.runes[len(s.src)]
}

// lineAt returns the index of the line holding byte b.
func (s *source) lineAt(b int) int {
	idx := sort.Search(len(s.lines), func(i int) bool { return s.lines[i].start > b }) - 1
	return max(idx, 0)
}

func (s *source) lineText(i int) []byte {
	ln := s.lines[i]
	return s.src[ln.start:ln.end]
}

// lineRange covers lines first..last without the final terminator.
func (s *source) lineRange(first, last int) text.Range {
	return s.span(s.lines[first].start, s.lines[last].end)
}

func (s *source) blank(i int) bool {
	for _, b := range s.lineText(i) {
		if b != ' ' && b != '\t' {
			return false
		}
	}
	return true
}

// indent returns the offset of the first byte of line i that is not
// indentation or a block quote marker.
func (s *source) indent(i int) int {
	ln := s.lines[i]
	at := ln.start
	for at < ln.end && (s.src[at] == ' ' || s.src[at] == '\t' || s.src[at] == '>') {
		at++
	}
	return at
}

// widen grows [start, stop) over the delimiters around it, allowing one
// padding space on each side.
func (s *source) widen(start, stop int, delim byte) (int, int) {
	a, b := start, stop
	if a > 1 && s.src[a-1] == ' ' && s.src[a-2] == delim {
		a--
	}
	for a > 0 && s.src[a-1] == delim {
		a--
	}
	if b+1 < len(s.src) && s.src[b] == ' ' && s.src[b+1] == delim {
		b++
	}
	for b < len(s.src) && s.src[b] == delim {
		b++
	}
	return a, b
}
