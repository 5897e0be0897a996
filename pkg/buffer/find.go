package buffer

import (
	"unicode"

	"github.com/yaklabco/srcbuf/pkg/text"
)

// Find searches for needle starting at start and returns the location of the
// first match, or text.Invalid. Forward searches consider matches starting
// at or after start, backward searches matches starting before it. The scan
// does not wrap; callers retry from the other end for that.
func (b *Buffer) Find(needle string, start text.Location, forwards, matchCase bool) text.Location {
	pattern := []rune(needle)
	if len(pattern) == 0 || len(pattern) > b.length {
		return text.Invalid
	}

	hay := b.runes()
	last := len(hay) - len(pattern)
	if forwards {
		for i := max(int(start), 0); i <= last; i++ {
			if matchAt(hay, i, pattern, matchCase) {
				return text.Location(i)
			}
		}
		return text.Invalid
	}
	for i := min(int(start)-1, last); i >= 0; i-- {
		if matchAt(hay, i, pattern, matchCase) {
			return text.Location(i)
		}
	}
	return text.Invalid
}

func matchAt(hay []rune, at int, pattern []rune, matchCase bool) bool {
	for j, p := range pattern {
		h := hay[at+j]
		if h == p {
			continue
		}
		if matchCase || unicode.ToLower(h) != unicode.ToLower(p) {
			return false
		}
	}
	return true
}
