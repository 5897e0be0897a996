package buffer

import (
	"slices"
	"sort"

	"github.com/yaklabco/srcbuf/pkg/text"
)

// Context is a named semantic scope such as an enclosing function or section.
type Context struct {
	Name        string
	Description string
	Range       text.Range
}

// contextLess orders contexts by start, outer (longer) ranges first.
func contextLess(a, b Context) bool {
	if a.Range.Start != b.Range.Start {
		return a.Range.Start < b.Range.Start
	}
	return a.Range.End > b.Range.End
}

// AddContext inserts c keeping the set ordered by range start.
func (b *Buffer) AddContext(c Context) {
	b.checkRange(c.Range)
	idx := sort.Search(len(b.contexts), func(i int) bool { return contextLess(c, b.contexts[i]) })
	b.contexts = slices.Insert(b.contexts, idx, c)
}

// ClearContexts removes all contexts.
func (b *Buffer) ClearContexts() {
	b.contexts = nil
}

// Contexts returns all contexts ordered by range start.
func (b *Buffer) Contexts() []Context {
	return slices.Clone(b.contexts)
}

// GetContextsAt returns the contexts whose range contains loc, outermost first.
func (b *Buffer) GetContextsAt(loc text.Location) []Context {
	limit := sort.Search(len(b.contexts), func(i int) bool { return b.contexts[i].Range.Start > loc })
	var out []Context
	for _, c := range b.contexts[:limit] {
		if c.Range.Contains(loc) {
			out = append(out, c)
		}
	}
	return out
}

// adjustAnnotations moves problems and contexts through an edit of r into n
// characters. Contexts that vanish are dropped; problems keep a collapsed
// range and lose fix-its that touched the edited span.
func (b *Buffer) adjustAnnotations(r text.Range, n int) {
	for _, p := range b.problems {
		p.Range, _ = text.AdjustForEdit(p.Range, r, n)
		for i := range p.Ranges {
			p.Ranges[i].Range, _ = text.AdjustForEdit(p.Ranges[i].Range, r, n)
		}
		fixits := p.Fixits[:0]
		for _, edit := range p.Fixits {
			editRange := text.MustRange(text.Location(edit.StartOffset), text.Location(edit.EndOffset))
			if editRange.Overlaps(r) || (editRange.IsEmpty() && r.Contains(editRange.Start)) {
				continue
			}
			moved, _ := text.AdjustForEdit(editRange, r, n)
			edit.StartOffset, edit.EndOffset = int(moved.Start), int(moved.End)
			fixits = append(fixits, edit)
		}
		p.Fixits = fixits
	}

	if len(b.contexts) == 0 {
		return
	}
	contexts := b.contexts[:0]
	for _, c := range b.contexts {
		moved, ok := text.AdjustForEdit(c.Range, r, n)
		if !ok {
			continue
		}
		c.Range = moved
		contexts = append(contexts, c)
	}
	b.contexts = contexts
	sort.SliceStable(b.contexts, func(i, j int) bool { return contextLess(b.contexts[i], b.contexts[j]) })
}
