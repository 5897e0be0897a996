package buffer

import "github.com/yaklabco/srcbuf/pkg/history"

// BeginCombinedStep opens a combined undo step. Edits recorded until the
// matching EndCombinedStep undo and redo as one unit. Steps nest.
func (b *Buffer) BeginCombinedStep() {
	b.groupDepth++
}

// EndCombinedStep closes the innermost combined undo step.
func (b *Buffer) EndCombinedStep() {
	if b.groupDepth == 0 {
		return
	}
	b.groupDepth--
	if b.groupDepth > 0 || len(b.groupSteps) == 0 {
		return
	}
	b.history.Record(b.version, b.groupSteps)
	b.groupSteps = nil
}

// CanUndo reports whether Undo would change the text.
func (b *Buffer) CanUndo() bool {
	return b.history.CanUndo()
}

// CanRedo reports whether Redo would change the text.
func (b *Buffer) CanRedo() bool {
	return b.history.CanRedo()
}

// Undo reverts the most recent undo step. It returns false when there is
// nothing to undo, while a combined step is open, or during publication.
func (b *Buffer) Undo() bool {
	if b.publishing || b.groupDepth > 0 {
		return false
	}
	steps, version, ok := b.history.Undo()
	if !ok {
		return false
	}
	b.replay(steps, version)
	return true
}

// Redo re-applies the most recently undone step.
func (b *Buffer) Redo() bool {
	if b.publishing || b.groupDepth > 0 {
		return false
	}
	steps, version, ok := b.history.Redo()
	if !ok {
		return false
	}
	b.replay(steps, version)
	return true
}

func (b *Buffer) replay(steps []history.Replacement, version uint64) {
	for _, step := range steps {
		b.checkRange(step.Range)
		b.apply(step.Range, []rune(step.NewText))
	}
	b.version = version
}
