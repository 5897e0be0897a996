// Package fix holds fix-it edits: replacements a diagnostic offers to resolve
// itself, expressed in character offsets of the document they were computed
// against.
package fix

// TextEdit replaces the characters [StartOffset, EndOffset) with NewText.
type TextEdit struct {
	// StartOffset is the character index where the edit begins (inclusive).
	StartOffset int

	// EndOffset is the character index where the edit ends (exclusive).
	EndOffset int

	NewText string
}

// Len returns the number of characters the edit removes.
func (e TextEdit) Len() int {
	return e.EndOffset - e.StartOffset
}

// IsDeletion reports whether the edit only removes text.
func (e TextEdit) IsDeletion() bool {
	return e.NewText == "" && e.EndOffset > e.StartOffset
}

// EditBuilder accumulates the fix-its of one diagnostic.
type EditBuilder struct {
	Edits []TextEdit
}

// NewEditBuilder creates an empty EditBuilder.
func NewEditBuilder() *EditBuilder {
	return &EditBuilder{
		Edits: make([]TextEdit, 0),
	}
}

// ReplaceRange adds an edit that replaces characters [start, end) with newText.
func (b *EditBuilder) ReplaceRange(start, end int, newText string) *EditBuilder {
	b.Edits = append(b.Edits, TextEdit{
		StartOffset: start,
		EndOffset:   end,
		NewText:     newText,
	})
	return b
}

// Insert adds an edit that inserts text at offset.
func (b *EditBuilder) Insert(offset int, text string) *EditBuilder {
	return b.ReplaceRange(offset, offset, text)
}

// Delete adds an edit that removes characters [start, end).
func (b *EditBuilder) Delete(start, end int) *EditBuilder {
	return b.ReplaceRange(start, end, "")
}

// Build returns the accumulated edits.
func (b *EditBuilder) Build() []TextEdit {
	return b.Edits
}
