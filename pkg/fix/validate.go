package fix

import (
	"fmt"
	"slices"
)

// ValidationError describes an edit that does not fit the document.
type ValidationError struct {
	Edit    TextEdit
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid edit [%d:%d]: %s", e.Edit.StartOffset, e.Edit.EndOffset, e.Message)
}

// ConflictError describes two edits that touch the same characters.
type ConflictError struct {
	Edit1 TextEdit
	Edit2 TextEdit
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("overlapping edits: [%d:%d] and [%d:%d]",
		e.Edit1.StartOffset, e.Edit1.EndOffset,
		e.Edit2.StartOffset, e.Edit2.EndOffset)
}

// ValidateEdits checks every edit against a document of docLen characters and
// returns the first failure.
func ValidateEdits(edits []TextEdit, docLen int) error {
	for _, edit := range edits {
		switch {
		case edit.StartOffset < 0:
			return &ValidationError{Edit: edit, Message: "start offset is negative"}
		case edit.EndOffset < edit.StartOffset:
			return &ValidationError{Edit: edit, Message: "end offset is before start offset"}
		case edit.EndOffset > docLen:
			return &ValidationError{
				Edit:    edit,
				Message: fmt.Sprintf("end offset %d exceeds document length %d", edit.EndOffset, docLen),
			}
		}
	}
	return nil
}

// SortEdits orders edits by start offset, then end offset.
func SortEdits(edits []TextEdit) {
	slices.SortStableFunc(edits, func(a, b TextEdit) int {
		if a.StartOffset != b.StartOffset {
			return a.StartOffset - b.StartOffset
		}
		return a.EndOffset - b.EndOffset
	})
}

// DetectConflicts returns the first overlap in a sorted slice, or nil.
func DetectConflicts(edits []TextEdit) error {
	for i := 1; i < len(edits); i++ {
		if edits[i].StartOffset < edits[i-1].EndOffset {
			return &ConflictError{Edit1: edits[i-1], Edit2: edits[i]}
		}
	}
	return nil
}

// PrepareEdits validates a sorted copy of edits and rejects any overlap.
// The input slice is not modified.
func PrepareEdits(edits []TextEdit, docLen int) ([]TextEdit, error) {
	if len(edits) == 0 {
		return nil, nil
	}
	if err := ValidateEdits(edits, docLen); err != nil {
		return nil, err
	}

	sorted := slices.Clone(edits)
	SortEdits(sorted)
	if err := DetectConflicts(sorted); err != nil {
		return nil, err
	}
	return sorted, nil
}

// FilterConflicts keeps the earliest of each group of overlapping edits in a
// sorted slice and returns the rest as skipped.
func FilterConflicts(edits []TextEdit) ([]TextEdit, []TextEdit) {
	if len(edits) == 0 {
		return nil, nil
	}

	accepted := []TextEdit{edits[0]}
	var skipped []TextEdit
	end := edits[0].EndOffset
	for _, edit := range edits[1:] {
		if edit.StartOffset < end {
			skipped = append(skipped, edit)
			continue
		}
		accepted = append(accepted, edit)
		end = edit.EndOffset
	}
	return accepted, skipped
}

// MergeAndFilterConflicts is FilterConflicts, except overlapping deletions are
// first merged into one deletion covering both. It also returns how many
// edits were folded into a merge.
func MergeAndFilterConflicts(edits []TextEdit) ([]TextEdit, []TextEdit, int) {
	if len(edits) == 0 {
		return nil, nil, 0
	}

	var (
		accepted []TextEdit
		skipped  []TextEdit
		merged   int
	)
	current := edits[0]
	for _, edit := range edits[1:] {
		switch {
		case edit.StartOffset >= current.EndOffset:
			accepted = append(accepted, current)
			current = edit
		case current.IsDeletion() && edit.IsDeletion():
			current.EndOffset = max(current.EndOffset, edit.EndOffset)
			merged++
		default:
			skipped = append(skipped, edit)
		}
	}
	accepted = append(accepted, current)
	return accepted, skipped, merged
}

// PrepareEditsFiltered is the lenient form of PrepareEdits: conflicts are
// merged or skipped rather than reported. Only validation fails.
func PrepareEditsFiltered(edits []TextEdit, docLen int) ([]TextEdit, []TextEdit, int, error) {
	if len(edits) == 0 {
		return nil, nil, 0, nil
	}
	if err := ValidateEdits(edits, docLen); err != nil {
		return nil, nil, 0, err
	}

	sorted := slices.Clone(edits)
	SortEdits(sorted)
	accepted, skipped, merged := MergeAndFilterConflicts(sorted)
	return accepted, skipped, merged, nil
}
