package text

// AdjustForEdit maps r through the replacement of edited by n characters and
// reports whether anything of r survives. Ranges entirely inside the edited
// span collapse onto its new right edge and are reported as gone.
func AdjustForEdit(r Range, edited Range, n int) (Range, bool) {
	delta := Location(n - edited.Len())
	newEnd := edited.Start + Location(n)

	switch {
	case r.End <= edited.Start && !(r.IsEmpty() && r.Start == edited.Start && edited.IsEmpty()):
		// Entirely before the edit.
		return r, true
	case r.Start >= edited.End:
		return Range{Start: r.Start + delta, End: r.End + delta}, true
	case r.Start < edited.Start && r.End > edited.End:
		// Spans the edit.
		return Range{Start: r.Start, End: r.End + delta}, true
	case r.Start < edited.Start:
		// Overlaps the left edge.
		return Range{Start: r.Start, End: edited.Start}, true
	case r.End > edited.End:
		// Overlaps the right edge.
		return Range{Start: newEnd, End: r.End + delta}, true
	default:
		return Range{Start: newEnd, End: newEnd}, false
	}
}
