package buffer

// Publish runs fn only if the buffer is still at version, and reports
// whether it ran. Edits, undo and redo attempted from inside fn are rejected,
// since the results being published only describe that exact version.
func (b *Buffer) Publish(version uint64, fn func()) bool {
	if b.publishing || b.version != version {
		return false
	}
	b.publishing = true
	defer func() { b.publishing = false }()
	fn()
	return true
}

// Publishing reports whether a Publish call is in progress.
func (b *Buffer) Publishing() bool {
	return b.publishing
}
