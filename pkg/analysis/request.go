package analysis

import (
	"slices"

	"github.com/yaklabco/srcbuf/pkg/buffer"
)

// Mode selects what a request computes and publishes.
type Mode int

const (
	// ModeFull publishes highlights, problems and contexts.
	ModeFull Mode = iota

	// ModeIndexOnly publishes contexts only.
	ModeIndexOnly
)

// String returns the name of the mode.
func (m Mode) String() string {
	if m == ModeIndexOnly {
		return "index"
	}
	return "full"
}

// Priority orders eligible requests. Higher runs first.
type Priority int

const (
	// PriorityNone is a document nobody is looking at.
	PriorityNone Priority = iota

	// PriorityOpen is an open document that is not the active one.
	PriorityOpen

	// PriorityActive is the active document.
	PriorityActive
)

// String returns the name of the priority.
func (p Priority) String() string {
	switch p {
	case PriorityActive:
		return "active"
	case PriorityOpen:
		return "open"
	default:
		return "none"
	}
}

// Request asks for one analysis of a document at one version.
type Request struct {
	Path    string
	Text    string
	Version uint64
	Args    []string
	Unsaved []UnsavedFile
	Mode    Mode
}

// NewRequest captures the text and version of buf. It must run on the
// goroutine that owns buf.
func NewRequest(path string, buf *buffer.Buffer, args []string, mode Mode) Request {
	return Request{
		Path:    path,
		Text:    buf.Text(),
		Version: buf.Version(),
		Args:    slices.Clone(args),
		Mode:    mode,
	}
}

func (r Request) input() Input {
	return Input{
		Path:    r.Path,
		Text:    r.Text,
		Args:    r.Args,
		Unsaved: r.Unsaved,
		Mode:    r.Mode,
	}
}

// supersede returns next with the stronger mode of both, so a pending full
// analysis is not downgraded by a later index-only request.
func supersede(prev, next Request) Request {
	if prev.Mode == ModeFull {
		next.Mode = ModeFull
	}
	return next
}

// covers reports whether an analysis of running answers next: same text
// version, same arguments, and at least as strong a mode.
func covers(running, next Request) bool {
	return running.Version == next.Version &&
		slices.Equal(running.Args, next.Args) &&
		(running.Mode == ModeFull || next.Mode != ModeFull)
}
