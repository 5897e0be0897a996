// Package analysis schedules background analysis of open documents and
// publishes the results into their buffers.
//
// Workers talk to an external Engine and never touch a buffer. Results are
// handed to the designated mutation goroutine through a Marshaler, where they
// are accepted only if the buffer is still at the version the request was
// issued for.
package analysis

import (
	"context"
	"iter"

	"github.com/yaklabco/srcbuf/pkg/buffer"
	"github.com/yaklabco/srcbuf/pkg/fix"
	"github.com/yaklabco/srcbuf/pkg/text"
)

// Engine builds analysis units. Implementations must be safe for concurrent
// use by several workers, each holding a different Unit.
type Engine interface {
	// Parse builds a new unit for in.
	Parse(ctx context.Context, in Input) (Unit, error)
}

// Unit is the parsed state of one document. A unit is used by one goroutine
// at a time.
type Unit interface {
	// Reparse brings the unit up to date with in. Path and Args are the ones
	// the unit was built with.
	Reparse(ctx context.Context, in Input) error

	// Tokens yields the lexical tokens of the last parse.
	Tokens() iter.Seq[Token]

	// Spans yields the style spans derived from the syntax tree.
	Spans() iter.Seq[StyleSpan]

	// Scopes yields the named scopes used as document contexts.
	Scopes() iter.Seq[Scope]

	// Diagnostics yields the problems found by the last parse.
	Diagnostics() iter.Seq[Diagnostic]

	// Close releases the unit.
	Close() error
}

// UnsavedFile is the in-memory content of a modified document.
type UnsavedFile struct {
	Path string
	Text string
}

// Input is everything an engine gets to see about a document.
type Input struct {
	// Path is the canonical path of the document.
	Path string

	Text string

	// Args describe how to interpret the text, e.g. the dialect.
	Args []string

	// Unsaved holds the other modified documents of the workspace.
	Unsaved []UnsavedFile

	Mode Mode
}

// TokenKind classifies a token.
type TokenKind int

// Token kinds understood by the default classifier.
const (
	TokenText TokenKind = iota
	TokenKeyword
	TokenIdentifier
	TokenNumber
	TokenString
	TokenComment
	TokenPunctuation
	TokenHeading
	TokenEmphasis
	TokenStrong
	TokenLink
	TokenCode
	TokenQuote
	TokenListMarker
)

// Token is one lexical token.
type Token struct {
	Kind  TokenKind
	Range text.Range
}

// StyleSpan assigns an overlay style to a range.
type StyleSpan struct {
	Range text.Range
	Style buffer.StyleID
}

// Scope is a named region of the document, such as a section.
type Scope struct {
	Name        string
	Description string
	Range       text.Range
}

// Related is a secondary location of a diagnostic.
type Related struct {
	Range   text.Range
	Message string
}

// Diagnostic is a problem reported by the engine.
type Diagnostic struct {
	Severity buffer.Severity
	Message  string
	Range    text.Range
	Related  []Related
	Fixits   []fix.TextEdit
}
