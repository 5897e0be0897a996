// Package markdown is an analysis engine for Markdown documents built on
// goldmark.
//
// A unit parses the document, then derives lexical tokens, overlay spans for
// code blocks, quotes and headings, one scope per section, and diagnostics
// with fix-its. All ranges are in document (rune) offsets.
package markdown

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"slices"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmtext "github.com/yuin/goldmark/text"

	"github.com/yaklabco/srcbuf/pkg/analysis"
	"github.com/yaklabco/srcbuf/pkg/text"
)

// ErrUnknownFlavor is returned for a --flavor the engine does not support.
var ErrUnknownFlavor = errors.New("unknown markdown flavor")

// ErrClosed is returned by Reparse on a closed unit.
var ErrClosed = errors.New("unit is closed")

// Options configures an Engine.
type Options struct {
	// Exists reports whether a link target exists on disk. nil stats the
	// file system.
	Exists func(path string) bool
}

// Engine parses Markdown documents. It is safe for concurrent use.
type Engine struct {
	exists func(path string) bool
}

var _ analysis.Engine = (*Engine)(nil)

// New creates a Markdown engine.
func New(opts Options) *Engine {
	exists := opts.Exists
	if exists == nil {
		exists = fileExists
	}
	return &Engine{exists: exists}
}

// Parse builds a unit for in.
//
//nolint:ireturn // analysis.Unit is the engine boundary.
func (e *Engine) Parse(ctx context.Context, in analysis.Input) (analysis.Unit, error) {
	set, err := parseArgs(in.Args)
	if err != nil {
		return nil, err
	}
	u := &unit{
		exists: e.exists,
		set:    set,
		md:     newGoldmarkInstance(set.flavor),
	}
	if err := u.parse(ctx, in); err != nil {
		return nil, err
	}
	return u, nil
}

// unit holds one goldmark instance and the results of the last parse.
type unit struct {
	exists func(path string) bool
	set    settings
	md     goldmark.Markdown

	src     *source
	outline *outline
	scopes  []analysis.Scope
	diags   []analysis.Diagnostic
	closed  bool
}

// Reparse parses in again on the unit's goldmark instance. goldmark has no
// incremental mode, so this is a full parse without rebuilding the parser.
func (u *unit) Reparse(ctx context.Context, in analysis.Input) error {
	if u.closed {
		return ErrClosed
	}
	return u.parse(ctx, in)
}

func (u *unit) parse(ctx context.Context, in analysis.Input) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("parse cancelled: %w", err)
	}

	src := newSource(in.Text)
	doc := u.md.Parser().Parse(gmtext.NewReader(src.src), parser.WithContext(parser.NewContext()))

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("parse cancelled: %w", err)
	}

	o := outlineOf(src, doc)
	scopes := sections(src, o)

	var diags []analysis.Diagnostic
	if in.Mode == analysis.ModeFull {
		unsaved := make(map[string]bool, len(in.Unsaved))
		for _, f := range in.Unsaved {
			unsaved[filepath.Clean(f.Path)] = true
		}
		c := &checker{s: src, o: o, set: u.set, path: in.Path, unsaved: unsaved, exists: u.exists}
		if err := c.run(ctx); err != nil {
			return err
		}
		diags = c.diags
	}

	u.src, u.outline, u.scopes, u.diags = src, o, scopes, diags
	return nil
}

func (u *unit) Tokens() iter.Seq[analysis.Token] {
	return func(yield func(analysis.Token) bool) {
		if u.outline == nil {
			return
		}
		for _, t := range u.outline.tokens {
			if !yield(analysis.Token{Kind: t.kind, Range: u.src.span(t.start, t.end)}) {
				return
			}
		}
	}
}

func (u *unit) Spans() iter.Seq[analysis.StyleSpan] {
	return func(yield func(analysis.StyleSpan) bool) {
		if u.outline == nil {
			return
		}
		for _, sp := range u.outline.spans {
			if !yield(analysis.StyleSpan{Range: u.src.span(sp.start, sp.end), Style: sp.style}) {
				return
			}
		}
	}
}

func (u *unit) Scopes() iter.Seq[analysis.Scope] {
	return slices.Values(u.scopes)
}

func (u *unit) Diagnostics() iter.Seq[analysis.Diagnostic] {
	return slices.Values(u.diags)
}

func (u *unit) Close() error {
	u.closed = true
	u.src, u.outline, u.scopes, u.diags = nil, nil, nil, nil
	return nil
}

// sections returns one scope per heading, running to the next heading of the
// same or a higher level.
func sections(s *source, o *outline) []analysis.Scope {
	scopes := make([]analysis.Scope, 0, len(o.headings))
	for i, h := range o.headings {
		end := len(s.src)
		for _, next := range o.headings[i+1:] {
			if next.level <= h.level {
				end = s.lines[next.first].start
				break
			}
		}
		name := h.text
		if name == "" {
			name = fmt.Sprintf("(untitled H%d)", h.level)
		}
		scopes = append(scopes, analysis.Scope{
			Name:        name,
			Description: fmt.Sprintf("H%d section", h.level),
			Range:       text.MustRange(s.loc(s.lines[h.first].start), s.loc(end)),
		})
	}
	return scopes
}

// newGoldmarkInstance creates a configured goldmark.Markdown instance.
//
//nolint:ireturn // goldmark.Markdown is an external interface type
func newGoldmarkInstance(flavor string) goldmark.Markdown {
	var opts []goldmark.Option

	switch flavor {
	case FlavorGFM:
		opts = append(opts, goldmark.WithExtensions(extension.GFM))
	case FlavorCommonMark:
		// No extensions for pure CommonMark.
	}

	return goldmark.New(opts...)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
