package markdown

import (
	"bytes"
	"cmp"
	"slices"
	"strings"

	"github.com/yuin/goldmark/ast"

	"github.com/yaklabco/srcbuf/pkg/analysis"
	"github.com/yaklabco/srcbuf/pkg/buffer"
)

// heading is a heading of the document in byte offsets.
type heading struct {
	level int
	text  string

	// first and last are the lines of the heading, underline included.
	first, last int

	// markerStart and markerEnd bound the run of '#' of an ATX heading.
	atx                    bool
	markerStart, markerEnd int
}

// fence is a fenced code block.
type fence struct {
	first, last int
	closed      bool
	lang        string
	markerEnd   int
	content     []byte
}

// link is an inline link or image.
type link struct {
	dest       string
	start, end int

	// destStart and destEnd bound the destination, or equal start and end
	// when it could not be located.
	destStart, destEnd int
}

// tok is a token in byte offsets.
type tok struct {
	kind       analysis.TokenKind
	start, end int
}

// span is an overlay style span in byte offsets.
type span struct {
	style      buffer.StyleID
	start, end int
}

// outline is everything the checks and iterators need from one parse.
type outline struct {
	headings []heading
	fences   []fence
	links    []link
	tokens   []tok
	spans    []span

	// code flags the lines that belong to a code block.
	code []bool
}

// outlineOf walks the syntax tree of s.
func outlineOf(s *source, doc ast.Node) *outline {
	o := &outline{code: make([]bool, len(s.lines))}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			o.addHeading(s, node)
		case *ast.FencedCodeBlock:
			o.addFence(s, node)
			return ast.WalkSkipChildren, nil
		case *ast.CodeBlock:
			o.addIndented(s, node)
			return ast.WalkSkipChildren, nil
		case *ast.HTMLBlock:
			o.addHTML(s, node)
			return ast.WalkSkipChildren, nil
		case *ast.Blockquote:
			o.addQuote(s, node)
		case *ast.ListItem:
			o.addListMarker(s, node)
		case *ast.Emphasis:
			o.addEmphasis(s, node)
		case *ast.CodeSpan:
			if start, stop, ok := inlineExtent(node); ok {
				start, stop = s.widen(start, stop, '`')
				o.addToken(analysis.TokenCode, start, stop)
			}
			return ast.WalkSkipChildren, nil
		case *ast.Link:
			o.addLink(s, node, string(node.Destination), 1)
		case *ast.Image:
			o.addLink(s, node, string(node.Destination), 2)
		}
		return ast.WalkContinue, nil
	})

	slices.SortStableFunc(o.tokens, func(a, b tok) int {
		if c := cmp.Compare(a.start, b.start); c != 0 {
			return c
		}
		return cmp.Compare(b.end, a.end)
	})
	return o
}

func (o *outline) addToken(kind analysis.TokenKind, start, end int) {
	if end > start {
		o.tokens = append(o.tokens, tok{kind: kind, start: start, end: end})
	}
}

func (o *outline) addSpan(style buffer.StyleID, start, end int) {
	if end > start {
		o.spans = append(o.spans, span{style: style, start: start, end: end})
	}
}

func (o *outline) markCode(first, last int) {
	for i := first; i <= last && i < len(o.code); i++ {
		o.code[i] = true
	}
}

func (o *outline) addHeading(s *source, node *ast.Heading) {
	lines := node.Lines()
	if lines.Len() == 0 {
		return
	}
	textStart := lines.At(0).Start
	textStop := lines.At(lines.Len() - 1).Stop

	h := heading{
		level: node.Level,
		text:  strings.TrimSpace(inlineText(node, s.src)),
		first: s.lineAt(textStart),
		last:  s.lineAt(max(textStop-1, textStart)),
	}

	at := s.indent(h.first)
	if at < len(s.src) && s.src[at] == '#' {
		end := at
		for end < s.lines[h.first].end && s.src[end] == '#' {
			end++
		}
		h.atx, h.markerStart, h.markerEnd = true, at, end
		o.addToken(analysis.TokenPunctuation, at, end)
	} else if h.last+1 < len(s.lines) {
		h.last++
		o.addToken(analysis.TokenPunctuation, s.indent(h.last), s.lines[h.last].end)
	}

	o.addToken(analysis.TokenHeading, textStart, min(textStop, s.lines[s.lineAt(max(textStop-1, textStart))].end))
	o.addSpan(analysis.StyleHeading, s.lines[h.first].start, s.lines[h.last].end)
	o.headings = append(o.headings, h)
}

func (o *outline) addFence(s *source, node *ast.FencedCodeBlock) {
	lines := node.Lines()
	var first int
	switch {
	case lines.Len() > 0:
		first = s.lineAt(lines.At(0).Start) - 1
	case node.Info != nil:
		first = s.lineAt(node.Info.Segment.Start)
	default:
		return
	}
	if first < 0 {
		return
	}

	at := s.indent(first)
	end := s.lines[first].end
	if at >= end || (s.src[at] != '`' && s.src[at] != '~') {
		return
	}
	delim := s.src[at]
	markerEnd := at
	for markerEnd < end && s.src[markerEnd] == delim {
		markerEnd++
	}

	f := fence{first: first, last: first, lang: string(node.Language(s.src)), markerEnd: markerEnd}
	o.addToken(analysis.TokenPunctuation, at, markerEnd)
	if node.Info != nil {
		infoStart := node.Info.Segment.Start
		o.addToken(analysis.TokenKeyword, infoStart, infoStart+len(f.lang))
	}

	if lines.Len() > 0 {
		var content bytes.Buffer
		for i := range lines.Len() {
			seg := lines.At(i)
			content.Write(seg.Value(s.src))
		}
		f.content = content.Bytes()
		contentStart := lines.At(0).Start
		contentStop := lines.At(lines.Len() - 1).Stop
		f.last = s.lineAt(max(contentStop-1, contentStart))
		o.addToken(analysis.TokenCode, contentStart, s.lines[f.last].end)
	}

	if next := f.last + 1; next < len(s.lines) && s.closesFence(next, delim, markerEnd-at) {
		f.last, f.closed = next, true
		o.addToken(analysis.TokenPunctuation, s.indent(next), s.lines[next].end)
	}

	o.markCode(f.first, f.last)
	o.addSpan(analysis.StyleCode, s.lines[f.first].start, s.lines[f.last].end)
	o.fences = append(o.fences, f)
}

// closesFence reports whether line i is a closing fence of at least width
// delimiters.
func (s *source) closesFence(i int, delim byte, width int) bool {
	at := s.indent(i)
	end := s.lines[i].end
	n := 0
	for at < end && s.src[at] == delim {
		at++
		n++
	}
	if n < width {
		return false
	}
	return len(bytes.TrimSpace(s.src[at:end])) == 0
}

func (o *outline) addIndented(s *source, node *ast.CodeBlock) {
	lines := node.Lines()
	if lines.Len() == 0 {
		return
	}
	start := lines.At(0).Start
	first := s.lineAt(start)
	last := s.lineAt(max(lines.At(lines.Len()-1).Stop-1, start))
	o.markCode(first, last)
	o.addToken(analysis.TokenCode, start, s.lines[last].end)
	o.addSpan(analysis.StyleCode, s.lines[first].start, s.lines[last].end)
}

func (o *outline) addHTML(s *source, node *ast.HTMLBlock) {
	lines := node.Lines()
	if lines.Len() == 0 {
		return
	}
	start := lines.At(0).Start
	stop := lines.At(lines.Len() - 1).Stop
	if node.HasClosure() {
		stop = max(stop, node.ClosureLine.Stop)
	}
	if bytes.HasPrefix(bytes.TrimSpace(s.src[start:stop]), []byte("<!--")) {
		last := s.lineAt(max(stop-1, start))
		o.addToken(analysis.TokenComment, start, s.lines[last].end)
	}
}

func (o *outline) addQuote(s *source, node *ast.Blockquote) {
	start, stop, ok := blockExtent(node)
	if !ok {
		return
	}
	first := s.lineAt(start)
	last := s.lineAt(max(stop-1, start))
	o.addToken(analysis.TokenQuote, s.lines[first].start, s.lines[last].end)
	o.addSpan(analysis.StyleQuote, s.lines[first].start, s.lines[last].end)
}

func (o *outline) addListMarker(s *source, node *ast.ListItem) {
	start, _, ok := blockExtent(node)
	if !ok {
		return
	}
	ln := s.lines[s.lineAt(start)]
	at := ln.start
	for at < start && (s.src[at] == ' ' || s.src[at] == '\t' || s.src[at] == '>') {
		at++
	}
	end := at
	for end < start && s.src[end] != ' ' && s.src[end] != '\t' {
		end++
	}
	o.addToken(analysis.TokenListMarker, at, end)
}

func (o *outline) addEmphasis(s *source, node *ast.Emphasis) {
	start, stop, ok := inlineExtent(node)
	if !ok {
		return
	}
	start = max(start-node.Level, 0)
	stop = min(stop+node.Level, len(s.src))
	kind := analysis.TokenEmphasis
	if node.Level > 1 {
		kind = analysis.TokenStrong
	}
	o.addToken(kind, start, stop)
}

// addLink records a link whose label is preceded by open bytes ("[" or "![").
func (o *outline) addLink(s *source, node ast.Node, dest string, open int) {
	start, stop, ok := inlineExtent(node)
	if !ok {
		return
	}
	start = max(start-open, 0)
	lineEnd := s.lines[s.lineAt(stop)].end

	end := stop
	if end < lineEnd && s.src[end] == ']' {
		end++
		if end < lineEnd && (s.src[end] == '(' || s.src[end] == '[') {
			end = closing(s.src[:lineEnd], end)
		}
	}

	l := link{dest: dest, start: start, end: end, destStart: start, destEnd: end}
	if dest != "" {
		if idx := bytes.Index(s.src[stop:end], []byte(dest)); idx >= 0 {
			l.destStart = stop + idx
			l.destEnd = l.destStart + len(dest)
		}
	}
	o.addToken(analysis.TokenLink, start, end)
	o.links = append(o.links, l)
}

// closing returns the offset after the bracket matching src[open].
func closing(src []byte, open int) int {
	opener := src[open]
	closer := byte(')')
	if opener == '[' {
		closer = ']'
	}
	depth := 0
	for i := open; i < len(src); i++ {
		switch src[i] {
		case opener:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return open
}

// blockExtent returns the byte extent of the lines of node and its block
// descendants.
func blockExtent(node ast.Node) (int, int, bool) {
	start, stop, found := -1, -1, false
	if node.Type() == ast.TypeBlock {
		if lines := node.Lines(); lines.Len() > 0 {
			start, stop, found = lines.At(0).Start, lines.At(lines.Len()-1).Stop, true
		}
	}
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		if child.Type() != ast.TypeBlock {
			continue
		}
		a, b, ok := blockExtent(child)
		if !ok {
			continue
		}
		if !found || a < start {
			start = a
		}
		if !found || b > stop {
			stop = b
		}
		found = true
	}
	return start, stop, found
}

// inlineExtent returns the byte extent of the text segments under node.
// Inline nodes have no lines, so the extent comes from their text children.
func inlineExtent(node ast.Node) (int, int, bool) {
	start, stop, found := -1, -1, false
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		var a, b int
		if t, ok := child.(*ast.Text); ok {
			a, b = t.Segment.Start, t.Segment.Stop
		} else {
			var ok bool
			if a, b, ok = inlineExtent(child); !ok {
				continue
			}
		}
		if !found || a < start {
			start = a
		}
		if !found || b > stop {
			stop = b
		}
		found = true
	}
	return start, stop, found
}

// inlineText concatenates the text under node.
func inlineText(node ast.Node, src []byte) string {
	var sb strings.Builder
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		switch t := child.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(src))
			if t.SoftLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(t.Value)
		default:
			sb.WriteString(inlineText(child, src))
		}
	}
	return sb.String()
}
