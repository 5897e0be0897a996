package markdown

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/yaklabco/srcbuf/pkg/analysis"
	"github.com/yaklabco/srcbuf/pkg/buffer"
	"github.com/yaklabco/srcbuf/pkg/fix"
	"github.com/yaklabco/srcbuf/pkg/langdetect"
	"github.com/yaklabco/srcbuf/pkg/text"
)

// hardBreakSpaces is the run of trailing spaces that encodes a hard line
// break and is therefore not reported.
const hardBreakSpaces = 2

// spacesPerTab replaces each hard tab.
const spacesPerTab = 4

// checker runs the document checks of one parse.
type checker struct {
	s   *source
	o   *outline
	set settings

	path    string
	unsaved map[string]bool
	exists  func(path string) bool

	diags []analysis.Diagnostic
}

// run executes every check, stopping early if ctx is cancelled.
func (c *checker) run(ctx context.Context) error {
	checks := []func(){
		c.headingIncrement,
		c.duplicateHeadings,
		c.trailingWhitespace,
		c.hardTabs,
		c.multipleBlankLines,
		c.fenceLanguage,
		c.finalNewline,
		c.links,
	}
	for _, check := range checks {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("check cancelled: %w", err)
		}
		check()
	}
	return nil
}

func (c *checker) report(d analysis.Diagnostic) {
	c.diags = append(c.diags, d)
}

// edit converts a byte replacement into a fix-it in document offsets.
func (c *checker) edit(start, end int, newText string) fix.TextEdit {
	return fix.TextEdit{
		StartOffset: int(c.s.loc(start)),
		EndOffset:   int(c.s.loc(end)),
		NewText:     newText,
	}
}

func (c *checker) headingRange(h heading) text.Range {
	return c.s.lineRange(h.first, h.first)
}

func (c *checker) headingIncrement() {
	prev := -1
	for i, h := range c.o.headings {
		if prev < 0 || h.level <= c.o.headings[prev].level+1 {
			prev = i
			continue
		}
		p := c.o.headings[prev]
		d := analysis.Diagnostic{
			Severity: buffer.SeverityWarning,
			Message:  fmt.Sprintf("Heading level jumped from H%d to H%d", p.level, h.level),
			Range:    c.headingRange(h),
			Related:  []analysis.Related{{Range: c.headingRange(p), Message: "previous heading"}},
		}
		if h.atx {
			d.Fixits = []fix.TextEdit{c.edit(h.markerStart, h.markerEnd, strings.Repeat("#", p.level+1))}
		}
		c.report(d)
		prev = i
	}
}

func (c *checker) duplicateHeadings() {
	seen := make(map[string]int, len(c.o.headings))
	for i, h := range c.o.headings {
		key := strings.ToLower(h.text)
		if key == "" {
			continue
		}
		first, dup := seen[key]
		if !dup {
			seen[key] = i
			continue
		}
		c.report(analysis.Diagnostic{
			Severity: buffer.SeverityInfo,
			Message:  fmt.Sprintf("Multiple headings with the same content '%s'", h.text),
			Range:    c.headingRange(h),
			Related:  []analysis.Related{{Range: c.headingRange(c.o.headings[first]), Message: "first occurrence"}},
		})
	}
}

func (c *checker) trailingWhitespace() {
	for i, ln := range c.s.lines {
		if c.set.ignoreCodeBlocks && c.o.code[i] {
			continue
		}
		start := ln.end
		for start > ln.start && (c.s.src[start-1] == ' ' || c.s.src[start-1] == '\t') {
			start--
		}
		if start == ln.end {
			continue
		}
		if start > ln.start && !c.o.code[i] && string(c.s.src[start:ln.end]) == strings.Repeat(" ", hardBreakSpaces) {
			continue
		}
		c.report(analysis.Diagnostic{
			Severity: buffer.SeverityWarning,
			Message:  "Trailing whitespace",
			Range:    c.s.span(start, ln.end),
			Fixits:   []fix.TextEdit{c.edit(start, ln.end, "")},
		})
	}
}

func (c *checker) hardTabs() {
	for i, ln := range c.s.lines {
		if c.o.code[i] {
			continue
		}
		var fixits []fix.TextEdit
		first := -1
		for at := ln.start; at < ln.end; at++ {
			if c.s.src[at] != '\t' {
				continue
			}
			if first < 0 {
				first = at
			}
			fixits = append(fixits, c.edit(at, at+1, strings.Repeat(" ", spacesPerTab)))
		}
		if first < 0 {
			continue
		}
		c.report(analysis.Diagnostic{
			Severity: buffer.SeverityWarning,
			Message:  "Hard tab character found",
			Range:    c.s.span(first, first+1),
			Fixits:   fixits,
		})
	}
}

func (c *checker) multipleBlankLines() {
	streakStart, streak := 0, 0
	flush := func() {
		if streak > c.set.maxBlankLines {
			c.blankStreak(streakStart, streak)
		}
		streak = 0
	}
	for i := range c.s.lines {
		if !c.o.code[i] && c.s.blank(i) {
			if streak == 0 {
				streakStart = i
			}
			streak++
			continue
		}
		flush()
	}
	flush()
}

func (c *checker) blankStreak(start, count int) {
	firstExcess := start + c.set.maxBlankLines
	lastExcess := start + count - 1

	// Delete whole lines, terminators included.
	from := c.s.lines[firstExcess].start
	to := c.s.lines[lastExcess].end
	if lastExcess+1 < len(c.s.lines) {
		to = c.s.lines[lastExcess+1].start
	} else if firstExcess > 0 {
		from = c.s.lines[firstExcess-1].end
	}

	c.report(analysis.Diagnostic{
		Severity: buffer.SeverityWarning,
		Message:  fmt.Sprintf("Multiple consecutive blank lines (found %d, max %d)", count, c.set.maxBlankLines),
		Range:    c.s.lineRange(firstExcess, lastExcess),
		Fixits:   []fix.TextEdit{c.edit(from, to, "")},
	})
}

func (c *checker) fenceLanguage() {
	for _, f := range c.o.fences {
		if f.lang != "" {
			continue
		}
		d := analysis.Diagnostic{
			Severity: buffer.SeverityWarning,
			Message:  "Fenced code block has no language specified",
			Range:    c.s.lineRange(f.first, f.first),
		}
		if lang := langdetect.Detect(f.content); lang != langdetect.Text {
			d.Fixits = []fix.TextEdit{c.edit(f.markerEnd, f.markerEnd, lang)}
			d.Related = []analysis.Related{{
				Range:   c.s.lineRange(f.first, f.last),
				Message: fmt.Sprintf("content looks like %s", lang),
			}}
		}
		c.report(d)
	}
}

func (c *checker) finalNewline() {
	src := c.s.src
	if len(src) == 0 || src[len(src)-1] == '\n' {
		return
	}
	c.report(analysis.Diagnostic{
		Severity: buffer.SeverityWarning,
		Message:  "File should end with a newline",
		Range:    c.s.span(len(src), len(src)),
		Fixits:   []fix.TextEdit{c.edit(len(src), len(src), "\n")},
	})
}

func (c *checker) links() {
	if !c.set.checkLinks {
		return
	}
	anchors := make(map[string]bool, len(c.o.headings))
	counts := make(map[string]int, len(c.o.headings))
	for _, h := range c.o.headings {
		base := anchor(h.text)
		id := base
		if n := counts[base]; n > 0 {
			id = fmt.Sprintf("%s-%d", base, n)
		}
		counts[base]++
		anchors[id] = true
	}

	for _, l := range c.o.links {
		u, err := url.Parse(l.dest)
		if err != nil || l.dest == "" || u.Scheme != "" || u.Host != "" {
			continue
		}
		rng := c.s.span(l.destStart, l.destEnd)
		if u.Path == "" {
			if u.Fragment != "" && !anchors[strings.ToLower(u.Fragment)] {
				c.report(analysis.Diagnostic{
					Severity: buffer.SeverityWarning,
					Message:  fmt.Sprintf("Link fragment '#%s' does not match any heading", u.Fragment),
					Range:    rng,
				})
			}
			continue
		}
		target := u.Path
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(c.path), filepath.FromSlash(target))
		}
		target = filepath.Clean(target)
		if c.unsaved[target] || c.exists(target) {
			continue
		}
		c.report(analysis.Diagnostic{
			Severity: buffer.SeverityError,
			Message:  fmt.Sprintf("Link target '%s' does not exist", u.Path),
			Range:    rng,
		})
	}
}

// anchor converts heading text to a GitHub-compatible fragment.
func anchor(heading string) string {
	var sb strings.Builder
	for _, ch := range strings.ToLower(heading) {
		switch {
		case unicode.IsLetter(ch) || unicode.IsNumber(ch), ch == '-', ch == '_':
			sb.WriteRune(ch)
		case ch == ' ':
			sb.WriteByte('-')
		}
	}
	return sb.String()
}
