package markdown_test

import (
	"context"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/srcbuf/pkg/analysis"
	"github.com/yaklabco/srcbuf/pkg/buffer"
	"github.com/yaklabco/srcbuf/pkg/engine/markdown"
	"github.com/yaklabco/srcbuf/pkg/fix"
	"github.com/yaklabco/srcbuf/pkg/text"
)

func rng(start, end int) text.Range {
	return text.MustRange(text.Location(start), text.Location(end))
}

func noFiles(string) bool { return false }

func parse(t *testing.T, in analysis.Input) analysis.Unit {
	t.Helper()
	if in.Path == "" {
		in.Path = "/docs/readme.md"
	}
	unit, err := markdown.New(markdown.Options{Exists: noFiles}).Parse(context.Background(), in)
	require.NoError(t, err)
	t.Cleanup(func() { _ = unit.Close() })
	return unit
}

func diagnostics(t *testing.T, content string) []analysis.Diagnostic {
	t.Helper()
	return slices.Collect(parse(t, analysis.Input{Text: content}).Diagnostics())
}

func messages(diags []analysis.Diagnostic) []string {
	out := make([]string, 0, len(diags))
	for _, d := range diags {
		out = append(out, d.Message)
	}
	return out
}

func TestTokens(t *testing.T) {
	t.Parallel()

	unit := parse(t, analysis.Input{Text: "# Title\n\nSome *em* and **strong** `code`.\n"})
	tokens := slices.Collect(unit.Tokens())

	assert.Contains(t, tokens, analysis.Token{Kind: analysis.TokenPunctuation, Range: rng(0, 1)})
	assert.Contains(t, tokens, analysis.Token{Kind: analysis.TokenHeading, Range: rng(2, 7)})
	assert.Contains(t, tokens, analysis.Token{Kind: analysis.TokenEmphasis, Range: rng(14, 18)})
	assert.Contains(t, tokens, analysis.Token{Kind: analysis.TokenStrong, Range: rng(23, 33)})
	assert.Contains(t, tokens, analysis.Token{Kind: analysis.TokenCode, Range: rng(34, 40)})

	assert.True(t, slices.IsSortedFunc(tokens, func(a, b analysis.Token) int {
		return int(a.Range.Start - b.Range.Start)
	}), "tokens are ordered by start")
}

func TestFencedCode(t *testing.T) {
	t.Parallel()

	unit := parse(t, analysis.Input{Text: "```go\nx := 1\n```\n"})

	tokens := slices.Collect(unit.Tokens())
	assert.Equal(t, []analysis.Token{
		{Kind: analysis.TokenPunctuation, Range: rng(0, 3)},
		{Kind: analysis.TokenKeyword, Range: rng(3, 5)},
		{Kind: analysis.TokenCode, Range: rng(6, 12)},
		{Kind: analysis.TokenPunctuation, Range: rng(13, 16)},
	}, tokens)

	spans := slices.Collect(unit.Spans())
	assert.Equal(t, []analysis.StyleSpan{{Range: rng(0, 16), Style: analysis.StyleCode}}, spans)
	assert.Empty(t, slices.Collect(unit.Diagnostics()))
}

func TestSections(t *testing.T) {
	t.Parallel()

	unit := parse(t, analysis.Input{Text: "# A\ntext\n## B\nmore\n# C\nend\n"})

	assert.Equal(t, []analysis.Scope{
		{Name: "A", Description: "H1 section", Range: rng(0, 19)},
		{Name: "B", Description: "H2 section", Range: rng(9, 19)},
		{Name: "C", Description: "H1 section", Range: rng(19, 27)},
	}, slices.Collect(unit.Scopes()))
}

func TestChecks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    analysis.Diagnostic
	}{
		{
			name:    "trailing whitespace",
			content: "a   \nb\n",
			want: analysis.Diagnostic{
				Severity: buffer.SeverityWarning,
				Message:  "Trailing whitespace",
				Range:    rng(1, 4),
				Fixits:   []fix.TextEdit{{StartOffset: 1, EndOffset: 4}},
			},
		},
		{
			name:    "heading increment",
			content: "# A\n\n### C\n",
			want: analysis.Diagnostic{
				Severity: buffer.SeverityWarning,
				Message:  "Heading level jumped from H1 to H3",
				Range:    rng(5, 10),
				Related:  []analysis.Related{{Range: rng(0, 3), Message: "previous heading"}},
				Fixits:   []fix.TextEdit{{StartOffset: 5, EndOffset: 8, NewText: "##"}},
			},
		},
		{
			name:    "multiple blank lines",
			content: "a\n\n\n\nb\n",
			want: analysis.Diagnostic{
				Severity: buffer.SeverityWarning,
				Message:  "Multiple consecutive blank lines (found 3, max 1)",
				Range:    rng(3, 4),
				Fixits:   []fix.TextEdit{{StartOffset: 3, EndOffset: 5}},
			},
		},
		{
			name:    "missing final newline",
			content: "text",
			want: analysis.Diagnostic{
				Severity: buffer.SeverityWarning,
				Message:  "File should end with a newline",
				Range:    rng(4, 4),
				Fixits:   []fix.TextEdit{{StartOffset: 4, EndOffset: 4, NewText: "\n"}},
			},
		},
		{
			name:    "hard tab after multibyte heading",
			content: "# Ünïcode\na\tb\n",
			want: analysis.Diagnostic{
				Severity: buffer.SeverityWarning,
				Message:  "Hard tab character found",
				Range:    rng(11, 12),
				Fixits:   []fix.TextEdit{{StartOffset: 11, EndOffset: 12, NewText: "    "}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, []analysis.Diagnostic{tt.want}, diagnostics(t, tt.content))
		})
	}
}

func TestHardBreakIsNotTrailingWhitespace(t *testing.T) {
	t.Parallel()

	assert.Empty(t, diagnostics(t, "line one  \nline two\n"))
}

func TestFenceLanguage(t *testing.T) {
	t.Parallel()

	diags := diagnostics(t, "```\npackage main\n```\n")
	require.Len(t, diags, 1)
	assert.Equal(t, "Fenced code block has no language specified", diags[0].Message)
	assert.Equal(t, rng(0, 3), diags[0].Range)
	assert.Equal(t, []fix.TextEdit{{StartOffset: 3, EndOffset: 3, NewText: "go"}}, diags[0].Fixits)

	diags = diagnostics(t, "```\njust words\n```\n")
	require.Len(t, diags, 1)
	assert.Empty(t, diags[0].Fixits, "no guess, no fix-it")
}

func TestDuplicateHeadings(t *testing.T) {
	t.Parallel()

	diags := diagnostics(t, "# A\n\n## B\n\n## B\n")
	require.Len(t, diags, 1)
	assert.Equal(t, buffer.SeverityInfo, diags[0].Severity)
	assert.Equal(t, "Multiple headings with the same content 'B'", diags[0].Message)
	assert.Equal(t, rng(11, 15), diags[0].Range)
	assert.Equal(t, []analysis.Related{{Range: rng(5, 9), Message: "first occurrence"}}, diags[0].Related)
}

func TestLinks(t *testing.T) {
	t.Parallel()

	const content = "[x](missing.md) [y](there.md) [z](#title) [w](#nope) [u](https://example.com)\n\n# Title\n"
	engine := markdown.New(markdown.Options{Exists: func(path string) bool { return path == "/docs/there.md" }})

	unit, err := engine.Parse(context.Background(), analysis.Input{Path: "/docs/readme.md", Text: content})
	require.NoError(t, err)
	defer unit.Close()

	diags := slices.Collect(unit.Diagnostics())
	assert.Equal(t, []string{
		"Link target 'missing.md' does not exist",
		"Link fragment '#nope' does not match any heading",
	}, messages(diags))
	assert.Equal(t, buffer.SeverityError, diags[0].Severity)
	assert.Equal(t, rng(4, 14), diags[0].Range)

	unsaved := []analysis.UnsavedFile{{Path: "/docs/missing.md", Text: "# New\n"}}
	unit, err = engine.Parse(context.Background(), analysis.Input{Path: "/docs/readme.md", Text: content, Unsaved: unsaved})
	require.NoError(t, err)
	defer unit.Close()
	assert.Equal(t, []string{"Link fragment '#nope' does not match any heading"}, messages(slices.Collect(unit.Diagnostics())))

	unit, err = engine.Parse(context.Background(), analysis.Input{
		Path: "/docs/readme.md",
		Text: content,
		Args: []string{"--no-link-check"},
	})
	require.NoError(t, err)
	defer unit.Close()
	assert.Empty(t, slices.Collect(unit.Diagnostics()))
}

func TestIndexOnly(t *testing.T) {
	t.Parallel()

	unit := parse(t, analysis.Input{Text: "# A\n\n\n\n### C", Mode: analysis.ModeIndexOnly})
	assert.Empty(t, slices.Collect(unit.Diagnostics()))
	assert.Len(t, slices.Collect(unit.Scopes()), 2)
}

func TestArgs(t *testing.T) {
	t.Parallel()

	engine := markdown.New(markdown.Options{Exists: noFiles})

	_, err := engine.Parse(context.Background(), analysis.Input{Text: "x\n", Args: []string{"--flavor=rst"}})
	require.ErrorIs(t, err, markdown.ErrUnknownFlavor)

	_, err = engine.Parse(context.Background(), analysis.Input{Text: "x\n", Args: []string{"--bogus"}})
	require.Error(t, err)

	unit, err := engine.Parse(context.Background(), analysis.Input{
		Text: "a\n\n\nb\n",
		Args: markdown.Args(markdown.FlavorGFM, 2),
	})
	require.NoError(t, err)
	defer unit.Close()
	assert.Empty(t, slices.Collect(unit.Diagnostics()), "two blank lines are allowed")
}

func TestReparse(t *testing.T) {
	t.Parallel()

	unit, err := markdown.New(markdown.Options{Exists: noFiles}).Parse(context.Background(), analysis.Input{Text: "# A\n"})
	require.NoError(t, err)

	require.NoError(t, unit.Reparse(context.Background(), analysis.Input{Text: "# B\n"}))
	scopes := slices.Collect(unit.Scopes())
	require.Len(t, scopes, 1)
	assert.Equal(t, "B", scopes[0].Name)

	require.NoError(t, unit.Close())
	require.ErrorIs(t, unit.Reparse(context.Background(), analysis.Input{Text: "# C\n"}), markdown.ErrClosed)
	assert.Empty(t, slices.Collect(unit.Tokens()))
}

func TestParseCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := markdown.New(markdown.Options{}).Parse(ctx, analysis.Input{Text: "# A\n"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestFixitsApplyToBuffer(t *testing.T) {
	t.Parallel()

	const content = "# Title   \n\n\n\nbody"
	unit := parse(t, analysis.Input{Text: content})

	buf := buffer.New(content, buffer.Options{})
	for d := range unit.Diagnostics() {
		buf.AddProblem(buffer.Problem{Severity: d.Severity, Message: d.Message, Range: d.Range, Fixits: d.Fixits})
	}

	summary, err := buf.ApplyAllFixits()
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Applied)
	assert.Equal(t, "# Title\n\nbody\n", buf.Text())

	require.True(t, buf.Undo())
	assert.Equal(t, content, buf.Text())
}
