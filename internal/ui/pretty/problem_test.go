package pretty_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yaklabco/srcbuf/internal/ui/pretty"
	"github.com/yaklabco/srcbuf/pkg/buffer"
	"github.com/yaklabco/srcbuf/pkg/fix"
	"github.com/yaklabco/srcbuf/pkg/runner"
)

func problem(sev buffer.Severity, message string, line, col int) runner.Problem {
	return runner.Problem{
		Problem: buffer.Problem{ID: 4, Severity: sev, Message: message},
		Line:    line,
		Column:  col,
	}
}

func TestFormatProblem_Basic(t *testing.T) {
	styles := pretty.NewStyles(false)

	out := styles.FormatProblem("docs/readme.md", problem(buffer.SeverityError, "Link target 'x.md' does not exist", 10, 7), "")

	assert.Equal(t, "  docs/readme.md:10:7  error  Link target 'x.md' does not exist  [#4]\n", out)
}

func TestFormatProblem_WithContext(t *testing.T) {
	styles := pretty.NewStyles(false)

	out := styles.FormatProblem("a.md", problem(buffer.SeverityWarning, "Trailing whitespace", 3, 5), "text   ")
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")

	assert.Len(t, lines, 3)
	assert.Equal(t, "        text   ", lines[1])
	assert.Equal(t, "            ^", lines[2])
}

func TestFormatProblem_FixitsAndNotes(t *testing.T) {
	styles := pretty.NewStyles(false)

	p := problem(buffer.SeverityWarning, "Heading level jumped from H1 to H3", 5, 1)
	p.Fixits = []fix.TextEdit{{StartOffset: 0, EndOffset: 1, NewText: "##"}}
	p.Ranges = []buffer.ProblemRange{{Message: "previous heading"}, {}}

	out := styles.FormatProblem("a.md", p, "")

	assert.Contains(t, out, "(1 fix-its)")
	assert.Contains(t, out, "    note: previous heading\n")
	assert.Equal(t, 1, strings.Count(out, "note:"))
}

func TestFormatSeverity(t *testing.T) {
	styles := pretty.NewStyles(false)

	tests := []struct {
		sev  buffer.Severity
		want string
	}{
		{buffer.SeverityError, "error"},
		{buffer.SeverityWarning, "warning"},
		{buffer.SeverityInfo, "info"},
		{buffer.Severity(42), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, styles.FormatSeverity(tt.sev))
	}
}

func TestFormatContext(t *testing.T) {
	styles := pretty.NewStyles(false)

	c := runner.Context{
		Context:   buffer.Context{Name: "Install", Description: "H2 section"},
		StartLine: 4,
		EndLine:   9,
	}
	assert.Equal(t, "  L4-9  Install  (H2 section)\n", styles.FormatContext(c))

	c.EndLine = 4
	c.Description = ""
	assert.Equal(t, "  L4  Install\n", styles.FormatContext(c))
}

func TestFormatFileHeader(t *testing.T) {
	styles := pretty.NewStyles(false)

	assert.Equal(t, "a.md", styles.FormatFileHeader("a.md", 0))
	assert.Equal(t, "a.md (1 problem)", styles.FormatFileHeader("a.md", 1))
	assert.Equal(t, "a.md (3 problems)", styles.FormatFileHeader("a.md", 3))
}
