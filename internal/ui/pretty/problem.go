package pretty

import (
	"fmt"
	"strings"

	"github.com/yaklabco/srcbuf/pkg/buffer"
	"github.com/yaklabco/srcbuf/pkg/runner"
)

// FormatProblem formats a single problem for terminal output. When
// sourceLine is non-empty it is printed below with a caret at the column.
func (s *Styles) FormatProblem(path string, p runner.Problem, sourceLine string) string {
	var builder strings.Builder

	location := fmt.Sprintf("%s:%d:%d", s.FilePath.Render(path), p.Line, p.Column)

	fmt.Fprintf(&builder, "  %s  %s  %s  %s",
		location,
		s.FormatSeverity(p.Severity),
		s.Message.Render(p.Message),
		s.ProblemID.Render(fmt.Sprintf("[#%d]", p.ID)),
	)
	if n := len(p.Fixits); n > 0 {
		builder.WriteString(s.Dim.Render(fmt.Sprintf(" (%d fix-its)", n)))
	}
	builder.WriteString("\n")

	if sourceLine != "" {
		builder.WriteString(s.FormatSourceContext(sourceLine, p.Column))
	}

	for _, r := range p.Ranges {
		if r.Message == "" {
			continue
		}
		builder.WriteString("    " + s.Dim.Render("note:") + " " + s.Related.Render(r.Message) + "\n")
	}

	return builder.String()
}

// FormatSeverity returns a styled severity string.
func (s *Styles) FormatSeverity(sev buffer.Severity) string {
	switch sev {
	case buffer.SeverityError:
		return s.Error.Render("error")
	case buffer.SeverityWarning:
		return s.Warning.Render("warning")
	case buffer.SeverityInfo:
		return s.Info.Render("info")
	default:
		return sev.String()
	}
}

// FormatSourceContext formats the source line with a caret marker.
func (s *Styles) FormatSourceContext(line string, column int) string {
	var builder strings.Builder

	// Aligns with the problem line.
	const indent = "        "

	builder.WriteString(indent + s.SourceLine.Render(line) + "\n")
	if column > 0 {
		builder.WriteString(indent + strings.Repeat(" ", column-1) + s.Caret.Render("^") + "\n")
	}

	return builder.String()
}

// FormatContext formats a context as "  L<start>-<end>  name  (description)".
func (s *Styles) FormatContext(c runner.Context) string {
	lines := fmt.Sprintf("L%d-%d", c.StartLine, c.EndLine)
	if c.StartLine == c.EndLine {
		lines = fmt.Sprintf("L%d", c.StartLine)
	}
	out := fmt.Sprintf("  %s  %s", s.Location.Render(lines), s.Context.Render(c.Name))
	if c.Description != "" {
		out += "  " + s.Dim.Render("("+c.Description+")")
	}
	return out + "\n"
}

// FormatFileHeader formats a file header for grouped output.
func (s *Styles) FormatFileHeader(path string, problemCount int) string {
	header := s.FilePath.Render(path)
	switch {
	case problemCount == 1:
		header += s.Dim.Render(" (1 problem)")
	case problemCount > 1:
		header += s.Dim.Render(fmt.Sprintf(" (%d problems)", problemCount))
	}
	return header
}
