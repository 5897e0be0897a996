package pretty

import (
	"strings"

	"github.com/yaklabco/srcbuf/pkg/buffer"
)

// Highlight renders text with the syntax styles of spans. Spans hold rune
// offsets into text and are expected in order; gaps render unstyled.
func (s *Styles) Highlight(text string, spans []buffer.StyleSpan) string {
	runes := []rune(text)
	var builder strings.Builder
	pos := 0
	for _, span := range spans {
		start, end := int(span.Range.Start), int(span.Range.End)
		if start < pos || end > len(runes) {
			continue
		}
		builder.WriteString(string(runes[pos:start]))
		segment := string(runes[start:end])
		if style, ok := s.Syntax[span.Style.ID]; ok {
			segment = renderLines(style.Render, segment)
		}
		builder.WriteString(segment)
		pos = end
	}
	builder.WriteString(string(runes[pos:]))
	return builder.String()
}

// renderLines styles each line separately so escape codes never span a
// newline.
func renderLines(render func(...string) string, segment string) string {
	lines := strings.Split(segment, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = render(line)
		}
	}
	return strings.Join(lines, "\n")
}
