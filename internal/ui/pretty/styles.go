// Package pretty provides Lipgloss-based styled output utilities.
package pretty

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/yaklabco/srcbuf/pkg/analysis"
	"github.com/yaklabco/srcbuf/pkg/buffer"
)

// Styles contains all styled renderers for CLI output.
type Styles struct {
	// Severity styles
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style

	// Problem components
	FilePath   lipgloss.Style
	Location   lipgloss.Style
	ProblemID  lipgloss.Style
	Message    lipgloss.Style
	Related    lipgloss.Style
	SourceLine lipgloss.Style
	Caret      lipgloss.Style
	Context    lipgloss.Style

	// Summary styles
	Success lipgloss.Style
	Failure lipgloss.Style

	// Syntax maps the style ids of analysis.DefaultClassifier to text styles.
	Syntax map[buffer.StyleID]lipgloss.Style

	// Misc
	Dim  lipgloss.Style
	Bold lipgloss.Style
}

// NewStyles creates a new Styles with the given color mode.
func NewStyles(colorEnabled bool) *Styles {
	if !colorEnabled {
		return newNoColorStyles()
	}
	return newColorStyles()
}

// newColorStyles creates styles with ANSI 256 colors.
func newColorStyles() *Styles {
	fg := func(c string) lipgloss.Style { return lipgloss.NewStyle().Foreground(lipgloss.Color(c)) }

	return &Styles{
		Error:   fg("9").Bold(true),
		Warning: fg("11").Bold(true),
		Info:    fg("12").Bold(true),

		FilePath:   lipgloss.NewStyle().Bold(true),
		Location:   fg("8"),
		ProblemID:  fg("8"),
		Message:    lipgloss.NewStyle(),
		Related:    fg("10").Italic(true),
		SourceLine: fg("7"),
		Caret:      fg("9"),
		Context:    fg("14"),

		Success: fg("10").Bold(true),
		Failure: fg("9").Bold(true),

		Syntax: map[buffer.StyleID]lipgloss.Style{
			analysis.StyleKeyword:     fg("13"),
			analysis.StyleIdentifier:  fg("7"),
			analysis.StyleNumber:      fg("11"),
			analysis.StyleString:      fg("10"),
			analysis.StyleComment:     fg("8").Italic(true),
			analysis.StylePunctuation: fg("8"),
			analysis.StyleHeading:     fg("12").Bold(true),
			analysis.StyleEmphasis:    lipgloss.NewStyle().Italic(true),
			analysis.StyleStrong:      lipgloss.NewStyle().Bold(true),
			analysis.StyleLink:        fg("14").Underline(true),
			analysis.StyleCode:        fg("11"),
			analysis.StyleQuote:       fg("8").Italic(true),
			analysis.StyleListMarker:  fg("13"),
		},

		Dim:  fg("8"),
		Bold: lipgloss.NewStyle().Bold(true),
	}
}

// newNoColorStyles creates styles with no color formatting.
func newNoColorStyles() *Styles {
	plain := lipgloss.NewStyle()
	return &Styles{
		Error:      plain,
		Warning:    plain,
		Info:       plain,
		FilePath:   plain,
		Location:   plain,
		ProblemID:  plain,
		Message:    plain,
		Related:    plain,
		SourceLine: plain,
		Caret:      plain,
		Context:    plain,
		Success:    plain,
		Failure:    plain,
		Syntax:     map[buffer.StyleID]lipgloss.Style{},
		Dim:        plain,
		Bold:       plain,
	}
}

// IsColorEnabled determines if color should be enabled based on mode and writer.
// Mode values: "auto" (default), "always", "never".
// In auto mode, color is enabled only if the writer is a TTY and NO_COLOR is not set.
func IsColorEnabled(mode string, writer io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	default: // "auto"
		// https://no-color.org/
		if os.Getenv("NO_COLOR") != "" {
			return false
		}
		if f, ok := writer.(*os.File); ok {
			return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
		}
		return false
	}
}
