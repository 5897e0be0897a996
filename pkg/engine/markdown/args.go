package markdown

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/pflag"
)

// Flavor identifies the Markdown dialect.
const (
	FlavorCommonMark = "commonmark"
	FlavorGFM        = "gfm"
)

const defaultMaxBlankLines = 1

// Switches that may follow the list built by Args.
const (
	FlagIgnoreCodeBlocks = "--ignore-code-blocks"
	FlagNoLinkCheck      = "--no-link-check"
)

// settings are the per-document options carried in the argument list.
type settings struct {
	flavor           string
	maxBlankLines    int
	ignoreCodeBlocks bool
	checkLinks       bool
}

// Args builds the argument list for a document of the given flavor.
func Args(flavor string, maxBlankLines int) []string {
	return []string{
		"--flavor=" + flavorOrDefault(flavor),
		"--max-blank-lines=" + strconv.Itoa(maxBlankLines),
	}
}

// parseArgs reads the engine flags out of args. Unknown flags are an error,
// since they mean the caller and the engine disagree about the document.
func parseArgs(args []string) (settings, error) {
	fs := pflag.NewFlagSet("markdown", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var set settings
	fs.StringVar(&set.flavor, "flavor", FlavorCommonMark, "Markdown flavor (commonmark, gfm)")
	fs.IntVar(&set.maxBlankLines, "max-blank-lines", defaultMaxBlankLines, "maximum consecutive blank lines")
	fs.BoolVar(&set.ignoreCodeBlocks, "ignore-code-blocks", false, "skip whitespace checks inside code blocks")
	noLinks := fs.Bool("no-link-check", false, "do not check relative link targets")

	if err := fs.Parse(args); err != nil {
		return settings{}, fmt.Errorf("parse engine arguments: %w", err)
	}
	if set.flavor != FlavorCommonMark && set.flavor != FlavorGFM {
		return settings{}, fmt.Errorf("parse engine arguments: %w: %q", ErrUnknownFlavor, set.flavor)
	}
	if set.maxBlankLines < 0 {
		set.maxBlankLines = defaultMaxBlankLines
	}
	set.checkLinks = !*noLinks
	return set, nil
}

// flavorOrDefault returns the flavor if valid, otherwise CommonMark.
func flavorOrDefault(flavor string) string {
	switch flavor {
	case FlavorCommonMark, FlavorGFM:
		return flavor
	default:
		return FlavorCommonMark
	}
}
