// Package langdetect guesses the language of documents and code snippets
// with go-enry. Results use the lower-case names found in code fence info
// strings ("go", "bash", "markdown").
package langdetect

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/go-enry/go-enry/v2"
)

// Text is returned when no language could be determined with confidence.
const Text = "text"

// classifierCandidates bounds the classifier to languages commonly found in
// documentation snippets.
//
//nolint:gochecknoglobals // Read-only candidate list.
var classifierCandidates = []string{
	"Go", "Python", "Shell", "JavaScript", "TypeScript",
	"Ruby", "Rust", "Java", "C", "C++", "SQL", "JSON",
	"YAML", "HTML", "CSS", "Markdown", "Dockerfile",
}

// snippet is the content under inspection in the forms the patterns need.
type snippet struct {
	raw     []byte
	trimmed []byte
	str     string
}

// pattern recognises one language from highly indicative content.
type pattern struct {
	lang  string
	match func(s snippet) bool
}

// patterns are tried in order of specificity.
//
//nolint:gochecknoglobals // Read-only pattern table.
var patterns = []pattern{
	{"go", func(s snippet) bool { return bytes.HasPrefix(s.trimmed, []byte("package ")) }},
	{"python", isPython},
	{"html", func(s snippet) bool {
		lower := bytes.ToLower(s.trimmed)
		return containsAny(string(lower), "<!doctype html", "<html", "<head>", "<body>")
	}},
	{"json", func(s snippet) bool {
		return (bytes.HasPrefix(s.trimmed, []byte("{")) || bytes.HasPrefix(s.trimmed, []byte("["))) &&
			bytes.Contains(s.trimmed, []byte(`"`))
	}},
	{"dockerfile", func(s snippet) bool {
		return bytes.HasPrefix(s.trimmed, []byte("FROM ")) ||
			(strings.Contains(s.str, "\nFROM ") && strings.Contains(s.str, "\nRUN ")) ||
			(strings.Contains(s.str, "WORKDIR ") && strings.Contains(s.str, "COPY "))
	}},
	{"sql", func(s snippet) bool {
		upper := strings.TrimSpace(strings.ToUpper(s.str))
		for _, kw := range []string{"SELECT ", "INSERT ", "UPDATE ", "DELETE ", "CREATE "} {
			if strings.HasPrefix(upper, kw) {
				return true
			}
		}
		return false
	}},
	{"rust", func(s snippet) bool { return containsAny(s.str, "fn main()", "println!", "let mut ") }},
	{"javascript", func(s snippet) bool { return containsAny(s.str, "=>", "const ", "let ", "console.log") }},
	{"yaml", isYAML},
}

// Detect returns the language of a code snippet, or Text.
func Detect(content []byte) string {
	if len(content) == 0 {
		return Text
	}

	if lang, safe := enry.GetLanguageByShebang(content); safe {
		return normalize(lang)
	}

	s := snippet{raw: content, trimmed: bytes.TrimSpace(content), str: string(content)}
	for _, p := range patterns {
		if p.match(s) {
			return p.lang
		}
	}

	if lang, safe := enry.GetLanguageByClassifier(content, classifierCandidates); safe && lang != "" {
		return normalize(lang)
	}
	return Text
}

// ForPath returns the language of a whole document from its file name and
// content, or Text.
func ForPath(path string, content []byte) string {
	lang := enry.GetLanguage(filepath.Base(path), content)
	if lang == "" {
		return Text
	}
	return normalize(lang)
}

// IsVendor reports whether path lies in a vendored or third-party directory.
func IsVendor(path string) bool {
	return enry.IsVendor(filepath.ToSlash(path))
}

func isPython(s snippet) bool {
	if strings.Contains(s.str, "def ") && strings.Contains(s.str, "):") {
		return true
	}
	// Go imports use "import (".
	if strings.Contains(s.str, "import ") && !strings.Contains(s.str, "import (") &&
		(strings.Contains(s.str, "from ") || strings.HasPrefix(strings.TrimSpace(s.str), "import ")) {
		return true
	}
	return containsAny(s.str, "__name__", "__main__")
}

// isYAML counts "key: value" lines and root list items.
func isYAML(s snippet) bool {
	count := 0
	for line := range bytes.SplitSeq(s.raw, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		if bytes.Contains(line, []byte(": ")) &&
			!bytes.ContainsAny(line, "({") && line[0] != '"' {
			count++
		}
		if bytes.HasPrefix(line, []byte("- ")) {
			count++
		}
	}
	return count >= 2
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// normalize converts go-enry language names to fence tags.
func normalize(lang string) string {
	if lang == "Shell" {
		return "bash"
	}
	return strings.ToLower(lang)
}
