package cli_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// repl runs a scripted session on path and returns its output.
func repl(t *testing.T, path string, script ...string) string {
	t.Helper()
	out, err := execute(t, strings.Join(script, "\n")+"\n",
		"repl", "--config", writeConfig(t, ""), "--color", "never", "--no-history", path)
	require.NoError(t, err)
	return out
}

func TestRepl_CreateFixAndSave(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "new.md")
	out := repl(t, path,
		`insert $ "# Title\n\nText   \n"`,
		"problems",
		"fixall",
		"problems",
		"save",
		"quit",
	)

	assert.Contains(t, out, "new.md:3:5  warning  Trailing whitespace")
	assert.Contains(t, out, "applied 1 edits (0 merged, 0 skipped)")
	assert.Contains(t, out, "no problems")
	assert.Contains(t, out, "saved "+path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# Title\n\nText\n", string(content))
}

func TestRepl_UndoRedo(t *testing.T) {
	t.Parallel()

	path := writeDoc(t, t.TempDir(), "a.md", "# A\n")
	out := repl(t, path,
		`insert 1:4 " B"`,
		"show 1",
		"undo",
		"show 1",
		"redo",
		"show 1",
		"undo",
		"undo",
		"quit",
	)

	first := strings.Index(out, "1  # A B\n")
	require.GreaterOrEqual(t, first, 0)
	second := strings.Index(out[first:], "1  # A\n")
	require.Greater(t, second, 0, "undo restores the line")
	assert.Contains(t, out[first+second:], "1  # A B\n", "redo reapplies the edit")
	assert.Contains(t, out, "nothing to undo")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# A\n", string(content), "nothing was saved")
}

func TestRepl_FindAndContexts(t *testing.T) {
	t.Parallel()

	path := writeDoc(t, t.TempDir(), "a.md", "# Intro\n\nword one\n\n## Usage\n\nword two\n")
	out := repl(t, path,
		"find word",
		"find word",
		"find word",
		"find -i USAGE",
		"find missing",
		"contexts",
		"quit",
	)

	assert.Equal(t, 2, strings.Count(out, "found at 3:1"), "the third search wraps around")
	assert.Contains(t, out, "found at 7:1")
	assert.Contains(t, out, "found at 5:4")
	assert.Contains(t, out, "not found")
	assert.Contains(t, out, "Intro  (H1 section)")
	assert.Contains(t, out, "L5-7  Usage  (H2 section)")
}

func TestRepl_FixByID(t *testing.T) {
	t.Parallel()

	path := writeDoc(t, t.TempDir(), "a.md", "# Title\n\nText\t\n")
	out := repl(t, path,
		"problems",
		"fix 99",
		"quit!",
	)
	assert.Contains(t, out, "Hard tab character found  [#")
	assert.Contains(t, out, "error: ")
}

func TestRepl_Styles(t *testing.T) {
	t.Parallel()

	path := writeDoc(t, t.TempDir(), "a.md", "# Title\n\nSome *emphasis* here.\n")
	out := repl(t, path, "styles", "styles overlay", "styles bogus", "quit")

	assert.Contains(t, out, `1:3-1:8  heading  "Title"`)
	assert.Contains(t, out, `1:1-1:2  punctuation  "#"`)
	assert.Contains(t, out, "error: invalid usage: unknown layer")
}

func TestRepl_QuitWithUnsavedChanges(t *testing.T) {
	t.Parallel()

	path := writeDoc(t, t.TempDir(), "a.md", "# A\n")
	out := repl(t, path, "insert $ x", "quit", "status")

	assert.Contains(t, out, "unsaved changes")
	assert.Contains(t, out, "version")
	assert.Contains(t, out, "modified", "the first quit is refused")
}

func TestRepl_Errors(t *testing.T) {
	t.Parallel()

	path := writeDoc(t, t.TempDir(), "a.md", "# A\n")
	out := repl(t, path,
		"bogus",
		"insert 9:1 x",
		"insert 1:99 x",
		"delete 1:3 1:1",
		`insert 1:1 "unterminated`,
		"help",
		"quit",
	)

	assert.Contains(t, out, `error: unknown command "bogus"`)
	assert.Contains(t, out, "line out of range 1-2")
	assert.Contains(t, out, "column out of range 1-4")
	assert.Contains(t, out, "lies before")
	assert.Contains(t, out, "error: text ")
	assert.Contains(t, out, "insert POS TEXT")
}
