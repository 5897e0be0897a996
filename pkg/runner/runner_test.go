package runner_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/srcbuf/pkg/buffer"
	"github.com/yaklabco/srcbuf/pkg/config"
	"github.com/yaklabco/srcbuf/pkg/engine/markdown"
	"github.com/yaklabco/srcbuf/pkg/fsutil"
	"github.com/yaklabco/srcbuf/pkg/runner"
)

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, opts runner.Options) *runner.Result {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := runner.New(nil).Run(ctx, opts)
	require.NoError(t, err)
	return result
}

func TestRunner_Run_NoFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	write(t, dir, "notes.txt", "plain\n")

	result := run(t, runner.Options{WorkingDir: dir})

	assert.Empty(t, result.Files)
	assert.Zero(t, result.Stats.FilesDiscovered)
	assert.False(t, result.HasIssues())
	assert.False(t, result.HasFailures())
}

func TestRunner_Run_Problems(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	clean := write(t, dir, "clean.md", "# Clean\n\nNothing to see.\n")
	dirty := write(t, dir, "dirty.md", "# Title\n\nTrailing   \n")

	result := run(t, runner.Options{WorkingDir: dir})
	require.Len(t, result.Files, 2)

	first, second := result.Files[0], result.Files[1]
	assert.Equal(t, clean, first.Path)
	assert.Empty(t, first.Problems)
	assert.Equal(t, "Markdown", first.Language)

	assert.Equal(t, dirty, second.Path)
	require.Len(t, second.Problems, 1)
	p := second.Problems[0]
	assert.Equal(t, "Trailing whitespace", p.Message)
	assert.Equal(t, buffer.SeverityWarning, p.Severity)
	assert.Equal(t, 3, p.Line)
	assert.Equal(t, 9, p.Column)
	assert.NotEmpty(t, p.Fixits)

	require.Len(t, second.Contexts, 1)
	assert.Equal(t, "Title", second.Contexts[0].Name)
	assert.Equal(t, 1, second.Contexts[0].StartLine)
	assert.Equal(t, 3, second.Contexts[0].EndLine)

	stats := result.Stats
	assert.Equal(t, 2, stats.FilesDiscovered)
	assert.Equal(t, 2, stats.FilesProcessed)
	assert.Equal(t, 1, stats.ProblemsTotal)
	assert.Equal(t, 1, stats.ProblemsFixable)
	assert.Equal(t, 1, stats.FilesWithProblems)
	assert.Equal(t, 1, stats.ProblemsBySeverity["warning"])
	assert.Zero(t, stats.Analysis.Failed)
	assert.GreaterOrEqual(t, stats.Analysis.Published, 2)

	assert.True(t, result.HasIssues())
	assert.False(t, result.HasFailures())

	// Analysis never touches the files.
	data, err := os.ReadFile(dirty)
	require.NoError(t, err)
	assert.Equal(t, "# Title\n\nTrailing   \n", string(data))
}

func TestRunner_Run_LinkTargets(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	write(t, dir, "other.md", "# Other\n")
	write(t, dir, "index.md", "# Index\n\nSee [other](other.md) and [gone](gone.md).\n")

	result := run(t, runner.Options{Paths: []string{"index.md"}, WorkingDir: dir})
	require.Len(t, result.Files, 1)

	problems := result.Files[0].Problems
	require.Len(t, problems, 1)
	assert.Equal(t, "Link target 'gone.md' does not exist", problems[0].Message)
	assert.Equal(t, buffer.SeverityError, problems[0].Severity)
	assert.True(t, result.HasFailures())

	cfg := config.NewConfig()
	off := false
	cfg.Checks.LinkCheck = &off

	result = run(t, runner.Options{Paths: []string{"index.md"}, WorkingDir: dir, Config: cfg})
	require.Len(t, result.Files, 1)
	assert.Empty(t, result.Files[0].Problems)
	assert.False(t, result.HasFailures())
}

func TestRunner_Run_Fix(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := write(t, dir, "fix.md", "# Title\n\nline   \n\n\n\nend")
	untouched := write(t, dir, "ok.md", "# Fine\n")

	cfg := config.NewConfig()
	cfg.Fix = true

	result := run(t, runner.Options{WorkingDir: dir, Config: cfg})
	require.Len(t, result.Files, 2)

	fixed := result.Files[0]
	require.NoError(t, fixed.Error)
	assert.Equal(t, path, fixed.Path)
	assert.Equal(t, 3, fixed.Fixed)
	assert.True(t, fixed.Written)
	assert.Empty(t, fixed.Problems)

	assert.False(t, result.Files[1].Written)
	assert.Equal(t, untouched, result.Files[1].Path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# Title\n\nline\n\nend\n", string(data))

	backup, err := os.ReadFile(fsutil.BackupPath(path, fsutil.BackupModeSidecar))
	require.NoError(t, err)
	assert.Equal(t, "# Title\n\nline   \n\n\n\nend", string(backup))

	assert.Equal(t, 1, result.Stats.FilesModified)
	assert.Equal(t, 3, result.Stats.EditsApplied)
}

func TestRunner_Run_FixWithoutBackups(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := write(t, dir, "fix.md", "# Title\tx\n")

	cfg := config.NewConfig()
	cfg.Fix = true
	cfg.NoBackups = true

	result := run(t, runner.Options{WorkingDir: dir, Config: cfg})
	require.Len(t, result.Files, 1)
	assert.True(t, result.Files[0].Written)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# Title    x\n", string(data))

	_, err = os.Stat(fsutil.BackupPath(path, fsutil.BackupModeSidecar))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRunner_Run_DiscoveryError(t *testing.T) {
	t.Parallel()

	_, err := runner.New(nil).Run(context.Background(), runner.Options{
		Paths:      []string{"missing.md"},
		WorkingDir: t.TempDir(),
	})
	require.Error(t, err)
}

func TestRunner_Run_Cancelled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	write(t, dir, "a.md", "# A\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runner.New(nil).Run(ctx, runner.Options{WorkingDir: dir})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngineArgs(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	assert.Equal(t, markdown.Args(markdown.FlavorCommonMark, config.DefaultMaxBlankLines), runner.EngineArgs(cfg)("a.md"))

	blank, ignore, links := 3, true, false
	cfg.Flavor = config.FlavorGFM
	cfg.Checks = config.ChecksConfig{MaxBlankLines: &blank, IgnoreCodeBlocks: &ignore, LinkCheck: &links}

	args := runner.EngineArgs(cfg)("b.md")
	assert.Equal(t, markdown.Args(markdown.FlavorGFM, 3), args[:2])
	assert.Contains(t, args, markdown.FlagIgnoreCodeBlocks)
	assert.Contains(t, args, markdown.FlagNoLinkCheck)
}

func TestNewSession(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	session, err := runner.NewSession(ctx, runner.SessionOptions{})
	require.NoError(t, err)
	defer session.Close()

	path, err := session.Workspace.OpenText(ctx, filepath.Join(t.TempDir(), "scratch.md"), "# A\n\n\n\nB\n")
	require.NoError(t, err)
	require.NoError(t, session.WaitIdle(ctx))

	var messages []string
	require.NoError(t, session.Workspace.View(ctx, path, func(buf *buffer.Buffer) {
		for _, p := range buf.Problems() {
			messages = append(messages, p.Message)
		}
	}))
	assert.Equal(t, []string{"Multiple consecutive blank lines (found 3, max 1)"}, messages)
}
