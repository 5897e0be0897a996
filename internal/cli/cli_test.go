package cli_test

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/srcbuf/internal/cli"
	"github.com/yaklabco/srcbuf/internal/configloader"
	"github.com/yaklabco/srcbuf/pkg/runner"
)

func testInfo() cli.BuildInfo {
	return cli.BuildInfo{Version: "test-version", Commit: "test-commit", Date: "test-date"}
}

// execute runs the root command with args and returns its standard output.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := cli.NewRootCommand(testInfo())
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(bytes.NewBufferString(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), err
}

// writeConfig writes a config file that pins the layers a developer's
// machine could otherwise contribute.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "srcbuf.yml")
	require.NoError(t, os.WriteFile(path, []byte("flavor: commonmark\n"+content), 0o644))
	return path
}

func TestNewRootCommand(t *testing.T) {
	t.Parallel()

	cmd := cli.NewRootCommand(testInfo())
	require.NotNil(t, cmd)
	assert.Equal(t, "srcbuf", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)

	for _, name := range []string{"config", "color", "debug", "log-level"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
}

func TestRootCommandHasSubcommands(t *testing.T) {
	t.Parallel()

	cmd := cli.NewRootCommand(testInfo())

	for _, name := range []string{"analyze", "repl", "init", "version"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}

	sub, _, err := cmd.Find([]string{"check"})
	require.NoError(t, err)
	assert.Equal(t, "analyze", sub.Name(), "check is an alias of analyze")
}

func TestAnalyzeCommandFlags(t *testing.T) {
	t.Parallel()

	cmd := cli.NewRootCommand(testInfo())
	analyze, _, err := cmd.Find([]string{"analyze"})
	require.NoError(t, err)

	tests := []struct {
		name string
		def  string
	}{
		{"fix", "false"},
		{"force", "false"},
		{"no-backups", "false"},
		{"format", "text"},
		{"jobs", "0"},
		{"ignore", "[]"},
		{"flavor", "commonmark"},
		{"max-blank-lines", "1"},
		{"ignore-code-blocks", "false"},
		{"no-link-check", "false"},
		{"include-vendor", "false"},
		{"follow-symlinks", "false"},
		{"strict", "false"},
		{"no-context", "false"},
		{"contexts", "false"},
		{"compact", "false"},
		{"verbose", "false"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			flag := analyze.Flags().Lookup(tt.name)
			require.NotNil(t, flag)
			assert.Equal(t, tt.def, flag.DefValue)
		})
	}
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "srcbuf")
	assert.Contains(t, out, "test-version")
	assert.Contains(t, out, "test-commit")
	assert.Contains(t, out, "test-date")
}

func TestHelp(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "", "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "Usage:")
	assert.Contains(t, out, "Commands:")
	assert.Contains(t, out, "analyze")
	assert.Contains(t, out, "repl")
	assert.Contains(t, out, "--color string")

	out, err = execute(t, "", "analyze", "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "srcbuf analyze --fix")
	assert.Contains(t, out, "--max-blank-lines int")
	assert.Contains(t, out, "Global Flags:")
}

func TestInitCommand(t *testing.T) {
	t.Parallel()

	t.Run("yaml", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".srcbuf.yml")
		_, err := execute(t, "", "init", "--output", path)
		require.NoError(t, err)

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "block_size: 4096")

		_, err = execute(t, "", "init", "--output", path)
		require.ErrorIs(t, err, cli.ErrUsage, "existing file needs --force")

		_, err = execute(t, "", "init", "--output", path, "--force")
		require.NoError(t, err)
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "srcbuf.json")
		_, err := execute(t, "", "init", "--format", "json", "--output", path)
		require.NoError(t, err)

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), `"workers": 2`)

		// The generated file loads as a config.
		out, err := execute(t, "", "analyze", "--config", path, "--color", "never", t.TempDir())
		require.NoError(t, err)
		assert.Contains(t, out, "No files to analyse.")
	})

	t.Run("bad format", func(t *testing.T) {
		t.Parallel()

		_, err := execute(t, "", "init", "--format", "toml", "--output", filepath.Join(t.TempDir(), "x"))
		require.ErrorIs(t, err, cli.ErrUsage)
	})
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, cli.ExitSuccess},
		{"problems", fmt.Errorf("run: %w", cli.ErrProblemsFound), cli.ExitProblemErrors},
		{"warnings", cli.ErrWarningsFound, cli.ExitProblemWarnings},
		{"usage", cli.ErrUsage, cli.ExitInvalidUsage},
		{"config", &configloader.ValidationError{Field: "flavor"}, cli.ExitConfigError},
		{"missing file", fmt.Errorf("open: %w", fs.ErrNotExist), cli.ExitIOError},
		{"other", errors.New("boom"), cli.ExitInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, cli.ExitCode(tt.err))
		})
	}

	assert.True(t, cli.IsSilent(cli.ErrProblemsFound))
	assert.False(t, cli.IsSilent(cli.ErrUsage))
}

func TestExitCodeFromResult(t *testing.T) {
	t.Parallel()

	result := func(bySeverity map[string]int) *runner.Result {
		total := 0
		for _, n := range bySeverity {
			total += n
		}
		return &runner.Result{Stats: runner.Stats{ProblemsTotal: total, ProblemsBySeverity: bySeverity}}
	}

	assert.Equal(t, cli.ExitSuccess, cli.ExitCodeFromResult(nil, true))
	assert.Equal(t, cli.ExitSuccess, cli.ExitCodeFromResult(result(nil), true))
	assert.Equal(t, cli.ExitProblemErrors, cli.ExitCodeFromResult(result(map[string]int{"error": 1}), false))
	assert.Equal(t, cli.ExitSuccess, cli.ExitCodeFromResult(result(map[string]int{"warning": 2}), false))
	assert.Equal(t, cli.ExitProblemWarnings, cli.ExitCodeFromResult(result(map[string]int{"warning": 2}), true))
}
