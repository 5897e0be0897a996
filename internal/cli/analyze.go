package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yaklabco/srcbuf/internal/logging"
	"github.com/yaklabco/srcbuf/pkg/config"
	"github.com/yaklabco/srcbuf/pkg/reporter"
	"github.com/yaklabco/srcbuf/pkg/runner"
)

type analyzeFlags struct {
	format           string
	flavor           string
	ignore           []string
	maxBlankLines    int
	ignoreCodeBlocks bool
	noLinkCheck      bool
	includeVendor    bool
	followSymlinks   bool
	strict           bool
	noContext        bool
	contexts         bool
	compact          bool
	verbose          bool
}

func newAnalyzeCommand() *cobra.Command {
	var cfg config.Config
	flags := &analyzeFlags{}

	cmd := &cobra.Command{
		Use:     "analyze [paths...]",
		Aliases: []string{"check"},
		Short:   "Analyse Markdown files",
		Long:    analyzeLongDescription,
		Args:    cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args, &cfg, flags)
		},
	}

	addAnalyzeFlags(cmd, &cfg, flags)

	return cmd
}

const analyzeLongDescription = `Analyse Markdown files and report their problems.

Each file is loaded into a buffer and analysed by the background scheduler.
The report is taken once every buffer has an up-to-date analysis.

By default, analyses all .md and .markdown files in the current directory
and subdirectories. Specify paths to analyse specific files or directories.

Examples:
  srcbuf analyze                    # Analyse current directory
  srcbuf analyze docs/              # Analyse docs directory
  srcbuf analyze README.md          # Analyse single file
  srcbuf analyze --fix              # Apply every fix-it and save
  srcbuf analyze --format json      # Output as JSON for CI
  srcbuf analyze --contexts         # List the sections of each file
  srcbuf analyze --strict           # Fail on warnings too`

func runAnalyze(cmd *cobra.Command, args []string, cliCfg *config.Config, flags *analyzeFlags) error {
	logger := logging.FromContext(commandContext(cmd))

	format, err := reporter.ParseFormat(flags.format)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}

	// Only values given on the command line override the config layers.
	cliCfg.Format = config.OutputFormat(format)
	if cmd.Flags().Changed("flavor") {
		cliCfg.Flavor = config.Flavor(flags.flavor)
	}
	if cmd.Flags().Changed("ignore") {
		cliCfg.Ignore = flags.ignore
	}
	if cmd.Flags().Changed("max-blank-lines") {
		cliCfg.Checks.MaxBlankLines = &flags.maxBlankLines
	}
	if cmd.Flags().Changed("ignore-code-blocks") {
		cliCfg.Checks.IgnoreCodeBlocks = &flags.ignoreCodeBlocks
	}
	if flags.noLinkCheck {
		linkCheck := false
		cliCfg.Checks.LinkCheck = &linkCheck
	}

	cfg, workDir, err := loadConfig(cmd, cliCfg)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)

	runOpts := runner.Options{
		Paths:          args,
		WorkingDir:     workDir,
		Extensions:     runner.DefaultExtensions(),
		ExcludeGlobs:   cfg.Ignore,
		IncludeVendor:  flags.includeVendor,
		FollowSymlinks: flags.followSymlinks,
		Config:         cfg,
	}

	logger.Debug("starting analysis run",
		logging.FieldPaths, runOpts.Paths,
		logging.FieldWorkingDir, runOpts.WorkingDir,
		logging.FieldWorkers, cfg.Analysis.Workers,
	)

	result, err := runner.New(logger).Run(ctx, runOpts)
	if err != nil {
		return fmt.Errorf("analysis run failed: %w", err)
	}

	colorMode, err := cmd.Flags().GetString("color")
	if err != nil {
		colorMode = "auto"
	}

	rep, err := reporter.New(reporter.Options{
		Writer:       cmd.OutOrStdout(),
		Format:       format,
		Color:        colorMode,
		ShowContext:  !flags.noContext,
		ShowContexts: flags.contexts,
		ShowSummary:  true,
		Verbose:      flags.verbose,
		Compact:      flags.compact,
		WorkingDir:   workDir,
	})
	if err != nil {
		return fmt.Errorf("create reporter: %w", err)
	}

	if _, err := rep.Report(ctx, result); err != nil {
		return fmt.Errorf("report results: %w", err)
	}

	switch ExitCodeFromResult(result, flags.strict) {
	case ExitProblemErrors:
		return ErrProblemsFound
	case ExitProblemWarnings:
		return ErrWarningsFound
	}
	return nil
}

func addAnalyzeFlags(cmd *cobra.Command, cfg *config.Config, flags *analyzeFlags) {
	cmd.Flags().BoolVar(&cfg.Fix, "fix", false, "apply every fix-it and save the changed files")
	cmd.Flags().BoolVar(&cfg.Force, "force", false, "save files even if they changed on disk during the run")
	cmd.Flags().BoolVar(&cfg.NoBackups, "no-backups", false, "disable backup creation when fixing")
	cmd.Flags().StringVar(&flags.format, "format", "text", "output format: text, json")
	cmd.Flags().IntVarP(&cfg.Analysis.Workers, "jobs", "j", 0, "number of analysis workers (0 = config default)")
	cmd.Flags().StringSliceVar(&flags.ignore, "ignore", nil, "glob patterns to ignore")
	cmd.Flags().StringVar(&flags.flavor, "flavor", "commonmark", "Markdown flavor: commonmark, gfm")
	cmd.Flags().IntVar(&flags.maxBlankLines, "max-blank-lines", config.DefaultMaxBlankLines,
		"consecutive blank lines allowed")
	cmd.Flags().BoolVar(&flags.ignoreCodeBlocks, "ignore-code-blocks", false,
		"skip whitespace checks inside code blocks")
	cmd.Flags().BoolVar(&flags.noLinkCheck, "no-link-check", false, "do not check relative link targets")
	cmd.Flags().BoolVar(&flags.includeVendor, "include-vendor", false, "analyse vendored directories")
	cmd.Flags().BoolVar(&flags.followSymlinks, "follow-symlinks", false, "follow symlinked directories")
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "exit non-zero on warnings too")
	cmd.Flags().BoolVar(&flags.noContext, "no-context", false, "hide source line context in output")
	cmd.Flags().BoolVar(&flags.contexts, "contexts", false, "list each file's sections")
	cmd.Flags().BoolVar(&flags.compact, "compact", false, "use compact JSON output")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "show analysis scheduler statistics")
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
