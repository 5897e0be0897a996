// Package cli provides the Cobra command structure for srcbuf.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/yaklabco/srcbuf/internal/logging"
)

// BuildInfo holds build-time version information.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// NewRootCommand creates the root srcbuf command with all subcommands.
func NewRootCommand(info BuildInfo) *cobra.Command {
	var debug bool
	var logLevel string
	var configPath string
	var color string

	rootCmd := &cobra.Command{
		Use:   "srcbuf",
		Short: "Incrementally analysed text buffers for Markdown documents",
		Long: `srcbuf keeps documents in block-structured text buffers and analyses them
in the background, publishing syntax styles, sections and problems with
fix-its back onto each buffer.

Use "analyze" to check files in batch (optionally applying every fix-it),
or "repl" to edit a single document interactively and watch the analysis
follow your edits.`,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			switch {
			case debug:
				logging.SetLevel("debug")
			case cmd.Flags().Changed("log-level"):
				logging.SetLevel(logLevel)
			}
			cmd.SetContext(logging.WithLogger(commandContext(cmd), logging.Default()))
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags.
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&color, "color", "auto",
		"colorize output: auto, always, never")

	rootCmd.AddCommand(newAnalyzeCommand())
	rootCmd.AddCommand(newReplCommand())
	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newVersionCommand(info))

	helpFormatter := NewHelpFormatter(color, os.Stdout)
	helpFormatter.ApplyToCommand(rootCmd)

	return rootCmd
}
