package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yaklabco/srcbuf/internal/configloader"
	"github.com/yaklabco/srcbuf/internal/logging"
	"github.com/yaklabco/srcbuf/pkg/config"
)

// ErrUsage indicates invalid flags or arguments.
var ErrUsage = errors.New("invalid usage")

var errConfig = errors.New("failed to load configuration")

// loadConfig resolves the layered configuration with cliCfg on top and
// applies its log level unless one was given on the command line. It
// returns the working directory the layers were discovered from.
func loadConfig(cmd *cobra.Command, cliCfg *config.Config) (*config.Config, string, error) {
	logger := logging.FromContext(commandContext(cmd))

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, "", fmt.Errorf("get config flag: %w", err)
	}

	workDir, err := os.Getwd()
	if err != nil {
		return nil, "", fmt.Errorf("get working directory: %w", err)
	}

	loadResult, err := configloader.Load(commandContext(cmd), configloader.LoadOptions{
		WorkingDir:   workDir,
		ExplicitPath: configPath,
		CLIConfig:    cliCfg,
	})
	if err != nil {
		return nil, "", errors.Join(errConfig, err)
	}

	for _, warning := range loadResult.Warnings {
		logger.Warn(warning)
	}
	if len(loadResult.LoadedFrom) > 0 {
		logger.Debug("loaded configuration", logging.FieldFiles, loadResult.LoadedFrom)
	}

	cfg := loadResult.Config
	if !levelFromFlags(cmd) && cfg.LogLevel != "" {
		logging.SetLevel(cfg.LogLevel)
	}

	logger.Debug("configuration loaded",
		logging.FieldFlavor, cfg.Flavor,
		logging.FieldFix, cfg.Fix,
		logging.FieldWorkers, cfg.Analysis.Workers,
		logging.FieldPoolSize, cfg.Analysis.PoolSize,
	)

	return cfg, workDir, nil
}

func levelFromFlags(cmd *cobra.Command) bool {
	debug, _ := cmd.Flags().GetBool("debug")
	return debug || cmd.Flags().Changed("log-level")
}
