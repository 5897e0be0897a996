package configloader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/yaklabco/srcbuf/pkg/config"
)

// Limits for numeric settings.
const (
	minBlockSize = 16
	maxBlockSize = 1 << 20
	maxWorkers   = 256
	maxPoolSize  = 64
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	// Field is the path to the invalid field (e.g., "analysis.workers").
	Field string

	// Value is the invalid value.
	Value any

	// Message describes the validation error.
	Message string

	// FilePath is the config file containing the error (if known).
	FilePath string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var parts []string
	if e.FilePath != "" {
		parts = append(parts, e.FilePath)
	}
	if e.Field != "" {
		parts = append(parts, e.Field)
	}
	parts = append(parts, e.Message)
	return strings.Join(parts, ": ")
}

// ValidationResult contains all validation findings.
type ValidationResult struct {
	// Errors are validation failures that prevent loading.
	Errors []ValidationError

	// Warnings are non-fatal issues.
	Warnings []ValidationError
}

// Valid returns true if there are no errors.
func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// HasWarnings returns true if there are any warnings.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// AllMessages returns all error and warning messages combined.
func (r *ValidationResult) AllMessages() []string {
	messages := make([]string, 0, len(r.Errors)+len(r.Warnings))
	for _, e := range r.Errors {
		messages = append(messages, "error: "+e.Error())
	}
	for _, w := range r.Warnings {
		messages = append(messages, "warning: "+w.Error())
	}
	return messages
}

//nolint:gochecknoglobals // Read-only lookup table.
var knownFlavors = map[config.Flavor]bool{
	config.FlavorCommonMark: true,
	config.FlavorGFM:        true,
}

//nolint:gochecknoglobals // Read-only lookup table.
var knownFormats = map[config.OutputFormat]bool{
	config.FormatText: true,
	config.FormatJSON: true,
}

//nolint:gochecknoglobals // Read-only lookup table.
var knownBackupModes = map[string]bool{
	"sidecar": true,
	"none":    true,
}

//nolint:gochecknoglobals // Read-only lookup table.
var knownLogLevels = map[string]bool{
	"debug":   true,
	"info":    true,
	"warn":    true,
	"warning": true,
	"error":   true,
}

// Validate checks a configuration for errors and warnings.
func Validate(cfg *config.Config) *ValidationResult {
	result := &ValidationResult{}
	if cfg == nil {
		return result
	}

	v := &validator{result: result}

	v.check(cfg.Flavor == "" || knownFlavors[cfg.Flavor], "flavor", cfg.Flavor,
		fmt.Sprintf("invalid flavor %q; must be one of: commonmark, gfm", cfg.Flavor))
	v.check(cfg.Format == "" || knownFormats[cfg.Format], "format", cfg.Format,
		fmt.Sprintf("invalid format %q; must be one of: text, json", cfg.Format))
	v.check(cfg.LogLevel == "" || knownLogLevels[strings.ToLower(cfg.LogLevel)], "log_level", cfg.LogLevel,
		fmt.Sprintf("invalid log level %q; must be one of: debug, info, warn, error", cfg.LogLevel))
	v.check(cfg.Backups.Mode == "" || knownBackupModes[cfg.Backups.Mode], "backups.mode", cfg.Backups.Mode,
		fmt.Sprintf("invalid backup mode %q; must be one of: sidecar, none", cfg.Backups.Mode))

	v.check(cfg.Buffer.BlockSize == 0 || (cfg.Buffer.BlockSize >= minBlockSize && cfg.Buffer.BlockSize <= maxBlockSize),
		"buffer.block_size", cfg.Buffer.BlockSize,
		fmt.Sprintf("block size must be between %d and %d", minBlockSize, maxBlockSize))
	v.check(cfg.Buffer.UndoLimit >= 0, "buffer.undo_limit", cfg.Buffer.UndoLimit,
		"undo limit must be >= 0 (0 means unlimited)")
	v.check(cfg.Analysis.Workers >= 0 && cfg.Analysis.Workers <= maxWorkers,
		"analysis.workers", cfg.Analysis.Workers,
		fmt.Sprintf("workers must be between 0 and %d (0 means the default)", maxWorkers))
	v.check(cfg.Analysis.PoolSize >= 0 && cfg.Analysis.PoolSize <= maxPoolSize,
		"analysis.pool_size", cfg.Analysis.PoolSize,
		fmt.Sprintf("pool size must be between 0 and %d (0 means the default)", maxPoolSize))
	if cfg.Checks.MaxBlankLines != nil {
		v.check(*cfg.Checks.MaxBlankLines >= 0, "checks.max_blank_lines", *cfg.Checks.MaxBlankLines,
			"max blank lines must be >= 0")
	}

	if cfg.Analysis.PoolSize > 0 && cfg.Analysis.Workers > 0 && cfg.Analysis.PoolSize < 2 {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "analysis.pool_size",
			Value:   cfg.Analysis.PoolSize,
			Message: "a pool of one context makes interactive queries wait for analysis",
		})
	}

	for i, pattern := range cfg.Ignore {
		if _, err := filepath.Match(pattern, ""); err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Field:   fmt.Sprintf("ignore[%d]", i),
				Value:   pattern,
				Message: fmt.Sprintf("invalid glob pattern: %v", err),
			})
		}
	}

	return result
}

type validator struct {
	result *ValidationResult
}

func (v *validator) check(ok bool, field string, value any, message string) {
	if ok {
		return
	}
	v.result.Errors = append(v.result.Errors, ValidationError{Field: field, Value: value, Message: message})
}

// ValidateWithFile validates configuration and includes file path in errors.
func ValidateWithFile(cfg *config.Config, filePath string) *ValidationResult {
	result := Validate(cfg)
	for i := range result.Errors {
		result.Errors[i].FilePath = filePath
	}
	for i := range result.Warnings {
		result.Warnings[i].FilePath = filePath
	}
	return result
}

// IsValidFlavor returns true if the flavor is valid.
func IsValidFlavor(f config.Flavor) bool {
	return knownFlavors[f]
}

// IsValidFormat returns true if the format is valid.
func IsValidFormat(f config.OutputFormat) bool {
	return knownFormats[f]
}
