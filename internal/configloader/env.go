package configloader

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/yaklabco/srcbuf/pkg/config"
)

// envVarPrefix is the prefix for all srcbuf environment variables.
const envVarPrefix = "SRCBUF_"

// envFieldType represents the type of a configuration field.
type envFieldType int

const (
	envTypeString envFieldType = iota
	envTypeBool
	envTypeInt
	envTypeSlice
)

// envMapping defines environment variable to config field mappings.
type envMapping struct {
	field string
	typ   envFieldType
	help  string
}

// envMappings maps environment variable names (without prefix) to config fields.
//
//nolint:gochecknoglobals // Read-only lookup table.
var envMappings = map[string]envMapping{
	"FLAVOR":             {"flavor", envTypeString, "Markdown flavor: commonmark or gfm"},
	"LOG_LEVEL":          {"log_level", envTypeString, "Log level: debug, info, warn, or error"},
	"FORMAT":             {"format", envTypeString, "Output format: text or json"},
	"FIX":                {"fix", envTypeBool, "Apply fix-its and save: true or false"},
	"BLOCK_SIZE":         {"buffer.block_size", envTypeInt, "Target characters per text block"},
	"UNDO_LIMIT":         {"buffer.undo_limit", envTypeInt, "Maximum undo steps (0 = unlimited)"},
	"WORKERS":            {"analysis.workers", envTypeInt, "Number of analysis workers"},
	"POOL_SIZE":          {"analysis.pool_size", envTypeInt, "Analysis contexts per document"},
	"MAX_BLANK_LINES":    {"checks.max_blank_lines", envTypeInt, "Consecutive blank lines allowed"},
	"IGNORE_CODE_BLOCKS": {"checks.ignore_code_blocks", envTypeBool, "Skip whitespace checks in code blocks"},
	"LINK_CHECK":         {"checks.link_check", envTypeBool, "Check relative link targets: true or false"},
	"BACKUPS_ENABLED":    {"backups.enabled", envTypeBool, "Enable backups when saving: true or false"},
	"BACKUPS_MODE":       {"backups.mode", envTypeString, "Backup mode: sidecar or none"},
	"IGNORE":             {"ignore", envTypeSlice, "Comma-separated list of ignore patterns"},
	"NO_BACKUPS":         {"no_backups", envTypeBool, "Disable backups: true or false"},
}

// LoadFromEnv applies environment variable overrides to the configuration.
// Environment variables are prefixed with SRCBUF_ (e.g., SRCBUF_FLAVOR).
func LoadFromEnv(cfg *config.Config) error {
	if cfg == nil {
		return nil
	}

	for envSuffix, mapping := range envMappings {
		envVar := envVarPrefix + envSuffix
		value := os.Getenv(envVar)
		if value == "" {
			continue
		}

		if err := applyEnvValue(cfg, mapping, value, envVar); err != nil {
			return err
		}
	}

	return nil
}

// applyEnvValue applies a single environment variable value to the config.
func applyEnvValue(cfg *config.Config, mapping envMapping, value, envVar string) error {
	switch mapping.typ {
	case envTypeString:
		return setStringField(cfg, mapping.field, value)
	case envTypeBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for %s: %q (expected true/false/1/0)", envVar, value)
		}
		return setBoolField(cfg, mapping.field, b)
	case envTypeInt:
		i, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer for %s: %q", envVar, value)
		}
		return setIntField(cfg, mapping.field, i)
	case envTypeSlice:
		cfg.Ignore = parseSliceValue(value)
		return nil
	default:
		return fmt.Errorf("unknown field type for %s", envVar)
	}
}

// parseSliceValue parses a comma-separated string into a slice.
// Each element is trimmed of whitespace.
func parseSliceValue(value string) []string {
	if value == "" {
		return nil
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func setStringField(cfg *config.Config, field, value string) error {
	switch field {
	case "flavor":
		cfg.Flavor = config.Flavor(value)
	case "log_level":
		cfg.LogLevel = value
	case "format":
		cfg.Format = config.OutputFormat(value)
	case "backups.mode":
		cfg.Backups.Mode = value
	default:
		return fmt.Errorf("unknown string field: %s", field)
	}
	return nil
}

func setBoolField(cfg *config.Config, field string, value bool) error {
	switch field {
	case "fix":
		cfg.Fix = value
	case "checks.ignore_code_blocks":
		cfg.Checks.IgnoreCodeBlocks = &value
	case "checks.link_check":
		cfg.Checks.LinkCheck = &value
	case "backups.enabled":
		cfg.Backups.Enabled = value
	case "no_backups":
		cfg.NoBackups = value
	default:
		return fmt.Errorf("unknown boolean field: %s", field)
	}
	return nil
}

func setIntField(cfg *config.Config, field string, value int) error {
	switch field {
	case "buffer.block_size":
		cfg.Buffer.BlockSize = value
	case "buffer.undo_limit":
		cfg.Buffer.UndoLimit = value
	case "analysis.workers":
		cfg.Analysis.Workers = value
	case "analysis.pool_size":
		cfg.Analysis.PoolSize = value
	case "checks.max_blank_lines":
		cfg.Checks.MaxBlankLines = &value
	default:
		return fmt.Errorf("unknown integer field: %s", field)
	}
	return nil
}

// GetEnvVarName returns the full environment variable name for a config field.
func GetEnvVarName(field string) string {
	for suffix, mapping := range envMappings {
		if mapping.field == field {
			return envVarPrefix + suffix
		}
	}
	return ""
}

// ListEnvVars returns every supported environment variable with its description.
func ListEnvVars() map[string]string {
	out := make(map[string]string, len(envMappings))
	for suffix, mapping := range envMappings {
		out[envVarPrefix+suffix] = mapping.help
	}
	return out
}
