package configloader

import "github.com/yaklabco/srcbuf/pkg/config"

// merge combines two configurations, with override taking precedence over base.
// The merge follows these rules:
//   - Scalar values: override overwrites base if override is non-zero
//   - Pointer values: override overwrites base if override is non-nil
//   - Slices: override replaces base entirely if override is non-nil
func merge(base, override *config.Config) *config.Config {
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}

	result := *base

	if override.Flavor != "" {
		result.Flavor = override.Flavor
	}
	if override.LogLevel != "" {
		result.LogLevel = override.LogLevel
	}
	if override.Format != "" {
		result.Format = override.Format
	}

	if override.Buffer.BlockSize != 0 {
		result.Buffer.BlockSize = override.Buffer.BlockSize
	}
	if override.Buffer.UndoLimit != 0 {
		result.Buffer.UndoLimit = override.Buffer.UndoLimit
	}
	if override.Analysis.Workers != 0 {
		result.Analysis.Workers = override.Analysis.Workers
	}
	if override.Analysis.PoolSize != 0 {
		result.Analysis.PoolSize = override.Analysis.PoolSize
	}

	result.Checks = mergeChecks(base.Checks, override.Checks)

	// Booleans can only be switched on by a higher layer, since false is
	// indistinguishable from unset.
	if override.Fix {
		result.Fix = true
	}
	if override.Force {
		result.Force = true
	}
	if override.NoBackups {
		result.NoBackups = true
	}

	if override.Backups.Mode != "" {
		result.Backups.Mode = override.Backups.Mode
	}
	if override.Backups.Enabled {
		result.Backups.Enabled = true
	}

	if override.Ignore != nil {
		result.Ignore = override.Ignore
	}

	return &result
}

func mergeChecks(base, override config.ChecksConfig) config.ChecksConfig {
	result := base
	if override.MaxBlankLines != nil {
		result.MaxBlankLines = override.MaxBlankLines
	}
	if override.IgnoreCodeBlocks != nil {
		result.IgnoreCodeBlocks = override.IgnoreCodeBlocks
	}
	if override.LinkCheck != nil {
		result.LinkCheck = override.LinkCheck
	}
	return result
}

// MergeAll merges multiple configurations in order, with later configs taking precedence.
func MergeAll(configs ...*config.Config) *config.Config {
	if len(configs) == 0 {
		return nil
	}

	result := configs[0]
	for i := 1; i < len(configs); i++ {
		result = merge(result, configs[i])
	}
	return result
}
