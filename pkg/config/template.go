package config

import (
	"encoding/json"
	"fmt"
)

// TemplateOptions controls configuration template generation.
type TemplateOptions struct {
	// Format is the output format: "yaml" or "json".
	Format string
}

const yamlTemplate = `# srcbuf configuration
# See: https://github.com/yaklabco/srcbuf

# Markdown flavor: commonmark or gfm
flavor: commonmark

buffer:
  # Target number of characters per text block
  block_size: 4096
  # Maximum undo steps kept per document (0 = unlimited)
  undo_limit: 0

analysis:
  # Number of analysis workers
  workers: 2
  # Analysis contexts kept per document
  pool_size: 2

checks:
  # Consecutive blank lines allowed
  max_blank_lines: 1
  # Skip whitespace checks inside code blocks
  ignore_code_blocks: false
  # Report relative links whose target does not exist
  link_check: true

# File patterns to ignore (glob patterns)
# ignore:
#   - "vendor/**"
#   - "node_modules/**"

# Backups written before --fix overwrites a file
backups:
  enabled: true
  mode: sidecar

# Log level: debug, info, warn, error
log_level: info
`

// GenerateTemplate creates a commented configuration file with the defaults.
func GenerateTemplate(opts TemplateOptions) ([]byte, error) {
	if opts.Format != "json" {
		return []byte(yamlTemplate), nil
	}

	// JSON carries no comments, so encode the defaults directly.
	cfg := NewConfig()
	jsonBytes, err := json.MarshalIndent(map[string]any{
		"flavor": cfg.Flavor,
		"buffer": map[string]any{
			"block_size": cfg.Buffer.BlockSize,
			"undo_limit": cfg.Buffer.UndoLimit,
		},
		"analysis": map[string]any{
			"workers":   cfg.Analysis.Workers,
			"pool_size": cfg.Analysis.PoolSize,
		},
		"checks": map[string]any{
			"max_blank_lines":    cfg.Checks.MaxBlankLinesOrDefault(),
			"ignore_code_blocks": cfg.Checks.CodeBlocksIgnored(),
			"link_check":         cfg.Checks.LinkCheckEnabled(),
		},
		"backups": map[string]any{
			"enabled": cfg.Backups.Enabled,
			"mode":    cfg.Backups.Mode,
		},
		"log_level": cfg.LogLevel,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal JSON: %w", err)
	}
	return append(jsonBytes, '\n'), nil
}

// DefaultTemplateHeader returns the default header for generated configs.
func DefaultTemplateHeader() string {
	return `# srcbuf configuration
# See: https://github.com/yaklabco/srcbuf`
}
