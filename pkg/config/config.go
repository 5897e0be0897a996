// Package config defines core configuration types for srcbuf.
// These types are pure data structures with no dependencies on a config loader.
package config

// Flavor specifies the Markdown flavor to use for parsing.
type Flavor string

const (
	FlavorCommonMark Flavor = "commonmark"
	FlavorGFM        Flavor = "gfm"
)

// OutputFormat specifies the output format for analysis results.
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// Defaults used by NewConfig.
const (
	DefaultBlockSize     = 4096
	DefaultWorkers       = 2
	DefaultPoolSize      = 2
	DefaultMaxBlankLines = 1
	DefaultLogLevel      = "info"
)

// BufferConfig controls the text buffer.
type BufferConfig struct {
	// BlockSize is the target block size in characters.
	BlockSize int `mapstructure:"block_size" yaml:"block_size"`

	// UndoLimit caps the undo history. 0 means unlimited.
	UndoLimit int `mapstructure:"undo_limit" yaml:"undo_limit"`
}

// AnalysisConfig controls the analysis scheduler.
type AnalysisConfig struct {
	// Workers is the number of analysis goroutines.
	Workers int `mapstructure:"workers" yaml:"workers"`

	// PoolSize is the number of analysis contexts kept per document.
	PoolSize int `mapstructure:"pool_size" yaml:"pool_size"`
}

// ChecksConfig tunes the Markdown checks. Nil fields are unset and fall
// back to lower-precedence sources.
type ChecksConfig struct {
	MaxBlankLines    *int  `mapstructure:"max_blank_lines" yaml:"max_blank_lines,omitempty"`
	IgnoreCodeBlocks *bool `mapstructure:"ignore_code_blocks" yaml:"ignore_code_blocks,omitempty"`
	LinkCheck        *bool `mapstructure:"link_check" yaml:"link_check,omitempty"`
}

// BackupsConfig controls backup behavior when saving files.
type BackupsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Mode    string `mapstructure:"mode" yaml:"mode"` // "sidecar" or "none"
}

// Config is the root configuration structure for srcbuf.
type Config struct {
	// Flavor specifies the Markdown flavor ("commonmark" or "gfm").
	Flavor Flavor `mapstructure:"flavor" yaml:"flavor"`

	Buffer   BufferConfig   `mapstructure:"buffer" yaml:"buffer"`
	Analysis AnalysisConfig `mapstructure:"analysis" yaml:"analysis"`
	Checks   ChecksConfig   `mapstructure:"checks" yaml:"checks"`

	// Ignore contains glob patterns for files to skip during discovery.
	Ignore []string `mapstructure:"ignore" yaml:"ignore"`

	// Backups configures backup behavior when saving.
	Backups BackupsConfig `mapstructure:"backups" yaml:"backups"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`

	// CLI-level options (not persisted to config files).

	// Fix applies every fix-it and saves the files.
	Fix bool `mapstructure:"-" yaml:"-"`

	// Force saves files that changed on disk since they were read.
	Force bool `mapstructure:"-" yaml:"-"`

	// Format specifies the output format.
	Format OutputFormat `mapstructure:"-" yaml:"-"`

	// NoBackups disables backup creation when saving.
	NoBackups bool `mapstructure:"-" yaml:"-"`
}

// NewConfig returns a Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Flavor: FlavorCommonMark,
		Buffer: BufferConfig{
			BlockSize: DefaultBlockSize,
		},
		Analysis: AnalysisConfig{
			Workers:  DefaultWorkers,
			PoolSize: DefaultPoolSize,
		},
		Checks: ChecksConfig{
			MaxBlankLines:    ptr(DefaultMaxBlankLines),
			IgnoreCodeBlocks: ptr(false),
			LinkCheck:        ptr(true),
		},
		Backups: BackupsConfig{
			Enabled: true,
			Mode:    "sidecar",
		},
		LogLevel: DefaultLogLevel,
		Format:   FormatText,
	}
}

// MaxBlankLinesOrDefault returns the configured limit, or the default when unset.
func (c ChecksConfig) MaxBlankLinesOrDefault() int {
	if c.MaxBlankLines == nil {
		return DefaultMaxBlankLines
	}
	return *c.MaxBlankLines
}

// LinkCheckEnabled reports whether relative links are checked. Unset means yes.
func (c ChecksConfig) LinkCheckEnabled() bool {
	return c.LinkCheck == nil || *c.LinkCheck
}

// CodeBlocksIgnored reports whether whitespace checks skip code blocks.
func (c ChecksConfig) CodeBlocksIgnored() bool {
	return c.IgnoreCodeBlocks != nil && *c.IgnoreCodeBlocks
}

func ptr[T any](v T) *T {
	return &v
}
