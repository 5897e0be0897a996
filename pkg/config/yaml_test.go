package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/srcbuf/pkg/config"
)

func TestConfigClone(t *testing.T) {
	t.Run("nil config returns nil", func(t *testing.T) {
		var c *config.Config
		assert.Nil(t, c.Clone())
	})

	t.Run("deep copies Ignore slice", func(t *testing.T) {
		original := &config.Config{Ignore: []string{"*.md", "vendor/**"}}

		clone := original.Clone()
		require.NotNil(t, clone)
		assert.Equal(t, original.Ignore, clone.Ignore)

		clone.Ignore[0] = "changed"
		assert.Equal(t, "*.md", original.Ignore[0])
	})

	t.Run("deep copies check settings", func(t *testing.T) {
		original := config.NewConfig()

		clone := original.Clone()
		*clone.Checks.MaxBlankLines = 5
		*clone.Checks.LinkCheck = false

		assert.Equal(t, 1, original.Checks.MaxBlankLinesOrDefault())
		assert.True(t, original.Checks.LinkCheckEnabled())
	})

	t.Run("preserves CLI fields", func(t *testing.T) {
		original := config.NewConfig()
		original.Fix = true
		original.Force = true
		original.Format = config.FormatJSON
		original.NoBackups = true

		clone := original.Clone()
		assert.Equal(t, original, clone)
		assert.NotSame(t, original, clone)
	})
}

func TestConfigToYAML(t *testing.T) {
	t.Run("nil config returns nil", func(t *testing.T) {
		var cfg *config.Config
		data, err := cfg.ToYAML()
		require.NoError(t, err)
		assert.Nil(t, data)
	})

	t.Run("nested sections serialize", func(t *testing.T) {
		cfg := config.NewConfig()
		cfg.Flavor = config.FlavorGFM
		cfg.Fix = true

		data, err := cfg.ToYAML()
		require.NoError(t, err)
		assert.Contains(t, string(data), "flavor: gfm")
		assert.Contains(t, string(data), "  block_size: 4096")
		assert.Contains(t, string(data), "  workers: 2")
		assert.NotContains(t, string(data), "fix")
	})

	t.Run("header is prepended", func(t *testing.T) {
		data, err := config.NewConfig().ToYAMLWithHeader(config.DefaultTemplateHeader())
		require.NoError(t, err)
		assert.Contains(t, string(data), "# srcbuf configuration\n")
	})
}

func TestFromYAML(t *testing.T) {
	t.Run("parses valid YAML", func(t *testing.T) {
		cfg, err := config.FromYAML([]byte(`
flavor: gfm
buffer:
  block_size: 1024
  undo_limit: 50
analysis:
  workers: 4
checks:
  link_check: false
`))
		require.NoError(t, err)
		assert.Equal(t, config.FlavorGFM, cfg.Flavor)
		assert.Equal(t, 1024, cfg.Buffer.BlockSize)
		assert.Equal(t, 50, cfg.Buffer.UndoLimit)
		assert.Equal(t, 4, cfg.Analysis.Workers)
		assert.False(t, cfg.Checks.LinkCheckEnabled())
		assert.Nil(t, cfg.Checks.MaxBlankLines, "unset fields stay nil")
	})

	t.Run("rejects unknown keys", func(t *testing.T) {
		_, err := config.FromYAML([]byte("rules:\n  MD001: {}\n"))
		require.Error(t, err)
	})

	t.Run("empty input", func(t *testing.T) {
		cfg, err := config.FromYAML(nil)
		require.NoError(t, err)
		assert.Equal(t, &config.Config{}, cfg)
	})
}

func TestGenerateTemplate(t *testing.T) {
	t.Run("yaml template parses to the defaults", func(t *testing.T) {
		data, err := config.GenerateTemplate(config.TemplateOptions{Format: "yaml"})
		require.NoError(t, err)

		cfg, err := config.FromYAML(data)
		require.NoError(t, err)

		want := config.NewConfig()
		assert.Equal(t, want.Flavor, cfg.Flavor)
		assert.Equal(t, want.Buffer, cfg.Buffer)
		assert.Equal(t, want.Analysis, cfg.Analysis)
		assert.Equal(t, want.Checks, cfg.Checks)
		assert.Equal(t, want.Backups, cfg.Backups)
		assert.Equal(t, want.LogLevel, cfg.LogLevel)
	})

	t.Run("json template", func(t *testing.T) {
		data, err := config.GenerateTemplate(config.TemplateOptions{Format: "json"})
		require.NoError(t, err)
		assert.Contains(t, string(data), `"block_size": 4096`)
		assert.Contains(t, string(data), `"link_check": true`)
	})
}
