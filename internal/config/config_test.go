package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://www.googleapis.com/customsearch/v1", cfg.Google.BaseURL)
	assert.Equal(t, 10, cfg.Google.Num)
	assert.Equal(t, "claude-sonnet-4-5-20250929", cfg.Anthropic.Model)
	assert.Equal(t, int64(1024), cfg.Anthropic.MaxTokens)
	assert.Equal(t, 3001, cfg.Server.Port)
	assert.Equal(t, 500, cfg.Pipeline.DelayMS)
	assert.Equal(t, 500, cfg.Pipeline.MaxBatch)
	assert.False(t, cfg.Pipeline.SearchFallback)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.True(t, cfg.Export.BOM)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_LegacyEnvAliases(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GOOGLE_API_KEY", "g-key")
	t.Setenv("GOOGLE_SEARCH_ENGINE_ID", "cx-id")
	t.Setenv("CLAUDE_API_KEY", "a-key")
	t.Setenv("PORT", "8123")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "g-key", cfg.Google.Key)
	assert.Equal(t, "cx-id", cfg.Google.CX)
	assert.Equal(t, "a-key", cfg.Anthropic.Key)
	assert.Equal(t, 8123, cfg.Server.Port)
	assert.NoError(t, cfg.CredentialsError())
}

func TestLoad_PrefixedEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LOOKUP_PIPELINE_DELAY_MS", "0")
	t.Setenv("LOOKUP_STORE_DRIVER", "off")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.Pipeline.DelayMS)
	assert.Equal(t, time.Duration(0), cfg.Pipeline.Delay())
	assert.Equal(t, "off", cfg.Store.Driver)
}

func TestCredentialsError(t *testing.T) {
	cfg := &Config{}
	err := cfg.CredentialsError()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "google.key")
	assert.Contains(t, err.Error(), "google.cx")
	assert.Contains(t, err.Error(), "anthropic.key")

	cfg.Google.Key = "g"
	cfg.Google.CX = "cx"
	err = cfg.CredentialsError()
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "google.key")
	assert.Contains(t, err.Error(), "anthropic.key")

	cfg.Anthropic.Key = "a"
	assert.NoError(t, cfg.CredentialsError())
}

func TestPipelineConfig_Delay(t *testing.T) {
	assert.Equal(t, 500*time.Millisecond, PipelineConfig{DelayMS: 500}.Delay())
}
