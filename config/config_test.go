package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/hassmesh/logging"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "hassmesh.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 300*time.Second, cfg.Hass.CacheTTL)
	assert.Equal(t, 10*time.Second, cfg.Hass.RefreshTimeout)
	assert.Equal(t, "", cfg.Hass.ToolPrefix)
	assert.Equal(t, ProviderOpenAI, cfg.Model.Provider)
	assert.Equal(t, DefaultInstructions, cfg.Model.Instructions)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
hass:
  tool_prefix: auto
  cache_ttl: 90s
logging:
  level: debug
  format: text
  output: stderr
model:
  provider: anthropic
  name: claude-3-5-sonnet-20241022
  max_model_calls: 4
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, PrefixAuto, cfg.Hass.ToolPrefix)
	assert.Equal(t, 90*time.Second, cfg.Hass.CacheTTL)
	assert.Equal(t, 10*time.Second, cfg.Hass.RefreshTimeout, "unset keys keep defaults")
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, ProviderAnthropic, cfg.Model.Provider)
	assert.Equal(t, 4, cfg.Model.MaxModelCalls)
	assert.Equal(t, 0.2, cfg.Model.Temperature)

	lc := cfg.Logging.LoggerConfig()
	assert.Equal(t, logging.LogLevelDebug, lc.Level)
	assert.Equal(t, "text", lc.Format)
	assert.Equal(t, os.Stderr, lc.Output)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "hass:\n  tool_prefix: \"\"\n")

	t.Setenv("HASSMESH_TOOL_PREFIX", "assist__")
	t.Setenv("HASSMESH_CACHE_TTL", "45s")
	t.Setenv("HASSMESH_LOG_LEVEL", "warn")
	t.Setenv("HASSMESH_MODEL_PROVIDER", "anthropic")
	t.Setenv("HASSMESH_MODEL_NAME", "claude-sonnet")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "assist__", cfg.Hass.ToolPrefix)
	assert.Equal(t, 45*time.Second, cfg.Hass.CacheTTL)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, ProviderAnthropic, cfg.Model.Provider)
	assert.Equal(t, "claude-sonnet", cfg.Model.Name)
}

func TestFromEnv_InvalidDurationRejected(t *testing.T) {
	t.Setenv("HASSMESH_CACHE_TTL", "5min")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `HASSMESH_CACHE_TTL: invalid duration "5min"`)

	_, err = Load(writeConfig(t, "hass:\n  cache_ttl: 60s\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HASSMESH_CACHE_TTL")
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")

	_, err = Load(writeConfig(t, "hass: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config file")

	_, err = Load(writeConfig(t, "hass:\n  tool_prefix: mcp__\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hass.tool_prefix")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{name: "zero ttl", mutate: func(c *Config) { c.Hass.CacheTTL = 0 }, want: "hass.cache_ttl"},
		{name: "negative timeout", mutate: func(c *Config) { c.Hass.RefreshTimeout = -time.Second }, want: "hass.refresh_timeout"},
		{name: "bad level", mutate: func(c *Config) { c.Logging.Level = "verbose" }, want: "logging.level"},
		{name: "bad format", mutate: func(c *Config) { c.Logging.Format = "xml" }, want: "logging.format"},
		{name: "bad output", mutate: func(c *Config) { c.Logging.Output = "file" }, want: "logging.output"},
		{name: "bad provider", mutate: func(c *Config) { c.Model.Provider = "local" }, want: "model.provider"},
		{name: "negative calls", mutate: func(c *Config) { c.Model.MaxModelCalls = -1 }, want: "model.max_model_calls"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Hass.CacheTTL = 0
	cfg.Model.Provider = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hass.cache_ttl")
	assert.Contains(t, err.Error(), "model.provider")
}
