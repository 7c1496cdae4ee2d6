package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/hassmesh/backend"
	"github.com/hupe1980/hassmesh/logging"
)

// PrefixAuto asks the façade to detect the tool prefix from the backend's
// tool list.
const PrefixAuto = "auto"

// Model providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config is the root configuration.
type Config struct {
	Hass    HassConfig    `yaml:"hass"`
	Logging LoggingConfig `yaml:"logging"`
	Model   ModelConfig   `yaml:"model"`

	// envErrs holds environment overrides that could not be applied.
	envErrs []string
}

// HassConfig configures the Home Assistant orchestrator.
type HassConfig struct {
	// ToolPrefix is "", "assist__" or "auto".
	ToolPrefix     string        `yaml:"tool_prefix"`
	CacheTTL       time.Duration `yaml:"cache_ttl"`
	RefreshTimeout time.Duration `yaml:"refresh_timeout"`
}

// LoggingConfig configures the slog backed logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// LoggerConfig converts the YAML settings into a logging.LoggerConfig.
func (c LoggingConfig) LoggerConfig() logging.LoggerConfig {
	cfg := logging.LoggerConfig{
		Level:  logging.ParseLevel(c.Level),
		Format: c.Format,
		Output: os.Stdout,
	}

	if c.Output == "stderr" {
		cfg.Output = os.Stderr
	}

	return cfg
}

// ModelConfig selects and tunes the language model.
type ModelConfig struct {
	Provider      string  `yaml:"provider"`
	Name          string  `yaml:"name"`
	Temperature   float64 `yaml:"temperature"`
	MaxTokens     int64   `yaml:"max_tokens"`
	MaxModelCalls int     `yaml:"max_model_calls"`
	Instructions  string  `yaml:"instructions"`
}

// DefaultInstructions is the system prompt used when none is configured.
// It is rendered as a text/template with the cached device names.
const DefaultInstructions = `You control a Home Assistant smart home.
Use hass_control to act on devices and hass_get_state to read their state.
{{- if .devices }}
Known devices: {{ join ", " .devices }}.
{{- end }}
Answer briefly.`

// Load reads the YAML file at path on top of Default(), applies
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// FromEnv returns Default() with environment overrides applied.
func FromEnv() (*Config, error) {
	cfg := Default()
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Hass: HassConfig{
			ToolPrefix:     "",
			CacheTTL:       300 * time.Second,
			RefreshTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Model: ModelConfig{
			Provider:      ProviderOpenAI,
			Name:          "gpt-4o-mini",
			Temperature:   0.2,
			MaxTokens:     1024,
			MaxModelCalls: 8,
			Instructions:  DefaultInstructions,
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v, ok := os.LookupEnv("HASSMESH_TOOL_PREFIX"); ok {
		cfg.Hass.ToolPrefix = v
	}
	if v := os.Getenv("HASSMESH_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			cfg.envErrs = append(cfg.envErrs, fmt.Sprintf("HASSMESH_CACHE_TTL: invalid duration %q", v))
		} else {
			cfg.Hass.CacheTTL = d
		}
	}

	if v := os.Getenv("HASSMESH_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("HASSMESH_MODEL_PROVIDER"); v != "" {
		cfg.Model.Provider = v
	}
	if v := os.Getenv("HASSMESH_MODEL_NAME"); v != "" {
		cfg.Model.Name = v
	}
}

// Validate reports every invalid setting in one error.
func (c *Config) Validate() error {
	errs := append([]string(nil), c.envErrs...)

	switch c.Hass.ToolPrefix {
	case "", backend.AssistPrefix, PrefixAuto:
	default:
		errs = append(errs, fmt.Sprintf("hass.tool_prefix must be \"\", %q or %q", backend.AssistPrefix, PrefixAuto))
	}

	if c.Hass.CacheTTL <= 0 {
		errs = append(errs, "hass.cache_ttl must be positive")
	}
	if c.Hass.RefreshTimeout <= 0 {
		errs = append(errs, "hass.refresh_timeout must be positive")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, "logging.level must be debug, info, warn or error")
	}

	switch c.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, "logging.format must be json or text")
	}

	switch c.Logging.Output {
	case "stdout", "stderr":
	default:
		errs = append(errs, "logging.output must be stdout or stderr")
	}

	switch c.Model.Provider {
	case ProviderOpenAI, ProviderAnthropic:
	default:
		errs = append(errs, "model.provider must be openai or anthropic")
	}

	if c.Model.MaxModelCalls < 0 {
		errs = append(errs, "model.max_model_calls must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}
