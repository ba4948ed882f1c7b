// Package config loads application configuration from file and environment.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Google    GoogleConfig    `yaml:"google" mapstructure:"google"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Export    ExportConfig    `yaml:"export" mapstructure:"export"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// GoogleConfig holds Custom Search API settings.
type GoogleConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	CX      string `yaml:"cx" mapstructure:"cx"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Num     int    `yaml:"num" mapstructure:"num"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ServerConfig configures the HTTP/WebSocket server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// PipelineConfig configures batch processing behavior.
type PipelineConfig struct {
	// DelayMS is the pause between companies, to stay inside external
	// API rate limits.
	DelayMS int `yaml:"delay_ms" mapstructure:"delay_ms"`

	// SearchFallback enables the degraded search fallback: a shortened
	// retry query and, failing that, a placeholder result. Records built
	// from a placeholder are marked low-confidence.
	SearchFallback bool `yaml:"search_fallback" mapstructure:"search_fallback"`

	// MaxBatch caps the number of companies accepted per request.
	MaxBatch int `yaml:"max_batch" mapstructure:"max_batch"`
}

// Delay returns the inter-company pause as a duration.
func (p PipelineConfig) Delay() time.Duration {
	return time.Duration(p.DelayMS) * time.Millisecond
}

// StoreConfig configures run-history persistence.
type StoreConfig struct {
	// Driver is "sqlite", "postgres", or "off".
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Path        string `yaml:"path" mapstructure:"path"`
}

// ExportConfig configures CSV export behavior.
type ExportConfig struct {
	// BOM prefixes UTF-8 CSV output with a byte order mark so Excel
	// detects the encoding.
	BOM bool `yaml:"bom" mapstructure:"bom"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from config.yaml and the environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("LOOKUP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The original deployment configured itself through these variables;
	// keep them working alongside the LOOKUP_* forms.
	_ = v.BindEnv("google.key", "LOOKUP_GOOGLE_KEY", "GOOGLE_API_KEY")
	_ = v.BindEnv("google.cx", "LOOKUP_GOOGLE_CX", "GOOGLE_SEARCH_ENGINE_ID")
	_ = v.BindEnv("anthropic.key", "LOOKUP_ANTHROPIC_KEY", "CLAUDE_API_KEY")
	_ = v.BindEnv("server.port", "LOOKUP_SERVER_PORT", "PORT")

	v.SetDefault("google.base_url", "https://www.googleapis.com/customsearch/v1")
	v.SetDefault("google.num", 10)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("server.port", 3001)
	v.SetDefault("pipeline.delay_ms", 500)
	v.SetDefault("pipeline.search_fallback", false)
	v.SetDefault("pipeline.max_batch", 500)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "company_lookup.db")
	v.SetDefault("export.bom", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Config file is optional.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// CredentialsError reports which external API credentials are missing, or
// nil when all are set. Lookups must fail fast on a non-nil result instead
// of attempting remote calls.
func (c *Config) CredentialsError() error {
	var missing []string
	if c.Google.Key == "" {
		missing = append(missing, "google.key")
	}
	if c.Google.CX == "" {
		missing = append(missing, "google.cx")
	}
	if c.Anthropic.Key == "" {
		missing = append(missing, "anthropic.key")
	}
	if len(missing) == 0 {
		return nil
	}
	return eris.Errorf("API credentials are not configured: %s", strings.Join(missing, ", "))
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
