// Package config loads application configuration from config.yaml and the
// environment, and initializes the global logger.
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
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Jobs      JobsConfig      `yaml:"jobs" mapstructure:"jobs"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key string `yaml:"key" mapstructure:"key"`
	// TriageModel serves triage and translation; ExtractionModel serves the
	// three extraction phases.
	TriageModel       string  `yaml:"triage_model" mapstructure:"triage_model"`
	ExtractionModel   string  `yaml:"extraction_model" mapstructure:"extraction_model"`
	MaxTokens         int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// StoreConfig configures the Supabase persistence backend.
type StoreConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`
}

// PipelineConfig tunes the extraction pipeline.
type PipelineConfig struct {
	Version             string  `yaml:"version" mapstructure:"version"`
	AsyncThresholdChars int     `yaml:"async_threshold_chars" mapstructure:"async_threshold_chars"`
	MaxRetries          int     `yaml:"max_retries" mapstructure:"max_retries"`
	BackoffInitialMs    int     `yaml:"backoff_initial_ms" mapstructure:"backoff_initial_ms"`
	BackoffMaxSecs      int     `yaml:"backoff_max_secs" mapstructure:"backoff_max_secs"`
	DedupEnabled        bool    `yaml:"dedup_enabled" mapstructure:"dedup_enabled"`
	DedupThreshold      float64 `yaml:"dedup_threshold" mapstructure:"dedup_threshold"`
	DedupLimit          int     `yaml:"dedup_limit" mapstructure:"dedup_limit"`
}

// JobsConfig configures the async job tracker.
type JobsConfig struct {
	// Backend is "memory" or "sqlite".
	Backend           string `yaml:"backend" mapstructure:"backend"`
	SQLitePath        string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	RetentionMins     int    `yaml:"retention_mins" mapstructure:"retention_mins"`
	SweepIntervalMins int    `yaml:"sweep_interval_mins" mapstructure:"sweep_interval_mins"`
}

// Retention returns the job retention window as a duration.
func (c JobsConfig) Retention() time.Duration {
	return time.Duration(c.RetentionMins) * time.Minute
}

// SweepInterval returns the sweeper tick as a duration.
func (c JobsConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalMins) * time.Minute
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port             int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins   []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	ShutdownTimeSecs int      `yaml:"shutdown_time_secs" mapstructure:"shutdown_time_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PIPELINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.shutdown_time_secs", 15)
	v.SetDefault("anthropic.triage_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.extraction_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 8192)
	v.SetDefault("anthropic.requests_per_second", 5)
	v.SetDefault("anthropic.timeout_secs", 120)
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("store.max_retries", 3)
	v.SetDefault("pipeline.version", "1.0")
	v.SetDefault("pipeline.async_threshold_chars", 10000)
	v.SetDefault("pipeline.max_retries", 3)
	v.SetDefault("pipeline.backoff_initial_ms", 500)
	v.SetDefault("pipeline.backoff_max_secs", 30)
	v.SetDefault("pipeline.dedup_threshold", 0.85)
	v.SetDefault("pipeline.dedup_limit", 3)
	v.SetDefault("jobs.backend", "memory")
	v.SetDefault("jobs.sqlite_path", "jobs.db")
	v.SetDefault("jobs.retention_mins", 60)
	v.SetDefault("jobs.sweep_interval_mins", 5)

	// Read config file (optional)
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

// Validate checks the fields the given mode depends on. Modes: "serve" runs
// the HTTP server, "process" runs one submission from the CLI.
func (c *Config) Validate(mode string) error {
	var problems []string

	requireLLM := func() {
		if c.Anthropic.Key == "" {
			problems = append(problems, "anthropic.key is required")
		}
	}

	switch mode {
	case "serve":
		requireLLM()
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
		if c.Jobs.Backend != "memory" && c.Jobs.Backend != "sqlite" {
			problems = append(problems, "jobs.backend must be memory or sqlite")
		}
	case "process":
		requireLLM()
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Pipeline.AsyncThresholdChars <= 0 {
		problems = append(problems, "pipeline.async_threshold_chars must be > 0")
	}
	if c.Pipeline.MaxRetries < 1 || c.Pipeline.MaxRetries > 10 {
		problems = append(problems, "pipeline.max_retries must be between 1 and 10")
	}
	if c.Pipeline.DedupThreshold < 0 || c.Pipeline.DedupThreshold > 1 {
		problems = append(problems, "pipeline.dedup_threshold must be within [0, 1]")
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
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
