// Package config loads the application configuration: YAML file, FERIADO_*
// environment overrides, and defaults that reproduce the documented
// behavioral constants.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/feriadolabs/feriado/filter"
)

// Config is the complete application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Data       DataConfig       `mapstructure:"data"`
	Thresholds ThresholdsConfig `mapstructure:"thresholds"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Redis      RedisConfig      `mapstructure:"redis"`
	History    HistoryConfig    `mapstructure:"history"`
	Workflow   WorkflowConfig   `mapstructure:"workflow"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Addr          string        `mapstructure:"addr"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	ShutdownGrace time.Duration `mapstructure:"shutdown_grace"`
}

// DataConfig locates the three CSV inputs.
type DataConfig struct {
	Dir           string `mapstructure:"dir"`
	HolidaysCSV   string `mapstructure:"holidays_csv"`
	PassengersCSV string `mapstructure:"passengers_csv"`
	CountriesCSV  string `mapstructure:"countries_csv"`
}

// ThresholdsConfig names every behavioral constant of the derived facets.
type ThresholdsConfig struct {
	// PeriodWindowMonths is the before/after window around holiday months.
	PeriodWindowMonths int `mapstructure:"period_window_months"`

	// BaselineMonths is how many prior non-holiday months form the impact
	// baseline.
	BaselineMonths int `mapstructure:"baseline_months"`

	// ImpactHighPct and ImpactMediumPct split positive impact into
	// high / medium / low.
	ImpactHighPct   float64 `mapstructure:"impact_high_pct"`
	ImpactMediumPct float64 `mapstructure:"impact_medium_pct"`
}

// LLMConfig selects and parameterizes the hosted model provider. API keys
// come from the environment (GEMINI_API_KEY, OPENAI_API_KEY, AWS
// credentials), not from this file.
type LLMConfig struct {
	// Provider is one of gemini, openai, bedrock, offline.
	Provider string `mapstructure:"provider"`

	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`

	// BedrockRegion and BedrockProfile apply to the bedrock provider only.
	BedrockRegion  string `mapstructure:"bedrock_region"`
	BedrockProfile string `mapstructure:"bedrock_profile"`
}

// RedisConfig enables the Redis transcript store.
type RedisConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	URL       string        `mapstructure:"url"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	TTL       time.Duration `mapstructure:"ttl"`
}

// HistoryConfig bounds chat transcripts.
type HistoryConfig struct {
	MaxTurns int `mapstructure:"max_turns"`
}

// WorkflowConfig bounds stage execution. RetryAttempts counts retries after
// the first failed call, not total attempts.
type WorkflowConfig struct {
	StageTimeout  time.Duration `mapstructure:"stage_timeout"`
	RetryAttempts int           `mapstructure:"retry_attempts"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	OTLPEndpoint  string `mapstructure:"otlp_endpoint"`
	ConsoleExport bool   `mapstructure:"console_export"`
}

// Load reads configuration from an optional YAML file and FERIADO_*
// environment variables. An empty path uses defaults and environment only.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("FERIADO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// setDefaults configures default values for all configuration options.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.shutdown_grace", "10s")

	v.SetDefault("data.dir", "datos")
	v.SetDefault("data.holidays_csv", "global_holidays.csv")
	v.SetDefault("data.passengers_csv", "monthly_passengers.csv")
	v.SetDefault("data.countries_csv", "countries.csv")

	v.SetDefault("thresholds.period_window_months", 1)
	v.SetDefault("thresholds.baseline_months", 3)
	v.SetDefault("thresholds.impact_high_pct", 15.0)
	v.SetDefault("thresholds.impact_medium_pct", 5.0)

	v.SetDefault("llm.provider", "offline")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.temperature", 0.4)
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.bedrock_region", "us-east-1")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.url", "redis://localhost:6379")
	v.SetDefault("redis.key_prefix", "feriado:chat")
	v.SetDefault("redis.ttl", "24h")

	v.SetDefault("history.max_turns", 100)

	v.SetDefault("workflow.stage_timeout", "30s")
	v.SetDefault("workflow.retry_attempts", 2)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.otlp_endpoint", "localhost:4317")
	v.SetDefault("tracing.console_export", false)
}

// Validate checks that all configuration values are valid.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}

	if c.Thresholds.PeriodWindowMonths < 0 {
		return fmt.Errorf("thresholds.period_window_months must not be negative")
	}
	if c.Thresholds.BaselineMonths < 1 {
		return fmt.Errorf("thresholds.baseline_months must be at least 1")
	}
	if c.Thresholds.ImpactMediumPct <= 0 {
		return fmt.Errorf("thresholds.impact_medium_pct must be positive")
	}
	if c.Thresholds.ImpactHighPct <= c.Thresholds.ImpactMediumPct {
		return fmt.Errorf("thresholds.impact_high_pct must exceed impact_medium_pct")
	}

	validProviders := map[string]bool{"gemini": true, "openai": true, "bedrock": true, "offline": true}
	if !validProviders[c.LLM.Provider] {
		return fmt.Errorf("llm.provider must be one of: gemini, openai, bedrock, offline")
	}
	if c.LLM.MaxTokens < 1 {
		return fmt.Errorf("llm.max_tokens must be at least 1")
	}

	if c.Redis.Enabled && c.Redis.URL == "" {
		return fmt.Errorf("redis.url is required when redis is enabled")
	}

	if c.History.MaxTurns < 1 {
		return fmt.Errorf("history.max_turns must be at least 1")
	}

	if c.Workflow.StageTimeout <= 0 {
		return fmt.Errorf("workflow.stage_timeout must be positive")
	}
	if c.Workflow.RetryAttempts < 0 {
		return fmt.Errorf("workflow.retry_attempts must not be negative")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	if c.Tracing.Enabled && c.Tracing.OTLPEndpoint == "" && !c.Tracing.ConsoleExport {
		return fmt.Errorf("tracing.otlp_endpoint or console_export is required when tracing is enabled")
	}

	return nil
}

// FilterConfig maps the threshold table onto the filter engine's config.
func (c *Config) FilterConfig() filter.Config {
	return filter.Config{
		PeriodWindowMonths: c.Thresholds.PeriodWindowMonths,
		BaselineMonths:     c.Thresholds.BaselineMonths,
		ImpactHighPct:      c.Thresholds.ImpactHighPct,
		ImpactMediumPct:    c.Thresholds.ImpactMediumPct,
	}
}
