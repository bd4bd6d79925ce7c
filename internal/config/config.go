// Package config loads and validates linkaudit configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures every knob of a batch run, loaded from defaults, an
// optional config file, and LINKAUDIT_* environment variables. It is built
// once at startup and passed down explicitly; no subsystem reads ambient
// process state.
type Config struct {
	Checker  CheckerConfig  `mapstructure:"checker"`
	Renderer RendererConfig `mapstructure:"renderer"`
	Oracle   OracleConfig   `mapstructure:"oracle"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// CheckerConfig governs the per-URL pipeline and the scheduler.
type CheckerConfig struct {
	Concurrency      int `mapstructure:"concurrency"`
	MaxRetries       int `mapstructure:"max_retries"`
	BackoffBaseMs    int `mapstructure:"backoff_base_ms"`
	NavTimeoutSec    int `mapstructure:"nav_timeout_seconds"`
	QuiescenceMs     int `mapstructure:"quiescence_ms"`
	OracleSummaryCap int `mapstructure:"oracle_summary_chars"`
}

// RendererConfig configures the headless browser session.
type RendererConfig struct {
	UserAgent   string  `mapstructure:"user_agent"`
	MaxParallel int     `mapstructure:"max_parallel"`
	PerHostQPS  float64 `mapstructure:"per_host_qps"`
}

// OracleConfig configures the optional disambiguation oracle. Disabled (the
// default) means parked verdicts stand without confirmation.
type OracleConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	BaseURL    string `mapstructure:"base_url"`
	TimeoutSec int    `mapstructure:"timeout_seconds"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from defaults, an optional file, and environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LINKAUDIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("checker.concurrency", 4)
	v.SetDefault("checker.max_retries", 3)
	v.SetDefault("checker.backoff_base_ms", 1000)
	v.SetDefault("checker.nav_timeout_seconds", 30)
	v.SetDefault("checker.quiescence_ms", 3000)
	v.SetDefault("checker.oracle_summary_chars", 1500)
	v.SetDefault("renderer.user_agent", "linkaudit/1.0 (+domain inventory health check)")
	v.SetDefault("renderer.max_parallel", 0)
	v.SetDefault("renderer.per_host_qps", 0)
	v.SetDefault("oracle.enabled", false)
	v.SetDefault("oracle.model", "gpt-4o-mini")
	v.SetDefault("oracle.base_url", "https://api.openai.com/v1")
	v.SetDefault("oracle.timeout_seconds", 15)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Checker.Concurrency <= 0 {
		return fmt.Errorf("checker.concurrency must be > 0")
	}
	if c.Checker.MaxRetries < 0 {
		return fmt.Errorf("checker.max_retries must be >= 0")
	}
	if c.Checker.BackoffBaseMs <= 0 {
		return fmt.Errorf("checker.backoff_base_ms must be > 0")
	}
	if c.Checker.NavTimeoutSec <= 0 {
		return fmt.Errorf("checker.nav_timeout_seconds must be > 0")
	}
	if c.Oracle.Enabled && c.Oracle.APIKey == "" {
		return fmt.Errorf("oracle.api_key must be set when the oracle is enabled")
	}
	return nil
}

// NavTimeout returns the per-attempt navigation bound as a duration.
func (c CheckerConfig) NavTimeout() time.Duration {
	return time.Duration(c.NavTimeoutSec) * time.Second
}

// Quiescence returns the post-load settle bound as a duration.
func (c CheckerConfig) Quiescence() time.Duration {
	return time.Duration(c.QuiescenceMs) * time.Millisecond
}

// BackoffBase returns the first retry delay as a duration.
func (c CheckerConfig) BackoffBase() time.Duration {
	return time.Duration(c.BackoffBaseMs) * time.Millisecond
}

// Timeout returns the oracle call bound as a duration.
func (c OracleConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}
