// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Capture CaptureConfig `mapstructure:"capture" yaml:"capture"`
	Planner PlannerConfig `mapstructure:"planner" yaml:"planner"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// BrowserConfig holds settings for the Chrome instance trailcap drives.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	IgnoreTLSErrors   bool          `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	ViewportWidth     int           `mapstructure:"viewport_width" yaml:"viewport_width"`
	ViewportHeight    int           `mapstructure:"viewport_height" yaml:"viewport_height"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	StabilityTimeout  time.Duration `mapstructure:"stability_timeout" yaml:"stability_timeout"`
	Args              []string      `mapstructure:"args" yaml:"args"`
}

// CaptureConfig tunes the workflow capturer.
type CaptureConfig struct {
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`

	// MaxConsecutiveErrors is the circuit-breaker threshold: the run halts
	// once this many step errors occur in a row.
	MaxConsecutiveErrors int `mapstructure:"max_consecutive_errors" yaml:"max_consecutive_errors"`

	// StateChangeTimeout bounds the post-action wait for a UI settle.
	StateChangeTimeout time.Duration `mapstructure:"state_change_timeout" yaml:"state_change_timeout"`
	StatePollInterval  time.Duration `mapstructure:"state_poll_interval" yaml:"state_poll_interval"`

	// MenuRetryDelay is the render-settle pause before retrying resolution
	// in forced menu context.
	MenuRetryDelay time.Duration `mapstructure:"menu_retry_delay" yaml:"menu_retry_delay"`

	// PostClickWait precedes the re-read that detects a newly opened menu.
	PostClickWait time.Duration `mapstructure:"post_click_wait" yaml:"post_click_wait"`

	// InitialSettleWait is the pause after the opening navigation, before
	// the page context is read for planning.
	InitialSettleWait time.Duration `mapstructure:"initial_settle_wait" yaml:"initial_settle_wait"`
}

// PlannerConfig holds the LLM planner settings. APIKey is only read from the
// environment, never from the config file.
type PlannerConfig struct {
	Model       string        `mapstructure:"model" yaml:"model"`
	APIKey      string        `mapstructure:"api_key" yaml:"-"`
	Temperature float64       `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	APITimeout  time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "trailcap")
	v.SetDefault("logger.log_file", "trailcap.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.ignore_tls_errors", true)
	v.SetDefault("browser.viewport_width", 1900)
	v.SetDefault("browser.viewport_height", 1000)
	v.SetDefault("browser.navigation_timeout", "30s")
	v.SetDefault("browser.stability_timeout", "5s")

	// -- Capture --
	v.SetDefault("capture.output_dir", "output")
	v.SetDefault("capture.max_consecutive_errors", 2)
	v.SetDefault("capture.state_change_timeout", "3s")
	v.SetDefault("capture.state_poll_interval", "500ms")
	v.SetDefault("capture.menu_retry_delay", "500ms")
	v.SetDefault("capture.post_click_wait", "500ms")
	v.SetDefault("capture.initial_settle_wait", "2s")

	// -- Planner --
	v.SetDefault("planner.model", "gemini-2.5-flash")
	v.SetDefault("planner.temperature", 0.2)
	v.SetDefault("planner.max_tokens", 2000)
	v.SetDefault("planner.api_timeout", "60s")
}

// NewDefaultConfig creates a configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Cannot happen with defaults alone.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper creates a configuration instance from a viper object,
// binding sensitive values from the environment and validating the result.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.BindEnv("planner.api_key", "GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind planner.api_key: %w", err)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if cfg.Planner.APIKey == "" {
		cfg.Planner.APIKey = os.Getenv("GEMINI_API_KEY")
	}

	// Expand a leading ~ so the output dir works when set from a config file.
	expanded, err := homedir.Expand(cfg.Capture.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("invalid capture.output_dir: %w", err)
	}
	cfg.Capture.OutputDir = expanded

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Capture.MaxConsecutiveErrors <= 0 {
		return fmt.Errorf("capture.max_consecutive_errors must be a positive integer")
	}
	if c.Capture.StatePollInterval <= 0 {
		return fmt.Errorf("capture.state_poll_interval must be a positive duration")
	}
	if c.Capture.StateChangeTimeout <= 0 {
		return fmt.Errorf("capture.state_change_timeout must be a positive duration")
	}
	if c.Browser.ViewportWidth <= 0 || c.Browser.ViewportHeight <= 0 {
		return fmt.Errorf("browser viewport dimensions must be positive")
	}
	if c.Capture.OutputDir == "" {
		return fmt.Errorf("capture.output_dir is required")
	}
	return nil
}
