// File: internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "trailcap", cfg.Logger.ServiceName)
	assert.Equal(t, 1900, cfg.Browser.ViewportWidth)
	assert.Equal(t, 1000, cfg.Browser.ViewportHeight)
	assert.Equal(t, 30*time.Second, cfg.Browser.NavigationTimeout)
	assert.Equal(t, 2, cfg.Capture.MaxConsecutiveErrors)
	assert.Equal(t, 3*time.Second, cfg.Capture.StateChangeTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Capture.StatePollInterval)
	assert.Equal(t, "output", cfg.Capture.OutputDir)
	assert.Equal(t, "gemini-2.5-flash", cfg.Planner.Model)

	require.NoError(t, cfg.Validate())
}

func TestNewConfigFromViperOverrides(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("capture.max_consecutive_errors", 5)
	v.Set("browser.headless", true)
	v.Set("capture.state_change_timeout", "10s")

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Capture.MaxConsecutiveErrors)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 10*time.Second, cfg.Capture.StateChangeTimeout)
}

func TestNewConfigFromViperReadsAPIKeyFromEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key-123")

	v := viper.New()
	SetDefaults(v)

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "test-key-123", cfg.Planner.APIKey)
}

func TestNewConfigFromViperExpandsOutputDir(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("capture.output_dir", "~/trailcap-output")

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)
	assert.NotContains(t, cfg.Capture.OutputDir, "~")
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero breaker threshold", func(c *Config) { c.Capture.MaxConsecutiveErrors = 0 }},
		{"zero poll interval", func(c *Config) { c.Capture.StatePollInterval = 0 }},
		{"zero change timeout", func(c *Config) { c.Capture.StateChangeTimeout = 0 }},
		{"empty output dir", func(c *Config) { c.Capture.OutputDir = "" }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
