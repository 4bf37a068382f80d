package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 15*time.Minute, cfg.MonitorInterval())
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout())
	assert.Equal(t, -20.0, cfg.MajorDropPercent)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"database_url": "postgres://localhost/watchlists",
		"monitor_interval_seconds": 60,
		"major_drop_percent": -10,
		"verbose": true
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/watchlists", cfg.DatabaseURL)
	assert.Equal(t, 60, cfg.MonitorIntervalSeconds)
	assert.Equal(t, -10.0, cfg.MajorDropPercent)
	assert.True(t, cfg.Verbose)
	// Untouched fields keep defaults.
	assert.Equal(t, DefaultConcurrency, cfg.Concurrency)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig("")
	assert.Error(t, err)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero interval", func(c *Config) { c.MonitorIntervalSeconds = 0 }},
		{"zero fetch timeout", func(c *Config) { c.FetchTimeoutSeconds = 0 }},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }},
		{"positive drop threshold", func(c *Config) { c.MajorDropPercent = 20 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env/db")
	t.Setenv("TELEGRAM_CHAT_ID", "12345")
	t.Setenv("MONITOR_INTERVAL_SECONDS", "30")

	cfg := Default()
	cfg.FromEnv()

	assert.Equal(t, "postgres://env/db", cfg.DatabaseURL)
	assert.Equal(t, int64(12345), cfg.TelegramChatID)
	assert.Equal(t, 30, cfg.MonitorIntervalSeconds)
}

func TestFromEnv_DoesNotOverrideExplicit(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env/db")

	cfg := Default()
	cfg.DatabaseURL = "postgres://explicit/db"
	cfg.FromEnv()

	assert.Equal(t, "postgres://explicit/db", cfg.DatabaseURL)
}
