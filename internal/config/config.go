// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Defaults for the monitoring loop.
const (
	DefaultMonitorIntervalSeconds = 900 // 15 minutes
	DefaultFetchTimeoutSeconds    = 10
	DefaultConcurrency            = 4
	DefaultMajorDropPercent       = -20.0
)

// Config represents the agent configuration. Values can be loaded from a JSON
// file, from environment variables, or overridden by CLI flags; missing values
// use defaults.
type Config struct {
	// Storage
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL; empty runs in-memory

	// Monitoring
	MonitorIntervalSeconds int     `json:"monitor_interval_seconds,omitempty"` // how often each watchlist is re-evaluated
	FetchTimeoutSeconds    int     `json:"fetch_timeout_seconds,omitempty"`    // per-item snapshot fetch bound
	Concurrency            int     `json:"concurrency,omitempty"`              // items evaluated concurrently per watchlist
	MajorDropPercent       float64 `json:"major_drop_percent,omitempty"`       // negative; major_drop threshold

	// Delivery
	TelegramBotToken string `json:"telegram_bot_token,omitempty"`
	TelegramChatID   int64  `json:"telegram_chat_id,omitempty"`

	// Behavior
	UseBrowser bool `json:"use_browser,omitempty"` // headless browser fallback for JS listings
	Verbose    bool `json:"verbose,omitempty"`
}

// Default returns a Config populated with defaults.
func Default() Config {
	return Config{
		MonitorIntervalSeconds: DefaultMonitorIntervalSeconds,
		FetchTimeoutSeconds:    DefaultFetchTimeoutSeconds,
		Concurrency:            DefaultConcurrency,
		MajorDropPercent:       DefaultMajorDropPercent,
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv fills unset fields from environment variables.
func (c *Config) FromEnv() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if c.TelegramBotToken == "" {
		c.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	}
	if c.TelegramChatID == 0 {
		if raw := os.Getenv("TELEGRAM_CHAT_ID"); raw != "" {
			if chatID, err := strconv.ParseInt(raw, 10, 64); err == nil {
				c.TelegramChatID = chatID
			}
		}
	}
	if raw := os.Getenv("MONITOR_INTERVAL_SECONDS"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			c.MonitorIntervalSeconds = parsed
		}
	}
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.MonitorIntervalSeconds <= 0 {
		return fmt.Errorf("config error: 'monitor_interval_seconds' must be positive")
	}
	if c.FetchTimeoutSeconds <= 0 {
		return fmt.Errorf("config error: 'fetch_timeout_seconds' must be positive")
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("config error: 'concurrency' must be positive")
	}
	if c.MajorDropPercent >= 0 {
		return fmt.Errorf("config error: 'major_drop_percent' must be negative")
	}
	return nil
}

// MonitorInterval returns the monitoring interval as a duration.
func (c *Config) MonitorInterval() time.Duration {
	return time.Duration(c.MonitorIntervalSeconds) * time.Second
}

// FetchTimeout returns the fetch bound as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}
