// Package config loads runtime settings for the ragchat CLI.
package config

import "time"

// Config holds runtime settings for the ragchat CLI.
//
// Fields:
//   - ServerBaseURL: base URL of the backend HTTP API.
//   - DatabaseDSN: sqlite DSN of the shared client database.
//   - RequestTimeout: per-request timeout of the HTTP transport.
//   - RefreshMargin: safety window before access-token expiry.
//   - RescheduleFloor: minimum delay before a scheduled liveness probe.
//   - WatchInterval: poll interval for cross-process session changes.
type Config struct {
	ServerBaseURL   string
	DatabaseDSN     string
	RequestTimeout  time.Duration
	RefreshMargin   time.Duration
	RescheduleFloor time.Duration
	WatchInterval   time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "http://127.0.0.1:8000"
	c.DatabaseDSN = "file:ragchat.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	c.RequestTimeout = 15 * time.Second
	c.RefreshMargin = 30 * time.Second
	c.RescheduleFloor = 5 * time.Second
	c.WatchInterval = 2 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present) and command-line flags (if present). Later
// sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
