// SPDX-License-Identifier: MIT

// Package config loads and validates the portal daemon's configuration from
// the environment.
package config

import (
	"fmt"
	"net/url"
	"time"
)

// AppConfig is the daemon's full configuration.
type AppConfig struct {
	// StoreBase is the base URL of the remote session store.
	StoreBase string
	// StoreToken is the opaque bearer credential, empty for anonymous access.
	StoreToken string
	// PollInterval is the fixed period between silent polls.
	PollInterval time.Duration
	// ListenAddr is the dashboard API listen address.
	ListenAddr string
	// MetricsAddr is the Prometheus listen address, empty to disable.
	MetricsAddr string
	// PageSize is the default dashboard page size.
	PageSize int
	// RateLimit is the per-client API request budget per minute.
	RateLimit int
	// LogLevel overrides the zerolog level when set.
	LogLevel string
}

// FromEnv builds an AppConfig from PORTAL_* environment variables.
func FromEnv() AppConfig {
	return AppConfig{
		StoreBase:    ParseString("PORTAL_STORE_URL", ""),
		StoreToken:   ParseString("PORTAL_STORE_TOKEN", ""),
		PollInterval: ParseDuration("PORTAL_POLL_INTERVAL", 5*time.Second),
		ListenAddr:   ParseString("PORTAL_LISTEN", ":8080"),
		MetricsAddr:  ParseString("PORTAL_METRICS_LISTEN", ""),
		PageSize:     ParseInt("PORTAL_PAGE_SIZE", 10),
		RateLimit:    ParseInt("PORTAL_RATE_LIMIT", 120),
		LogLevel:     ParseString("LOG_LEVEL", ""),
	}
}

// Validate checks the configuration before the daemon starts.
func (c AppConfig) Validate() error {
	if c.StoreBase == "" {
		return fmt.Errorf("store base URL is empty")
	}
	u, err := url.Parse(c.StoreBase)
	if err != nil {
		return fmt.Errorf("invalid store base URL %q: %w", c.StoreBase, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported store base URL scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("store base URL %q is missing host", c.StoreBase)
	}
	if c.PollInterval < time.Second {
		return fmt.Errorf("poll interval %s is below the 1s minimum", c.PollInterval)
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("listen address is empty")
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page size must be positive, got %d", c.PageSize)
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("rate limit must be positive, got %d", c.RateLimit)
	}
	return nil
}
