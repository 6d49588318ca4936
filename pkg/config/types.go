package config

import (
	"fmt"
	"strconv"
	"time"
)

// Config represents the persistent chatdeck configuration stored as
// config.toml in the .chatdeck/ directory. The TOML layout uses sections for
// logical grouping.
type Config struct {
	Version   int             `toml:"version"`
	Backend   BackendConfig   `toml:"backend"`
	Client    ClientConfig    `toml:"client"`
	Dashboard DashboardConfig `toml:"dashboard"`
}

// BackendConfig locates the remote chat backend.
type BackendConfig struct {
	// BaseURL is the backend root URL (scheme + host + optional path prefix).
	// It has no default: a missing value is reported as a configuration error.
	BaseURL string `toml:"base_url,omitempty"`

	// Timeout bounds non-streaming requests, as a Go duration string.
	Timeout string `toml:"timeout,omitempty"`
}

// ClientConfig tunes the HTTP client used for every backend call.
type ClientConfig struct {
	// RateLimit is the maximum requests per second. Zero disables limiting.
	RateLimit float64 `toml:"rate_limit,omitempty"`
	Burst     int     `toml:"burst,omitempty"`

	// BreakerFailures is the number of consecutive failures that opens the
	// circuit breaker.
	BreakerFailures uint `toml:"breaker_failures,omitempty"`
}

// DashboardConfig holds defaults for the dashboard views.
type DashboardConfig struct {
	// Days is the default look-back window when no date range is given.
	Days     uint   `toml:"days,omitempty"`
	PageSize uint   `toml:"page_size,omitempty"`
	Listen   string `toml:"listen,omitempty"`
}

// TimeoutDuration parses Backend.Timeout, falling back to the default.
func (c *Config) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Backend.Timeout)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(defaultTimeout)
	}
	return d
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"backend.base_url": {
		get: func(c *Config) string { return c.Backend.BaseURL },
		set: func(c *Config, v string) error {
			normalized, err := NormalizeBaseURL(v)
			if err != nil {
				return err
			}
			c.Backend.BaseURL = normalized
			return nil
		},
	},
	"backend.timeout": {
		get: func(c *Config) string { return c.Backend.Timeout },
		set: func(c *Config, v string) error {
			if _, err := time.ParseDuration(v); err != nil {
				return fmt.Errorf("invalid value for backend.timeout: %w", err)
			}
			c.Backend.Timeout = v
			return nil
		},
	},
	"client.rate_limit": {
		get: func(c *Config) string {
			if c.Client.RateLimit == 0 {
				return ""
			}
			return strconv.FormatFloat(c.Client.RateLimit, 'f', -1, 64)
		},
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil || f < 0 {
				return fmt.Errorf("invalid value for client.rate_limit: %q", v)
			}
			c.Client.RateLimit = f
			return nil
		},
	},
	"client.burst": {
		get: func(c *Config) string { return strconv.Itoa(c.Client.Burst) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				return fmt.Errorf("invalid value for client.burst: %q", v)
			}
			c.Client.Burst = n
			return nil
		},
	},
	"client.breaker_failures": {
		get: func(c *Config) string { return formatUint(c.Client.BreakerFailures) },
		set: func(c *Config, v string) error { return setUint(&c.Client.BreakerFailures, "client.breaker_failures", v) },
	},
	"dashboard.days": {
		get: func(c *Config) string { return formatUint(c.Dashboard.Days) },
		set: func(c *Config, v string) error { return setUint(&c.Dashboard.Days, "dashboard.days", v) },
	},
	"dashboard.page_size": {
		get: func(c *Config) string { return formatUint(c.Dashboard.PageSize) },
		set: func(c *Config, v string) error { return setUint(&c.Dashboard.PageSize, "dashboard.page_size", v) },
	},
	"dashboard.listen": {
		get: func(c *Config) string { return c.Dashboard.Listen },
		set: func(c *Config, v string) error { c.Dashboard.Listen = v; return nil },
	},
}

func formatUint(v uint) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatUint(uint64(v), 10)
}

func setUint(target *uint, key, v string) error {
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*target = uint(n)
	return nil
}
