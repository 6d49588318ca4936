package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/chatdeck/pkg/dotdir"
)

// EnvPrefix is the prefix for environment variable overrides,
// e.g. CHATDECK_BACKEND_BASE_URL.
const EnvPrefix = "CHATDECK"

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the CHATDECK_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (CHATDECK_BACKEND_BASE_URL, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// FromViper materializes a Config from the resolved viper values. When the
// backend base URL is absent or invalid the returned Config is still usable
// and the error says why; callers log it rather than abort.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Version: v.GetInt("version"),
		Backend: BackendConfig{
			BaseURL: v.GetString("backend.base_url"),
			Timeout: v.GetString("backend.timeout"),
		},
		Client: ClientConfig{
			RateLimit:       v.GetFloat64("client.rate_limit"),
			Burst:           v.GetInt("client.burst"),
			BreakerFailures: v.GetUint("client.breaker_failures"),
		},
		Dashboard: DashboardConfig{
			Days:     v.GetUint("dashboard.days"),
			PageSize: v.GetUint("dashboard.page_size"),
			Listen:   v.GetString("dashboard.listen"),
		},
	}

	applyDefaults(cfg)

	normalized, err := NormalizeBaseURL(cfg.Backend.BaseURL)
	if err != nil {
		return cfg, err
	}
	cfg.Backend.BaseURL = normalized

	return cfg, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Backend
	v.SetDefault("backend.base_url", d.Backend.BaseURL)
	v.SetDefault("backend.timeout", d.Backend.Timeout)

	// Client
	v.SetDefault("client.rate_limit", d.Client.RateLimit)
	v.SetDefault("client.burst", d.Client.Burst)
	v.SetDefault("client.breaker_failures", d.Client.BreakerFailures)

	// Dashboard
	v.SetDefault("dashboard.days", d.Dashboard.Days)
	v.SetDefault("dashboard.page_size", d.Dashboard.PageSize)
	v.SetDefault("dashboard.listen", d.Dashboard.Listen)
}
