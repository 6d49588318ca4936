package config

const (
	defaultTimeout         = "30s"
	defaultBurst           = 1
	defaultBreakerFailures = 5

	defaultDashboardDays     = 7
	defaultDashboardPageSize = 20
	defaultDashboardListen   = "127.0.0.1:8888"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values. The backend base
// URL intentionally has no default.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Backend: BackendConfig{
			Timeout: defaultTimeout,
		},
		Client: ClientConfig{
			Burst:           defaultBurst,
			BreakerFailures: defaultBreakerFailures,
		},
		Dashboard: DashboardConfig{
			Days:     defaultDashboardDays,
			PageSize: defaultDashboardPageSize,
			Listen:   defaultDashboardListen,
		},
	}
}
