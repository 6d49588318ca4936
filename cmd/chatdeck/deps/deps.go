// Package deps carries the configuration, logger and backend client shared by
// every chatdeck command. The root command resolves them once before any
// subcommand runs; tests construct a Deps directly.
package deps

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/chatdeck/pkg/backend"
	"github.com/papercomputeco/chatdeck/pkg/config"
	"github.com/papercomputeco/chatdeck/pkg/logger"
)

// boundFlags are the registry flags every command resolves through viper.
var boundFlags = []string{
	config.FlagBaseURL,
	config.FlagTimeout,
	config.FlagDays,
	config.FlagPageSize,
	config.FlagListen,
}

type Deps struct {
	Config   *config.Config
	Logger   *zap.Logger
	Backend  backend.Backend
	Registry *prometheus.Registry
}

// New returns an empty Deps; Load fills it in.
func New() *Deps {
	return &Deps{}
}

// Load reads the global flags, resolves the layered config and builds the
// logger and backend client. Fields that are already set are kept.
//
// A missing or invalid backend base URL is logged as a configuration error
// and does not fail: commands that need the backend then fail per call.
func (d *Deps) Load(cmd *cobra.Command) error {
	debug, _ := cmd.Flags().GetBool("debug")
	configDir, _ := cmd.Flags().GetString("config-dir")

	if d.Logger == nil {
		d.Logger = logger.NewLogger(debug)
	}

	if d.Config == nil {
		v, err := config.InitViper(configDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		config.BindRegisteredFlags(v, cmd, config.DefaultFlags, boundFlags)

		cfg, err := config.FromViper(v)
		if err != nil {
			d.Logger.Error("configuration error", zap.Error(err))
			if !errors.Is(err, config.ErrMissingBaseURL) {
				cfg.Backend.BaseURL = ""
			}
		}
		d.Config = cfg
	}

	if d.Registry == nil {
		d.Registry = prometheus.NewRegistry()
	}

	if d.Backend == nil {
		clientCfg := backend.ConfigFromApp(d.Config)
		clientCfg.Registerer = d.Registry
		clientCfg.Logger = d.Logger
		d.Backend = backend.NewClient(clientCfg)
	}

	d.Logger.Debug("configuration resolved",
		zap.String("base_url", d.Config.Backend.BaseURL),
		zap.String("timeout", d.Config.Backend.Timeout),
	)

	return nil
}

// Sync flushes the logger.
func (d *Deps) Sync() {
	if d.Logger != nil {
		_ = d.Logger.Sync()
	}
}

// Log returns the logger, or a no-op logger before Load.
func (d *Deps) Log() *zap.Logger {
	if d.Logger == nil {
		return logger.Nop()
	}
	return d.Logger
}
