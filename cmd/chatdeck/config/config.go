// Package configcmder provides the config command for managing persistent
// chatdeck configuration stored in the .chatdeck/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent chatdeck configuration.

Configuration is stored as config.toml in the .chatdeck/ directory and provides
default values for command flags. CLI flags and CHATDECK_* environment
variables take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  backend.base_url, backend.timeout,
  client.rate_limit, client.burst, client.breaker_failures,
  dashboard.days, dashboard.page_size, dashboard.listen

Use subcommands to get, set, or list configuration values:
  chatdeck config set <key> <value>    Set a configuration value
  chatdeck config get <key>            Get a configuration value
  chatdeck config list                 List all configuration values

Examples:
  chatdeck config set backend.base_url https://agent.example.com/api
  chatdeck config set dashboard.days 30
  chatdeck config get backend.base_url
  chatdeck config list`

const configShortDesc string = "Manage persistent chatdeck configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
		// Config management must work before a backend is configured.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
