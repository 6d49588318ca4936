// Package hubspotcmder provides the hubspot command for listing and reporting
// HubSpot form interactions.
package hubspotcmder

import (
	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatdeck/cmd/chatdeck/deps"
)

const hubspotLongDesc string = `Inspect and record HubSpot form interactions.

Each session carries one of three states: the form was rendered, the form
was filled, or neither happened (none).

Examples:
  chatdeck hubspot list
  chatdeck hubspot list --interaction filled --days 30
  chatdeck hubspot report 6f1c2a90-0e2b-4c1e-9a55-2b0b8c1d7e11 filled`

const hubspotShortDesc string = "HubSpot form interactions"

func NewHubSpotCmd(d *deps.Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hubspot",
		Short: hubspotShortDesc,
		Long:  hubspotLongDesc,
	}

	cmd.AddCommand(newListCmd(d))
	cmd.AddCommand(newReportCmd(d))

	return cmd
}
