package hubspotcmder

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatdeck/cmd/chatdeck/deps"
	"github.com/papercomputeco/chatdeck/pkg/backend"
	"github.com/papercomputeco/chatdeck/pkg/cliui"
)

const reportShortDesc string = "Record the HubSpot form state of a session"

type reportCommander struct {
	deps *deps.Deps
	out  io.Writer
}

func newReportCmd(d *deps.Deps) *cobra.Command {
	cmder := &reportCommander{deps: d}

	return &cobra.Command{
		Use:       "report <session-id> rendered|filled|none",
		Short:     reportShortDesc,
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"rendered", "filled", "none"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context(), args[0], args[1])
		},
	}
}

func (c *reportCommander) run(ctx context.Context, sessionID, rawInteraction string) error {
	interaction, err := backend.ParseInteraction(strings.ToLower(strings.TrimSpace(rawInteraction)))
	if err != nil {
		return err
	}

	report := backend.HubSpotReport{
		SessionID:   strings.TrimSpace(sessionID),
		Interaction: interaction,
	}
	if err := c.deps.Backend.ReportHubSpot(ctx, report); err != nil {
		return backend.Describe(err)
	}

	fmt.Fprintf(c.out, "%s Recorded %s for %s\n",
		cliui.SuccessMark, interaction, cliui.IDStyle.Render(report.SessionID))
	return nil
}
