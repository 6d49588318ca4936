// Package dashboardcmder provides the dashboard command: a terminal dashboard
// over session statistics, feedback and HubSpot interactions, with an
// optional local web mode.
package dashboardcmder

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatdeck/cmd/chatdeck/deps"
	"github.com/papercomputeco/chatdeck/pkg/analytics"
	"github.com/papercomputeco/chatdeck/pkg/backend"
	"github.com/papercomputeco/chatdeck/pkg/config"
)

const dashboardLongDesc string = `Dashboard over chat sessions, feedback and HubSpot form interactions.

The overview shows totals for the selected date range, daily activity and
the session list. Drill into a session to read its chat history, or switch
to the HubSpot view to page through form interactions.

Keys: j/k move, enter open, h back, s sort, f HubSpot filter, tab switch
view, n/p page, r refresh, q quit.

Examples:
  chatdeck dashboard
  chatdeck dashboard --days 30 --sort messages
  chatdeck dashboard --from 2026-10-01 --to 2026-10-15 --search refund
  chatdeck dashboard --session 6f1c2a90-0e2b-4c1e-9a55-2b0b8c1d7e11
  chatdeck dashboard --web --listen 127.0.0.1:9999`

const dashboardShortDesc string = "Chat analytics dashboard"

type dashboardCommander struct {
	deps *deps.Deps
	out  io.Writer
	now  func() time.Time

	from        string
	to          string
	days        uint
	sort        string
	search      string
	interaction string
	session     string
	pageSize    uint
	web         bool
	listen      string
}

func NewDashboardCmd(d *deps.Deps) *cobra.Command {
	cmder := &dashboardCommander{deps: d, now: time.Now}

	cmd := &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"deck"},
		Short:   dashboardShortDesc,
		Long:    dashboardLongDesc,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&cmder.from, "from", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&cmder.to, "to", "", "End date (YYYY-MM-DD)")
	config.AddUintFlag(cmd, config.DefaultFlags, config.FlagDays, &cmder.days)
	cmd.Flags().StringVar(&cmder.sort, "sort", analytics.SortRecent, "Sort sessions by recent|oldest|messages")
	cmd.Flags().StringVar(&cmder.search, "search", "", "Only show sessions whose id or preview contains this text")
	cmd.Flags().StringVarP(&cmder.interaction, "interaction", "i", "", "HubSpot view filter: rendered|filled|none")
	cmd.Flags().StringVar(&cmder.session, "session", "", "Open a session's chat history directly")
	config.AddUintFlag(cmd, config.DefaultFlags, config.FlagPageSize, &cmder.pageSize)
	cmd.Flags().BoolVar(&cmder.web, "web", false, "Serve the dashboard locally instead of the terminal UI")
	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagListen, &cmder.listen)

	return cmd
}

// settings resolves the window, page size and listen address. The resolved
// config already carries flag overrides; the raw flags serve when no config
// was loaded.
type settings struct {
	days     int
	pageSize int
	listen   string
}

func (c *dashboardCommander) settings() settings {
	resolved := settings{days: int(c.days), pageSize: int(c.pageSize), listen: c.listen}
	if cfg := c.deps.Config; cfg != nil {
		if cfg.Dashboard.Days > 0 {
			resolved.days = int(cfg.Dashboard.Days)
		}
		if cfg.Dashboard.PageSize > 0 {
			resolved.pageSize = int(cfg.Dashboard.PageSize)
		}
		if cfg.Dashboard.Listen != "" {
			resolved.listen = cfg.Dashboard.Listen
		}
	}
	if resolved.days <= 0 {
		resolved.days = analytics.DefaultDays
	}
	return resolved
}

func (c *dashboardCommander) run(ctx context.Context) error {
	resolved := c.settings()

	filters, err := c.parseFilters(resolved.days)
	if err != nil {
		return err
	}

	query := analytics.NewQuery(c.deps.Backend)

	if c.web {
		// The web mode keeps a sliding window unless a range was given.
		if c.from == "" && c.to == "" {
			filters.Dates = backend.DateRange{}
		}
		return c.runWeb(ctx, query, filters, resolved)
	}

	return runDashboardTUI(ctx, newDashboardModel(ctx, query, filters, resolved, strings.TrimSpace(c.session)))
}

func (c *dashboardCommander) parseFilters(days int) (analytics.Filters, error) {
	var filters analytics.Filters

	sortKey, err := analytics.ParseSort(strings.ToLower(strings.TrimSpace(c.sort)))
	if err != nil {
		return filters, err
	}
	filters.Sort = sortKey
	filters.Search = strings.TrimSpace(c.search)

	if value := strings.ToLower(strings.TrimSpace(c.interaction)); value != "" {
		interaction, err := backend.ParseInteraction(value)
		if err != nil {
			return filters, err
		}
		filters.Interaction = interaction
	}

	filters.Dates, err = analytics.ParseDateRange(c.from, c.to, days, c.now())
	if err != nil {
		return filters, err
	}

	return filters, nil
}
