package hubspotcmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatdeck/cmd/chatdeck/deps"
	"github.com/papercomputeco/chatdeck/pkg/analytics"
	"github.com/papercomputeco/chatdeck/pkg/backend"
	"github.com/papercomputeco/chatdeck/pkg/cliui"
	"github.com/papercomputeco/chatdeck/pkg/config"
	"github.com/papercomputeco/chatdeck/pkg/utils"
)

const listLongDesc string = `List sessions with their HubSpot form interaction state.

Results are paginated by the backend. Use --offset to page, or --all to
walk every page. --interaction narrows the rows of each fetched page.

Examples:
  chatdeck hubspot list
  chatdeck hubspot list --page-size 50 --offset 50
  chatdeck hubspot list --interaction rendered --from 2026-10-01 --to 2026-10-15
  chatdeck hubspot list --all --json`

const listShortDesc string = "List HubSpot form interactions"

type listCommander struct {
	deps *deps.Deps
	out  io.Writer
	now  func() time.Time

	interaction string
	from        string
	to          string
	days        uint
	pageSize    uint
	offset      int
	all         bool
	json        bool
}

func newListCmd(d *deps.Deps) *cobra.Command {
	cmder := &listCommander{deps: d, now: time.Now}

	cmd := &cobra.Command{
		Use:   "list",
		Short: listShortDesc,
		Long:  listLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&cmder.interaction, "interaction", "i", "", "Only show rendered|filled|none")
	cmd.Flags().StringVar(&cmder.from, "from", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&cmder.to, "to", "", "End date (YYYY-MM-DD)")
	config.AddUintFlag(cmd, config.DefaultFlags, config.FlagDays, &cmder.days)
	config.AddUintFlag(cmd, config.DefaultFlags, config.FlagPageSize, &cmder.pageSize)
	cmd.Flags().IntVar(&cmder.offset, "offset", 0, "Number of rows to skip")
	cmd.Flags().BoolVar(&cmder.all, "all", false, "Fetch every page")
	cmd.Flags().BoolVar(&cmder.json, "json", false, "Print the listing as JSON")

	return cmd
}

// settings resolves the window and page size. The resolved config already
// carries flag overrides; the raw flags serve when no config was loaded.
func (c *listCommander) settings() (days, pageSize int) {
	days, pageSize = int(c.days), int(c.pageSize)
	if cfg := c.deps.Config; cfg != nil {
		if cfg.Dashboard.Days > 0 {
			days = int(cfg.Dashboard.Days)
		}
		if cfg.Dashboard.PageSize > 0 {
			pageSize = int(cfg.Dashboard.PageSize)
		}
	}
	return days, pageSize
}

func (c *listCommander) run(ctx context.Context) error {
	days, pageSize := c.settings()

	dates, err := analytics.ParseDateRange(c.from, c.to, days, c.now())
	if err != nil {
		return err
	}

	filters := analytics.Filters{Dates: dates}
	if value := strings.ToLower(strings.TrimSpace(c.interaction)); value != "" {
		interaction, err := backend.ParseInteraction(value)
		if err != nil {
			return err
		}
		filters.Interaction = interaction
	}

	query := analytics.NewQuery(c.deps.Backend)
	page := backend.Page{Limit: pageSize, Offset: c.offset}

	var view *analytics.HubSpotView
	load := func() error {
		var err error
		view, err = c.fetch(ctx, query, filters, page)
		return err
	}
	if c.json {
		err = load()
	} else {
		err = cliui.Step(c.out, "Loading HubSpot interactions", load)
	}
	if err != nil {
		return backend.Describe(err)
	}

	if c.json {
		encoder := json.NewEncoder(c.out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(view)
	}

	return c.printTable(view, dates)
}

func (c *listCommander) printTable(view *analytics.HubSpotView, dates backend.DateRange) error {
	fmt.Fprintf(c.out, "HubSpot interactions %s to %s\n\n",
		dates.Start.Format(backend.DateLayout), dates.End.Format(backend.DateLayout))

	if len(view.Page.Sessions) == 0 {
		fmt.Fprintln(c.out, "No HubSpot interactions found.")
	} else {
		w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SESSION\tINTERACTION\tUPDATED")
		for _, session := range view.Page.Sessions {
			fmt.Fprintf(w, "%s\t%s\t%s\n",
				utils.Truncate(session.SessionID, 40),
				session.Interaction,
				analytics.FormatDate(session.UpdatedAt),
			)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	counts := make([]string, 0, len(backend.Interactions))
	for _, interaction := range backend.Interactions {
		counts = append(counts, fmt.Sprintf("%s %d", interaction, view.Counts[interaction]))
	}
	fmt.Fprintf(c.out, "\n%s\n", strings.Join(counts, "  "))

	if view.HasMore {
		fmt.Fprintf(c.out, "Showing rows %d-%d of %d; next page: --offset %d\n",
			view.Page.Offset+1, view.Page.Offset+view.Page.Limit, view.Page.Total,
			view.Page.Offset+view.Page.Limit)
	}
	return nil
}

// fetch loads one page, or every page from page onwards with --all.
func (c *listCommander) fetch(ctx context.Context, query analytics.Querier, filters analytics.Filters, page backend.Page) (*analytics.HubSpotView, error) {
	view, err := query.HubSpot(ctx, filters, page)
	if err != nil {
		return nil, err
	}

	for c.all && view.HasMore && view.Fetched > 0 {
		page = page.Next()
		next, err := query.HubSpot(ctx, filters, page)
		if err != nil {
			return nil, err
		}
		view.Page.Sessions = append(view.Page.Sessions, next.Page.Sessions...)
		for interaction, count := range next.Counts {
			view.Counts[interaction] += count
		}
		view.Page.Limit = next.Page.Offset + next.Page.Limit - view.Page.Offset
		view.Fetched = next.Fetched
		view.HasMore = next.HasMore
	}

	return view, nil
}
