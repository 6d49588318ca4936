// Package sessionscmder provides the sessions command for listing chat
// sessions.
package sessionscmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/chatdeck/cmd/chatdeck/deps"
	"github.com/papercomputeco/chatdeck/pkg/analytics"
	"github.com/papercomputeco/chatdeck/pkg/backend"
	"github.com/papercomputeco/chatdeck/pkg/cliui"
	"github.com/papercomputeco/chatdeck/pkg/utils"
)

const sessionsLongDesc string = `List chat sessions known to the backend.

Examples:
  chatdeck sessions
  chatdeck sessions --sort messages --limit 10
  chatdeck sessions --search refund
  chatdeck sessions --json`

const sessionsShortDesc string = "List chat sessions"

type sessionsCommander struct {
	deps *deps.Deps
	out  io.Writer
	now  func() time.Time

	sort   string
	search string
	limit  int
	json   bool
}

func NewSessionsCmd(d *deps.Deps) *cobra.Command {
	cmder := &sessionsCommander{deps: d, now: time.Now}

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: sessionsShortDesc,
		Long:  sessionsLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&cmder.sort, "sort", analytics.SortRecent, "Sort sessions by recent|oldest|messages")
	cmd.Flags().StringVar(&cmder.search, "search", "", "Only show sessions whose id or preview contains this text")
	cmd.Flags().IntVarP(&cmder.limit, "limit", "n", 0, "Show at most this many sessions (0 for all)")
	cmd.Flags().BoolVar(&cmder.json, "json", false, "Print sessions as JSON")

	return cmd
}

func (c *sessionsCommander) run(ctx context.Context) error {
	sortKey, err := analytics.ParseSort(strings.ToLower(strings.TrimSpace(c.sort)))
	if err != nil {
		return err
	}

	var sessions []backend.Session
	load := func() error {
		var err error
		sessions, err = c.deps.Backend.ListSessions(ctx)
		return err
	}
	if c.json {
		err = load()
	} else {
		err = cliui.Step(c.out, "Loading sessions", load)
	}
	if err != nil {
		c.deps.Log().Debug("listing sessions", zap.Error(err))
		return backend.Describe(err)
	}

	sessions = analytics.FilterSessions(sessions, analytics.Filters{Sort: sortKey, Search: c.search})
	if c.limit > 0 && len(sessions) > c.limit {
		sessions = sessions[:c.limit]
	}

	if c.json {
		encoder := json.NewEncoder(c.out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(sessions)
	}

	if len(sessions) == 0 {
		fmt.Fprintln(c.out, "No sessions found.")
		return nil
	}

	now := c.now()
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SESSION\tCREATED\tLAST ACTIVE\tMESSAGES\tPREVIEW")
	for _, session := range sessions {
		preview := strings.ReplaceAll(analytics.CleanMessage(session.Preview), "\n", " ")
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			session.SessionID,
			analytics.FormatDate(session.CreatedAt),
			analytics.FormatRelative(session.LastActivity, now),
			session.MessageCount,
			utils.Truncate(preview, 48),
		)
	}
	return w.Flush()
}
