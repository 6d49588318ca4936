// Package historycmder provides the history command for rendering one
// session's chat transcript.
package historycmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/chatdeck/cmd/chatdeck/deps"
	"github.com/papercomputeco/chatdeck/pkg/analytics"
	"github.com/papercomputeco/chatdeck/pkg/backend"
	"github.com/papercomputeco/chatdeck/pkg/cliui"
)

var (
	userLabel  = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true).Render("user")
	agentLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true).Render("agent")
)

const historyLongDesc string = `Show the chat history of a session.

Agent replies are rendered as markdown; use --raw to print the cleaned text
as-is, or --json for the structured transcript.

Examples:
  chatdeck history 6f1c2a90-0e2b-4c1e-9a55-2b0b8c1d7e11
  chatdeck history 6f1c2a90 --raw
  chatdeck history 6f1c2a90 --json`

const historyShortDesc string = "Show a session's chat history"

type historyCommander struct {
	deps *deps.Deps
	out  io.Writer

	raw   bool
	json  bool
	width int
}

func NewHistoryCmd(d *deps.Deps) *cobra.Command {
	cmder := &historyCommander{deps: d}

	cmd := &cobra.Command{
		Use:   "history <session-id>",
		Short: historyShortDesc,
		Long:  historyLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context(), args[0])
		},
	}

	cmd.Flags().BoolVar(&cmder.raw, "raw", false, "Print message text without markdown rendering")
	cmd.Flags().BoolVar(&cmder.json, "json", false, "Print the transcript as JSON")
	cmd.Flags().IntVarP(&cmder.width, "width", "w", 80, "Wrap width for rendered messages")

	return cmd
}

func (c *historyCommander) run(ctx context.Context, sessionID string) error {
	query := analytics.NewQuery(c.deps.Backend)

	var history *analytics.History
	load := func() error {
		var err error
		history, err = query.SessionHistory(ctx, strings.TrimSpace(sessionID))
		return err
	}

	var err error
	if c.json {
		err = load()
	} else {
		err = cliui.Step(c.out, "Loading chat history", load)
	}
	if err != nil {
		c.deps.Log().Debug("loading history", zap.String("session_id", sessionID), zap.Error(err))
		return backend.Describe(err)
	}

	if c.json {
		encoder := json.NewEncoder(c.out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(history)
	}

	c.printHeader(history)

	if len(history.Messages) == 0 {
		fmt.Fprintf(c.out, "\n  %s\n", cliui.DimStyle.Render("No messages in this session."))
		return nil
	}

	for _, msg := range history.Messages {
		c.printMessage(msg)
	}
	return nil
}

func (c *historyCommander) printHeader(history *analytics.History) {
	fmt.Fprintf(c.out, "\n  %s %s\n", cliui.KeyStyle.Render("Session:"), cliui.IDStyle.Render(history.SessionID))
	fmt.Fprintf(c.out, "  %s %s\n", cliui.KeyStyle.Render("Started:"), cliui.ValueStyle.Render(analytics.FormatDate(history.Started)))
	fmt.Fprintf(c.out, "  %s %s\n", cliui.KeyStyle.Render("Duration:"), cliui.ValueStyle.Render(analytics.FormatDuration(history.Duration)))
	fmt.Fprintf(c.out, "  %s %s\n", cliui.KeyStyle.Render("Turns:"),
		cliui.ValueStyle.Render(fmt.Sprintf("%d user, %d agent", history.UserTurns, history.AgentTurns)))
	fmt.Fprintf(c.out, "  %s %s %s\n", cliui.KeyStyle.Render("Feedback:"),
		cliui.LikeStyle.Render(fmt.Sprintf("%d ▲", history.Likes)),
		cliui.DislikeStyle.Render(fmt.Sprintf("%d ▼", history.Dislikes)))
}

func (c *historyCommander) printMessage(msg analytics.Message) {
	label := agentLabel
	if msg.Role == analytics.RoleUser {
		label = userLabel
	}

	meta := []string{label}
	if !msg.Timestamp.IsZero() {
		meta = append(meta, cliui.DimStyle.Render(msg.Timestamp.Local().Format("15:04:05")))
	}
	if mark := cliui.FeedbackMark(msg.Feedback); mark != "" {
		meta = append(meta, mark)
	}
	if msg.AgentMessageID != "" {
		meta = append(meta, cliui.DimStyle.Render(msg.AgentMessageID))
	}
	fmt.Fprintf(c.out, "\n  %s\n", strings.Join(meta, " "))

	if c.raw || msg.Role == analytics.RoleUser {
		for _, line := range strings.Split(msg.Content, "\n") {
			fmt.Fprintf(c.out, "  %s\n", line)
		}
		return
	}

	rendered, err := cliui.RenderMarkdownWidth(msg.Content, c.width)
	if err != nil {
		c.deps.Log().Debug("rendering markdown", zap.Error(err))
	}
	fmt.Fprint(c.out, rendered)
}
