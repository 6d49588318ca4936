// Package chatcmder provides the chat command for talking to the agent with
// streamed replies.
package chatcmder

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/chatdeck/cmd/chatdeck/deps"
	"github.com/papercomputeco/chatdeck/pkg/backend"
	"github.com/papercomputeco/chatdeck/pkg/cliui"
)

var (
	userPrompt      = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true).Render("you> ")
	assistantPrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render("agent> ")
)

const chatLongDesc string = `Start an interactive chat session with the agent.

Replies are printed as they stream in. After a reply, rate it with /like or
/dislike. Other commands:
  /session   print the current session id
  /new       start a new session
  /exit      quit (Ctrl+D works too)

Examples:
  chatdeck chat
  chatdeck chat --session 6f1c2a90-0e2b-4c1e-9a55-2b0b8c1d7e11
  chatdeck chat --render`

const chatShortDesc string = "Interactive chat with streamed replies"

type chatCommander struct {
	deps   *deps.Deps
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	sessionID string
	render    bool
	width     int

	// lastAgentMessageID is the correlation id of the most recent reply
	// that carried one.
	lastAgentMessageID string
}

func NewChatCmd(d *deps.Deps) *cobra.Command {
	cmder := &chatCommander{deps: d}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.in = cmd.InOrStdin()
			cmder.out = cmd.OutOrStdout()
			cmder.errOut = cmd.ErrOrStderr()
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&cmder.sessionID, "session", "", "Continue an existing session instead of starting a new one")
	cmd.Flags().BoolVar(&cmder.render, "render", false, "Render each reply as markdown once it completes")
	cmd.Flags().IntVarP(&cmder.width, "width", "w", 80, "Wrap width for rendered replies")

	return cmd
}

func (c *chatCommander) run(ctx context.Context) error {
	c.sessionID = strings.TrimSpace(c.sessionID)
	if c.sessionID == "" {
		c.sessionID = uuid.NewString()
		fmt.Fprintf(c.out, "\n  %s New session %s\n", cliui.DimStyle.Render("●"), cliui.IDStyle.Render(c.sessionID))
	} else {
		fmt.Fprintf(c.out, "\n  %s Resuming session %s\n", cliui.SuccessMark, cliui.IDStyle.Render(c.sessionID))
	}
	fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("Type your message and press Enter. /like, /dislike, /exit or Ctrl+D."))

	scanner := bufio.NewScanner(c.in)
	for {
		fmt.Fprint(c.out, userPrompt)
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		switch input {
		case "/exit", "/quit":
			fmt.Fprintln(c.out)
			return nil
		case "/like":
			c.rate(ctx, backend.FeedbackLike)
			continue
		case "/dislike":
			c.rate(ctx, backend.FeedbackDislike)
			continue
		case "/session":
			fmt.Fprintf(c.out, "  %s\n", cliui.IDStyle.Render(c.sessionID))
			continue
		case "/new":
			c.sessionID = uuid.NewString()
			c.lastAgentMessageID = ""
			fmt.Fprintf(c.out, "  %s New session %s\n", cliui.DimStyle.Render("●"), cliui.IDStyle.Render(c.sessionID))
			continue
		}

		if err := c.send(ctx, input); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(c.errOut, "  %s %v\n", cliui.FailMark, backend.Describe(err))
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Fprintln(c.out)
	return nil
}

// send posts one message and prints the reply. Chunks are written as they
// arrive unless the reply is rendered as a whole afterwards.
func (c *chatCommander) send(ctx context.Context, message string) error {
	fmt.Fprint(c.out, assistantPrompt)

	var sink func(string)
	if !c.render {
		sink = func(chunk string) {
			fmt.Fprint(c.out, chunk)
		}
	}

	result, err := c.deps.Backend.SendChat(ctx, backend.ChatRequest{
		SessionID: c.sessionID,
		Message:   message,
	}, sink)

	if result != nil {
		if result.AgentMessageID != "" {
			c.lastAgentMessageID = result.AgentMessageID
		}
		if c.render && result.Text != "" {
			c.printRendered(result.Text)
		}
	}
	fmt.Fprint(c.out, "\n\n")

	if err != nil {
		c.deps.Log().Debug("chat request failed", zap.String("session_id", c.sessionID), zap.Error(err))
		return err
	}
	return nil
}

func (c *chatCommander) printRendered(text string) {
	rendered, err := cliui.RenderMarkdownWidth(text, c.width)
	if err != nil {
		c.deps.Log().Debug("rendering markdown", zap.Error(err))
	}
	fmt.Fprint(c.out, "\n"+strings.TrimRight(rendered, "\n"))
}

func (c *chatCommander) rate(ctx context.Context, value backend.FeedbackValue) {
	if c.lastAgentMessageID == "" {
		fmt.Fprintf(c.out, "  %s\n", cliui.DimStyle.Render("No agent reply to rate yet."))
		return
	}

	err := c.deps.Backend.SubmitFeedback(ctx, backend.Feedback{
		SessionID:      c.sessionID,
		AgentMessageID: c.lastAgentMessageID,
		Feedback:       value,
	})
	if err != nil {
		fmt.Fprintf(c.errOut, "  %s %v\n", cliui.FailMark, backend.Describe(err))
		return
	}

	fmt.Fprintf(c.out, "  %s Recorded %s for %s\n",
		cliui.SuccessMark,
		cliui.FeedbackMark(string(value)),
		cliui.DimStyle.Render(c.lastAgentMessageID),
	)
}
