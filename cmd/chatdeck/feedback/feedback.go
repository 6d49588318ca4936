// Package feedbackcmder provides the feedback command for rating agent
// replies.
package feedbackcmder

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

const feedbackLongDesc string = `Record a like or dislike for an agent reply.

The agent message id is the correlation id printed by "chatdeck history"
next to each agent reply.

Examples:
  chatdeck feedback msg_81c2 like
  chatdeck feedback msg_81c2 dislike --session 6f1c2a90-0e2b-4c1e-9a55-2b0b8c1d7e11`

const feedbackShortDesc string = "Like or dislike an agent reply"

type feedbackCommander struct {
	deps *deps.Deps
	out  io.Writer

	sessionID string
}

func NewFeedbackCmd(d *deps.Deps) *cobra.Command {
	cmder := &feedbackCommander{deps: d}

	cmd := &cobra.Command{
		Use:       "feedback <agent-message-id> like|dislike",
		Short:     feedbackShortDesc,
		Long:      feedbackLongDesc,
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(backend.FeedbackLike), string(backend.FeedbackDislike)},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context(), args[0], args[1])
		},
	}

	cmd.Flags().StringVarP(&cmder.sessionID, "session", "s", "", "Session the reply belongs to")

	return cmd
}

func (c *feedbackCommander) run(ctx context.Context, agentMessageID, rawValue string) error {
	value, err := backend.ParseFeedbackValue(strings.ToLower(strings.TrimSpace(rawValue)))
	if err != nil {
		return err
	}

	feedback := backend.Feedback{
		SessionID:      strings.TrimSpace(c.sessionID),
		AgentMessageID: strings.TrimSpace(agentMessageID),
		Feedback:       value,
	}

	if err := c.deps.Backend.SubmitFeedback(ctx, feedback); err != nil {
		return backend.Describe(err)
	}

	fmt.Fprintf(c.out, "%s Recorded %s %s for %s\n",
		cliui.SuccessMark,
		cliui.FeedbackMark(string(value)),
		value,
		cliui.IDStyle.Render(feedback.AgentMessageID),
	)
	return nil
}
