// Package chatdeckcmder is the root of the chatdeck command tree.
package chatdeckcmder

import (
	"github.com/spf13/cobra"

	chatcmder "github.com/papercomputeco/chatdeck/cmd/chatdeck/chat"
	configcmder "github.com/papercomputeco/chatdeck/cmd/chatdeck/config"
	dashboardcmder "github.com/papercomputeco/chatdeck/cmd/chatdeck/dashboard"
	"github.com/papercomputeco/chatdeck/cmd/chatdeck/deps"
	feedbackcmder "github.com/papercomputeco/chatdeck/cmd/chatdeck/feedback"
	historycmder "github.com/papercomputeco/chatdeck/cmd/chatdeck/history"
	hubspotcmder "github.com/papercomputeco/chatdeck/cmd/chatdeck/hubspot"
	sessionscmder "github.com/papercomputeco/chatdeck/cmd/chatdeck/sessions"
	versioncmder "github.com/papercomputeco/chatdeck/cmd/version"
	"github.com/papercomputeco/chatdeck/pkg/config"
)

const chatdeckLongDesc string = `chatdeck is a terminal dashboard and client for a chat-agent backend.

It shows session statistics, feedback metrics and HubSpot form interactions,
renders chat histories, and talks to the agent with streamed replies.

Point it at a backend with:
  chatdeck config set backend.base_url https://agent.example.com/api
  CHATDECK_BACKEND_BASE_URL=https://agent.example.com/api chatdeck dashboard
  chatdeck --base-url https://agent.example.com/api sessions`

const chatdeckShortDesc string = "chatdeck - chat agent analytics dashboard"

func NewChatdeckCmd() *cobra.Command {
	d := deps.New()
	var baseURL, timeout string

	cmd := &cobra.Command{
		Use:           "chatdeck",
		Short:         chatdeckShortDesc,
		Long:          chatdeckLongDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return d.Load(cmd)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			d.Sync()
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to the .chatdeck/ config directory")
	config.AddPersistentStringFlag(cmd, config.DefaultFlags, config.FlagBaseURL, &baseURL)
	config.AddPersistentStringFlag(cmd, config.DefaultFlags, config.FlagTimeout, &timeout)

	// Add subcommands
	cmd.AddCommand(dashboardcmder.NewDashboardCmd(d))
	cmd.AddCommand(sessionscmder.NewSessionsCmd(d))
	cmd.AddCommand(historycmder.NewHistoryCmd(d))
	cmd.AddCommand(chatcmder.NewChatCmd(d))
	cmd.AddCommand(feedbackcmder.NewFeedbackCmd(d))
	cmd.AddCommand(hubspotcmder.NewHubSpotCmd(d))
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
