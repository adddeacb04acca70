package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yungbote/tutorbridge-backend/internal/agent"
	"github.com/yungbote/tutorbridge-backend/internal/app"
)

var (
	chatConversationID string
	chatConfirmed      bool
)

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Send one message to the agent and print the JSON reply",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		a, err := app.New(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		if a.Services.Agent == nil {
			return fmt.Errorf("agent is disabled: provider %q cannot call tools", a.Cfg.AgentLLM().Provider)
		}

		req := agent.ChatRequest{
			Message:        strings.Join(args, " "),
			ConversationID: chatConversationID,
		}
		if chatConfirmed {
			req.Context = map[string]any{"confirmed": true}
		}
		resp, err := a.Services.Agent.Chat(ctx, req)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatConversationID, "conversation", "", "conversation id to continue")
	chatCmd.Flags().BoolVar(&chatConfirmed, "confirmed", false, "mark the turn as confirmed by the user")
}
