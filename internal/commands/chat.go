package commands

import (
	"log"

	"github.com/spf13/cobra"

	"crustdata.com/support-chatbot/internal/logging"
	"crustdata.com/support-chatbot/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		chatService, res, err := newChatService(cmd.Context(), getConfig())
		if err != nil {
			return err
		}
		defer func() {
			if err := res.Close(); err != nil {
				log.Printf("Error closing resources: %v", err)
			}
		}()
		logging.Quiet()
		return tui.Run(cmd.Context(), chatService, chatService.NewSession())
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
