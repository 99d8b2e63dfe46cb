package commands

import (
	"io"
	"log"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"crustdata.com/support-chatbot/internal/core"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a single question and exit",
	Args:  cobra.MinimumNArgs(1),
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

		answer := chatService.Respond(cmd.Context(), strings.Join(args, " "))
		printAnswer(cmd.OutOrStdout(), answer)
		return nil
	},
}

// printAnswer colours flagged and failed answers differently from grounded
// ones.
func printAnswer(w io.Writer, answer string) {
	c := color.New(color.FgGreen)
	switch {
	case answer == core.FallbackAnswer:
		c = color.New(color.FgRed)
	case strings.HasPrefix(answer, core.HallucinationPrefix):
		c = color.New(color.FgYellow)
	}
	c.Fprintln(w, answer)
}

func init() {
	askCmd.Flags().Int("docs", 0, "number of documents to retrieve")
	_ = viperBind("NUMBER_OF_DOC", askCmd, "docs")
	rootCmd.AddCommand(askCmd)
}
