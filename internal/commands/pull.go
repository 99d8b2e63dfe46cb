package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"crustdata.com/support-chatbot/internal/config"
	"crustdata.com/support-chatbot/internal/notion"
)

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Export the Notion documentation tree to a Markdown file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()
		if err := cfg.Validate(config.PurposePull); err != nil {
			return err
		}
		client, err := notion.NewClient(cfg.NotionAPIKey, notion.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}))
		if err != nil {
			return err
		}

		n, err := pullToFile(cmd.Context(), client, cfg.NotionPageID, cfg.NotionOutputPath)
		if err != nil {
			return err
		}
		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Wrote %d bytes of Markdown to %s\n", n, cfg.NotionOutputPath)
		return nil
	},
}

func pullToFile(ctx context.Context, client *notion.Client, pageID, path string) (int, error) {
	markdown, err := client.Pull(ctx, pageID)
	if err != nil {
		return 0, err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(markdown), 0o644); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return len(markdown), nil
}

func init() {
	rootCmd.AddCommand(pullCmd)
}
