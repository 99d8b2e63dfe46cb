package commands

import (
	"log"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"crustdata.com/support-chatbot/internal/corpus"
)

var indexFiles []string

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Chunk, embed and append documents to the vector index",
	Long: `The 'index' command splits each file on Markdown headings and then by size,
embeds every chunk and appends it to the vector store. Without --file it indexes
the Notion export written by 'pull'. Markdown, text and PDF files are accepted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()
		files := indexFiles
		if len(files) == 0 {
			files = []string{cfg.NotionOutputPath}
		}

		indexer, res, err := newIndexer(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := res.Close(); err != nil {
				log.Printf("Error closing index resources: %v", err)
			}
		}()

		total := 0
		for _, path := range files {
			text, err := corpus.ReadFile(path)
			if err != nil {
				return err
			}
			n, err := indexer.IndexText(cmd.Context(), path, text)
			total += n
			if err != nil {
				return err
			}
		}
		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Indexed %d chunks from %d file(s)\n", total, len(files))
		return nil
	},
}

func init() {
	indexCmd.Flags().StringSliceVarP(&indexFiles, "file", "f", nil, "file to index (repeatable; defaults to NOTION_OUTPUT_PATH)")
	rootCmd.AddCommand(indexCmd)
}
