// Package commands is the supportbot command line.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"crustdata.com/support-chatbot/internal/config"
	"crustdata.com/support-chatbot/internal/logging"
)

var currentConfig *config.Config

var rootCmd = &cobra.Command{
	Use:           "supportbot",
	Short:         "supportbot answers CrustData API questions from the Notion docs",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		if err := logging.Init(cfg.LogFile, cfg.Debug()); err != nil {
			return err
		}
		currentConfig = cfg
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Close()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// Flags override the matching environment variables.
func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("log-level", "", "log level (INFO or DEBUG)")
	flags.String("log-file", "", "also write logs to this file")
	flags.String("vector-store", "", "vector store backend (sqlite or pgvector)")
	flags.String("collection", "", "vector store collection name")

	_ = viper.BindPFlag("LOG_LEVEL", flags.Lookup("log-level"))
	_ = viper.BindPFlag("LOG_FILE", flags.Lookup("log-file"))
	_ = viper.BindPFlag("VECTOR_STORE", flags.Lookup("vector-store"))
	_ = viper.BindPFlag("COLLECTION_NAME", flags.Lookup("collection"))
}

func getConfig() *config.Config {
	return currentConfig
}

func viperBind(key string, cmd *cobra.Command, flag string) error {
	if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
		return fmt.Errorf("bind %s: %w", flag, err)
	}
	return nil
}
