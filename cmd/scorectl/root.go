package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stemsi/exstem-scoring/internal/config"
	"github.com/stemsi/exstem-scoring/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:           "scorectl",
	Short:         "Score IELTS-style answer sheets and maintain stored results",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "Log level (overrides LOG_LEVEL)")

	rootCmd.AddCommand(newScoreCmd())
	rootCmd.AddCommand(newBandCmd())
	rootCmd.AddCommand(newRescoreCmd())
	rootCmd.AddCommand(newExportCmd())
}

// loadEnv reads the service configuration and a stderr logger. Flags win
// over the environment.
func loadEnv(cmd *cobra.Command) (*config.Config, zerolog.Logger) {
	cfg := config.Load()
	level := cfg.LogLevel
	if l, _ := cmd.Flags().GetString("log-level"); l != "" {
		level = l
	}
	return cfg, logger.New(cmd.ErrOrStderr(), level, "pretty")
}
