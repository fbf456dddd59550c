package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/travelplanner/catalog/internal/pkg/config"
	"github.com/travelplanner/catalog/pkg/logger"
)

var (
	// Global state set during PersistentPreRunE
	cfg *config.Config
	log zerolog.Logger

	// Persistent flags
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "travelplanner",
	Short: "Travel destination catalog",
	Long: `travelplanner - Travel destination catalog

Serves the destination API and pages, and runs maintenance tasks against
the same MongoDB and Redis the server uses.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		var err error
		cfg, err = config.Read(cmd.Context())
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}

		log = logger.Init(logger.Options{
			Level:   cfg.LogLevel,
			Pretty:  !cfg.IsProduction(),
			Service: "travelplanner",
		})
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL (trace, debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(ensureAdminCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
