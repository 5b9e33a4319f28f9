package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/trialdesk-dev/trialdesk/internal/config"
	"github.com/trialdesk-dev/trialdesk/internal/logger"
	"github.com/trialdesk-dev/trialdesk/internal/models"
	"github.com/trialdesk-dev/trialdesk/internal/server"
)

var version = "dev" // Will be set during build with -ldflags

func main() {
	var port string

	rootCmd := &cobra.Command{
		Use:           "trialdesk-server",
		Short:         "trialdesk API server",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Server.Port = port
			}

			srv, err := server.New(cfg, log, version)
			if err != nil {
				return fmt.Errorf("failed to create server: %w", err)
			}

			log.Info().
				Str("version", version).
				Str("port", cfg.Server.Port).
				Str("database", cfg.Database.URL).
				Str("redis", cfg.Redis.Address).
				Strs("cors_origins", cfg.Server.CORSOrigins).
				Msg("Starting trialdesk server")

			// Blocks until SIGINT/SIGTERM
			return srv.Start()
		},
	}
	rootCmd.Flags().StringVarP(&port, "port", "p", "", "Listen port (overrides PORT)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}

			db, err := server.InitDatabase(cfg, log)
			if err != nil {
				return err
			}
			if err := models.AutoMigrate(db); err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}

			log.Info().Str("database", cfg.Database.URL).Msg("Database migrated")
			return nil
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads configuration from the environment and initializes logging
func setup() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to load configuration: %w", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	return cfg, logger.GetLogger(), nil
}
