package main

import (
	"fmt"
	"os"

	"github.com/MegMacD/wordpointe-sub001/internal/config"
	"github.com/MegMacD/wordpointe-sub001/internal/database"
	"github.com/MegMacD/wordpointe-sub001/internal/logging"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X main.Version=..."
var Version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cfg := config.Load()

	cmd := &cobra.Command{
		Use:           "wordpointe",
		Short:         "Scripture memory points tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logging.Configure(cfg.LogLevel, cfg.LogFormat)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), cfg)
		},
	}

	cmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text, json)")
	cmd.PersistentFlags().StringVar(&cfg.DatabaseType, "db-type", cfg.DatabaseType, "Database type (sqlite, postgres, mysql)")
	cmd.PersistentFlags().StringVar(&cfg.DatabasePath, "db-path", cfg.DatabasePath, "SQLite database path")

	cmd.AddCommand(
		serveCmd(cfg),
		migrateCmd(cfg),
		userCmd(cfg),
		reportCmd(cfg),
		backupCmd(cfg),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Printf("wordpointe %s\n", Version)
			},
		},
	)
	return cmd
}

// openDatabase connects and, when migrateUp is set, applies pending migrations
func openDatabase(cfg *config.Config, migrateUp bool) (*database.DB, error) {
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	log.WithField("type", cfg.DatabaseType).Info("Database connection established")

	if migrateUp {
		if err := db.RunMigrations(); err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}
