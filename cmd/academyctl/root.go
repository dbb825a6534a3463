package main

import (
	"database/sql"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Dosada05/academy-system/config"
	"github.com/Dosada05/academy-system/db"
)

const connectTimeout = 5 * time.Second

type cliOptions struct {
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	rootCmd := &cobra.Command{
		Use:   "academyctl",
		Short: "Administrative tool for the academy service",
		Long: `academyctl runs maintenance tasks against the academy database:
schema migrations, admin password hashing and monthly payment reports.

Connection settings are read from the same environment (and .env file)
as the server.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(newMigrateCmd(opts))
	rootCmd.AddCommand(newHashPasswordCmd())
	rootCmd.AddCommand(newReportCmd(opts))

	return rootCmd
}

func (o *cliOptions) logger() *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// openDB загружает конфигурацию и открывает соединение с базой.
func openDB() (*sql.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return db.Connect(cfg.DatabaseURL, connectTimeout)
}
