package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/leadflow/internal/cli"
	"github.com/Veraticus/leadflow/internal/config"
	"github.com/Veraticus/leadflow/internal/postgres"
	"github.com/Veraticus/leadflow/internal/storage"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

Every other command migrates on startup too; run this explicitly when
deploying, or with --status to inspect a database without changing it.`,
		RunE: runMigrate,
	}
	cmd.Flags().Bool("status", false, "Show the schema version without applying migrations")
	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	statusOnly, _ := cmd.Flags().GetBool("status")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	expected := storage.ExpectedSchemaVersion
	if cfg.Database.Driver == config.DriverPostgres {
		expected = postgres.ExpectedSchemaVersion
	}

	if statusOnly {
		s, err := openUnmigrated(cmd, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		current, err := s.SchemaVersion(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintln(out, cli.FormatTitle("Database Migration Status"))
		_, _ = fmt.Fprintf(out, "Driver:  %s\nCurrent: %d\nLatest:  %d\n", cfg.Database.Driver, current, expected)
		if current < expected {
			_, _ = fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("%d migration(s) pending", expected-current)))
		} else {
			_, _ = fmt.Fprintln(out, cli.FormatSuccess("Up to date"))
		}
		return nil
	}

	slog.Info("Running database migrations", "driver", cfg.Database.Driver)
	s, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	defer func() { _ = s.Close() }()

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Database at schema version %d", expected)))
	return nil
}

// openUnmigrated connects without running migrations.
func openUnmigrated(cmd *cobra.Command, cfg *config.Config) (store, error) {
	if cfg.Database.Driver == config.DriverPostgres {
		return postgres.Connect(cmd.Context(), cfg.Database.URL)
	}
	s, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return s, nil
}
