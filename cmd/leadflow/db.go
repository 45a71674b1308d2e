package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"time"

	"github.com/Veraticus/leadflow/internal/cli"
	"github.com/Veraticus/leadflow/internal/common"
	"github.com/Veraticus/leadflow/internal/config"
	"github.com/Veraticus/leadflow/internal/storage"
	"github.com/spf13/cobra"
)

func dbCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database maintenance",
	}
	cmd.AddCommand(dbBackupCmd())
	return cmd
}

func dbBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup [DEST]",
		Short: "Snapshot the SQLite database",
		Long: `Write a consistent copy of the SQLite database plus a DEST.meta.json file
with row counts. DEST defaults to a timestamped file next to the database.
PostgreSQL deployments should use pg_dump instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Database.Driver != config.DriverSQLite {
				return common.NewUserError("backup only supports the sqlite driver; use pg_dump for postgres", nil)
			}

			dest := backupPath(cfg.Database.Path, time.Now())
			if len(args) == 1 {
				dest = args[0]
			}

			s, err := storage.NewSQLiteStorage(cfg.Database.Path)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() { _ = s.Close() }()

			info, err := s.Backup(cmd.Context(), dest)
			if err != nil {
				if errors.Is(err, storage.ErrBackupExists) {
					return common.NewUserError(dest+" already exists", err)
				}
				return err
			}

			return emit(cmd, info, func(w io.Writer) error {
				tables := make([]string, 0, len(info.RowCounts))
				for t := range info.RowCounts {
					tables = append(tables, t)
				}
				sort.Strings(tables)

				pairs := [][2]string{
					{"Path", info.Path},
					{"Size", fmt.Sprintf("%d bytes", info.FileSize)},
					{"Schema", fmt.Sprint(info.SchemaVersion)},
				}
				for _, t := range tables {
					pairs = append(pairs, [2]string{t, fmt.Sprint(info.RowCounts[t])})
				}
				return keyValues(w, cli.SuccessIcon+" Backup written", pairs...)
			})
		},
	}
}

func backupPath(dbPath string, now time.Time) string {
	dir := filepath.Dir(dbPath)
	return filepath.Join(dir, fmt.Sprintf("leadflow-%s.db", now.UTC().Format("20060102-150405")))
}
