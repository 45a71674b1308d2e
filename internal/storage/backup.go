package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// BackupInfo describes a database snapshot.
type BackupInfo struct {
	CreatedAt     time.Time      `json:"created_at"`
	RowCounts     map[string]int `json:"row_counts"`
	Path          string         `json:"path"`
	FileSize      int64          `json:"file_size"`
	SchemaVersion int            `json:"schema_version"`
}

// Backup errors.
var (
	ErrBackupExists    = errors.New("backup already exists")
	ErrBackupCorrupted = errors.New("backup integrity check failed")
	ErrInvalidBackup   = errors.New("invalid backup path")
)

var backupTables = []string{"leads", "product_interests", "lead_activity", "assignments"}

// Backup writes a consistent copy of the database to destPath and a
// destPath+".meta.json" sidecar with row counts.
func (s *SQLiteStorage) Backup(ctx context.Context, destPath string) (*BackupInfo, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(destPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBackup, err)
	}
	if strings.ContainsAny(abs, `'";`) {
		return nil, fmt.Errorf("%w: contains forbidden characters", ErrInvalidBackup)
	}
	if _, err := os.Stat(abs); err == nil {
		return nil, ErrBackupExists
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0750); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	version, err := s.SchemaVersion(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := s.rowCounts(ctx)
	if err != nil {
		return nil, err
	}

	if s.dbPath != ":memory:" {
		if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
			return nil, fmt.Errorf("failed to checkpoint WAL: %w", err)
		}
	}
	// #nosec G201 - abs is checked for quote characters above
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", abs)); err != nil {
		return nil, fmt.Errorf("failed to write backup: %w", err)
	}

	if err := verifyIntegrity(abs); err != nil {
		if rmErr := os.Remove(abs); rmErr != nil {
			slog.Error("failed to remove corrupt backup", "error", rmErr, "path", abs)
		}
		return nil, fmt.Errorf("%w: %w", ErrBackupCorrupted, err)
	}

	stat, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to stat backup: %w", err)
	}

	info := &BackupInfo{
		CreatedAt:     time.Now().UTC(),
		RowCounts:     counts,
		Path:          abs,
		FileSize:      stat.Size(),
		SchemaVersion: version,
	}
	if err := writeBackupMeta(abs+".meta.json", info); err != nil {
		// The snapshot itself is usable without its sidecar.
		slog.Warn("failed to write backup metadata", "error", err)
	}
	return info, nil
}

func (s *SQLiteStorage) rowCounts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int, len(backupTables))
	for _, table := range backupTables {
		var n int
		// #nosec G202 - table names come from a fixed list
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

func verifyIntegrity(path string) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return err
	}
	if result != "ok" {
		return fmt.Errorf("integrity check: %s", result)
	}
	return nil
}

func writeBackupMeta(path string, info *BackupInfo) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
