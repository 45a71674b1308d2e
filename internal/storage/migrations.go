package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 2

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial lead schema",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS leads (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					email TEXT NOT NULL,
					phone TEXT,
					company TEXT,
					role TEXT,
					location TEXT,
					message TEXT,
					source TEXT NOT NULL,
					status TEXT NOT NULL,
					first_response_at DATETIME,
					last_contact_at DATETIME,
					conversion_date DATETIME,
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL
				)`,
				`CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status)`,
				`CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads(created_at)`,

				`CREATE TABLE IF NOT EXISTS product_interests (
					id TEXT PRIMARY KEY,
					lead_id TEXT NOT NULL,
					category TEXT NOT NULL,
					product TEXT NOT NULL,
					quantity TEXT,
					quantity_numeric INTEGER NOT NULL DEFAULT 0,
					notes TEXT,
					created_at DATETIME NOT NULL,
					FOREIGN KEY (lead_id) REFERENCES leads(id) ON DELETE CASCADE
				)`,
				`CREATE INDEX IF NOT EXISTS idx_product_interests_lead ON product_interests(lead_id)`,

				`CREATE TABLE IF NOT EXISTS lead_activity (
					id TEXT PRIMARY KEY,
					lead_id TEXT NOT NULL,
					type TEXT NOT NULL,
					status TEXT NOT NULL,
					message TEXT NOT NULL,
					actor_type TEXT NOT NULL,
					actor_id TEXT,
					metadata TEXT NOT NULL DEFAULT '{}',
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL,
					FOREIGN KEY (lead_id) REFERENCES leads(id) ON DELETE CASCADE
				)`,
				`CREATE INDEX IF NOT EXISTS idx_lead_activity_lead ON lead_activity(lead_id, created_at)`,
				`CREATE INDEX IF NOT EXISTS idx_lead_activity_queue ON lead_activity(type, status)`,
			)
		},
	},
	{
		Version:     2,
		Description: "Add assignments",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS assignments (
					id TEXT PRIMARY KEY,
					lead_id TEXT NOT NULL,
					owner_id TEXT NOT NULL,
					owner_name TEXT NOT NULL,
					status TEXT NOT NULL,
					assigned_at DATETIME NOT NULL,
					sla_deadline DATETIME NOT NULL,
					completed_at DATETIME,
					sla_met INTEGER,
					response_time_minutes INTEGER,
					FOREIGN KEY (lead_id) REFERENCES leads(id) ON DELETE CASCADE
				)`,
				`CREATE INDEX IF NOT EXISTS idx_assignments_lead ON assignments(lead_id)`,
				`CREATE INDEX IF NOT EXISTS idx_assignments_status ON assignments(status, sla_deadline)`,
			)
		},
	},
}

func execAll(tx *sql.Tx, queries ...string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// Migrate applies pending migrations and checks the final schema version.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion); err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion); err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}

// SchemaVersion returns the applied schema version.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return v, nil
}
