package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
)

// ExpectedSchemaVersion is the latest schema version the application expects.
const ExpectedSchemaVersion = 2

type migration struct {
	Description string
	Statements  []string
	Version     int
}

var migrations = []migration{
	{
		Version:     1,
		Description: "Initial lead schema",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS leads (
				seq BIGSERIAL UNIQUE,
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				email TEXT NOT NULL,
				phone TEXT NOT NULL DEFAULT '',
				company TEXT NOT NULL DEFAULT '',
				role TEXT NOT NULL DEFAULT '',
				location TEXT NOT NULL DEFAULT '',
				message TEXT NOT NULL DEFAULT '',
				source TEXT NOT NULL,
				status TEXT NOT NULL,
				first_response_at TIMESTAMPTZ,
				last_contact_at TIMESTAMPTZ,
				conversion_date TIMESTAMPTZ,
				created_at TIMESTAMPTZ NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status)`,
			`CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads(created_at)`,

			`CREATE TABLE IF NOT EXISTS product_interests (
				seq BIGSERIAL UNIQUE,
				id TEXT PRIMARY KEY,
				lead_id TEXT NOT NULL REFERENCES leads(id) ON DELETE CASCADE,
				category TEXT NOT NULL,
				product TEXT NOT NULL,
				quantity TEXT,
				quantity_numeric BOOLEAN NOT NULL DEFAULT FALSE,
				notes TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMPTZ NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_product_interests_lead ON product_interests(lead_id)`,

			`CREATE TABLE IF NOT EXISTS lead_activity (
				seq BIGSERIAL UNIQUE,
				id TEXT PRIMARY KEY,
				lead_id TEXT NOT NULL REFERENCES leads(id) ON DELETE CASCADE,
				type TEXT NOT NULL,
				status TEXT NOT NULL,
				message TEXT NOT NULL,
				actor_type TEXT NOT NULL,
				actor_id TEXT NOT NULL DEFAULT '',
				metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
				created_at TIMESTAMPTZ NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_lead_activity_lead ON lead_activity(lead_id, created_at)`,
			`CREATE INDEX IF NOT EXISTS idx_lead_activity_queue ON lead_activity(type, status)`,
		},
	},
	{
		Version:     2,
		Description: "Add assignments",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS assignments (
				seq BIGSERIAL UNIQUE,
				id TEXT PRIMARY KEY,
				lead_id TEXT NOT NULL REFERENCES leads(id) ON DELETE CASCADE,
				owner_id TEXT NOT NULL,
				owner_name TEXT NOT NULL,
				status TEXT NOT NULL,
				assigned_at TIMESTAMPTZ NOT NULL,
				sla_deadline TIMESTAMPTZ NOT NULL,
				completed_at TIMESTAMPTZ,
				sla_met BOOLEAN,
				response_time_minutes INTEGER
			)`,
			`CREATE INDEX IF NOT EXISTS idx_assignments_lead ON assignments(lead_id)`,
			`CREATE INDEX IF NOT EXISTS idx_assignments_status ON assignments(status, sla_deadline)`,
		},
	},
}

// Migrate applies pending migrations, each in its own transaction, and
// records them in schema_migrations.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	current, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
			for _, stmt := range m.Statements {
				if _, err := tx.Exec(ctx, stmt); err != nil {
					return err
				}
			}
			_, err := tx.Exec(ctx,
				`INSERT INTO schema_migrations (version, description) VALUES ($1, $2)`,
				m.Version, m.Description)
			return err
		})
		if err != nil {
			return fmt.Errorf("migration %d failed: %w", m.Version, err)
		}
		slog.Info("Applied migration", "version", m.Version, "description", m.Description)
	}

	final, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if final != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, final)
	}
	return nil
}

// SchemaVersion returns the highest applied migration, or 0 for a database
// that has never been migrated.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT to_regclass('schema_migrations') IS NOT NULL`).Scan(&exists); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	if !exists {
		return 0, nil
	}

	var v int
	if err := s.pool.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return v, nil
}
