// Package testutil provides shared test helpers: an isolated in-memory
// database, seeded leads, and scripted stand-ins for the categorizer and
// mailer.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/leadflow/internal/service"
	"github.com/Veraticus/leadflow/internal/storage"
	"github.com/Veraticus/leadflow/internal/testutil/leads"
)

// TestDB is a migrated in-memory database and the leads seeded into it.
type TestDB struct {
	Storage *storage.SQLiteStorage
	Leads   leads.Leads
	t       *testing.T
}

// SetupTestDB creates an empty migrated in-memory database that is closed
// when the test ends.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{})
}

// SetupTestDBWithBuilder creates a test database and seeds it through a lead builder.
//
// Example:
//
//	db := testutil.SetupTestDBWithBuilder(t, func(b leads.Builder) leads.Builder {
//		return b.WithFixture(leads.FixtureApprovalQueue)
//	})
func SetupTestDBWithBuilder(t *testing.T, configure func(leads.Builder) leads.Builder) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{Configure: configure})
}

// MustGetLead returns the ID of the seeded lead with the given name or fails the test.
func (db *TestDB) MustGetLead(name leads.LeadName) string {
	db.t.Helper()
	return db.Leads.MustFind(db.t, name).Lead.ID
}

// TestDBOptions provides configuration options for test database setup.
type TestDBOptions struct {
	Configure      func(leads.Builder) leads.Builder
	CustomSetup    func(context.Context, service.Storage) error
	SkipMigrations bool
}

// SetupTestDBWithOptions creates a test database with custom options.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	ctx := context.Background()

	if !opts.SkipMigrations {
		if err := store.Migrate(ctx); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
	}

	var seeded leads.Leads
	if opts.Configure != nil {
		seeded, err = opts.Configure(leads.NewBuilder(t)).Build(ctx, store)
		if err != nil {
			t.Fatalf("failed to seed leads: %v", err)
		}
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	return &TestDB{
		Storage: store,
		Leads:   seeded,
		t:       t,
	}
}
