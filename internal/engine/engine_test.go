package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Veraticus/leadflow/internal/common"
	"github.com/Veraticus/leadflow/internal/model"
	"github.com/Veraticus/leadflow/internal/service"
	"github.com/Veraticus/leadflow/internal/testutil"
	"github.com/Veraticus/leadflow/internal/testutil/leads"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 14, 15, 0, 0, 0, time.UTC)

var (
	highArchitect = model.Categorization{
		Priority:         model.PriorityHigh,
		Intent:           model.IntentQuoteRequest,
		LeadType:         model.LeadTypeArchitect,
		SuggestedActions: []string{"Call within 1 hour"},
	}
	mediumHomeowner = model.Categorization{
		Priority:         model.PriorityMedium,
		Intent:           model.IntentInformation,
		LeadType:         model.LeadTypeHomeOwner,
		SuggestedActions: []string{"Send product catalog"},
	}
)

type harness struct {
	engine      *Engine
	db          *testutil.TestDB
	store       service.Storage
	categorizer *testutil.FixedCategorizer
	mailer      *testutil.RecordingMailer
	clock       *time.Time
}

type harnessOption func(*Deps, *harness)

func withStore(wrap func(service.Storage) service.Storage) harnessOption {
	return func(d *Deps, h *harness) {
		h.store = wrap(h.store)
		d.Store = h.store
	}
}

func newHarness(t *testing.T, cat model.Categorization, opts ...harnessOption) *harness {
	t.Helper()
	return newHarnessWithDB(t, testutil.SetupTestDB(t), cat, opts...)
}

func newHarnessWithDB(t *testing.T, db *testutil.TestDB, cat model.Categorization, opts ...harnessOption) *harness {
	t.Helper()

	now := testNow
	var ids atomic.Int64
	h := &harness{
		db:          db,
		store:       db.Storage,
		categorizer: testutil.NewFixedCategorizer(cat),
		mailer:      &testutil.RecordingMailer{Now: testNow},
		clock:       &now,
	}
	d := Deps{
		Store:       h.store,
		Categorizer: h.categorizer,
		Mailer:      h.mailer,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:         func() time.Time { return *h.clock },
		NewID:       func() string { return fmt.Sprintf("id-%03d", ids.Add(1)) },
	}
	for _, opt := range opts {
		opt(&d, h)
	}

	e, err := New(d)
	require.NoError(t, err)
	h.engine = e
	return h
}

func (h *harness) advance(d time.Duration) {
	*h.clock = h.clock.Add(d)
}

func (h *harness) activities(t *testing.T, leadID string, typ model.ActivityType) []model.Activity {
	t.Helper()
	got, err := h.store.ListActivities(context.Background(), service.ActivityFilter{LeadID: leadID, Type: typ})
	require.NoError(t, err)
	return got
}

func submission(t *testing.T, name leads.LeadName) model.LeadSubmission {
	t.Helper()
	sub, ok := leads.Submission(name)
	require.True(t, ok, "no canned submission for %s", name)
	return sub
}

func TestNew_RequiresCollaborators(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cat := testutil.NewFixedCategorizer(mediumHomeowner)
	mailer := &testutil.RecordingMailer{}

	tests := []struct {
		name string
		deps Deps
	}{
		{"missing store", Deps{Categorizer: cat, Mailer: mailer}},
		{"missing categorizer", Deps{Store: db.Storage, Mailer: mailer}},
		{"missing mailer", Deps{Store: db.Storage, Categorizer: cat}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.deps)
			assert.ErrorIs(t, err, common.ErrMissingConfig)
		})
	}

	e, err := New(Deps{Store: db.Storage, Categorizer: cat, Mailer: mailer})
	require.NoError(t, err)
	assert.NotNil(t, e.Catalog())
	assert.Equal(t, "inline", e.Policy().Name())
}

func TestPendingActivity(t *testing.T) {
	h := newHarness(t, highArchitect)
	ctx := context.Background()

	res, err := h.engine.Submit(ctx, submission(t, leads.LeadArchitect))
	require.NoError(t, err)
	require.NotNil(t, res.Approval)
	require.NotNil(t, res.FollowUp)

	_, err = h.engine.pendingActivity(ctx, res.Approval.ID, model.ActivityFollowUp)
	assert.ErrorIs(t, err, common.ErrWrongActivityType)

	_, err = h.engine.pendingActivity(ctx, "missing", model.ActivityApproval)
	assert.True(t, IsNotFound(err))

	got, err := h.engine.pendingActivity(ctx, res.FollowUp.ID, model.ActivityFollowUp)
	require.NoError(t, err)
	assert.Equal(t, res.FollowUp.ID, got.ID)
}
