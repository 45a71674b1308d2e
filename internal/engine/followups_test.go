package engine

import (
	"context"
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

func TestFollowUpLifecycle(t *testing.T) {
	h := newHarness(t, highArchitect)
	ctx := context.Background()

	first, err := h.engine.Submit(ctx, submission(t, leads.LeadArchitect))
	require.NoError(t, err)
	h.advance(time.Minute)
	h.categorizer.Output = mediumHomeowner
	second, err := h.engine.Submit(ctx, submission(t, leads.LeadHomeowner))
	require.NoError(t, err)
	h.advance(time.Minute)
	h.categorizer.Output = model.Categorization{Priority: model.PriorityLow, Intent: model.IntentInformation}
	third, err := h.engine.Submit(ctx, submission(t, leads.LeadNoProducts))
	require.NoError(t, err)

	pending, err := h.engine.ListFollowUps(ctx, FollowUpsPending)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, first.FollowUp.ID, pending[0].ID, "oldest first")
	assert.Equal(t, "Dana Whitfield", pending[0].LeadName)
	assert.Equal(t, "dana@whitfield-studio.example", pending[0].LeadEmail)
	assert.Equal(t, model.LeadStatusNew, pending[0].LeadStatus)
	assert.Equal(t, []string{"Wide Plank Oak"}, pending[0].Products)
	assert.Equal(t, model.FollowUpCall, pending[0].FollowUp.Action)

	until := testNow.Add(48 * time.Hour)
	snoozed, err := h.engine.SnoozeFollowUp(ctx, second.FollowUp.ID, until)
	require.NoError(t, err)
	meta := snoozed.Metadata.(*model.FollowUpMetadata)
	assert.True(t, meta.Snoozed)
	assert.Equal(t, until, meta.ScheduledFor)
	require.NotNil(t, meta.SnoozedAt)
	assert.Equal(t, model.ActivityPending, snoozed.Status)

	done, err := h.engine.CompleteFollowUp(ctx, first.FollowUp.ID, " Left voicemail ")
	require.NoError(t, err)
	assert.Equal(t, model.ActivityCompleted, done.Status)
	assert.Equal(t, "Left voicemail", done.Metadata.(*model.FollowUpMetadata).CompletionNotes)

	_, err = h.engine.CompleteFollowUp(ctx, first.FollowUp.ID, "")
	assert.ErrorIs(t, err, common.ErrAlreadyResolved)

	views := map[FollowUpView][]string{
		FollowUpsPending:   {second.FollowUp.ID, third.FollowUp.ID},
		FollowUpsSnoozed:   {second.FollowUp.ID},
		FollowUpsCompleted: {first.FollowUp.ID},
	}
	for view, want := range views {
		items, err := h.engine.ListFollowUps(ctx, view)
		require.NoError(t, err)
		var got []string
		for _, item := range items {
			got = append(got, item.ID)
		}
		assert.Equal(t, want, got, "view %s", view)
	}

	stats, err := h.engine.FollowUpStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, FollowUpStats{Pending: 1, Completed: 1, Snoozed: 1, Medium: 1, Low: 1, Total: 3}, stats)

	_, err = h.engine.ListFollowUps(ctx, "overdue")
	assert.ErrorIs(t, err, common.ErrInvalidStatus)
}

func TestSnoozeFollowUp_Validation(t *testing.T) {
	h := newHarness(t, highArchitect)
	ctx := context.Background()
	res, err := h.engine.Submit(ctx, submission(t, leads.LeadArchitect))
	require.NoError(t, err)

	tests := []struct {
		name  string
		id    string
		until time.Time
		want  error
	}{
		{"missing time", res.FollowUp.ID, time.Time{}, common.ErrInvalidSnooze},
		{"time in the past", res.FollowUp.ID, testNow.Add(-time.Hour), common.ErrInvalidSnooze},
		{"time equal to now", res.FollowUp.ID, testNow, common.ErrInvalidSnooze},
		{"not a follow-up", res.Approval.ID, testNow.Add(time.Hour), common.ErrWrongActivityType},
		{"unknown id", "missing", testNow.Add(time.Hour), common.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.engine.SnoozeFollowUp(ctx, tt.id, tt.until)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDueFollowUps(t *testing.T) {
	h := newHarness(t, mediumHomeowner)
	ctx := context.Background()

	medium, err := h.engine.Submit(ctx, submission(t, leads.LeadHomeowner))
	require.NoError(t, err)
	h.categorizer.Output = highArchitect
	high, err := h.engine.Submit(ctx, submission(t, leads.LeadArchitect))
	require.NoError(t, err)

	due, err := h.engine.DueFollowUps(ctx, testNow.Add(10*time.Minute))
	require.NoError(t, err)
	assert.Empty(t, due)

	due, err = h.engine.DueFollowUps(ctx, testNow.Add(30*time.Minute))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, high.FollowUp.ID, due[0].ID)

	due, err = h.engine.DueFollowUps(ctx, testNow.Add(25*time.Hour))
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, high.FollowUp.ID, due[0].ID, "earliest first")
	assert.Equal(t, medium.FollowUp.ID, due[1].ID)
}

func TestListFollowUps_SkipsUnavailableLead(t *testing.T) {
	var faulty *testutil.FaultyStorage
	h := newHarness(t, highArchitect, withStore(func(s service.Storage) service.Storage {
		faulty = &testutil.FaultyStorage{Storage: s}
		return faulty
	}))
	ctx := context.Background()

	_, err := h.engine.Submit(ctx, submission(t, leads.LeadArchitect))
	require.NoError(t, err)
	h.advance(time.Minute)
	h.categorizer.Output = mediumHomeowner
	kept, err := h.engine.Submit(ctx, submission(t, leads.LeadHomeowner))
	require.NoError(t, err)

	// The oldest follow-up's lead is looked up first.
	faulty.FailGetLead = 1

	items, err := h.engine.ListFollowUps(ctx, FollowUpsPending)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, kept.FollowUp.ID, items[0].ID)
	assert.Equal(t, "Sam Rivera", items[0].LeadName)
}
