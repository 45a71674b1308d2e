package engine

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/leadflow/internal/common"
	"github.com/Veraticus/leadflow/internal/model"
	"github.com/Veraticus/leadflow/internal/testutil/leads"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteAssignment(t *testing.T) {
	tests := []struct {
		name        string
		after       time.Duration
		wantMet     bool
		wantMinutes int
	}{
		{"inside SLA", 45 * time.Minute, true, 45},
		{"on the deadline", time.Hour, true, 60},
		{"late", 90 * time.Minute, false, 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, highArchitect)
			ctx := context.Background()
			res, err := h.engine.Submit(ctx, submission(t, leads.LeadArchitect))
			require.NoError(t, err)

			a, err := h.engine.CompleteAssignment(ctx, res.Assignment.ID, testNow.Add(tt.after))
			require.NoError(t, err)
			assert.Equal(t, model.AssignmentCompleted, a.Status)
			assert.Equal(t, tt.wantMet, *a.SLAMet)
			assert.Equal(t, tt.wantMinutes, *a.ResponseTimeMinutes)

			_, err = h.engine.CompleteAssignment(ctx, res.Assignment.ID, time.Time{})
			assert.ErrorIs(t, err, common.ErrAlreadyResolved)
		})
	}
}

func TestReassign(t *testing.T) {
	h := newHarness(t, highArchitect)
	ctx := context.Background()
	res, err := h.engine.Submit(ctx, submission(t, leads.LeadArchitect))
	require.NoError(t, err)

	_, err = h.engine.Reassign(ctx, res.Assignment.ID, Reassignment{})
	assert.ErrorIs(t, err, common.ErrInvalidSubmission)

	h.advance(10 * time.Minute)
	next, err := h.engine.Reassign(ctx, res.Assignment.ID, Reassignment{
		OwnerID: "rep-7",
		Reason:  "territory",
	})
	require.NoError(t, err)
	assert.Equal(t, "rep-7", next.OwnerName)
	assert.Equal(t, res.Assignment.SLADeadline, next.SLADeadline)
	assert.Equal(t, testNow.Add(10*time.Minute), next.AssignedAt)

	prev, err := h.store.GetAssignment(ctx, res.Assignment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AssignmentReassigned, prev.Status)

	logged := h.activities(t, res.Lead.ID, model.ActivityAssignment)
	require.Len(t, logged, 2)
	meta := logged[1].Metadata.(*model.AssignmentMetadata)
	assert.Equal(t, res.Assignment.ID, meta.PreviousAssignmentID)
	assert.Equal(t, "territory", meta.Reason)

	_, err = h.engine.Reassign(ctx, res.Assignment.ID, Reassignment{OwnerID: "rep-8"})
	assert.ErrorIs(t, err, common.ErrAlreadyResolved)
}

func TestSLAViolations(t *testing.T) {
	h := newHarness(t, highArchitect)
	ctx := context.Background()

	high, err := h.engine.Submit(ctx, submission(t, leads.LeadArchitect))
	require.NoError(t, err)
	h.categorizer.Output = mediumHomeowner
	_, err = h.engine.Submit(ctx, submission(t, leads.LeadHomeowner))
	require.NoError(t, err)

	none, err := h.engine.SLAViolations(ctx, testNow.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, none)

	violations, err := h.engine.SLAViolations(ctx, testNow.Add(3*time.Hour))
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Equal(t, high.Assignment.ID, violations[0].Assignment.ID)
	assert.Equal(t, 120, violations[0].MinutesOverdue)
	assert.Equal(t, "Dana Whitfield", violations[0].LeadName)

	violations, err = h.engine.SLAViolations(ctx, testNow.Add(30*time.Hour))
	require.NoError(t, err)
	require.Len(t, violations, 2)
	assert.Equal(t, high.Assignment.ID, violations[0].Assignment.ID, "most overdue first")
}
