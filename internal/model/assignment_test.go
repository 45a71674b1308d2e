package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignment_Complete(t *testing.T) {
	assigned := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		completedAt time.Time
		wantMet     bool
		wantMinutes int
	}{
		{name: "inside SLA", completedAt: assigned.Add(45 * time.Minute), wantMet: true, wantMinutes: 45},
		{name: "exactly at deadline", completedAt: assigned.Add(time.Hour), wantMet: true, wantMinutes: 60},
		{name: "late", completedAt: assigned.Add(90*time.Minute + 30*time.Second), wantMet: false, wantMinutes: 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Assignment{
				AssignedAt:  assigned,
				SLADeadline: assigned.Add(time.Hour),
				Status:      AssignmentActive,
			}
			a.Complete(tt.completedAt)

			require.NotNil(t, a.SLAMet)
			require.NotNil(t, a.ResponseTimeMinutes)
			assert.Equal(t, tt.wantMet, *a.SLAMet)
			assert.Equal(t, tt.wantMinutes, *a.ResponseTimeMinutes)
			assert.Equal(t, AssignmentCompleted, a.Status)
		})
	}
}

func TestAssignment_Overdue(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	a := Assignment{SLADeadline: now.Add(-time.Minute), Status: AssignmentActive}
	assert.True(t, a.Overdue(now))

	a.Status = AssignmentCompleted
	assert.False(t, a.Overdue(now))
}

func TestLeadStatus_Valid(t *testing.T) {
	for _, s := range LeadStatuses {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, LeadStatus("archived").Valid())
}
