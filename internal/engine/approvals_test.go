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

func submitApprovals(t *testing.T, h *harness, n int) []*IntakeResult {
	t.Helper()
	out := make([]*IntakeResult, 0, n)
	for i := 0; i < n; i++ {
		res, err := h.engine.Submit(context.Background(), submission(t, leads.LeadArchitect))
		require.NoError(t, err)
		require.NotNil(t, res.Approval)
		out = append(out, res)
		h.advance(time.Minute)
	}
	return out
}

func TestApprove(t *testing.T) {
	h := newHarness(t, highArchitect)
	ctx := context.Background()
	res := submitApprovals(t, h, 1)[0]

	resolved, err := h.engine.Approve(ctx, res.Approval.ID, "  OK to quote at tier 2 ", "manager@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.ActivityApproved, resolved.Status)
	meta := resolved.Metadata.(*model.ApprovalMetadata)
	assert.Equal(t, "OK to quote at tier 2", meta.ApprovalNotes)
	require.NotNil(t, meta.ResolvedAt)

	stored, err := h.store.GetActivity(ctx, res.Approval.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ActivityApproved, stored.Status)
	assert.Equal(t, "manager@example.com", stored.ActorID)

	notes := h.activities(t, res.Lead.ID, model.ActivityNote)
	require.Len(t, notes, 1)
	assert.Equal(t, "Approval granted: OK to quote at tier 2", notes[0].Message)
	note := notes[0].Metadata.(*model.NoteMetadata)
	assert.Equal(t, res.Approval.ID, note.RelatedActivityID)
	assert.Equal(t, "approved", note.Decision)

	_, err = h.engine.Approve(ctx, res.Approval.ID, "", "")
	assert.ErrorIs(t, err, common.ErrAlreadyResolved)
}

func TestApprove_WithoutNotes(t *testing.T) {
	h := newHarness(t, highArchitect)
	res := submitApprovals(t, h, 1)[0]

	_, err := h.engine.Approve(context.Background(), res.Approval.ID, "", "")
	require.NoError(t, err)

	notes := h.activities(t, res.Lead.ID, model.ActivityNote)
	require.Len(t, notes, 1)
	assert.Equal(t, "Approval granted", notes[0].Message)
}

func TestReject(t *testing.T) {
	h := newHarness(t, highArchitect)
	ctx := context.Background()
	res := submitApprovals(t, h, 1)[0]

	_, err := h.engine.Reject(ctx, res.Approval.ID, "   ", "")
	assert.ErrorIs(t, err, common.ErrReasonRequired)

	resolved, err := h.engine.Reject(ctx, res.Approval.ID, "Below minimum margin", "manager")
	require.NoError(t, err)
	assert.Equal(t, model.ActivityRejected, resolved.Status)
	assert.Equal(t, "Below minimum margin", resolved.Metadata.(*model.ApprovalMetadata).RejectionReason)

	notes := h.activities(t, res.Lead.ID, model.ActivityNote)
	require.Len(t, notes, 1)
	assert.Equal(t, "Approval rejected: Below minimum margin", notes[0].Message)

	_, err = h.engine.Approve(ctx, res.Approval.ID, "", "")
	assert.ErrorIs(t, err, common.ErrAlreadyResolved)
}

func TestResolveApproval_WrongType(t *testing.T) {
	h := newHarness(t, highArchitect)
	res := submitApprovals(t, h, 1)[0]

	_, err := h.engine.Approve(context.Background(), res.FollowUp.ID, "", "")
	assert.ErrorIs(t, err, common.ErrWrongActivityType)

	_, err = h.engine.Reject(context.Background(), "missing", "reason", "")
	assert.True(t, IsNotFound(err))
}

func TestListApprovalsAndStats(t *testing.T) {
	h := newHarness(t, highArchitect)
	ctx := context.Background()
	results := submitApprovals(t, h, 4)

	_, err := h.engine.Approve(ctx, results[0].Approval.ID, "", "")
	require.NoError(t, err)
	_, err = h.engine.Reject(ctx, results[1].Approval.ID, "no", "")
	require.NoError(t, err)

	pending, err := h.engine.ListApprovals(ctx, "")
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, results[3].Approval.ID, pending[0].ID, "newest first")

	approved, err := h.engine.ListApprovals(ctx, model.ActivityApproved)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, results[0].Approval.ID, approved[0].ID)

	_, err = h.engine.ListApprovals(ctx, model.ActivityCompleted)
	assert.ErrorIs(t, err, common.ErrInvalidStatus)

	stats, err := h.engine.ApprovalStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, ApprovalStats{Pending: 2, Approved: 1, Rejected: 1, Total: 4}, stats)
}
