package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/Veraticus/leadflow/internal/common"
	"github.com/Veraticus/leadflow/internal/model"
	"github.com/Veraticus/leadflow/internal/service"
)

// ResolvedListLimit caps listings of approved or rejected approvals.
const ResolvedListLimit = 100

// ApprovalStats counts approval activities by status.
type ApprovalStats struct {
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Total    int `json:"total"`
}

// ListApprovals returns approval activities with the given status, newest
// first. Pending approvals are never truncated; resolved ones are capped at
// ResolvedListLimit.
func (e *Engine) ListApprovals(ctx context.Context, status model.ActivityStatus) ([]model.Activity, error) {
	if status == "" {
		status = model.ActivityPending
	}
	filter := service.ActivityFilter{Type: model.ActivityApproval, Status: status, NewestFirst: true}
	switch status {
	case model.ActivityPending:
	case model.ActivityApproved, model.ActivityRejected:
		filter.Limit = ResolvedListLimit
	default:
		return nil, fmt.Errorf("%w: approval status %q", common.ErrInvalidStatus, status)
	}
	return e.store.ListActivities(ctx, filter)
}

// Approve resolves a pending approval in the lead's favour.
func (e *Engine) Approve(ctx context.Context, id, notes, actor string) (*model.Activity, error) {
	notes = strings.TrimSpace(notes)
	message := "Approval granted"
	if notes != "" {
		message += ": " + notes
	}
	return e.resolveApproval(ctx, id, model.ActivityApproved, actor, message, notes, func(m *model.ApprovalMetadata) {
		m.ApprovalNotes = notes
	})
}

// Reject resolves a pending approval against the lead. A reason is required.
func (e *Engine) Reject(ctx context.Context, id, reason, actor string) (*model.Activity, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, common.ErrReasonRequired
	}
	return e.resolveApproval(ctx, id, model.ActivityRejected, actor, "Approval rejected: "+reason, reason, func(m *model.ApprovalMetadata) {
		m.RejectionReason = reason
	})
}

func (e *Engine) resolveApproval(ctx context.Context, id string, status model.ActivityStatus, actor, note, detail string, annotate func(*model.ApprovalMetadata)) (*model.Activity, error) {
	a, err := e.pendingActivity(ctx, id, model.ActivityApproval)
	if err != nil {
		return nil, err
	}

	now := e.clock()
	meta, ok := a.Metadata.(*model.ApprovalMetadata)
	if !ok || meta == nil {
		meta = &model.ApprovalMetadata{}
	}
	meta.ResolvedAt = &now
	annotate(meta)

	a.Status = status
	a.Metadata = meta
	a.ActorType = model.ActorUser
	a.ActorID = strings.TrimSpace(actor)
	a.UpdatedAt = now
	if err := e.store.UpdateActivity(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to resolve approval: %w", err)
	}

	decision := "approved"
	if status == model.ActivityRejected {
		decision = "rejected"
	}
	if err := e.record(ctx, &model.Activity{
		LeadID:    a.LeadID,
		Type:      model.ActivityNote,
		Status:    model.ActivityCompleted,
		Message:   note,
		ActorType: model.ActorUser,
		ActorID:   a.ActorID,
		Metadata: &model.NoteMetadata{
			RelatedActivityID: a.ID,
			Decision:          decision,
			Notes:             detail,
		},
		CreatedAt: now,
	}); err != nil {
		e.logger.Warn("Failed to log approval note", "approval_id", id, "error", err)
	}

	e.logger.Info("Approval resolved", "approval_id", id, "lead_id", a.LeadID, "decision", decision)
	return a, nil
}

// ApprovalStats counts approvals by status.
func (e *Engine) ApprovalStats(ctx context.Context) (ApprovalStats, error) {
	all, err := e.store.ListActivities(ctx, service.ActivityFilter{Type: model.ActivityApproval})
	if err != nil {
		return ApprovalStats{}, err
	}

	var stats ApprovalStats
	for _, a := range all {
		switch a.Status {
		case model.ActivityPending:
			stats.Pending++
		case model.ActivityApproved:
			stats.Approved++
		case model.ActivityRejected:
			stats.Rejected++
		}
	}
	stats.Total = stats.Pending + stats.Approved + stats.Rejected
	return stats, nil
}
