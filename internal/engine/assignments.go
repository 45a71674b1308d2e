package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Veraticus/leadflow/internal/common"
	"github.com/Veraticus/leadflow/internal/model"
	"github.com/Veraticus/leadflow/internal/service"
)

// CompleteAssignment closes an active assignment at the given time, or now
// when at is zero, and scores it against its SLA.
func (e *Engine) CompleteAssignment(ctx context.Context, id string, at time.Time) (*model.Assignment, error) {
	a, err := e.activeAssignment(ctx, id)
	if err != nil {
		return nil, err
	}
	if at.IsZero() {
		at = e.clock()
	}

	a.Complete(at.UTC())
	if err := e.store.UpdateAssignment(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to complete assignment: %w", err)
	}

	e.logger.Info("Assignment completed",
		"assignment_id", id,
		"lead_id", a.LeadID,
		"sla_met", *a.SLAMet,
		"response_minutes", *a.ResponseTimeMinutes)
	return a, nil
}

// Reassignment describes a hand-off to a new owner.
type Reassignment struct {
	Deadline  time.Time
	OwnerID   string
	OwnerName string
	Reason    string
}

// Reassign closes an active assignment as reassigned and opens a new one for
// the same lead. A zero deadline keeps the original SLA deadline.
func (e *Engine) Reassign(ctx context.Context, id string, r Reassignment) (*model.Assignment, error) {
	r.OwnerID = strings.TrimSpace(r.OwnerID)
	if r.OwnerID == "" {
		return nil, fmt.Errorf("%w: owner is required", common.ErrInvalidSubmission)
	}
	if strings.TrimSpace(r.OwnerName) == "" {
		r.OwnerName = r.OwnerID
	}

	prev, err := e.activeAssignment(ctx, id)
	if err != nil {
		return nil, err
	}

	now := e.clock()
	deadline := r.Deadline.UTC()
	if r.Deadline.IsZero() {
		deadline = prev.SLADeadline
	}

	prev.Status = model.AssignmentReassigned
	if err := e.store.UpdateAssignment(ctx, prev); err != nil {
		return nil, fmt.Errorf("failed to close previous assignment: %w", err)
	}

	next := &model.Assignment{
		ID:          e.newID(),
		LeadID:      prev.LeadID,
		OwnerID:     r.OwnerID,
		OwnerName:   r.OwnerName,
		Status:      model.AssignmentActive,
		AssignedAt:  now,
		SLADeadline: deadline,
	}
	if err := e.store.CreateAssignment(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to create assignment: %w", err)
	}

	if err := e.record(ctx, &model.Activity{
		LeadID:    next.LeadID,
		Type:      model.ActivityAssignment,
		Status:    model.ActivityCompleted,
		Message:   fmt.Sprintf("Lead reassigned to %s", next.OwnerName),
		ActorType: model.ActorUser,
		Metadata: &model.AssignmentMetadata{
			AssignmentID:         next.ID,
			OwnerID:              next.OwnerID,
			OwnerName:            next.OwnerName,
			SLADeadline:          next.SLADeadline,
			SLAHours:             next.SLADeadline.Sub(now).Hours(),
			PreviousAssignmentID: prev.ID,
			Reason:               strings.TrimSpace(r.Reason),
		},
		CreatedAt: now,
	}); err != nil {
		e.logger.Warn("Failed to log reassignment", "lead_id", next.LeadID, "error", err)
	}

	e.logger.Info("Lead reassigned", "lead_id", next.LeadID, "from", prev.OwnerID, "to", next.OwnerID)
	return next, nil
}

// SLAViolations lists active assignments past their deadline, most overdue first.
func (e *Engine) SLAViolations(ctx context.Context, now time.Time) ([]model.SLAViolation, error) {
	active, err := e.store.ListAssignments(ctx, service.AssignmentFilter{Status: model.AssignmentActive})
	if err != nil {
		return nil, err
	}

	var out []model.SLAViolation
	for _, a := range active {
		if !a.Overdue(now) {
			continue
		}
		v := model.SLAViolation{
			Assignment:     a,
			MinutesOverdue: int(now.Sub(a.SLADeadline) / time.Minute),
		}
		if lead, err := e.store.GetLead(ctx, a.LeadID); err == nil {
			v.LeadName = lead.Name
			v.LeadEmail = lead.Email
		} else {
			e.logger.Warn("SLA violation for missing lead", "assignment_id", a.ID, "lead_id", a.LeadID, "error", err)
		}
		out = append(out, v)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MinutesOverdue > out[j].MinutesOverdue
	})
	return out, nil
}

func (e *Engine) activeAssignment(ctx context.Context, id string) (*model.Assignment, error) {
	a, err := e.store.GetAssignment(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status != model.AssignmentActive {
		return nil, fmt.Errorf("%w: assignment %s is %s", common.ErrAlreadyResolved, id, a.Status)
	}
	return a, nil
}
