package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/Veraticus/leadflow/internal/common"
	"github.com/Veraticus/leadflow/internal/model"
	"github.com/Veraticus/leadflow/internal/service"
)

// ListLeads returns leads newest first.
func (e *Engine) ListLeads(ctx context.Context, filter service.LeadFilter) ([]model.Lead, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", common.ErrInvalidStatus, filter.Status)
	}
	return e.store.ListLeads(ctx, filter)
}

// GetLeadDetails returns a lead with its products, its activity log newest
// first, and its assignment history.
func (e *Engine) GetLeadDetails(ctx context.Context, id string) (*model.LeadDetails, error) {
	lead, err := e.store.GetLead(ctx, id)
	if err != nil {
		return nil, err
	}
	products, err := e.store.ListProducts(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	activities, err := e.store.ListActivities(ctx, service.ActivityFilter{LeadID: id, NewestFirst: true})
	if err != nil {
		return nil, fmt.Errorf("failed to load activity: %w", err)
	}
	assignments, err := e.store.ListAssignments(ctx, service.AssignmentFilter{LeadID: id})
	if err != nil {
		return nil, fmt.Errorf("failed to load assignments: %w", err)
	}

	return &model.LeadDetails{
		Lead:        *lead,
		Products:    products,
		Activities:  activities,
		Assignments: assignments,
	}, nil
}

// UpdateLead corrects a lead's contact fields.
func (e *Engine) UpdateLead(ctx context.Context, id string, update model.LeadUpdate) (*model.Lead, error) {
	if err := e.validateUpdate(update); err != nil {
		return nil, err
	}
	lead, err := e.store.GetLead(ctx, id)
	if err != nil {
		return nil, err
	}

	update.Apply(lead)
	lead.UpdatedAt = e.clock()
	if err := e.store.UpdateLead(ctx, lead); err != nil {
		return nil, fmt.Errorf("failed to update lead: %w", err)
	}
	return lead, nil
}

// UpdateStatus moves a lead through the pipeline and logs the transition.
// Moving to contacted stamps last_contact_at; moving to converted stamps the
// conversion date.
func (e *Engine) UpdateStatus(ctx context.Context, id string, status model.LeadStatus, actor string) (*model.Lead, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", common.ErrInvalidStatus, status)
	}
	lead, err := e.store.GetLead(ctx, id)
	if err != nil {
		return nil, err
	}

	now := e.clock()
	old := lead.Status
	lead.Status = status
	lead.UpdatedAt = now
	switch status {
	case model.LeadStatusContacted:
		lead.LastContactAt = &now
	case model.LeadStatusConverted:
		lead.ConversionDate = &now
	}
	if err := e.store.UpdateLead(ctx, lead); err != nil {
		return nil, fmt.Errorf("failed to update status: %w", err)
	}

	actor = strings.TrimSpace(actor)
	if err := e.record(ctx, &model.Activity{
		LeadID:    id,
		Type:      model.ActivityStatusChange,
		Status:    model.ActivityCompleted,
		Message:   fmt.Sprintf("Status changed to %s", status),
		ActorType: model.ActorUser,
		ActorID:   actor,
		Metadata:  &model.StatusChangeMetadata{OldStatus: old, NewStatus: status, ChangedBy: actor},
		CreatedAt: now,
	}); err != nil {
		e.logger.Error("Status changed without an activity entry", "lead_id", id, "to", status, "error", err)
		return nil, fmt.Errorf("failed to log status change: %w", err)
	}

	e.logger.Info("Lead status changed", "lead_id", id, "from", old, "to", status)
	return lead, nil
}

// Recategorize runs a fresh categorization for an existing lead, bypassing
// any cached result, and logs it as an operator request.
func (e *Engine) Recategorize(ctx context.Context, id string) (*model.CategorizationResult, error) {
	lead, err := e.store.GetLead(ctx, id)
	if err != nil {
		return nil, err
	}
	products, err := e.store.ListProducts(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	result := e.categorizer.CategorizeFresh(ctx, model.InputFromLead(*lead, products))
	rule := e.catalog.Match(result.Output)

	if err := e.record(ctx, &model.Activity{
		LeadID:    id,
		Type:      model.ActivityAIResult,
		Status:    model.ActivityCompleted,
		Message:   "Manual re-categorization requested",
		ActorType: model.ActorUser,
		Metadata:  &model.AIResultMetadata{RuleName: rule.Name, CategorizationResult: result},
		CreatedAt: e.clock(),
	}); err != nil {
		return nil, err
	}

	e.logger.Info("Lead recategorized", "lead_id", id, "priority", result.Output.Priority, "method", result.Method)
	return &result, nil
}
