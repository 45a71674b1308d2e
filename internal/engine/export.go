package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/leadflow/internal/model"
	"github.com/Veraticus/leadflow/internal/service"
)

// PipelineReport is a snapshot of the whole pipeline for export.
type PipelineReport struct {
	GeneratedAt time.Time
	Dashboard   Dashboard
	SLA         SLAPerformance
	Funnel      []FunnelStage
	Leads       []LeadRow
}

// LeadRow flattens a lead with its latest triage and current owner.
type LeadRow struct {
	Lead         model.Lead
	NextFollowUp *time.Time
	Products     []string
	Priority     model.Priority
	LeadType     model.LeadType
	RuleName     model.RuleName
	Method       model.CategorizationMethod
	Owner        string
}

// PipelineReport gathers the dashboard, funnel, SLA figures and one row per lead.
func (e *Engine) PipelineReport(ctx context.Context, now time.Time) (*PipelineReport, error) {
	dash, err := e.Dashboard(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to compute dashboard: %w", err)
	}
	funnel, err := e.ConversionFunnel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute funnel: %w", err)
	}
	sla, err := e.SLAPerformance(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute SLA performance: %w", err)
	}

	leads, err := e.store.ListLeads(ctx, service.LeadFilter{})
	if err != nil {
		return nil, err
	}

	// Oldest first, so later results overwrite earlier ones.
	triage := make(map[string]*model.AIResultMetadata)
	results, err := e.store.ListActivities(ctx, service.ActivityFilter{Type: model.ActivityAIResult})
	if err != nil {
		return nil, err
	}
	for _, a := range results {
		if meta, ok := a.Metadata.(*model.AIResultMetadata); ok {
			triage[a.LeadID] = meta
		}
	}

	next := make(map[string]time.Time)
	followUps, err := e.store.ListActivities(ctx, service.ActivityFilter{Type: model.ActivityFollowUp, Status: model.ActivityPending})
	if err != nil {
		return nil, err
	}
	for _, a := range followUps {
		meta := followUpMeta(a)
		if cur, ok := next[a.LeadID]; !ok || meta.ScheduledFor.Before(cur) {
			next[a.LeadID] = meta.ScheduledFor
		}
	}

	owners := make(map[string]string)
	active, err := e.store.ListAssignments(ctx, service.AssignmentFilter{Status: model.AssignmentActive})
	if err != nil {
		return nil, err
	}
	for _, a := range active {
		owners[a.LeadID] = a.OwnerName
	}

	rows := make([]LeadRow, 0, len(leads))
	for _, l := range leads {
		products, err := e.store.ListProducts(ctx, l.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load products for %s: %w", l.ID, err)
		}
		row := LeadRow{
			Lead:     l,
			Products: productNames(products),
			Owner:    owners[l.ID],
		}
		if meta := triage[l.ID]; meta != nil {
			row.Priority = meta.Output.Priority
			row.LeadType = meta.Output.LeadType
			row.RuleName = meta.RuleName
			row.Method = meta.Method
		}
		if at, ok := next[l.ID]; ok {
			row.NextFollowUp = &at
		}
		rows = append(rows, row)
	}

	return &PipelineReport{
		GeneratedAt: now.UTC(),
		Dashboard:   dash,
		SLA:         sla,
		Funnel:      funnel,
		Leads:       rows,
	}, nil
}
