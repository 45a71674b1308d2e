package engine

import (
	"context"
	"math"
	"time"

	"github.com/Veraticus/leadflow/internal/model"
	"github.com/Veraticus/leadflow/internal/service"
)

// Dashboard is the pipeline summary shown to operators.
type Dashboard struct {
	TotalLeads             int     `json:"total_leads"`
	NewLeadsToday          int     `json:"new_leads_today"`
	PendingFollowUps       int     `json:"pending_follow_ups"`
	PendingApprovals       int     `json:"pending_approvals"`
	SLAViolations          int     `json:"sla_violations"`
	AvgResponseTimeMinutes float64 `json:"avg_response_time_minutes"`
	ConversionRate         float64 `json:"conversion_rate"`
}

// FunnelStage is the number of leads currently in one status.
type FunnelStage struct {
	Status model.LeadStatus `json:"status"`
	Count  int              `json:"count"`
}

// SLAPerformance summarizes how quickly assignments were worked.
type SLAPerformance struct {
	TotalAssignments       int     `json:"total_assignments"`
	Completed              int     `json:"completed"`
	SLAMetRate             float64 `json:"sla_met_rate"`
	AvgResponseTimeMinutes float64 `json:"avg_response_time_minutes"`
}

// Dashboard computes the operator summary as of now. "Today" is the UTC day.
func (e *Engine) Dashboard(ctx context.Context, now time.Time) (Dashboard, error) {
	leads, err := e.store.ListLeads(ctx, service.LeadFilter{})
	if err != nil {
		return Dashboard{}, err
	}
	now = now.UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var d Dashboard
	converted := 0
	for _, l := range leads {
		d.TotalLeads++
		if !l.CreatedAt.Before(midnight) {
			d.NewLeadsToday++
		}
		if l.Status == model.LeadStatusConverted {
			converted++
		}
	}
	if d.TotalLeads > 0 {
		d.ConversionRate = round(float64(converted)/float64(d.TotalLeads)*100, 2)
	}

	followUps, err := e.store.ListActivities(ctx, service.ActivityFilter{Type: model.ActivityFollowUp, Status: model.ActivityPending})
	if err != nil {
		return Dashboard{}, err
	}
	d.PendingFollowUps = len(followUps)

	approvals, err := e.store.ListActivities(ctx, service.ActivityFilter{Type: model.ActivityApproval, Status: model.ActivityPending})
	if err != nil {
		return Dashboard{}, err
	}
	d.PendingApprovals = len(approvals)

	assignments, err := e.store.ListAssignments(ctx, service.AssignmentFilter{})
	if err != nil {
		return Dashboard{}, err
	}
	for _, a := range assignments {
		if a.Overdue(now) {
			d.SLAViolations++
		}
	}
	d.AvgResponseTimeMinutes = round(avgResponse(assignments), 0)

	return d, nil
}

// ConversionFunnel counts leads per status in pipeline order. Every status
// appears, including empty ones.
func (e *Engine) ConversionFunnel(ctx context.Context) ([]FunnelStage, error) {
	leads, err := e.store.ListLeads(ctx, service.LeadFilter{})
	if err != nil {
		return nil, err
	}

	counts := make(map[model.LeadStatus]int, len(model.LeadStatuses))
	for _, l := range leads {
		counts[l.Status]++
	}

	funnel := make([]FunnelStage, 0, len(model.LeadStatuses))
	for _, s := range model.LeadStatuses {
		funnel = append(funnel, FunnelStage{Status: s, Count: counts[s]})
	}
	return funnel, nil
}

// SLAPerformance scores completed assignments against their deadlines.
func (e *Engine) SLAPerformance(ctx context.Context) (SLAPerformance, error) {
	assignments, err := e.store.ListAssignments(ctx, service.AssignmentFilter{})
	if err != nil {
		return SLAPerformance{}, err
	}

	p := SLAPerformance{TotalAssignments: len(assignments)}
	met := 0
	for _, a := range assignments {
		if a.Status != model.AssignmentCompleted {
			continue
		}
		p.Completed++
		if a.SLAMet != nil && *a.SLAMet {
			met++
		}
	}
	if p.Completed > 0 {
		p.SLAMetRate = round(float64(met)/float64(p.Completed)*100, 2)
	}
	p.AvgResponseTimeMinutes = round(avgResponse(assignments), 0)
	return p, nil
}

func avgResponse(assignments []model.Assignment) float64 {
	var sum, n int
	for _, a := range assignments {
		if a.ResponseTimeMinutes != nil {
			sum += *a.ResponseTimeMinutes
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func round(f float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(f*p) / p
}
