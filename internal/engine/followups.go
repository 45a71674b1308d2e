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

// FollowUpView selects which follow-ups a listing returns.
type FollowUpView string

// Follow-up views.
const (
	FollowUpsPending   FollowUpView = "pending"
	FollowUpsSnoozed   FollowUpView = "snoozed"
	FollowUpsCompleted FollowUpView = "completed"
)

// FollowUpListLimit caps every follow-up listing.
const FollowUpListLimit = 100

// FollowUpItem is a follow-up activity joined with the lead it belongs to.
type FollowUpItem struct {
	model.Activity
	FollowUp    model.FollowUpMetadata `json:"follow_up"`
	LeadName    string                 `json:"lead_name"`
	LeadEmail   string                 `json:"lead_email"`
	LeadPhone   string                 `json:"lead_phone,omitempty"`
	LeadCompany string                 `json:"lead_company,omitempty"`
	LeadStatus  model.LeadStatus       `json:"lead_status"`
	Products    []string               `json:"products"`
}

// FollowUpStats counts follow-ups by state and, for open ones, by priority.
type FollowUpStats struct {
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
	Snoozed   int `json:"snoozed"`
	High      int `json:"high"`
	Medium    int `json:"medium"`
	Low       int `json:"low"`
	Total     int `json:"total"`
}

// ListFollowUps returns up to FollowUpListLimit follow-ups for view. The
// pending view holds every open follow-up, snoozed ones included, oldest
// first; snoozed and completed come newest first.
func (e *Engine) ListFollowUps(ctx context.Context, view FollowUpView) ([]FollowUpItem, error) {
	var (
		activities []model.Activity
		err        error
	)
	switch view {
	case FollowUpsPending, "":
		activities, err = e.store.ListActivities(ctx, service.ActivityFilter{
			Type:   model.ActivityFollowUp,
			Status: model.ActivityPending,
			Limit:  FollowUpListLimit,
		})
	case FollowUpsSnoozed:
		activities, err = e.snoozedFollowUps(ctx)
	case FollowUpsCompleted:
		activities, err = e.store.ListActivities(ctx, service.ActivityFilter{
			Type:        model.ActivityFollowUp,
			Status:      model.ActivityCompleted,
			NewestFirst: true,
			Limit:       FollowUpListLimit,
		})
	default:
		return nil, fmt.Errorf("%w: follow-up view %q", common.ErrInvalidStatus, view)
	}
	if err != nil {
		return nil, err
	}
	if len(activities) > FollowUpListLimit {
		activities = activities[:FollowUpListLimit]
	}
	return e.enrichFollowUps(ctx, activities)
}

func (e *Engine) snoozedFollowUps(ctx context.Context) ([]model.Activity, error) {
	all, err := e.store.ListActivities(ctx, service.ActivityFilter{
		Type:        model.ActivityFollowUp,
		Status:      model.ActivityPending,
		NewestFirst: true,
	})
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, a := range all {
		if followUpMeta(a).Snoozed {
			out = append(out, a)
		}
	}
	return out, nil
}

// DueFollowUps returns every pending follow-up scheduled at or before now,
// earliest first. Snoozed follow-ups come due again at their new time.
func (e *Engine) DueFollowUps(ctx context.Context, now time.Time) ([]FollowUpItem, error) {
	all, err := e.store.ListActivities(ctx, service.ActivityFilter{
		Type:   model.ActivityFollowUp,
		Status: model.ActivityPending,
	})
	if err != nil {
		return nil, err
	}

	var due []model.Activity
	for _, a := range all {
		if !followUpMeta(a).ScheduledFor.After(now) {
			due = append(due, a)
		}
	}
	sort.SliceStable(due, func(i, j int) bool {
		return followUpMeta(due[i]).ScheduledFor.Before(followUpMeta(due[j]).ScheduledFor)
	})
	return e.enrichFollowUps(ctx, due)
}

// CompleteFollowUp marks a pending follow-up done.
func (e *Engine) CompleteFollowUp(ctx context.Context, id, notes string) (*model.Activity, error) {
	a, err := e.pendingActivity(ctx, id, model.ActivityFollowUp)
	if err != nil {
		return nil, err
	}

	now := e.clock()
	meta := followUpMeta(*a)
	meta.CompletedAt = &now
	meta.CompletionNotes = strings.TrimSpace(notes)

	a.Status = model.ActivityCompleted
	a.Metadata = &meta
	a.ActorType = model.ActorUser
	a.UpdatedAt = now
	if err := e.store.UpdateActivity(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to complete follow-up: %w", err)
	}

	e.logger.Info("Follow-up completed", "follow_up_id", id, "lead_id", a.LeadID)
	return a, nil
}

// SnoozeFollowUp pushes a pending follow-up to until, which must be in the future.
func (e *Engine) SnoozeFollowUp(ctx context.Context, id string, until time.Time) (*model.Activity, error) {
	now := e.clock()
	if until.IsZero() {
		return nil, fmt.Errorf("%w: snooze time is required", common.ErrInvalidSnooze)
	}
	if !until.After(now) {
		return nil, fmt.Errorf("%w: %s is not in the future", common.ErrInvalidSnooze, until.Format(time.RFC3339))
	}

	a, err := e.pendingActivity(ctx, id, model.ActivityFollowUp)
	if err != nil {
		return nil, err
	}

	meta := followUpMeta(*a)
	meta.ScheduledFor = until.UTC()
	meta.Snoozed = true
	meta.SnoozedAt = &now

	a.Metadata = &meta
	a.UpdatedAt = now
	if err := e.store.UpdateActivity(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to snooze follow-up: %w", err)
	}

	e.logger.Info("Follow-up snoozed", "follow_up_id", id, "lead_id", a.LeadID, "until", meta.ScheduledFor)
	return a, nil
}

// FollowUpStats counts follow-ups. Priority counts cover pending ones only.
func (e *Engine) FollowUpStats(ctx context.Context) (FollowUpStats, error) {
	all, err := e.store.ListActivities(ctx, service.ActivityFilter{Type: model.ActivityFollowUp})
	if err != nil {
		return FollowUpStats{}, err
	}

	var stats FollowUpStats
	for _, a := range all {
		meta := followUpMeta(a)
		switch {
		case a.Status == model.ActivityCompleted:
			stats.Completed++
			continue
		case a.Status != model.ActivityPending:
			continue
		case meta.Snoozed:
			stats.Snoozed++
		default:
			stats.Pending++
		}
		switch meta.Priority {
		case model.PriorityHigh:
			stats.High++
		case model.PriorityMedium:
			stats.Medium++
		case model.PriorityLow:
			stats.Low++
		}
	}
	stats.Total = stats.Pending + stats.Snoozed + stats.Completed
	return stats, nil
}

func (e *Engine) enrichFollowUps(ctx context.Context, activities []model.Activity) ([]FollowUpItem, error) {
	type leadInfo struct {
		lead     *model.Lead
		products []string
	}
	// A nil lead marks one that could not be loaded.
	seen := make(map[string]leadInfo)

	items := make([]FollowUpItem, 0, len(activities))
	for _, a := range activities {
		info, ok := seen[a.LeadID]
		if !ok {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			lead, err := e.store.GetLead(ctx, a.LeadID)
			if err != nil {
				e.logger.Warn("Skipping follow-up, lead unavailable",
					"follow_up_id", a.ID, "lead_id", a.LeadID, "error", err)
				seen[a.LeadID] = leadInfo{}
				continue
			}
			products, err := e.store.ListProducts(ctx, a.LeadID)
			if err != nil {
				e.logger.Warn("Failed to load products for follow-up",
					"follow_up_id", a.ID, "lead_id", a.LeadID, "error", err)
			}
			info = leadInfo{lead: lead, products: productNames(products)}
			seen[a.LeadID] = info
		}
		if info.lead == nil {
			continue
		}

		items = append(items, FollowUpItem{
			Activity:    a,
			FollowUp:    followUpMeta(a),
			LeadName:    info.lead.Name,
			LeadEmail:   info.lead.Email,
			LeadPhone:   info.lead.Phone,
			LeadCompany: info.lead.Company,
			LeadStatus:  info.lead.Status,
			Products:    info.products,
		})
	}
	return items, nil
}

func followUpMeta(a model.Activity) model.FollowUpMetadata {
	if m, ok := a.Metadata.(*model.FollowUpMetadata); ok && m != nil {
		return *m
	}
	return model.FollowUpMetadata{}
}
