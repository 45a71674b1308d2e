package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/leadflow/internal/model"
	"github.com/Veraticus/leadflow/internal/rules"
	"github.com/Veraticus/leadflow/internal/service"
)

type intakeState string

const (
	stateReceived          intakeState = "received"
	statePersisted         intakeState = "persisted"
	stateCategorized       intakeState = "categorized"
	stateAssigned          intakeState = "assigned"
	stateNotified          intakeState = "notified"
	stateApprovalChecked   intakeState = "approval_checked"
	stateFollowUpScheduled intakeState = "follow_up_scheduled"
	stateDone              intakeState = "done"
)

// IntakeResult is everything an intake produced. Secondary steps that failed
// leave their field empty; the lead itself is always present.
type IntakeResult struct {
	Lead           model.Lead                 `json:"lead"`
	Products       []model.ProductInterest    `json:"products"`
	Categorization model.Categorization       `json:"ai_categorization"`
	Method         model.CategorizationMethod `json:"categorization_method"`
	RuleName       model.RuleName             `json:"rule_name"`
	Assignment     *model.Assignment          `json:"assignment"`
	Approval       *model.Activity            `json:"approval,omitempty"`
	FollowUp       *model.Activity            `json:"follow_up,omitempty"`
	EmailSent      bool                       `json:"email_sent"`
}

// Submit runs the intake workflow for one submission. It fails only when the
// submission is invalid or the lead cannot be stored; every later step
// degrades into a failed activity or an empty result field.
func (e *Engine) Submit(ctx context.Context, sub model.LeadSubmission) (*IntakeResult, error) {
	sub, err := e.normalize(sub)
	if err != nil {
		return nil, err
	}

	now := e.clock()
	lead := model.Lead{
		ID:        e.newID(),
		Name:      sub.Name,
		Email:     sub.Email,
		Phone:     sub.Phone,
		Company:   sub.Company,
		Role:      sub.Role,
		Location:  sub.Location,
		Message:   sub.Message,
		Source:    sub.Source,
		Status:    model.LeadStatusNew,
		CreatedAt: now,
		UpdatedAt: now,
	}
	log := e.logger.With("lead_id", lead.ID)
	log.Debug("Intake advanced", "state", stateReceived)

	if err := e.store.CreateLead(ctx, &lead); err != nil {
		return nil, fmt.Errorf("failed to store lead: %w", err)
	}

	products := make([]model.ProductInterest, 0, len(sub.Products))
	for _, p := range sub.Products {
		products = append(products, model.ProductInterest{
			ID:        e.newID(),
			LeadID:    lead.ID,
			Category:  p.Category,
			Product:   p.Product,
			Quantity:  p.Quantity,
			Notes:     p.Notes,
			CreatedAt: now,
		})
	}
	if err := e.store.CreateProducts(ctx, products); err != nil {
		return nil, fmt.Errorf("failed to store product interests: %w", err)
	}
	log.Info("Stored lead", "products", len(products), "source", lead.Source)
	log.Debug("Intake advanced", "state", statePersisted)

	result := e.categorizer.Categorize(ctx, model.InputFromLead(lead, products))
	cat := result.Output
	rule := e.catalog.Match(cat)
	log.Info("Categorized lead",
		"priority", cat.Priority,
		"intent", cat.Intent,
		"lead_type", cat.LeadType,
		"method", result.Method,
		"rule", rule.Name)

	if err := e.record(ctx, &model.Activity{
		LeadID:    lead.ID,
		Type:      model.ActivityAIResult,
		Status:    model.ActivityCompleted,
		Message:   "AI analyzed lead and suggested priority action",
		ActorType: model.ActorAI,
		Metadata:  &model.AIResultMetadata{RuleName: rule.Name, CategorizationResult: result},
		CreatedAt: now,
	}); err != nil {
		log.Warn("Failed to log categorization", "error", err)
	}
	log.Debug("Intake advanced", "state", stateCategorized)

	sched, err := e.policy.Schedule(rule, cat)
	if err != nil {
		log.Warn("Timing policy failed, using inline timing", "policy", e.policy.Name(), "error", err)
		sched, _ = rules.InlinePolicy{}.Schedule(rule, cat)
	}

	out := &IntakeResult{
		Products:       products,
		Categorization: cat,
		Method:         result.Method,
		RuleName:       rule.Name,
	}

	out.Assignment = e.assign(ctx, &lead, rule, cat, sched, now)
	log.Debug("Intake advanced", "state", stateAssigned)

	out.EmailSent = e.acknowledge(ctx, &lead, products, sched.Template)
	log.Debug("Intake advanced", "state", stateNotified)

	out.Approval = e.requestApproval(ctx, &lead, products, cat, now)
	log.Debug("Intake advanced", "state", stateApprovalChecked)

	out.FollowUp = e.scheduleFollowUp(ctx, &lead, cat, sched.FollowUp, now)
	log.Debug("Intake advanced", "state", stateFollowUpScheduled)

	out.Lead = lead
	log.Debug("Intake advanced", "state", stateDone)
	return out, nil
}

func (e *Engine) assign(ctx context.Context, lead *model.Lead, rule model.AutomationRule, cat model.Categorization, sched rules.IntakeSchedule, now time.Time) *model.Assignment {
	a := &model.Assignment{
		ID:          e.newID(),
		LeadID:      lead.ID,
		OwnerID:     sched.OwnerID,
		OwnerName:   sched.OwnerName,
		Status:      model.AssignmentActive,
		AssignedAt:  now,
		SLADeadline: now.Add(sched.SLA),
	}
	if err := e.store.CreateAssignment(ctx, a); err != nil {
		e.logger.Warn("Failed to create assignment", "lead_id", lead.ID, "error", err)
		return nil
	}

	if err := e.record(ctx, &model.Activity{
		LeadID:    lead.ID,
		Type:      model.ActivityAssignment,
		Status:    model.ActivityCompleted,
		Message:   fmt.Sprintf("Lead auto-assigned with %s SLA", formatHours(sched.SLA)),
		ActorType: model.ActorSystem,
		Metadata: &model.AssignmentMetadata{
			AssignmentID: a.ID,
			OwnerID:      a.OwnerID,
			OwnerName:    a.OwnerName,
			SLADeadline:  a.SLADeadline,
			SLAHours:     sched.SLA.Hours(),
			Priority:     cat.Priority,
			RuleName:     rule.Name,
		},
		CreatedAt: now,
	}); err != nil {
		e.logger.Warn("Failed to log assignment", "lead_id", lead.ID, "error", err)
	}
	return a
}

func (e *Engine) acknowledge(ctx context.Context, lead *model.Lead, products []model.ProductInterest, template string) bool {
	res := e.mailer.Send(ctx, lead.Email, template, service.EmailParams{
		Name:     lead.Name,
		Products: productNames(products),
	})

	meta := &model.EmailMetadata{
		Template:  res.Template,
		To:        lead.Email,
		MessageID: res.MessageID,
		Error:     res.Error,
	}
	status, message := model.ActivityFailed, "Email failed"
	if res.Success {
		sent := res.SentAt
		if sent.IsZero() {
			sent = e.clock()
		}
		meta.SentAt = &sent
		status, message = model.ActivityCompleted, "Acknowledgement email sent"
	}

	if err := e.record(ctx, &model.Activity{
		LeadID:    lead.ID,
		Type:      model.ActivityEmail,
		Status:    status,
		Message:   message,
		ActorType: model.ActorSystem,
		Metadata:  meta,
		CreatedAt: e.clock(),
	}); err != nil {
		e.logger.Warn("Failed to log email", "lead_id", lead.ID, "error", err)
	}

	if !res.Success {
		e.logger.Warn("Acknowledgement email failed", "lead_id", lead.ID, "template", template, "error", res.Error)
		return false
	}

	lead.FirstResponseAt = meta.SentAt
	lead.UpdatedAt = *meta.SentAt
	if err := e.store.UpdateLead(ctx, lead); err != nil {
		e.logger.Warn("Failed to stamp first response", "lead_id", lead.ID, "error", err)
	}
	return true
}

func (e *Engine) requestApproval(ctx context.Context, lead *model.Lead, products []model.ProductInterest, cat model.Categorization, now time.Time) *model.Activity {
	decision, ok := e.approvals.Evaluate(lead, products, cat)
	if !ok {
		return nil
	}
	e.logger.Info("Approval required",
		"lead_id", lead.ID,
		"reason", decision.Reason,
		"triggers", decision.Triggers)

	a := &model.Activity{
		LeadID:    lead.ID,
		Type:      model.ActivityApproval,
		Status:    model.ActivityPending,
		Message:   decision.Message(),
		ActorType: model.ActorSystem,
		Metadata:  decision.Metadata(lead, cat.Priority, now),
		CreatedAt: now,
	}
	if err := e.record(ctx, a); err != nil {
		e.logger.Warn("Failed to create approval", "lead_id", lead.ID, "error", err)
		return nil
	}
	return a
}

func (e *Engine) scheduleFollowUp(ctx context.Context, lead *model.Lead, cat model.Categorization, plan rules.FollowUpPlan, now time.Time) *model.Activity {
	message := plan.Message
	if message == "" {
		message = rules.FollowUpMessage(plan.Action)
	}

	a := &model.Activity{
		LeadID:    lead.ID,
		Type:      model.ActivityFollowUp,
		Status:    model.ActivityPending,
		Message:   message,
		ActorType: model.ActorSystem,
		Metadata: &model.FollowUpMetadata{
			ScheduledFor: now.Add(plan.Delay),
			Action:       plan.Action,
			Reason:       plan.Reason,
			Priority:     cat.Priority,
		},
		CreatedAt: now,
	}
	if err := e.record(ctx, a); err != nil {
		e.logger.Warn("Failed to schedule follow-up", "lead_id", lead.ID, "error", err)
		return nil
	}
	return a
}

func productNames(products []model.ProductInterest) []string {
	names := make([]string, 0, len(products))
	for _, p := range products {
		names = append(names, p.Product)
	}
	return names
}

func formatHours(d time.Duration) string {
	h := d.Hours()
	if h == float64(int64(h)) {
		return fmt.Sprintf("%dh", int64(h))
	}
	return d.String()
}
