package rules

import (
	"fmt"
	"time"

	"github.com/Veraticus/leadflow/internal/model"
)

// Policy names accepted by ParsePolicy.
const (
	PolicyInline = "inline"
	PolicyRules  = "rules"
)

// IntakeSchedule is the timing an intake applies to a new lead.
type IntakeSchedule struct {
	Template  string
	OwnerID   string
	OwnerName string
	FollowUp  FollowUpPlan
	SLA       time.Duration
}

// Policy decides assignment, acknowledgement and follow-up timing for an intake.
type Policy interface {
	Name() string
	Schedule(rule model.AutomationRule, cat model.Categorization) (IntakeSchedule, error)
}

// ParsePolicy returns the policy registered under name.
func ParsePolicy(name string) (Policy, error) {
	switch name {
	case PolicyInline, "":
		return InlinePolicy{}, nil
	case PolicyRules:
		return RulePolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown timing policy %q (want %q or %q)", name, PolicyInline, PolicyRules)
	}
}

// InlinePolicy applies the fixed priority tables: a 1h or 24h SLA owned by the
// system, the acknowledgement template, and the priority follow-up table.
// The matched rule is recorded but does not change timing.
type InlinePolicy struct{}

// Name implements Policy.
func (InlinePolicy) Name() string { return PolicyInline }

// Schedule implements Policy.
func (InlinePolicy) Schedule(_ model.AutomationRule, cat model.Categorization) (IntakeSchedule, error) {
	return IntakeSchedule{
		Template:  TemplateAcknowledgement,
		OwnerID:   model.SystemOwnerID,
		OwnerName: model.SystemOwnerName,
		SLA:       AssignmentSLA(cat.Priority),
		FollowUp:  FollowUpSchedule(cat.Priority),
	}, nil
}

// RulePolicy takes timing from the matched rule's actions: the first
// immediate email, the first assignment and the first follow-up. Anything the
// rule leaves out falls back to the inline tables.
type RulePolicy struct{}

// Name implements Policy.
func (RulePolicy) Name() string { return PolicyRules }

// Schedule implements Policy.
func (RulePolicy) Schedule(rule model.AutomationRule, cat model.Categorization) (IntakeSchedule, error) {
	sched, _ := InlinePolicy{}.Schedule(rule, cat)

	plan, err := Interpret(rule)
	if err != nil {
		return IntakeSchedule{}, err
	}

	for _, s := range plan.Steps {
		if s.Type == model.ActionSendEmail && s.After == 0 {
			sched.Template = s.Template
			break
		}
	}
	if s, ok := plan.First(model.ActionCreateAssignment); ok {
		sched.OwnerID = s.Owner
		sched.OwnerName = s.Owner
		sched.SLA = s.SLA
	}
	if s, ok := plan.First(model.ActionCreateFollowUp); ok {
		msg := s.Message
		if msg == "" {
			msg = FollowUpMessage(s.FollowUp)
		}
		sched.FollowUp = FollowUpPlan{
			Action:  s.FollowUp,
			Message: msg,
			Delay:   s.After,
			Reason:  string(rule.Name),
		}
	}

	return sched, nil
}
