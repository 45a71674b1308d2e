package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// RuleName identifies an automation rule.
type RuleName string

// Built-in rule names.
const (
	RuleHotLead            RuleName = "hot_lead"
	RuleWarmLead           RuleName = "warm_lead"
	RuleColdLead           RuleName = "cold_lead"
	RuleArchitectVIP       RuleName = "architect_vip"
	RuleBuilderBulk        RuleName = "builder_bulk"
	RulePartnershipInquiry RuleName = "partnership_inquiry"
)

// RuleCriteria is the categorization a rule is written for.
// Empty fields are wildcards.
type RuleCriteria struct {
	Priority Priority `json:"priority,omitempty"`
	Intent   Intent   `json:"intent,omitempty"`
	LeadType LeadType `json:"lead_type,omitempty"`
}

// Matches reports whether c satisfies every non-empty criterion.
func (rc RuleCriteria) Matches(c Categorization) bool {
	if rc.Priority != "" && rc.Priority != c.Priority {
		return false
	}
	if rc.Intent != "" && rc.Intent != c.Intent {
		return false
	}
	if rc.LeadType != "" && rc.LeadType != c.LeadType {
		return false
	}
	return true
}

// AutomationRule maps a class of categorizations to an ordered list of actions.
type AutomationRule struct {
	Name        RuleName     `json:"name"`
	Description string       `json:"description"`
	Criteria    RuleCriteria `json:"criteria"`
	Actions     []Action     `json:"actions"`
}

// ActionType discriminates the closed set of rule actions.
type ActionType string

// Action types.
const (
	ActionSendEmail        ActionType = "send_email"
	ActionCreateFollowUp   ActionType = "create_follow_up"
	ActionCreateAssignment ActionType = "create_assignment"
	ActionCreateApproval   ActionType = "create_approval"
	ActionNotifySales      ActionType = "notify_sales"
)

// Action is one step of an automation rule. The set of implementations is
// closed; interpreters switch over the concrete types.
type Action interface {
	Type() ActionType
	Describe() string
	isAction()
}

// OffsetUnit is the unit an Offset was written in.
type OffsetUnit string

// Offset units.
const (
	UnitMinutes OffsetUnit = "minutes"
	UnitHours   OffsetUnit = "hours"
	UnitDays    OffsetUnit = "days"
)

// Offset is a delay expressed the way the rule author wrote it.
type Offset struct {
	Unit  OffsetUnit `json:"unit"`
	Value int        `json:"value"`
}

// Minutes builds an offset in minutes.
func Minutes(n int) Offset { return Offset{Value: n, Unit: UnitMinutes} }

// Hours builds an offset in hours.
func Hours(n int) Offset { return Offset{Value: n, Unit: UnitHours} }

// Days builds an offset in days.
func Days(n int) Offset { return Offset{Value: n, Unit: UnitDays} }

// Duration converts the offset to a time.Duration.
func (o Offset) Duration() time.Duration {
	switch o.Unit {
	case UnitMinutes:
		return time.Duration(o.Value) * time.Minute
	case UnitHours:
		return time.Duration(o.Value) * time.Hour
	case UnitDays:
		return time.Duration(o.Value) * 24 * time.Hour
	default:
		return 0
	}
}

func (o Offset) String() string {
	return fmt.Sprintf("%d %s", o.Value, o.Unit)
}

// SendEmailAction sends a templated email after a delay.
type SendEmailAction struct {
	Template    string
	Description string
	Delay       Offset
}

// CreateFollowUpAction schedules a follow-up task.
type CreateFollowUpAction struct {
	Action      FollowUpAction
	Message     string
	Description string
	DueIn       Offset
}

// CreateAssignmentAction assigns the lead to an owner class with an SLA.
type CreateAssignmentAction struct {
	Owner       string
	Description string
	SLAHours    int
}

// CreateApprovalAction queues the lead for manager review.
type CreateApprovalAction struct {
	ApprovalType    string
	Description     string
	RequiresManager bool
}

// NotifySalesAction posts a message to a sales channel.
type NotifySalesAction struct {
	Channel     string
	Message     string
	Description string
}

func (SendEmailAction) Type() ActionType        { return ActionSendEmail }
func (CreateFollowUpAction) Type() ActionType   { return ActionCreateFollowUp }
func (CreateAssignmentAction) Type() ActionType { return ActionCreateAssignment }
func (CreateApprovalAction) Type() ActionType   { return ActionCreateApproval }
func (NotifySalesAction) Type() ActionType      { return ActionNotifySales }

func (a SendEmailAction) Describe() string        { return a.Description }
func (a CreateFollowUpAction) Describe() string   { return a.Description }
func (a CreateAssignmentAction) Describe() string { return a.Description }
func (a CreateApprovalAction) Describe() string   { return a.Description }
func (a NotifySalesAction) Describe() string      { return a.Description }

func (SendEmailAction) isAction()        {}
func (CreateFollowUpAction) isAction()   {}
func (CreateAssignmentAction) isAction() {}
func (CreateApprovalAction) isAction()   {}
func (NotifySalesAction) isAction()      {}

// MarshalJSON keeps the delay_<unit> field shape used in rule documentation.
func (a SendEmailAction) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"type":        a.Type(),
		"template":    a.Template,
		"description": a.Description,
	}
	out["delay_"+string(a.Delay.Unit)] = a.Delay.Value
	return json.Marshal(out)
}

// MarshalJSON keeps the due_in_<unit> field shape used in rule documentation.
func (a CreateFollowUpAction) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"type":        a.Type(),
		"action":      a.Action,
		"message":     a.Message,
		"description": a.Description,
	}
	out["due_in_"+string(a.DueIn.Unit)] = a.DueIn.Value
	return json.Marshal(out)
}

// MarshalJSON adds the action type discriminator.
func (a CreateAssignmentAction) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"type":        a.Type(),
		"sla_hours":   a.SLAHours,
		"owner":       a.Owner,
		"description": a.Description,
	})
}

// MarshalJSON adds the action type discriminator.
func (a CreateApprovalAction) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"type":             a.Type(),
		"approval_type":    a.ApprovalType,
		"requires_manager": a.RequiresManager,
		"description":      a.Description,
	})
}

// MarshalJSON adds the action type discriminator.
func (a NotifySalesAction) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"type":        a.Type(),
		"channel":     a.Channel,
		"message":     a.Message,
		"description": a.Description,
	})
}
