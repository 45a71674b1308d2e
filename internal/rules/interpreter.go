package rules

import (
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/leadflow/internal/model"
)

// ErrUnknownAction is returned when a rule carries an action outside the closed set.
var ErrUnknownAction = errors.New("unknown action type")

// FollowUpPlan is when and how a lead should next be contacted. Reason is a
// short tag such as high_priority_lead or the matched rule's name.
type FollowUpPlan struct {
	Action  model.FollowUpAction
	Message string
	Reason  string
	Delay   time.Duration
}

var followUpMessages = map[model.FollowUpAction]string{
	model.FollowUpCall:    "High-priority lead - urgent call required",
	model.FollowUpEmail:   "Medium-priority lead - follow up within 24 hours",
	model.FollowUpNurture: "Low-priority lead - add to nurture sequence",
}

// FollowUpMessage returns the default activity text for a follow-up action.
func FollowUpMessage(action model.FollowUpAction) string {
	if msg, ok := followUpMessages[action]; ok {
		return msg
	}
	return fmt.Sprintf("Follow up with lead (%s)", action)
}

// AssignmentSLA returns the first-response window for a priority.
func AssignmentSLA(priority model.Priority) time.Duration {
	if priority == model.PriorityHigh {
		return time.Hour
	}
	return 24 * time.Hour
}

// FollowUpSchedule returns the follow-up for a priority. Unknown priorities
// are treated as medium.
func FollowUpSchedule(priority model.Priority) FollowUpPlan {
	switch priority {
	case model.PriorityHigh:
		return FollowUpPlan{
			Action:  model.FollowUpCall,
			Message: FollowUpMessage(model.FollowUpCall),
			Delay:   30 * time.Minute,
			Reason:  "high_priority_lead",
		}
	case model.PriorityLow:
		return FollowUpPlan{
			Action:  model.FollowUpNurture,
			Message: FollowUpMessage(model.FollowUpNurture),
			Delay:   3 * 24 * time.Hour,
			Reason:  "low_priority_lead",
		}
	default:
		return FollowUpPlan{
			Action:  model.FollowUpEmail,
			Message: FollowUpMessage(model.FollowUpEmail),
			Delay:   24 * time.Hour,
			Reason:  "medium_priority_lead",
		}
	}
}

// Step is one materialized rule action. Only the fields relevant to Type are set.
type Step struct {
	Type        model.ActionType
	Description string

	// send_email
	Template string
	// create_follow_up
	FollowUp model.FollowUpAction
	// create_assignment
	Owner string
	SLA   time.Duration
	// create_approval
	ApprovalType    string
	RequiresManager bool
	// notify_sales
	Channel string

	// Message is the follow-up or notification text.
	Message string
	// After is the delay from intake until the step is due.
	After time.Duration
}

// Due returns when the step falls due for an intake at now.
func (s Step) Due(now time.Time) time.Time {
	return now.Add(s.After)
}

// Plan is a rule's actions in declaration order.
type Plan struct {
	Rule  model.RuleName
	Steps []Step
}

// First returns the first step of the given type.
func (p Plan) First(t model.ActionType) (Step, bool) {
	for _, s := range p.Steps {
		if s.Type == t {
			return s, true
		}
	}
	return Step{}, false
}

// Interpret turns a rule into concrete steps.
func Interpret(rule model.AutomationRule) (Plan, error) {
	plan := Plan{Rule: rule.Name, Steps: make([]Step, 0, len(rule.Actions))}

	for i, action := range rule.Actions {
		var step Step
		switch a := action.(type) {
		case model.SendEmailAction:
			step = Step{Template: a.Template, After: a.Delay.Duration()}
		case model.CreateFollowUpAction:
			step = Step{FollowUp: a.Action, Message: a.Message, After: a.DueIn.Duration()}
		case model.CreateAssignmentAction:
			sla := time.Duration(a.SLAHours) * time.Hour
			step = Step{Owner: a.Owner, SLA: sla, After: sla}
		case model.CreateApprovalAction:
			step = Step{ApprovalType: a.ApprovalType, RequiresManager: a.RequiresManager}
		case model.NotifySalesAction:
			step = Step{Channel: a.Channel, Message: a.Message}
		default:
			return Plan{}, fmt.Errorf("%w: rule %s action %d (%T)", ErrUnknownAction, rule.Name, i, action)
		}
		step.Type = action.Type()
		step.Description = action.Describe()
		plan.Steps = append(plan.Steps, step)
	}

	return plan, nil
}
