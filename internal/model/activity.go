package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// ActivityType identifies the kind of event recorded against a lead.
type ActivityType string

// Activity types.
const (
	ActivityAIResult     ActivityType = "ai_result"
	ActivityAssignment   ActivityType = "assignment"
	ActivityEmail        ActivityType = "email"
	ActivityFollowUp     ActivityType = "follow_up"
	ActivityApproval     ActivityType = "approval"
	ActivityNote         ActivityType = "note"
	ActivityStatusChange ActivityType = "status_change"
)

// ActivityStatus is the lifecycle state of an activity.
type ActivityStatus string

// Activity statuses.
const (
	ActivityPending   ActivityStatus = "pending"
	ActivityCompleted ActivityStatus = "completed"
	ActivityFailed    ActivityStatus = "failed"
	ActivityApproved  ActivityStatus = "approved"
	ActivityRejected  ActivityStatus = "rejected"
)

// ActorType says who caused an activity.
type ActorType string

// Actor types.
const (
	ActorSystem ActorType = "system"
	ActorAI     ActorType = "ai"
	ActorUser   ActorType = "user"
)

// Activity is one entry in a lead's audit log. Pending approvals and
// follow-ups double as work-queue items.
type Activity struct {
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	Metadata  ActivityMetadata `json:"metadata"`
	ID        string           `json:"id"`
	LeadID    string           `json:"lead_id"`
	Type      ActivityType     `json:"type"`
	Status    ActivityStatus   `json:"status"`
	Message   string           `json:"message"`
	ActorType ActorType        `json:"actor_type"`
	ActorID   string           `json:"actor_id,omitempty"`
}

// UnmarshalJSON decodes the metadata according to the activity type.
func (a *Activity) UnmarshalJSON(data []byte) error {
	type alias Activity
	var raw struct {
		alias
		Metadata json.RawMessage `json:"metadata"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*a = Activity(raw.alias)
	meta, err := DecodeMetadata(a.Type, raw.Metadata)
	if err != nil {
		return err
	}
	a.Metadata = meta
	return nil
}

// ActivityMetadata is the typed payload attached to an activity.
// Each activity type has exactly one metadata struct.
type ActivityMetadata interface {
	ActivityType() ActivityType
}

// DecodeMetadata parses raw metadata JSON into the struct for activityType.
func DecodeMetadata(activityType ActivityType, raw []byte) (ActivityMetadata, error) {
	var meta ActivityMetadata
	switch activityType {
	case ActivityAIResult:
		meta = &AIResultMetadata{}
	case ActivityAssignment:
		meta = &AssignmentMetadata{}
	case ActivityEmail:
		meta = &EmailMetadata{}
	case ActivityFollowUp:
		meta = &FollowUpMetadata{}
	case ActivityApproval:
		meta = &ApprovalMetadata{}
	case ActivityNote:
		meta = &NoteMetadata{}
	case ActivityStatusChange:
		meta = &StatusChangeMetadata{}
	default:
		return nil, fmt.Errorf("unknown activity type %q", activityType)
	}

	if len(raw) == 0 || string(raw) == "null" {
		return meta, nil
	}
	if err := json.Unmarshal(raw, meta); err != nil {
		return nil, fmt.Errorf("decode %s metadata: %w", activityType, err)
	}
	return meta, nil
}

// AIResultMetadata is the full categorization result and the rule it matched.
type AIResultMetadata struct {
	RuleName RuleName `json:"rule_name,omitempty"`
	CategorizationResult
}

// ActivityType implements ActivityMetadata.
func (*AIResultMetadata) ActivityType() ActivityType { return ActivityAIResult }

// AssignmentMetadata describes an ownership change.
type AssignmentMetadata struct {
	SLADeadline          time.Time `json:"sla_deadline"`
	AssignmentID         string    `json:"assignment_id"`
	OwnerID              string    `json:"owner_id"`
	OwnerName            string    `json:"owner_name"`
	Priority             Priority  `json:"priority,omitempty"`
	RuleName             RuleName  `json:"rule_name,omitempty"`
	PreviousAssignmentID string    `json:"previous_assignment_id,omitempty"`
	Reason               string    `json:"reason,omitempty"`
	SLAHours             float64   `json:"sla_hours"`
}

// ActivityType implements ActivityMetadata.
func (*AssignmentMetadata) ActivityType() ActivityType { return ActivityAssignment }

// EmailMetadata records one outbound email attempt.
type EmailMetadata struct {
	SentAt    *time.Time `json:"sent_at,omitempty"`
	Template  string     `json:"template"`
	To        string     `json:"to"`
	MessageID string     `json:"message_id,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// ActivityType implements ActivityMetadata.
func (*EmailMetadata) ActivityType() ActivityType { return ActivityEmail }

// FollowUpAction is the kind of contact a follow-up calls for.
type FollowUpAction string

// Follow-up actions.
const (
	FollowUpCall    FollowUpAction = "call"
	FollowUpEmail   FollowUpAction = "email"
	FollowUpNurture FollowUpAction = "nurture"
)

// FollowUpMetadata schedules a future contact.
type FollowUpMetadata struct {
	ScheduledFor    time.Time      `json:"scheduled_for"`
	SnoozedAt       *time.Time     `json:"snoozed_at,omitempty"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
	Action          FollowUpAction `json:"action"`
	Reason          string         `json:"reason"`
	Priority        Priority       `json:"priority"`
	CompletionNotes string         `json:"completion_notes,omitempty"`
	Snoozed         bool           `json:"snoozed,omitempty"`
}

// ActivityType implements ActivityMetadata.
func (*FollowUpMetadata) ActivityType() ActivityType { return ActivityFollowUp }

// ApprovalReason names the trigger that put a lead in the approval queue.
type ApprovalReason string

// Approval reasons.
const (
	ApprovalLargeQuantity            ApprovalReason = "large_quantity_order"
	ApprovalHighPriorityProfessional ApprovalReason = "high_priority_professional"
	ApprovalBulkDiscount             ApprovalReason = "bulk_discount_request"
)

// ApprovalDetails holds whatever evidence the trigger collected.
type ApprovalDetails struct {
	TotalQuantity  float64  `json:"total_quantity,omitempty"`
	Threshold      float64  `json:"threshold,omitempty"`
	Role           string   `json:"role,omitempty"`
	Priority       Priority `json:"priority,omitempty"`
	MessageSnippet string   `json:"message_snippet,omitempty"`
	Message        string   `json:"message,omitempty"`
	Keywords       []string `json:"keywords_found,omitempty"`
	Products       []string `json:"products,omitempty"`
}

// ApprovalMetadata is the payload of a pending approval.
type ApprovalMetadata struct {
	CreatedAt       time.Time        `json:"created_at"`
	ResolvedAt      *time.Time       `json:"resolved_at,omitempty"`
	ApprovalType    ApprovalReason   `json:"approval_type"`
	LeadName        string           `json:"lead_name"`
	LeadEmail       string           `json:"lead_email"`
	LeadPhone       string           `json:"lead_phone,omitempty"`
	LeadRole        string           `json:"lead_role,omitempty"`
	LeadCompany     string           `json:"lead_company,omitempty"`
	Priority        Priority         `json:"priority"`
	ApprovalNotes   string           `json:"approval_notes,omitempty"`
	RejectionReason string           `json:"rejection_reason,omitempty"`
	MatchedReasons  []ApprovalReason `json:"matched_reasons,omitempty"`
	Details         ApprovalDetails  `json:"details"`
}

// ActivityType implements ActivityMetadata.
func (*ApprovalMetadata) ActivityType() ActivityType { return ActivityApproval }

// NoteMetadata links a free-form note to the activity it comments on.
type NoteMetadata struct {
	RelatedActivityID string `json:"related_activity_id,omitempty"`
	Decision          string `json:"decision,omitempty"`
	Notes             string `json:"notes,omitempty"`
}

// ActivityType implements ActivityMetadata.
func (*NoteMetadata) ActivityType() ActivityType { return ActivityNote }

// StatusChangeMetadata records a pipeline transition.
type StatusChangeMetadata struct {
	OldStatus LeadStatus `json:"old_status"`
	NewStatus LeadStatus `json:"new_status"`
	ChangedBy string     `json:"changed_by,omitempty"`
}

// ActivityType implements ActivityMetadata.
func (*StatusChangeMetadata) ActivityType() ActivityType { return ActivityStatusChange }
