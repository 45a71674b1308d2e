package model

import "time"

// AssignmentStatus is the lifecycle state of an ownership record.
type AssignmentStatus string

// Assignment statuses.
const (
	AssignmentActive     AssignmentStatus = "active"
	AssignmentCompleted  AssignmentStatus = "completed"
	AssignmentReassigned AssignmentStatus = "reassigned"
)

// System owner used when intake assigns a lead automatically.
const (
	SystemOwnerID   = "system_auto"
	SystemOwnerName = "Auto-assigned"
)

// Assignment gives a lead an owner and a deadline for first response.
type Assignment struct {
	SLADeadline         time.Time        `json:"sla_deadline"`
	AssignedAt          time.Time        `json:"assigned_at"`
	CompletedAt         *time.Time       `json:"completed_at,omitempty"`
	SLAMet              *bool            `json:"sla_met,omitempty"`
	ResponseTimeMinutes *int             `json:"response_time_minutes,omitempty"`
	ID                  string           `json:"id"`
	LeadID              string           `json:"lead_id"`
	OwnerID             string           `json:"owner_id"`
	OwnerName           string           `json:"owner_name"`
	Status              AssignmentStatus `json:"status"`
}

// Complete closes the assignment at the given time and scores it against the SLA.
func (a *Assignment) Complete(at time.Time) {
	met := !at.After(a.SLADeadline)
	minutes := int(at.Sub(a.AssignedAt) / time.Minute)
	if minutes < 0 {
		minutes = 0
	}
	a.CompletedAt = &at
	a.SLAMet = &met
	a.ResponseTimeMinutes = &minutes
	a.Status = AssignmentCompleted
}

// Overdue reports whether an active assignment has passed its deadline.
func (a Assignment) Overdue(now time.Time) bool {
	return a.Status == AssignmentActive && now.After(a.SLADeadline)
}

// SLAViolation is an active assignment that missed its deadline.
type SLAViolation struct {
	Assignment     Assignment `json:"assignment"`
	LeadName       string     `json:"lead_name"`
	LeadEmail      string     `json:"lead_email"`
	MinutesOverdue int        `json:"minutes_overdue"`
}
