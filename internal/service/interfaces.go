// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/leadflow/internal/model"
)

// LeadFilter defines filtering options for lead queries.
type LeadFilter struct {
	Status model.LeadStatus
	Limit  int
	Offset int
}

// ActivityFilter selects activities by exact match on the set fields.
type ActivityFilter struct {
	LeadID string
	Type   model.ActivityType
	Status model.ActivityStatus
	// NewestFirst orders by created_at descending instead of ascending.
	NewestFirst bool
	Limit       int
}

// AssignmentFilter selects assignments by exact match on the set fields.
type AssignmentFilter struct {
	LeadID string
	Status model.AssignmentStatus
}

// Storage defines the contract for our persistence layer.
// Lookups that find nothing return an error wrapping common.ErrNotFound.
type Storage interface {
	// Lead operations
	CreateLead(ctx context.Context, lead *model.Lead) error
	GetLead(ctx context.Context, id string) (*model.Lead, error)
	UpdateLead(ctx context.Context, lead *model.Lead) error
	ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error)

	// Product interest operations
	CreateProducts(ctx context.Context, products []model.ProductInterest) error
	ListProducts(ctx context.Context, leadID string) ([]model.ProductInterest, error)

	// Activity operations. CreateActivity is a no-op when the ID already exists.
	CreateActivity(ctx context.Context, activity *model.Activity) error
	GetActivity(ctx context.Context, id string) (*model.Activity, error)
	UpdateActivity(ctx context.Context, activity *model.Activity) error
	ListActivities(ctx context.Context, filter ActivityFilter) ([]model.Activity, error)

	// Assignment operations
	CreateAssignment(ctx context.Context, assignment *model.Assignment) error
	GetAssignment(ctx context.Context, id string) (*model.Assignment, error)
	UpdateAssignment(ctx context.Context, assignment *model.Assignment) error
	ListAssignments(ctx context.Context, filter AssignmentFilter) ([]model.Assignment, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// Categorizer turns lead data into a triage decision. It never fails; when
// the oracle is unavailable it falls back to a deterministic heuristic.
type Categorizer interface {
	Categorize(ctx context.Context, input model.CategorizationInput) model.CategorizationResult
	// CategorizeFresh skips any cached result.
	CategorizeFresh(ctx context.Context, input model.CategorizationInput) model.CategorizationResult
}

// EmailParams are the values a template may reference.
type EmailParams struct {
	Name         string
	Action       string
	ScheduledFor string
	Products     []string
}

// EmailResult is the outcome of one send. Failures are reported here rather
// than as errors so callers can record them.
type EmailResult struct {
	SentAt    time.Time
	Template  string
	MessageID string
	Error     string
	Success   bool
}

// Mailer sends templated email.
type Mailer interface {
	Send(ctx context.Context, to, template string, params EmailParams) EmailResult
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
