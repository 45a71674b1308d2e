// Package engine implements lead intake and the operations that work the
// resulting pipeline: approvals, follow-ups, assignments and analytics.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/leadflow/internal/approval"
	"github.com/Veraticus/leadflow/internal/common"
	"github.com/Veraticus/leadflow/internal/model"
	"github.com/Veraticus/leadflow/internal/rules"
	"github.com/Veraticus/leadflow/internal/service"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// DefaultPhoneRegion is used to parse phone numbers written without a country code.
const DefaultPhoneRegion = "US"

// Deps are the collaborators an Engine needs. Store, Categorizer and Mailer
// are required; everything else has a default.
type Deps struct {
	Store       service.Storage
	Categorizer service.Categorizer
	Mailer      service.Mailer
	Catalog     *rules.Catalog
	Policy      rules.Policy
	Approval    *approval.Evaluator
	Logger      *slog.Logger
	Now         func() time.Time
	NewID       func() string
	PhoneRegion string
}

// Engine orchestrates lead intake and pipeline operations.
type Engine struct {
	store       service.Storage
	categorizer service.Categorizer
	mailer      service.Mailer
	catalog     *rules.Catalog
	policy      rules.Policy
	approvals   *approval.Evaluator
	validate    *validator.Validate
	logger      *slog.Logger
	now         func() time.Time
	newID       func() string
	phoneRegion string
}

// New wires an Engine from its dependencies.
func New(d Deps) (*Engine, error) {
	switch {
	case d.Store == nil:
		return nil, fmt.Errorf("%w: engine store", common.ErrMissingConfig)
	case d.Categorizer == nil:
		return nil, fmt.Errorf("%w: engine categorizer", common.ErrMissingConfig)
	case d.Mailer == nil:
		return nil, fmt.Errorf("%w: engine mailer", common.ErrMissingConfig)
	}

	e := &Engine{
		store:       d.Store,
		categorizer: d.Categorizer,
		mailer:      d.Mailer,
		catalog:     d.Catalog,
		policy:      d.Policy,
		approvals:   d.Approval,
		validate:    validator.New(),
		logger:      d.Logger,
		now:         d.Now,
		newID:       d.NewID,
		phoneRegion: d.PhoneRegion,
	}
	if e.catalog == nil {
		e.catalog = rules.Default()
	}
	if e.policy == nil {
		e.policy = rules.InlinePolicy{}
	}
	if e.approvals == nil {
		e.approvals = approval.NewEvaluator()
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}
	if e.phoneRegion == "" {
		e.phoneRegion = DefaultPhoneRegion
	}
	return e, nil
}

// Catalog returns the rule catalog the engine matches against.
func (e *Engine) Catalog() *rules.Catalog {
	return e.catalog
}

// Policy returns the timing policy applied at intake.
func (e *Engine) Policy() rules.Policy {
	return e.policy
}

func (e *Engine) clock() time.Time {
	return e.now().UTC()
}

// record appends an activity, retrying once with the same ID. The store
// ignores a duplicate ID, so a retry after an ambiguous failure is safe.
func (e *Engine) record(ctx context.Context, a *model.Activity) error {
	if a.ID == "" {
		a.ID = e.newID()
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = a.CreatedAt
	}
	err := common.WithRetry(ctx, func(int) error {
		return e.store.CreateActivity(ctx, a)
	}, service.RetryOptions{MaxAttempts: 2, InitialDelay: 50 * time.Millisecond})
	if err != nil {
		return fmt.Errorf("record %s activity: %w", a.Type, err)
	}
	return nil
}

// pendingActivity loads an activity and checks it is an unresolved item of the given type.
func (e *Engine) pendingActivity(ctx context.Context, id string, typ model.ActivityType) (*model.Activity, error) {
	a, err := e.store.GetActivity(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Type != typ {
		return nil, fmt.Errorf("%w: %s is a %s activity, not %s", common.ErrWrongActivityType, id, a.Type, typ)
	}
	if a.Status != model.ActivityPending {
		return nil, fmt.Errorf("%w: %s is %s", common.ErrAlreadyResolved, id, a.Status)
	}
	return a, nil
}

// IsNotFound reports whether err means the requested record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, common.ErrNotFound)
}
