package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Veraticus/leadflow/internal/model"
	"github.com/Veraticus/leadflow/internal/service"
)

// FixedCategorizer returns the same categorization for every input and
// counts how often it was asked.
type FixedCategorizer struct {
	Output model.Categorization
	Method model.CategorizationMethod

	mu     sync.Mutex
	inputs []model.CategorizationInput
	fresh  int
}

var _ service.Categorizer = (*FixedCategorizer)(nil)

// NewFixedCategorizer returns a categorizer that always answers with out.
func NewFixedCategorizer(out model.Categorization) *FixedCategorizer {
	return &FixedCategorizer{Output: out, Method: model.MethodAI}
}

// Categorize implements service.Categorizer.
func (c *FixedCategorizer) Categorize(_ context.Context, input model.CategorizationInput) model.CategorizationResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inputs = append(c.inputs, input)
	return c.result(input)
}

// CategorizeFresh implements service.Categorizer.
func (c *FixedCategorizer) CategorizeFresh(_ context.Context, input model.CategorizationInput) model.CategorizationResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inputs = append(c.inputs, input)
	c.fresh++
	return c.result(input)
}

func (c *FixedCategorizer) result(input model.CategorizationInput) model.CategorizationResult {
	return model.CategorizationResult{
		Timestamp:     time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC),
		Model:         "fixed",
		PromptVersion: "test",
		Method:        c.Method,
		Input:         input,
		Output:        c.Output,
		Attempt:       1,
	}
}

// Inputs returns every input received, in order.
func (c *FixedCategorizer) Inputs() []model.CategorizationInput {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.CategorizationInput(nil), c.inputs...)
}

// FreshCalls returns how many calls bypassed the cache.
func (c *FixedCategorizer) FreshCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fresh
}

// SentEmail is one call to a RecordingMailer.
type SentEmail struct {
	To       string
	Template string
	Params   service.EmailParams
}

// RecordingMailer records every send. When Fail is set each send reports
// failure with that message.
type RecordingMailer struct {
	Fail string
	Now  time.Time

	mu   sync.Mutex
	sent []SentEmail
}

var _ service.Mailer = (*RecordingMailer)(nil)

// Send implements service.Mailer.
func (m *RecordingMailer) Send(_ context.Context, to, template string, params service.EmailParams) service.EmailResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, SentEmail{To: to, Template: template, Params: params})

	if m.Fail != "" {
		return service.EmailResult{Template: template, Error: m.Fail}
	}
	return service.EmailResult{
		Template:  template,
		MessageID: fmt.Sprintf("msg-%d@test", len(m.sent)),
		SentAt:    m.Now,
		Success:   true,
	}
}

// Sent returns every recorded send.
func (m *RecordingMailer) Sent() []SentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentEmail(nil), m.sent...)
}

// ErrInjected is returned by FaultyStorage for every injected failure.
var ErrInjected = errors.New("injected storage failure")

// FaultyStorage wraps a store and fails chosen calls. Counts are the number
// of upcoming calls to fail; a negative count fails every call.
type FaultyStorage struct {
	service.Storage

	mu                 sync.Mutex
	FailCreateLead     int
	FailCreateActivity int
	FailCreateAssign   int
	FailGetLead        int
	activityCalls      int
}

// GetLead implements service.Storage.
func (f *FaultyStorage) GetLead(ctx context.Context, id string) (*model.Lead, error) {
	if f.take(&f.FailGetLead) {
		return nil, ErrInjected
	}
	return f.Storage.GetLead(ctx, id)
}

// CreateLead implements service.Storage.
func (f *FaultyStorage) CreateLead(ctx context.Context, lead *model.Lead) error {
	if f.take(&f.FailCreateLead) {
		return ErrInjected
	}
	return f.Storage.CreateLead(ctx, lead)
}

// CreateActivity implements service.Storage.
func (f *FaultyStorage) CreateActivity(ctx context.Context, a *model.Activity) error {
	f.mu.Lock()
	f.activityCalls++
	f.mu.Unlock()
	if f.take(&f.FailCreateActivity) {
		return ErrInjected
	}
	return f.Storage.CreateActivity(ctx, a)
}

// CreateAssignment implements service.Storage.
func (f *FaultyStorage) CreateAssignment(ctx context.Context, a *model.Assignment) error {
	if f.take(&f.FailCreateAssign) {
		return ErrInjected
	}
	return f.Storage.CreateAssignment(ctx, a)
}

// ActivityCalls returns how many times CreateActivity was called.
func (f *FaultyStorage) ActivityCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.activityCalls
}

func (f *FaultyStorage) take(n *int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case *n < 0:
		return true
	case *n > 0:
		*n--
		return true
	default:
		return false
	}
}
