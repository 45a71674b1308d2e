// Package approval decides whether a new lead needs a human review gate
// before pricing or commitments go out.
package approval

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/leadflow/internal/common"
	"github.com/Veraticus/leadflow/internal/model"
)

// Defaults for the built-in triggers.
const (
	DefaultQuantityThreshold = 100
	DefaultSnippetLength     = 200
)

// DefaultBulkKeywords are the lowercase words that mark a pricing request.
var DefaultBulkKeywords = []string{"bulk", "wholesale", "project", "commercial", "discount"}

// DefaultProfessionalRoles are submitted roles that, at high priority, need review.
// Matching is exact on the submitted text.
var DefaultProfessionalRoles = []string{"Architect", "Builder"}

// Decision is the outcome of evaluating every trigger for one lead.
// Reason and Details come from the last trigger that matched; Triggers lists
// all of them in evaluation order.
type Decision struct {
	Reason   model.ApprovalReason
	Triggers []model.ApprovalReason
	Details  model.ApprovalDetails
}

// Message is the human-readable activity message for the gate.
func (d Decision) Message() string {
	return "Approval Required: " + d.Details.Message
}

// Metadata builds the pending approval payload.
func (d Decision) Metadata(lead *model.Lead, priority model.Priority, now time.Time) *model.ApprovalMetadata {
	return &model.ApprovalMetadata{
		ApprovalType:   d.Reason,
		LeadName:       lead.Name,
		LeadEmail:      lead.Email,
		LeadPhone:      lead.Phone,
		LeadRole:       lead.Role,
		LeadCompany:    lead.Company,
		Priority:       priority,
		MatchedReasons: d.Triggers,
		Details:        d.Details,
		CreatedAt:      now,
	}
}

// Evaluator holds the trigger thresholds.
type Evaluator struct {
	Keywords          []string
	ProfessionalRoles []string
	QuantityThreshold float64
	SnippetLength     int
}

// NewEvaluator returns an evaluator with the default triggers.
func NewEvaluator() *Evaluator {
	return &Evaluator{
		Keywords:          DefaultBulkKeywords,
		ProfessionalRoles: DefaultProfessionalRoles,
		QuantityThreshold: DefaultQuantityThreshold,
		SnippetLength:     DefaultSnippetLength,
	}
}

// Evaluate runs the large quantity, professional buyer and bulk keyword
// triggers in that order. It reports false when none matched.
func (e *Evaluator) Evaluate(lead *model.Lead, products []model.ProductInterest, cat model.Categorization) (Decision, bool) {
	var d Decision
	names := productNames(products)

	if total := TotalQuantity(products); total >= e.QuantityThreshold {
		d.Reason = model.ApprovalLargeQuantity
		d.Details = model.ApprovalDetails{
			TotalQuantity: total,
			Threshold:     e.QuantityThreshold,
			Products:      names,
			Message:       fmt.Sprintf("Large order of %s units requires manager approval", formatUnits(total)),
		}
		d.Triggers = append(d.Triggers, d.Reason)
	}

	if cat.Priority == model.PriorityHigh && e.isProfessional(lead.Role) {
		d.Reason = model.ApprovalHighPriorityProfessional
		d.Details = model.ApprovalDetails{
			Role:     lead.Role,
			Priority: cat.Priority,
			Products: names,
			Message:  fmt.Sprintf("High-priority %s quote requires approval", lead.Role),
		}
		d.Triggers = append(d.Triggers, d.Reason)
	}

	if found := common.MatchKeywords(strings.ToLower(lead.Message), e.Keywords); len(found) > 0 {
		d.Reason = model.ApprovalBulkDiscount
		d.Details = model.ApprovalDetails{
			MessageSnippet: snippet(lead.Message, e.SnippetLength),
			Keywords:       found,
			Products:       names,
			Message:        "Bulk/discount request requires pricing approval",
		}
		d.Triggers = append(d.Triggers, d.Reason)
	}

	return d, len(d.Triggers) > 0
}

func (e *Evaluator) isProfessional(role string) bool {
	for _, r := range e.ProfessionalRoles {
		if role == r {
			return true
		}
	}
	return false
}

// TotalQuantity sums the countable quantities. Text that is not a whole
// number and missing quantities count as zero.
func TotalQuantity(products []model.ProductInterest) float64 {
	var total float64
	for _, p := range products {
		if n, ok := p.Quantity.Units(); ok {
			total += n
		}
	}
	return total
}

func productNames(products []model.ProductInterest) []string {
	if len(products) == 0 {
		return nil
	}
	names := make([]string, len(products))
	for i, p := range products {
		names[i] = p.Product
	}
	return names
}

func snippet(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func formatUnits(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}
