package approval

import (
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/leadflow/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func products(qty ...model.Quantity) []model.ProductInterest {
	out := make([]model.ProductInterest, len(qty))
	for i, q := range qty {
		out[i] = model.ProductInterest{Product: "Oak Flooring", Category: "flooring", Quantity: q}
	}
	return out
}

func TestTotalQuantity(t *testing.T) {
	tests := []struct {
		name     string
		products []model.ProductInterest
		want     float64
	}{
		{"empty", nil, 0},
		{"numbers", products(model.NumericQuantity(40), model.NumericQuantity(60)), 100},
		{"numeric text", products(model.TextQuantity("5000")), 5000},
		{"padded text", products(model.TextQuantity(" 25 ")), 25},
		{"free text ignored", products(model.TextQuantity("a few pallets"), model.NumericQuantity(3)), 3},
		{"decimal text ignored", products(model.TextQuantity("12.5")), 0},
		{"missing quantity", products(model.Quantity{}), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, TotalQuantity(tt.products), 0.0001)
		})
	}
}

func TestEvaluate(t *testing.T) {
	e := NewEvaluator()

	tests := []struct {
		name         string
		lead         model.Lead
		products     []model.ProductInterest
		priority     model.Priority
		wantGate     bool
		wantReason   model.ApprovalReason
		wantTriggers []model.ApprovalReason
	}{
		{
			name:         "exactly at threshold",
			lead:         model.Lead{Role: "Home Owner", Message: "Looking for flooring"},
			products:     products(model.NumericQuantity(100)),
			priority:     model.PriorityMedium,
			wantGate:     true,
			wantReason:   model.ApprovalLargeQuantity,
			wantTriggers: []model.ApprovalReason{model.ApprovalLargeQuantity},
		},
		{
			name:     "just under threshold",
			lead:     model.Lead{Role: "Home Owner", Message: "Looking for flooring"},
			products: products(model.NumericQuantity(60), model.TextQuantity("39")),
			priority: model.PriorityMedium,
			wantGate: false,
		},
		{
			name:         "high priority builder",
			lead:         model.Lead{Role: "Builder", Message: "Need pricing"},
			priority:     model.PriorityHigh,
			wantGate:     true,
			wantReason:   model.ApprovalHighPriorityProfessional,
			wantTriggers: []model.ApprovalReason{model.ApprovalHighPriorityProfessional},
		},
		{
			name:     "role match is exact",
			lead:     model.Lead{Role: "architect", Message: "Need pricing"},
			priority: model.PriorityHigh,
			wantGate: false,
		},
		{
			name:     "medium priority architect",
			lead:     model.Lead{Role: "Architect", Message: "Need pricing"},
			priority: model.PriorityMedium,
			wantGate: false,
		},
		{
			name:         "keyword is case-insensitive",
			lead:         model.Lead{Role: "Contractor", Message: "Any WHOLESALE pricing?"},
			priority:     model.PriorityLow,
			wantGate:     true,
			wantReason:   model.ApprovalBulkDiscount,
			wantTriggers: []model.ApprovalReason{model.ApprovalBulkDiscount},
		},
		{
			name:     "architect luxury project",
			lead:     model.Lead{Role: "Architect", Message: "Need urgent quote for 5000 sq ft luxury project"},
			products: products(model.TextQuantity("5000")),
			priority: model.PriorityHigh,
			wantGate: true,
			// the last matching trigger supplies the reason
			wantReason: model.ApprovalBulkDiscount,
			wantTriggers: []model.ApprovalReason{
				model.ApprovalLargeQuantity,
				model.ApprovalHighPriorityProfessional,
				model.ApprovalBulkDiscount,
			},
		},
		{
			name:     "just browsing",
			lead:     model.Lead{Role: "Home Owner", Message: "Just browsing"},
			priority: model.PriorityMedium,
			wantGate: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := e.Evaluate(&tt.lead, tt.products, model.Categorization{Priority: tt.priority})
			require.Equal(t, tt.wantGate, ok)
			if !ok {
				assert.Empty(t, d.Triggers)
				return
			}
			assert.Equal(t, tt.wantReason, d.Reason)
			assert.Equal(t, tt.wantTriggers, d.Triggers)
		})
	}
}

func TestEvaluate_Details(t *testing.T) {
	e := NewEvaluator()

	t.Run("large quantity", func(t *testing.T) {
		lead := &model.Lead{Role: "Home Owner", Message: "flooring"}
		d, ok := e.Evaluate(lead, products(model.NumericQuantity(250)), model.Categorization{Priority: model.PriorityLow})
		require.True(t, ok)
		assert.InDelta(t, 250, d.Details.TotalQuantity, 0.0001)
		assert.InDelta(t, 100, d.Details.Threshold, 0.0001)
		assert.Equal(t, []string{"Oak Flooring"}, d.Details.Products)
		assert.Equal(t, "Approval Required: Large order of 250 units requires manager approval", d.Message())
	})

	t.Run("bulk keywords and snippet", func(t *testing.T) {
		msg := "Commercial project, need a bulk discount. " + strings.Repeat("x", 300)
		lead := &model.Lead{Role: "Contractor", Message: msg}
		d, ok := e.Evaluate(lead, nil, model.Categorization{Priority: model.PriorityLow})
		require.True(t, ok)
		assert.Equal(t, []string{"bulk", "project", "commercial", "discount"}, d.Details.Keywords)
		assert.Len(t, d.Details.MessageSnippet, 200)
		assert.True(t, strings.HasPrefix(msg, d.Details.MessageSnippet))
	})
}

func TestDecision_Metadata(t *testing.T) {
	lead := &model.Lead{Name: "Ana Ruiz", Email: "ana@studio.example", Phone: "+14155550100", Role: "Architect", Company: "Ruiz Studio", Message: "Need pricing"}
	now := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)

	d, ok := NewEvaluator().Evaluate(lead, nil, model.Categorization{Priority: model.PriorityHigh})
	require.True(t, ok)

	md := d.Metadata(lead, model.PriorityHigh, now)
	assert.Equal(t, model.ApprovalHighPriorityProfessional, md.ApprovalType)
	assert.Equal(t, "Ana Ruiz", md.LeadName)
	assert.Equal(t, "ana@studio.example", md.LeadEmail)
	assert.Equal(t, "Ruiz Studio", md.LeadCompany)
	assert.Equal(t, model.PriorityHigh, md.Priority)
	assert.Equal(t, now, md.CreatedAt)
	assert.Equal(t, "Architect", md.Details.Role)
	assert.Equal(t, model.ActivityApproval, md.ActivityType())
}
