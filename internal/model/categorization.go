package model

import "time"

// Priority is the urgency assigned to a lead.
type Priority string

// Priority constants.
const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Intent is what the lead is trying to accomplish.
type Intent string

// Intent constants. IntentProductInfo is only produced by the fallback heuristic.
const (
	IntentQuoteRequest Intent = "quote_request"
	IntentInformation  Intent = "information"
	IntentComplaint    Intent = "complaint"
	IntentPartnership  Intent = "partnership"
	IntentProductInfo  Intent = "product_info"
)

// LeadType is the kind of buyer behind a lead.
type LeadType string

// Lead type constants. LeadTypeHomeOwner is the fallback heuristic's spelling
// and differs from LeadTypeHomeowner.
const (
	LeadTypeArchitect  LeadType = "architect"
	LeadTypeBuilder    LeadType = "builder"
	LeadTypeContractor LeadType = "contractor"
	LeadTypeHomeowner  LeadType = "homeowner"
	LeadTypeHomeOwner  LeadType = "home_owner"
)

// CategorizationMethod says which path produced a categorization.
type CategorizationMethod string

// Categorization methods.
const (
	MethodAI       CategorizationMethod = "ai"
	MethodFallback CategorizationMethod = "fallback"
)

// CategorizationInput is the exact lead data sent for categorization.
// It is stored verbatim so a categorization can be replayed later.
type CategorizationInput struct {
	Role     string   `json:"role"`
	Location string   `json:"location"`
	Message  string   `json:"message"`
	Products []string `json:"products"`
}

// Categorization is the triage decision for a lead.
type Categorization struct {
	Priority         Priority `json:"priority"`
	Intent           Intent   `json:"intent"`
	LeadType         LeadType `json:"lead_type"`
	Reasoning        string   `json:"reasoning,omitempty"`
	SuggestedActions []string `json:"suggested_actions"`
}

// CategorizationResult is a categorization plus the provenance needed to audit it.
type CategorizationResult struct {
	Timestamp     time.Time            `json:"timestamp"`
	Model         string               `json:"model"`
	PromptVersion string               `json:"prompt_version"`
	Method        CategorizationMethod `json:"method"`
	Input         CategorizationInput  `json:"input"`
	Output        Categorization       `json:"output"`
	Attempt       int                  `json:"attempt,omitempty"`
	Cached        bool                 `json:"cached,omitempty"`
}

// InputFromLead builds the categorization input for a lead and its products.
func InputFromLead(lead Lead, products []ProductInterest) CategorizationInput {
	names := make([]string, 0, len(products))
	for _, p := range products {
		names = append(names, p.Product)
	}
	return CategorizationInput{
		Role:     lead.Role,
		Location: lead.Location,
		Message:  lead.Message,
		Products: names,
	}
}
