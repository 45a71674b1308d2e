package llm

import (
	"strings"
	"time"

	"github.com/Veraticus/leadflow/internal/common"
	"github.com/Veraticus/leadflow/internal/model"
)

// Provenance recorded for heuristic categorizations.
const (
	FallbackModel         = "rule_based_fallback"
	FallbackPromptVersion = "N/A"
	FallbackReasoning     = "Fallback rule-based categorization (AI unavailable)"
)

var (
	urgentKeywords = []string{"urgent", "asap", "immediately", "need now", "today"}
	quoteKeywords  = []string{"quote", "price", "cost", "budget", "estimate"}

	// keys are lower-cased submitted roles
	roleLeadTypes = map[string]model.LeadType{
		"home owner": model.LeadTypeHomeOwner,
		"architect":  model.LeadTypeArchitect,
		"builder":    model.LeadTypeBuilder,
		"contractor": model.LeadTypeContractor,
	}
)

// Fallback categorizes a lead from keywords alone. The same input always
// produces the same output; only the timestamp varies.
func Fallback(input model.CategorizationInput, now time.Time) model.CategorizationResult {
	message := strings.ToLower(input.Message)
	role := strings.ToLower(input.Role)

	out := model.Categorization{
		Priority:         model.PriorityMedium,
		Intent:           model.IntentProductInfo,
		SuggestedActions: []string{"email_response"},
		Reasoning:        FallbackReasoning,
	}
	if common.ContainsAny(message, urgentKeywords) || common.ContainsAny(message, quoteKeywords) {
		out.Priority = model.PriorityHigh
		out.Intent = model.IntentQuoteRequest
		out.SuggestedActions = []string{"call_within_30_min"}
	}

	out.LeadType = model.LeadTypeHomeOwner
	if lt, ok := roleLeadTypes[role]; ok {
		out.LeadType = lt
	}

	return model.CategorizationResult{
		Timestamp:     now,
		Model:         FallbackModel,
		PromptVersion: FallbackPromptVersion,
		Method:        model.MethodFallback,
		Input:         input,
		Output:        out,
	}
}
