package llm

import (
	"fmt"
	"strings"

	"github.com/Veraticus/leadflow/internal/model"
)

// PromptVersion is recorded with every model categorization so results can be
// replayed against the prompt that produced them.
const PromptVersion = "v1.1"

// BuildPrompt renders the categorization prompt for one lead.
func BuildPrompt(input model.CategorizationInput) string {
	var sb strings.Builder

	sb.WriteString("Analyze this lead inquiry and categorize it accurately.\n\n")
	sb.WriteString("LEAD INFORMATION:\n")
	fmt.Fprintf(&sb, "- Role: %s\n", orDefault(input.Role, "Unknown"))
	fmt.Fprintf(&sb, "- Location: %s\n", orDefault(input.Location, "Unknown"))
	fmt.Fprintf(&sb, "- Products of Interest: %s\n", strings.Join(input.Products, ", "))
	fmt.Fprintf(&sb, "- Message: %s\n\n", orDefault(input.Message, "No message"))

	sb.WriteString(categorizationRules)
	return sb.String()
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

const categorizationRules = `CATEGORIZATION RULES:

1. PRIORITY (high/medium/low):
   - HIGH:
     * Architects or Builders (professional buyers)
     * Urgent requests (contains: urgent, ASAP, immediately, today)
     * Bulk orders or large projects (mentions: bulk, project, commercial, 50+ units)
     * Quote requests with specific quantities
   - MEDIUM:
     * Contractors with specific inquiries
     * Home owners requesting quotes
     * Specific product inquiries with timeline
   - LOW:
     * General browsing or information requests
     * Home owners just looking or exploring
     * Price comparison without commitment

2. INTENT (quote_request/information/complaint/partnership):
   - quote_request: pricing, quote, estimate, bulk, project, needs materials
   - information: just looking, browsing, learning, exploring, what types
   - complaint: issues, problems, dissatisfaction, not working
   - partnership: business collaboration, dealer inquiry, distribution

3. LEAD_TYPE (architect/builder/contractor/homeowner):
   - architect: role is "Architect"
   - builder: role is "Builder"
   - contractor: role is "Contractor"
   - homeowner: role is "Home Owner"

4. SUGGESTED_ACTIONS (array of strings):
   Choose from: ["call", "email", "send_quote", "schedule_demo", "nurture"]
   - High priority: ["call", "send_quote"]
   - Medium priority: ["email", "send_quote"]
   - Low priority: ["nurture", "email"]

EXAMPLES:

Input: Architect, "Need urgent quote for 5000 sq ft luxury project"
Output: {"priority": "high", "intent": "quote_request", "lead_type": "architect", "suggested_actions": ["call", "send_quote"]}

Input: Home Owner, "Just looking at flooring options"
Output: {"priority": "low", "intent": "information", "lead_type": "homeowner", "suggested_actions": ["nurture", "email"]}

Input: Builder, "Bulk pricing for 50 unit residential complex"
Output: {"priority": "high", "intent": "quote_request", "lead_type": "builder", "suggested_actions": ["call", "send_quote"]}

RESPOND IN THIS EXACT JSON FORMAT (no additional text):
{
    "priority": "high|medium|low",
    "intent": "quote_request|information|complaint|partnership",
    "lead_type": "architect|builder|contractor|homeowner",
    "suggested_actions": ["action1", "action2"],
    "reasoning": "Brief explanation of categorization"
}

Use lowercase for all values except reasoning. Respond ONLY with valid JSON.
`
