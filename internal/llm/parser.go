package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalidResponse is returned when a reply is not a valid categorization.
var ErrInvalidResponse = errors.New("invalid categorization response")

const classificationSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["priority", "intent", "lead_type"],
  "properties": {
    "priority": {"enum": ["high", "medium", "low"]},
    "intent": {"enum": ["quote_request", "information", "complaint", "partnership"]},
    "lead_type": {"enum": ["architect", "builder", "contractor", "homeowner"]},
    "suggested_actions": {"type": "array", "items": {"type": "string"}},
    "reasoning": {"type": "string"}
  }
}`

var classificationSchemaLoader = gojsonschema.NewStringLoader(classificationSchema)

// parseClassification validates content against the categorization schema
// and decodes it.
func parseClassification(content string) (ClassificationResponse, error) {
	content = cleanMarkdownWrapper(content)
	if content == "" {
		return ClassificationResponse{}, fmt.Errorf("%w: empty response", ErrInvalidResponse)
	}

	result, err := gojsonschema.Validate(classificationSchemaLoader, gojsonschema.NewStringLoader(content))
	if err != nil {
		return ClassificationResponse{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
		}
		return ClassificationResponse{}, fmt.Errorf("%w: %s", ErrInvalidResponse, strings.Join(msgs, "; "))
	}

	var resp ClassificationResponse
	if err := json.Unmarshal([]byte(content), &resp); err != nil {
		return ClassificationResponse{}, fmt.Errorf("failed to parse JSON response: %w", err)
	}
	return resp, nil
}

// cleanMarkdownWrapper strips ```json fences and any prose around the
// outermost JSON object.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		return content[start : end+1]
	}
	return content
}
