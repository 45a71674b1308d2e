package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClassification(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    ClassificationResponse
		wantErr bool
	}{
		{
			name:    "plain json",
			content: `{"priority":"low","intent":"information","lead_type":"homeowner","suggested_actions":["nurture","email"],"reasoning":"Browsing"}`,
			want: ClassificationResponse{
				Priority:         "low",
				Intent:           "information",
				LeadType:         "homeowner",
				SuggestedActions: []string{"nurture", "email"},
				Reasoning:        "Browsing",
			},
		},
		{
			name:    "markdown fenced",
			content: "```json\n{\"priority\":\"high\",\"intent\":\"partnership\",\"lead_type\":\"builder\"}\n```",
			want:    ClassificationResponse{Priority: "high", Intent: "partnership", LeadType: "builder"},
		},
		{
			name:    "prose around object",
			content: "Here you go: {\"priority\":\"medium\",\"intent\":\"complaint\",\"lead_type\":\"contractor\"} Thanks!",
			want:    ClassificationResponse{Priority: "medium", Intent: "complaint", LeadType: "contractor"},
		},
		{
			name:    "priority outside enum",
			content: `{"priority":"urgent","intent":"information","lead_type":"homeowner"}`,
			wantErr: true,
		},
		{
			name:    "fallback spelling of lead type rejected",
			content: `{"priority":"low","intent":"information","lead_type":"home_owner"}`,
			wantErr: true,
		},
		{
			name:    "missing intent",
			content: `{"priority":"low","lead_type":"homeowner"}`,
			wantErr: true,
		},
		{
			name:    "not json",
			content: "I think this is a high priority lead",
			wantErr: true,
		},
		{
			name:    "empty",
			content: "   ",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseClassification(tt.content)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidResponse), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCleanMarkdownWrapper(t *testing.T) {
	assert.Equal(t, `{"a":1}`, cleanMarkdownWrapper("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, cleanMarkdownWrapper("```\n{\"a\":1}```"))
	assert.Equal(t, "no braces", cleanMarkdownWrapper("no braces"))
}
