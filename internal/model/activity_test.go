package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeMetadata_SelectsStructByType(t *testing.T) {
	meta, err := DecodeMetadata(ActivityFollowUp, []byte(`{"action":"call","reason":"high_priority_lead","priority":"high","scheduled_for":"2025-01-01T10:30:00Z"}`))
	require.NoError(t, err)

	followUp, ok := meta.(*FollowUpMetadata)
	require.True(t, ok, "expected *FollowUpMetadata, got %T", meta)
	assert.Equal(t, FollowUpCall, followUp.Action)
	assert.Equal(t, PriorityHigh, followUp.Priority)
	assert.Equal(t, time.Date(2025, 1, 1, 10, 30, 0, 0, time.UTC), followUp.ScheduledFor)
}

func TestDecodeMetadata_EmptyPayload(t *testing.T) {
	meta, err := DecodeMetadata(ActivityNote, nil)
	require.NoError(t, err)
	assert.IsType(t, &NoteMetadata{}, meta)
}

func TestDecodeMetadata_UnknownType(t *testing.T) {
	_, err := DecodeMetadata(ActivityType("webhook"), []byte(`{}`))
	assert.Error(t, err)
}

func TestActivity_JSONRoundTripKeepsMetadataType(t *testing.T) {
	original := Activity{
		ID:        "act-1",
		LeadID:    "lead-1",
		Type:      ActivityAIResult,
		Status:    ActivityCompleted,
		ActorType: ActorAI,
		Message:   "categorized",
		Metadata: &AIResultMetadata{
			RuleName: RuleArchitectVIP,
			CategorizationResult: CategorizationResult{
				Method: MethodAI,
				Model:  "llama-3.3-70b-versatile",
				Output: Categorization{Priority: PriorityHigh, Intent: IntentQuoteRequest, LeadType: LeadTypeArchitect},
			},
		},
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"rule_name":"architect_vip"`)
	assert.Contains(t, string(data), `"method":"ai"`)

	var decoded Activity
	require.NoError(t, json.Unmarshal(data, &decoded))
	meta, ok := decoded.Metadata.(*AIResultMetadata)
	require.True(t, ok)
	assert.Equal(t, RuleArchitectVIP, meta.RuleName)
	assert.Equal(t, LeadTypeArchitect, meta.Output.LeadType)
}
