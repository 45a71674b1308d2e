package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAnthropicClient(t *testing.T) {
	_, err := newAnthropicClient(Config{})
	require.Error(t, err)

	client, err := newAnthropicClient(Config{APIKey: "k", Model: "claude-3-haiku"})
	require.NoError(t, err)
	assert.Equal(t, "claude-3-haiku", client.Model())
}

func TestAnthropicClient_Classify(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		resp := map[string]any{
			"content": []map[string]string{
				{"type": "text", "text": "```json\n{\"priority\":\"medium\",\"intent\":\"information\",\"lead_type\":\"contractor\"}\n```"},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client, err := newAnthropicClient(Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	got, err := client.Classify(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "medium", got.Priority)
	assert.Equal(t, "information", got.Intent)
	assert.Equal(t, "contractor", got.LeadType)
}

func TestAnthropicClient_NoTextContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"content":[]}`))
	}))
	defer server.Close()

	client, err := newAnthropicClient(Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Classify(context.Background(), "prompt")
	assert.Error(t, err)
}

func TestNewClient_Providers(t *testing.T) {
	ctx := context.Background()

	for _, provider := range []string{ProviderOpenAI, ProviderGroq, ProviderAnthropic, ""} {
		client, err := NewClient(ctx, Config{Provider: provider, APIKey: "k"})
		require.NoError(t, err, provider)
		assert.NotNil(t, client)
	}

	_, err := NewClient(ctx, Config{Provider: "claudecode", APIKey: "k"})
	assert.Error(t, err)
}
