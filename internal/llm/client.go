package llm

import (
	"context"
	"time"
)

// Client defines the interface for LLM providers.
type Client interface {
	Classify(ctx context.Context, prompt string) (ClassificationResponse, error)
	// Model is the provider model name recorded with each result.
	Model() string
}

// ClassificationResponse contains the LLM's categorization of a lead.
type ClassificationResponse struct {
	Priority         string   `json:"priority"`
	Intent           string   `json:"intent"`
	LeadType         string   `json:"lead_type"`
	Reasoning        string   `json:"reasoning"`
	SuggestedActions []string `json:"suggested_actions"`
}

// Config holds configuration for the LLM clients and the gateway.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	MaxRetries  int
	RetryDelay  time.Duration
	Timeout     time.Duration
	CacheTTL    time.Duration
	RateLimit   int
	Temperature float64
	MaxTokens   int
}
