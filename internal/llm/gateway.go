package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/Veraticus/leadflow/internal/common"
	"github.com/Veraticus/leadflow/internal/model"
	"github.com/Veraticus/leadflow/internal/service"
)

// Defaults for the gateway.
const (
	DefaultMaxRetries = 3
	DefaultTimeout    = 30 * time.Second
	DefaultRetryDelay = time.Second
)

// Gateway implements service.Categorizer on top of a Client. It never fails:
// when every attempt errors it answers with the keyword fallback.
type Gateway struct {
	client      Client
	cache       ResultCache
	logger      *slog.Logger
	rateLimiter *rateLimiter
	now         func() time.Time
	retryOpts   service.RetryOptions
	timeout     time.Duration
}

var _ service.Categorizer = (*Gateway)(nil)

// Option configures a Gateway.
type Option func(*Gateway)

// WithCache stores successful model results in c.
func WithCache(c ResultCache) Option {
	return func(g *Gateway) { g.cache = c }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

// NewGateway wraps client. A nil client means every lead is categorized by
// the fallback, which is how the tool runs without an API key.
func NewGateway(client Client, cfg Config, logger *slog.Logger, opts ...Option) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}

	retryOpts := service.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts <= 0 {
		retryOpts.MaxAttempts = DefaultMaxRetries
	}
	if retryOpts.InitialDelay <= 0 {
		retryOpts.InitialDelay = DefaultRetryDelay
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	g := &Gateway{
		client:      client,
		logger:      logger,
		rateLimiter: newRateLimiter(cfg.RateLimit),
		now:         time.Now,
		retryOpts:   retryOpts,
		timeout:     timeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Categorize returns a cached model result when one exists, otherwise asks
// the model.
func (g *Gateway) Categorize(ctx context.Context, input model.CategorizationInput) model.CategorizationResult {
	if g.cache != nil && g.client != nil {
		if cached, ok := g.cache.Get(ctx, cacheKey(input)); ok {
			g.logger.Debug("categorization cache hit", "role", input.Role)
			cached.Cached = true
			return cached
		}
	}
	return g.categorize(ctx, input)
}

// CategorizeFresh skips the cache lookup. The fresh result still refreshes the cache.
func (g *Gateway) CategorizeFresh(ctx context.Context, input model.CategorizationInput) model.CategorizationResult {
	return g.categorize(ctx, input)
}

func (g *Gateway) categorize(ctx context.Context, input model.CategorizationInput) model.CategorizationResult {
	if g.client == nil {
		return Fallback(input, g.now().UTC())
	}

	prompt := BuildPrompt(input)
	var (
		resp    ClassificationResponse
		success int
	)

	err := common.WithRetry(ctx, func(attempt int) error {
		r, err := g.attempt(ctx, prompt)
		if err != nil {
			g.logger.Warn("AI categorization attempt failed",
				"attempt", attempt,
				"max_attempts", g.retryOpts.MaxAttempts,
				"error", err)
			return err
		}
		resp = r
		success = attempt
		return nil
	}, g.retryOpts)

	if err != nil {
		g.logger.Error("all AI attempts failed, using fallback", "error", err)
		return Fallback(input, g.now().UTC())
	}

	result := model.CategorizationResult{
		Timestamp:     g.now().UTC(),
		Model:         g.client.Model(),
		PromptVersion: PromptVersion,
		Method:        model.MethodAI,
		Input:         input,
		Attempt:       success,
		Output: model.Categorization{
			Priority:         model.Priority(resp.Priority),
			Intent:           model.Intent(resp.Intent),
			LeadType:         model.LeadType(resp.LeadType),
			Reasoning:        resp.Reasoning,
			SuggestedActions: resp.SuggestedActions,
		},
	}

	if g.cache != nil {
		g.cache.Set(ctx, cacheKey(input), result)
	}
	return result
}

func (g *Gateway) attempt(ctx context.Context, prompt string) (ClassificationResponse, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if err := g.rateLimiter.wait(callCtx); err != nil {
		return ClassificationResponse{}, err
	}
	return g.client.Classify(callCtx, prompt)
}

// Close releases the cache and the client when they hold resources.
func (g *Gateway) Close() error {
	var err error
	if g.cache != nil {
		err = g.cache.Close()
	}
	if c, ok := g.client.(interface{ Close() error }); ok {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
