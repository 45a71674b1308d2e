package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/leadflow/internal/config"
	"github.com/Veraticus/leadflow/internal/email"
	"github.com/Veraticus/leadflow/internal/engine"
	"github.com/Veraticus/leadflow/internal/llm"
	"github.com/Veraticus/leadflow/internal/model"
	"github.com/Veraticus/leadflow/internal/postgres"
	"github.com/Veraticus/leadflow/internal/rules"
	"github.com/Veraticus/leadflow/internal/service"
	"github.com/Veraticus/leadflow/internal/storage"
	"github.com/spf13/viper"
)

// envKeyReplacer maps nested keys onto env names: llm.api_key -> LEADFLOW_LLM_API_KEY.
var envKeyReplacer = strings.NewReplacer(".", "_")

// store is a record store that can report its schema version and health.
type store interface {
	service.Storage
	SchemaVersion(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
}

// app holds everything a command needs. close releases it in reverse order.
type app struct {
	cfg     *config.Config
	store   store
	engine  *engine.Engine
	closers []func() error
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Warn("failed to release resource", "error", err)
		}
	}
}

func loadConfig() (*config.Config, error) {
	return config.Load(viper.GetViper())
}

// openStore connects to the configured store and migrates it.
func openStore(ctx context.Context, cfg *config.Config) (store, error) {
	var s store
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		pg, err := postgres.Connect(ctx, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		s = pg
	default:
		lite, err := storage.NewSQLiteStorage(cfg.Database.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		s = lite
	}

	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

// newApp wires the store, categorizer and mailer into an engine.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}
	ok := false
	defer func() {
		if !ok {
			a.close()
		}
	}()

	s, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.store = s
	a.closers = append(a.closers, s.Close)

	gateway, err := a.newGateway(ctx)
	if err != nil {
		return nil, err
	}

	mailer, err := newMailer(cfg)
	if err != nil {
		return nil, err
	}

	policy, err := rules.ParsePolicy(cfg.Intake.Timing)
	if err != nil {
		return nil, err
	}

	a.engine, err = engine.New(engine.Deps{
		Store:       s,
		Categorizer: gateway,
		Mailer:      mailer,
		Policy:      policy,
		Logger:      slog.Default(),
		PhoneRegion: cfg.Intake.PhoneRegion,
	})
	if err != nil {
		return nil, err
	}

	ok = true
	return a, nil
}

// newGateway builds the categorizer. Without an API key the gateway runs
// on the keyword fallback alone.
func (a *app) newGateway(ctx context.Context) (*llm.Gateway, error) {
	cfg := a.cfg
	if !cfg.HasLLMKey() {
		slog.Warn("no LLM API key configured, categorizing with the keyword fallback", "provider", cfg.LLM.Provider)
		return llm.NewGateway(nil, cfg.LLM, slog.Default()), nil
	}

	client, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	if c, ok := client.(interface{ Close() error }); ok {
		a.closers = append(a.closers, c.Close)
	}

	var opts []llm.Option
	if cfg.Cache {
		cache, err := newCache(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, cache.Close)
		opts = append(opts, llm.WithCache(cache))
	}

	return llm.NewGateway(client, cfg.LLM, slog.Default(), opts...), nil
}

// newCache prefers Redis when configured so several processes share results.
func newCache(ctx context.Context, cfg *config.Config) (llm.ResultCache, error) {
	if cfg.RedisURL == "" {
		return llm.NewMemoryCache(cfg.LLM.CacheTTL), nil
	}
	cache, err := llm.NewRedisCache(ctx, cfg.RedisURL, cfg.LLM.CacheTTL, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("failed to connect categorization cache: %w", err)
	}
	return cache, nil
}

func newMailer(cfg *config.Config) (*email.Mailer, error) {
	renderer, err := email.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to load email templates: %w", err)
	}

	var transport email.Transport
	switch cfg.Email.Transport {
	case config.TransportSMTP:
		transport, err = email.NewSMTPTransport(cfg.Email.SMTP)
		if err != nil {
			return nil, err
		}
	default:
		transport = email.NewLogTransport(slog.Default())
	}

	return email.NewMailer(renderer, transport, cfg.Email.Sender, slog.Default()), nil
}

// withApp runs fn against a fully wired app and releases it afterwards.
func withApp(ctx context.Context, fn func(*app) error) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(a)
}

// notFoundHint turns a missing record into a friendlier message.
func notFoundHint(kind, id string, err error) error {
	if engine.IsNotFound(err) {
		return fmt.Errorf("no %s with id %q: %w", kind, id, err)
	}
	return err
}


// withDefaultSource tags a submission with the configured intake source
// when it does not name one.
func (a *app) withDefaultSource(sub model.LeadSubmission) model.LeadSubmission {
	if strings.TrimSpace(sub.Source) == "" {
		sub.Source = a.cfg.Intake.Source
	}
	return sub
}
