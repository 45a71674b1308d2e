// Package api exposes the lead engine over HTTP.
package api

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Veraticus/leadflow/internal/engine"
	"github.com/gin-gonic/gin"
)

// HealthCheck probes one dependency for the health endpoint.
type HealthCheck struct {
	Check func(ctx context.Context) error
	Name  string
}

// Deps are what the HTTP layer needs.
type Deps struct {
	Engine  *engine.Engine
	Logger  *slog.Logger
	Now     func() time.Time
	Version string
	Checks  []HealthCheck
}

type handler struct {
	engine  *engine.Engine
	logger  *slog.Logger
	now     func() time.Time
	version string
	checks  []HealthCheck
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	h := &handler{
		engine:  d.Engine,
		logger:  d.Logger,
		now:     d.Now,
		version: d.Version,
		checks:  d.Checks,
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(d.Logger))
	registerRoutes(r, h)
	return r
}

// registerRoutes mounts the API under /api plus the root and health endpoints.
func registerRoutes(r *gin.Engine, h *handler) {
	r.GET("/", h.root)
	r.GET("/health", h.health)

	api := r.Group("/api")

	leads := api.Group("/leads")
	leads.POST("", h.createLead)
	leads.GET("", h.listLeads)
	leads.GET("/:id", h.getLead)
	leads.PUT("/:id", h.updateLead)
	leads.PUT("/:id/status", h.updateStatus)
	leads.POST("/:id/recategorize", h.recategorize)

	approvals := api.Group("/approvals")
	approvals.GET("/pending", h.listApprovals)
	approvals.GET("/approved", h.listApprovals)
	approvals.GET("/rejected", h.listApprovals)
	approvals.GET("/stats", h.approvalStats)
	approvals.POST("/:id/approve", h.approve)
	approvals.POST("/:id/reject", h.reject)

	followUps := api.Group("/follow-ups")
	followUps.GET("/pending", h.listFollowUps)
	followUps.GET("/snoozed", h.listFollowUps)
	followUps.GET("/completed", h.listFollowUps)
	followUps.GET("/due", h.dueFollowUps)
	followUps.GET("/stats", h.followUpStats)
	followUps.POST("/:id/complete", h.completeFollowUp)
	followUps.POST("/:id/snooze", h.snoozeFollowUp)

	assignments := api.Group("/assignments")
	assignments.GET("/violations", h.slaViolations)
	assignments.POST("/:id/complete", h.completeAssignment)
	assignments.POST("/:id/reassign", h.reassign)

	analytics := api.Group("/analytics")
	analytics.GET("/dashboard", h.dashboard)
	analytics.GET("/conversion", h.conversion)
	analytics.GET("/sla-performance", h.slaPerformance)
}

func (h *handler) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "leadflow",
		"status":  "running",
		"version": h.version,
	})
}

func (h *handler) health(c *gin.Context) {
	services := gin.H{"api": "operational"}
	healthy := true
	for _, check := range h.checks {
		if err := check.Check(c.Request.Context()); err != nil {
			services[check.Name] = "error: " + err.Error()
			healthy = false
			continue
		}
		services[check.Name] = "operational"
	}

	status, code := "healthy", http.StatusOK
	if !healthy {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":    status,
		"services":  services,
		"timestamp": h.now().UTC(),
	})
}

// ServerOptions configure Serve. A nil TLS serves plain HTTP.
type ServerOptions struct {
	TLS             *tls.Config
	Addr            string
	ShutdownTimeout time.Duration
}

// Serve runs the router until ctx is canceled, then drains in-flight
// requests for up to ShutdownTimeout.
func Serve(ctx context.Context, opts ServerOptions, router http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           router,
		TLSConfig:         opts.TLS,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if opts.TLS != nil {
			logger.Info("HTTPS server listening", "addr", opts.Addr)
			errCh <- srv.ListenAndServeTLS("", "")
			return
		}
		logger.Info("HTTP server listening", "addr", opts.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
