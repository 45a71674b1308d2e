package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/leadflow/internal/service"
)

// Config holds the sender identity.
type Config struct {
	From     string
	FromName string
}

// Mailer renders templates and sends them. It implements service.Mailer and
// reports failures in the result rather than as errors.
type Mailer struct {
	renderer  *Renderer
	transport Transport
	logger    *slog.Logger
	now       func() time.Time
	from      string
}

var _ service.Mailer = (*Mailer)(nil)

// NewMailer builds a Mailer.
func NewMailer(renderer *Renderer, transport Transport, cfg Config, logger *slog.Logger) *Mailer {
	if logger == nil {
		logger = slog.Default()
	}
	from := cfg.From
	if cfg.FromName != "" && cfg.From != "" {
		from = fmt.Sprintf("%s <%s>", cfg.FromName, cfg.From)
	}
	return &Mailer{
		renderer:  renderer,
		transport: transport,
		logger:    logger,
		now:       time.Now,
		from:      from,
	}
}

// Send implements service.Mailer.
func (m *Mailer) Send(ctx context.Context, to, template string, params service.EmailParams) service.EmailResult {
	result := service.EmailResult{Template: template}

	rendered, err := m.renderer.Render(template, params)
	if err != nil {
		m.logger.Error("Failed to render email", "template", template, "error", err)
		result.Error = err.Error()
		return result
	}

	id, err := m.transport.Send(ctx, Message{
		From:    m.from,
		To:      to,
		Subject: rendered.Subject,
		HTML:    rendered.HTML,
	})
	if err != nil {
		m.logger.Error("Failed to send email", "template", template, "to", to, "error", err)
		result.Error = err.Error()
		return result
	}

	m.logger.Info("Email sent", "template", template, "to", to, "message_id", id)
	result.Success = true
	result.MessageID = id
	result.SentAt = m.now().UTC()
	return result
}
