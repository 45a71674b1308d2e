package email

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/leadflow/internal/common"
	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

// Message is one outbound email.
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
}

// Transport delivers a message and returns its message ID.
type Transport interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// SMTPConfig holds the SMTP server settings.
type SMTPConfig struct {
	Host     string
	Username string
	Password string
	Port     int
}

// SMTPTransport sends mail through an SMTP server with gomail.
type SMTPTransport struct {
	dialer *gomail.Dialer
	domain string
}

// NewSMTPTransport validates cfg and builds a transport.
func NewSMTPTransport(cfg SMTPConfig) (*SMTPTransport, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("%w: smtp host", common.ErrMissingConfig)
	}
	if cfg.Port <= 0 {
		cfg.Port = 587
	}
	return &SMTPTransport{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		domain: cfg.Host,
	}, nil
}

// Send implements Transport. gomail has no context support, so ctx is only
// checked before dialing.
func (t *SMTPTransport) Send(ctx context.Context, msg Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := messageID(msg.From, t.domain)
	m := gomail.NewMessage()
	m.SetHeader("From", msg.From)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetHeader("Message-ID", "<"+id+">")
	m.SetBody("text/html", msg.HTML)

	if err := t.dialer.DialAndSend(m); err != nil {
		return "", fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return id, nil
}

// LogTransport records messages in the log instead of sending them.
type LogTransport struct {
	logger *slog.Logger
}

// NewLogTransport returns a transport that only logs.
func NewLogTransport(logger *slog.Logger) *LogTransport {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogTransport{logger: logger}
}

// Send implements Transport.
func (t *LogTransport) Send(_ context.Context, msg Message) (string, error) {
	id := messageID(msg.From, "localhost")
	t.logger.Info("Email not sent (log transport)",
		"to", msg.To,
		"subject", msg.Subject,
		"message_id", id)
	return id, nil
}

func messageID(from, fallbackDomain string) string {
	domain := fallbackDomain
	if at := strings.LastIndex(from, "@"); at >= 0 {
		domain = strings.TrimSuffix(from[at+1:], ">")
	}
	return uuid.NewString() + "@" + domain
}
