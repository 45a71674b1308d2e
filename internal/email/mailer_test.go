package email

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/leadflow/internal/common"
	"github.com/Veraticus/leadflow/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTransport struct {
	err  error
	sent []Message
}

func (r *recordingTransport) Send(_ context.Context, msg Message) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	r.sent = append(r.sent, msg)
	return "msg-1@example.com", nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMailer_Send(t *testing.T) {
	transport := &recordingTransport{}
	m := NewMailer(newTestRenderer(t), transport, Config{From: "sales@example.com", FromName: "Sales"}, discardLogger())
	sentAt := time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return sentAt }

	res := m.Send(context.Background(), "lead@example.com", TemplateAcknowledgement, service.EmailParams{Name: "Lee"})

	require.True(t, res.Success, res.Error)
	assert.Equal(t, "msg-1@example.com", res.MessageID)
	assert.Equal(t, TemplateAcknowledgement, res.Template)
	assert.Equal(t, sentAt, res.SentAt)
	require.Len(t, transport.sent, 1)
	assert.Equal(t, "Sales <sales@example.com>", transport.sent[0].From)
	assert.Equal(t, "lead@example.com", transport.sent[0].To)
	assert.Equal(t, "Thank you for your inquiry, Lee!", transport.sent[0].Subject)
}

func TestMailer_TransportFailureIsReported(t *testing.T) {
	transport := &recordingTransport{err: errors.New("connection refused")}
	m := NewMailer(newTestRenderer(t), transport, Config{From: "sales@example.com"}, discardLogger())

	res := m.Send(context.Background(), "lead@example.com", TemplateAcknowledgement, service.EmailParams{Name: "Lee"})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "connection refused")
	assert.True(t, res.SentAt.IsZero())
	assert.Empty(t, res.MessageID)
}

func TestMailer_UnknownTemplateIsReported(t *testing.T) {
	transport := &recordingTransport{}
	m := NewMailer(newTestRenderer(t), transport, Config{}, discardLogger())

	res := m.Send(context.Background(), "lead@example.com", "missing", service.EmailParams{})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "unknown email template")
	assert.Empty(t, transport.sent)
}

func TestLogTransport(t *testing.T) {
	var buf strings.Builder
	tr := NewLogTransport(slog.New(slog.NewTextHandler(&buf, nil)))

	id, err := tr.Send(context.Background(), Message{From: "Sales <sales@example.com>", To: "a@b.c", Subject: "Hi"})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(id, "@example.com"), id)
	assert.Contains(t, buf.String(), "to=a@b.c")
}

func TestNewSMTPTransport(t *testing.T) {
	_, err := NewSMTPTransport(SMTPConfig{})
	assert.ErrorIs(t, err, common.ErrMissingConfig)

	tr, err := NewSMTPTransport(SMTPConfig{Host: "smtp.example.com"})
	require.NoError(t, err)
	assert.Equal(t, 587, tr.dialer.Port)
}

func TestSMTPTransport_CanceledContext(t *testing.T) {
	tr, err := NewSMTPTransport(SMTPConfig{Host: "smtp.example.com", Port: 2525})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = tr.Send(ctx, Message{To: "a@b.c"})
	assert.ErrorIs(t, err, context.Canceled)
}
