package cli

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// syncBuffer provides thread-safe access to a bytes.Buffer.
type syncBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func TestNewInterruptHandler(t *testing.T) {
	for _, w := range []io.Writer{&bytes.Buffer{}, nil} {
		h := NewInterruptHandler(w)
		assert.NotNil(t, h.writer)
		assert.False(t, h.WasInterrupted())
	}
}

func TestInterruptHandler_ReportsProgressOnce(t *testing.T) {
	out := &syncBuffer{}
	h := NewInterruptHandler(out)
	calls := 0
	ctx, cancel := h.HandleInterrupts(context.Background(), func() string {
		calls++
		return "12 of 40 leads submitted"
	})
	defer cancel()

	h.interrupt()
	h.interrupt()

	assert.True(t, h.WasInterrupted())
	assert.Equal(t, 1, calls)
	assert.Contains(t, out.String(), "Interrupted!")
	assert.Contains(t, out.String(), "12 of 40 leads submitted")
	assert.NoError(t, ctx.Err(), "only a signal cancels the context")
}

func TestInterruptHandler_CancelStopsWatching(t *testing.T) {
	h := NewInterruptHandler(io.Discard)
	ctx, cancel := h.HandleInterrupts(context.Background(), nil)
	cancel()
	<-ctx.Done()
	assert.False(t, h.WasInterrupted())
}
