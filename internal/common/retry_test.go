package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/leadflow/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetry(t *testing.T) {
	opts := service.RetryOptions{MaxAttempts: 3, InitialDelay: time.Millisecond}

	tests := []struct {
		name         string
		failures     int
		wantAttempts int
		wantErr      bool
	}{
		{name: "succeeds first time", failures: 0, wantAttempts: 1},
		{name: "succeeds after two failures", failures: 2, wantAttempts: 3},
		{name: "exhausts attempts", failures: 5, wantAttempts: 3, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen []int
			err := WithRetry(context.Background(), func(attempt int) error {
				seen = append(seen, attempt)
				if attempt <= tt.failures {
					return errors.New("boom")
				}
				return nil
			}, opts)

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrMaxRetries)
			} else {
				require.NoError(t, err)
			}
			assert.Len(t, seen, tt.wantAttempts)
			assert.Equal(t, 1, seen[0])
		})
	}
}

func TestWithRetry_PermanentErrorStops(t *testing.T) {
	calls := 0
	sentinel := errors.New("bad request")

	err := WithRetry(context.Background(), func(int) error {
		calls++
		return Permanent(sentinel)
	}, service.RetryOptions{MaxAttempts: 5, InitialDelay: time.Millisecond})

	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithRetry(ctx, func(int) error {
		return errors.New("transient")
	}, service.RetryOptions{MaxAttempts: 3, InitialDelay: time.Second})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestMatchKeywords(t *testing.T) {
	keywords := []string{"bulk", "wholesale", "project"}

	assert.Equal(t, []string{"bulk", "project"}, MatchKeywords("bulk order for a project", keywords))
	assert.Nil(t, MatchKeywords("just browsing", keywords))
	assert.True(t, ContainsAny("wholesale pricing", keywords))
	assert.False(t, ContainsAny("Wholesale", keywords))
}
