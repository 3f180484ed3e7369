package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() Config {
	return Config{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), func() (string, error) {
		calls++
		return "ok", nil
	}, fastConfig())

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesTransientError(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), func() (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("connection refused")
		}
		return "recovered", nil
	}, fastConfig())

	require.NoError(t, err)
	assert.Equal(t, "recovered", result)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnNonRetryableError(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), func() (string, error) {
		calls++
		return "", errors.New("status 401 unauthorized")
	}, fastConfig())

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), func() (string, error) {
		calls++
		return "", errors.New("rate limit exceeded")
	}, fastConfig())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 3 attempts failed")
	assert.Equal(t, 3, calls)
}

func TestDoRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	_, err := Do(ctx, func() (string, error) {
		calls++
		cancel()
		return "", errors.New("timeout")
	}, Config{MaxAttempts: 5, InitialBackoff: time.Second, MaxBackoff: time.Second})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  string
		want bool
	}{
		{"connection refused", true},
		{"read tcp: connection reset by peer", true},
		{"429 too many requests", true},
		{"HTTP error: status=503", true},
		{"request timeout", true},
		{"unexpected EOF", true},
		{"status 401 unauthorized", false},
		{"status 403 forbidden", false},
		{"status 404 not found", false},
		{"context canceled", false},
		{"invalid request payload", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsRetryable(errors.New(tt.err)), tt.err)
	}
	assert.False(t, IsRetryable(nil))
}

func TestBackoffDoublesAndCaps(t *testing.T) {
	assert.Equal(t, 100*time.Millisecond, calculateBackoff(0, 100*time.Millisecond, time.Second))
	assert.Equal(t, 400*time.Millisecond, calculateBackoff(2, 100*time.Millisecond, time.Second))
	assert.Equal(t, time.Second, calculateBackoff(10, 100*time.Millisecond, time.Second))
}
