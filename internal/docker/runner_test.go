package docker

import (
	"context"
	"errors"
	"testing"

	"github.com/moby/moby/api/types/container"
	dockerclient "github.com/moby/moby/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gutosantos82/py-gpt/internal/logger"
)

// deadClient fails every call; used to prove certain paths never reach the
// daemon.
type deadClient struct {
	calls int
}

func (c *deadClient) fail() error {
	c.calls++
	return errors.New("daemon must not be called")
}

func (c *deadClient) PullImage(ctx context.Context, image string) error { return c.fail() }
func (c *deadClient) CreateContainer(ctx context.Context, cfg RunConfig) (string, error) {
	return "", c.fail()
}
func (c *deadClient) StartContainer(ctx context.Context, id string) error { return c.fail() }
func (c *deadClient) StopContainer(ctx context.Context, id string, timeout *int) error {
	return c.fail()
}
func (c *deadClient) RemoveContainer(ctx context.Context, id string) error { return c.fail() }
func (c *deadClient) AttachContainer(ctx context.Context, id string) (dockerclient.HijackedResponse, error) {
	return dockerclient.HijackedResponse{}, c.fail()
}
func (c *deadClient) InspectContainer(ctx context.Context, id string) (container.InspectResponse, error) {
	return container.InspectResponse{}, c.fail()
}
func (c *deadClient) Close() error { return nil }

func TestRunnerRateLimitShortCircuits(t *testing.T) {
	log, err := logger.New(logger.Config{Level: "error", Format: "text", Output: "stderr"})
	require.NoError(t, err)

	client := &deadClient{}
	r := NewRunner(client, 1, log, nil)
	r.rateLimiter.count = 1 // window already spent

	_, err = r.Run(context.Background(), RunConfig{Image: "python:3.12-slim"})
	require.Error(t, err)

	var rateErr *RateLimitError
	require.ErrorAs(t, err, &rateErr)
	assert.Greater(t, rateErr.RetryAfter.Seconds(), 0.0)
	assert.Equal(t, 0, client.calls, "rate limited run must never touch the daemon")
}

func TestParseMemory(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"", 0},
		{"128m", 128 * 1024 * 1024},
		{"1g", 1024 * 1024 * 1024},
		{"512k", 512 * 1024},
		{"64", 64},
		{"bogus", 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseMemory(tt.input), "input %q", tt.input)
	}
}
