package docker

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/gutosantos82/py-gpt/internal/logger"
)

const inspectPollInterval = 250 * time.Millisecond

// Runner executes code in fresh throwaway containers.
type Runner struct {
	client      Client
	rateLimiter *RateLimiter
	logger      *logger.Logger
	metrics     *Metrics

	mu     sync.Mutex
	pulled map[string]bool
}

// NewRunner wires a runner over an existing client. metrics may be nil.
func NewRunner(client Client, maxPerMinute int, log *logger.Logger, metrics *Metrics) *Runner {
	return &Runner{
		client:      client,
		rateLimiter: NewRateLimiter(maxPerMinute),
		logger:      log,
		metrics:     metrics,
		pulled:      make(map[string]bool),
	}
}

// Run executes one container to completion. The container is always removed,
// even on error or timeout.
func (r *Runner) Run(ctx context.Context, cfg RunConfig) (*RunResult, error) {
	if ok, retryAfter := r.rateLimiter.Allow(); !ok {
		if r.metrics != nil {
			r.metrics.RateLimited.Inc()
		}
		return nil, &RateLimitError{RetryAfter: retryAfter}
	}

	if err := r.ensureImage(ctx, cfg.Image); err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	id, err := r.client.CreateContainer(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer func() {
		removeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := r.client.RemoveContainer(removeCtx, id); err != nil {
			r.logger.Warn("failed to remove container",
				logger.Field{Key: "container_id", Value: id},
				logger.Field{Key: "error", Value: err.Error()})
		}
	}()

	hijack, err := r.client.AttachContainer(ctx, id)
	if err != nil {
		return nil, err
	}
	defer hijack.Close()

	start := time.Now()
	if err := r.client.StartContainer(ctx, id); err != nil {
		return nil, err
	}
	if r.metrics != nil {
		r.metrics.RunsStarted.WithLabelValues(cfg.Image).Inc()
	}

	// Drain output concurrently; the container runs with a TTY so the
	// attach stream is raw combined stdout+stderr.
	var output strings.Builder
	outputDone := make(chan struct{})
	go func() {
		defer close(outputDone)
		buf := make([]byte, 32*1024)
		for {
			n, readErr := hijack.Reader.Read(buf)
			if n > 0 && output.Len() < MaxOutputSize {
				remain := MaxOutputSize - output.Len()
				if n > remain {
					n = remain
				}
				output.Write(buf[:n])
			}
			if readErr != nil {
				if readErr != io.EOF {
					r.logger.Debug("container output read ended",
						logger.Field{Key: "container_id", Value: id},
						logger.Field{Key: "error", Value: readErr.Error()})
				}
				return
			}
		}
	}()

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	exitCode, waitErr := r.waitForExit(runCtx, id)
	duration := time.Since(start)

	if waitErr != nil {
		stopTimeout := 2
		_ = r.client.StopContainer(context.Background(), id, &stopTimeout)
		<-outputDone

		if r.metrics != nil {
			r.metrics.RunsTimedOut.WithLabelValues(cfg.Image).Inc()
		}
		r.logger.Warn("container run timed out",
			logger.Field{Key: "container_id", Value: id},
			logger.Field{Key: "timeout", Value: timeout.String()})

		return &RunResult{
			Output:   truncated(output.String()),
			ExitCode: -1,
			Duration: duration,
			TimedOut: true,
		}, nil
	}

	hijack.Close()
	<-outputDone

	if r.metrics != nil {
		r.metrics.RunDuration.WithLabelValues(cfg.Image).Observe(duration.Seconds())
		if exitCode != 0 {
			r.metrics.RunsFailed.WithLabelValues(cfg.Image).Inc()
		}
	}

	return &RunResult{
		Output:   truncated(output.String()),
		ExitCode: exitCode,
		Duration: duration,
	}, nil
}

// ensureImage pulls the image once per runner lifetime.
func (r *Runner) ensureImage(ctx context.Context, image string) error {
	r.mu.Lock()
	already := r.pulled[image]
	r.mu.Unlock()
	if already {
		return nil
	}

	r.logger.Info("pulling image", logger.Field{Key: "image", Value: image})
	if err := r.client.PullImage(ctx, image); err != nil {
		return err
	}

	r.mu.Lock()
	r.pulled[image] = true
	r.mu.Unlock()
	return nil
}

// waitForExit polls the daemon until the container stops or ctx expires.
func (r *Runner) waitForExit(ctx context.Context, id string) (int, error) {
	ticker := time.NewTicker(inspectPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return -1, ctx.Err()
		case <-ticker.C:
			inspect, err := r.client.InspectContainer(ctx, id)
			if err != nil {
				return -1, err
			}
			if inspect.State != nil && !inspect.State.Running {
				return inspect.State.ExitCode, nil
			}
		}
	}
}

func truncated(s string) string {
	if len(s) >= MaxOutputSize {
		return s + "\n[TRUNCATED]"
	}
	return s
}
