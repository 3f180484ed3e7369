// Package docker runs untrusted code snippets in short-lived containers.
// Every execution gets a fresh container with resource limits and no network;
// the container is removed as soon as the run finishes.
package docker

import (
	"fmt"
	"time"
)

// MaxOutputSize caps captured container output.
const MaxOutputSize = 1 * 1024 * 1024

// RunConfig describes a single code execution.
type RunConfig struct {
	Image   string
	Cmd     []string
	WorkDir string
	Env     []string

	MemoryLimit string  // e.g. "128m"
	CPULimit    float64 // fraction of a core
	PidsLimit   int64

	Timeout time.Duration
}

// RunResult is the outcome of a container run.
type RunResult struct {
	Output   string
	ExitCode int
	Duration time.Duration
	TimedOut bool
}

type DockerError struct {
	Op      string
	Err     error
	Message string
}

func (e *DockerError) Error() string {
	return fmt.Sprintf("docker %s: %s: %v", e.Op, e.Message, e.Err)
}

func (e *DockerError) Unwrap() error {
	return e.Err
}

type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %v", e.RetryAfter)
}
