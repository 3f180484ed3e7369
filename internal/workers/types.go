// Package workers provides an async worker pool for background job execution.
// Jobs are submitted with a type; executors for each type are registered on
// the pool before Start.
package workers

import (
	"context"
	"time"
)

// Task is a unit of background work.
type Task struct {
	ID      string
	Type    string // executor key, e.g. "cron" or "speech"
	Payload interface{}
	Context context.Context // optional per-task context
}

// Result is the outcome of a task execution.
type Result struct {
	TaskID   string
	Error    error
	Output   string
	Duration time.Duration
}

// Executor runs a single task and returns its output.
type Executor func(context.Context, Task) (string, error)

const (
	DefaultPoolSize  = 4
	DefaultQueueSize = 64
)
