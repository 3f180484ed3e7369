// Package cron schedules recurring prompt tasks. Tasks carry a crontab
// expression and a prompt; when the schedule fires, the task is handed to the
// worker pool which routes the prompt through the message bus to the agent.
package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Task is a scheduled prompt.
type Task struct {
	ID         string            `json:"id"`
	Schedule   string            `json:"schedule"`    // crontab expression
	Prompt     string            `json:"prompt"`      // text sent to the agent on fire
	NewContext bool              `json:"new_context"` // run in a fresh conversation context
	Notify     bool              `json:"notify"`      // push the result to the user channel
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// TaskType is the worker pool task type for fired schedules.
const TaskType = "cron"

// PoolTask is the unit submitted to the worker pool when a task fires.
type PoolTask struct {
	ID      string
	Type    string // always "cron"
	Payload interface{}
	Context context.Context
}

// WorkerPool abstracts task submission so the scheduler does not depend on
// the pool implementation.
type WorkerPool interface {
	Submit(task PoolTask)
}

// TaskPayload is the pool task payload carrying the fired task's fields.
type TaskPayload struct {
	TaskID     string
	Prompt     string
	NewContext bool
	Notify     bool
	Metadata   map[string]string
}

func generateTaskID() string {
	return fmt.Sprintf("task_%s", uuid.NewString())
}
