package plugin

import (
	"context"
	"fmt"
	"time"

	"github.com/gutosantos82/py-gpt/internal/logger"
)

// Call represents a command invocation issued by the model.
type Call struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// Arguments is a JSON string containing the command's named parameters.
	Arguments string `json:"arguments"`
}

// Result represents the outcome of executing a call. Errors are carried as
// text so the model can read and react to them; the dispatcher never panics
// the loop over a bad call.
type Result struct {
	CallID   string `json:"call_id"`
	Content  string `json:"content"`
	Error    string `json:"error,omitempty"`
	TimedOut bool   `json:"timed_out,omitempty"`
}

// Dispatcher executes model-issued calls against the registry, enforcing
// the enabled gate and a per-call timeout.
type Dispatcher struct {
	registry *Registry
	logger   *logger.Logger
	timeout  time.Duration
}

// NewDispatcher creates a dispatcher. A zero timeout means calls run with
// a 30 second default.
func NewDispatcher(registry *Registry, log *logger.Logger, timeout time.Duration) *Dispatcher {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Dispatcher{
		registry: registry,
		logger:   log,
		timeout:  timeout,
	}
}

// Execute runs a single call. Unknown commands, disabled commands, and
// execution failures are reported in the Result, not as a Go error; the
// returned error is reserved for dispatcher-internal failures.
func (d *Dispatcher) Execute(ctx context.Context, call Call) Result {
	cmd, pluginID, ok := d.registry.LookupCommand(call.Name)
	if !ok {
		return Result{
			CallID: call.ID,
			Error:  fmt.Sprintf("unknown command: %s", call.Name),
		}
	}

	if !d.registry.CommandEnabled(call.Name) {
		if !d.registry.IsEnabled(pluginID) {
			return Result{
				CallID: call.ID,
				Error:  fmt.Sprintf("command %s is unavailable: plugin %s is disabled", call.Name, pluginID),
			}
		}
		return Result{
			CallID: call.ID,
			Error:  fmt.Sprintf("command %s is disabled", call.Name),
		}
	}

	execCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	d.logger.DebugCtx(ctx, "executing command",
		logger.Field{Key: "call_id", Value: call.ID},
		logger.Field{Key: "command", Value: call.Name},
		logger.Field{Key: "plugin_id", Value: pluginID})

	type cmdResult struct {
		content string
		err     error
	}
	resultCh := make(chan cmdResult, 1)

	go func() {
		content, err := cmd.Execute(execCtx, call.Arguments)
		resultCh <- cmdResult{content: content, err: err}
	}()

	select {
	case res := <-resultCh:
		if res.err != nil {
			d.logger.WarnCtx(ctx, "command failed",
				logger.Field{Key: "command", Value: call.Name},
				logger.Field{Key: "error", Value: res.err.Error()})
			return Result{
				CallID: call.ID,
				Error:  res.err.Error(),
			}
		}
		return Result{
			CallID:  call.ID,
			Content: res.content,
		}

	case <-execCtx.Done():
		if execCtx.Err() == context.DeadlineExceeded {
			return Result{
				CallID:   call.ID,
				Error:    fmt.Sprintf("command execution timed out after %v", d.timeout),
				TimedOut: true,
			}
		}
		return Result{
			CallID: call.ID,
			Error:  fmt.Sprintf("command execution cancelled: %v", execCtx.Err()),
		}
	}
}
