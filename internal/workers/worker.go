package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/gutosantos82/py-gpt/internal/logger"
)

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("worker panic recovered",
				fmt.Errorf("panic: %v", r),
				logger.Field{Key: "worker_id", Value: id})
		}
	}()

	for {
		select {
		case task := <-p.taskQueue:
			p.processTask(id, task)
		case <-p.ctx.Done():
			p.logger.DebugCtx(p.ctx, "worker stopping",
				logger.Field{Key: "worker_id", Value: id})
			return
		}
	}
}

func (p *Pool) processTask(workerID int, task Task) {
	start := time.Now()

	p.logger.DebugCtx(p.ctx, "processing task",
		logger.Field{Key: "worker_id", Value: workerID},
		logger.Field{Key: "task_id", Value: task.ID},
		logger.Field{Key: "task_type", Value: task.Type})

	execCtx := p.ctx
	if task.Context != nil {
		execCtx = task.Context
	}

	result := p.executeTask(execCtx, task)
	result.Duration = time.Since(start)

	if p.metrics != nil {
		if result.Error != nil {
			p.metrics.Failed.WithLabelValues(task.Type).Inc()
		} else {
			p.metrics.Completed.WithLabelValues(task.Type).Inc()
		}
		p.metrics.Duration.WithLabelValues(task.Type).Observe(result.Duration.Seconds())
	}

	// Results are advisory. A full channel means nobody is draining it, so
	// drop instead of wedging every worker once the buffer fills.
	select {
	case p.resultCh <- result:
	case <-p.ctx.Done():
		p.logger.WarnCtx(p.ctx, "dropping result, pool shutting down",
			logger.Field{Key: "task_id", Value: task.ID})
	default:
		p.logger.WarnCtx(p.ctx, "dropping result, result channel full",
			logger.Field{Key: "task_id", Value: task.ID})
	}
}

// executeTask finds the executor for the task type and runs it with panic
// recovery. Execution happens on a child goroutine so a hung executor does
// not pin the worker past context cancellation.
func (p *Pool) executeTask(ctx context.Context, task Task) Result {
	select {
	case <-ctx.Done():
		return Result{TaskID: task.ID, Error: ctx.Err()}
	default:
	}

	exec, ok := p.executor(task.Type)
	if !ok {
		return Result{TaskID: task.ID, Error: fmt.Errorf("unknown task type: %s", task.Type)}
	}

	done := make(chan struct{})
	var output string
	var err error

	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic during task execution: %v", r)
				p.logger.ErrorCtx(ctx, "task panic recovered", err,
					logger.Field{Key: "task_id", Value: task.ID})
			}
		}()

		output, err = exec(ctx, task)
	}()

	select {
	case <-done:
		return Result{TaskID: task.ID, Output: output, Error: err}
	case <-ctx.Done():
		return Result{TaskID: task.ID, Error: ctx.Err()}
	}
}
