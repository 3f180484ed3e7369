package workers

import (
	"context"
	"fmt"
	"sync"

	"github.com/gutosantos82/py-gpt/internal/logger"
)

// Pool manages a fixed set of goroutine workers consuming a shared task queue.
type Pool struct {
	taskQueue chan Task
	resultCh  chan Result
	workers   int

	mu        sync.RWMutex
	executors map[string]Executor

	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	logger  *logger.Logger
	metrics *Metrics
}

// NewPool creates a pool. metrics may be nil when instrumentation is off.
func NewPool(workers, queueSize int, log *logger.Logger, metrics *Metrics) *Pool {
	if workers <= 0 {
		workers = DefaultPoolSize
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		taskQueue: make(chan Task, queueSize),
		resultCh:  make(chan Result, queueSize),
		workers:   workers,
		executors: make(map[string]Executor),
		ctx:       ctx,
		cancel:    cancel,
		logger:    log,
		metrics:   metrics,
	}
}

// RegisterExecutor binds a task type to its execution logic. Registration
// must happen before Start.
func (p *Pool) RegisterExecutor(taskType string, exec Executor) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.executors[taskType] = exec
}

func (p *Pool) executor(taskType string) (Executor, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	exec, ok := p.executors[taskType]
	return exec, ok
}

// Start launches all worker goroutines.
func (p *Pool) Start() {
	p.logger.Info("starting worker pool",
		logger.Field{Key: "workers", Value: p.workers},
		logger.Field{Key: "queue_size", Value: cap(p.taskQueue)})

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Submit enqueues a task, blocking when the queue is full.
func (p *Pool) Submit(task Task) {
	p.countSubmitted(task.Type)
	p.taskQueue <- task
}

// SubmitWithContext enqueues a task, giving up when ctx expires.
func (p *Pool) SubmitWithContext(ctx context.Context, task Task) error {
	p.countSubmitted(task.Type)

	select {
	case p.taskQueue <- task:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to submit task %s: %w", task.ID, ctx.Err())
	}
}

// Results returns the channel carrying task outcomes.
func (p *Pool) Results() <-chan Result {
	return p.resultCh
}

// Stop cancels the pool context and waits for workers to drain.
func (p *Pool) Stop() {
	p.cancel()
	p.wg.Wait()
	close(p.resultCh)
	p.logger.Info("worker pool stopped")
}

// QueueSize returns the number of tasks waiting in the queue.
func (p *Pool) QueueSize() int {
	return len(p.taskQueue)
}

func (p *Pool) countSubmitted(taskType string) {
	if p.metrics != nil {
		p.metrics.Submitted.WithLabelValues(taskType).Inc()
	}
}
