package cron

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/gutosantos82/py-gpt/internal/logger"
)

// Scheduler manages scheduled prompt tasks on top of robfig/cron. Every task
// is validated at add time; invalid crontab expressions never enter the
// schedule or storage.
type Scheduler struct {
	cron       *cron.Cron
	parser     cron.Parser
	logger     *logger.Logger
	workerPool WorkerPool
	storage    *Storage
	loc        *time.Location

	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	mu      sync.RWMutex

	tasks    map[string]Task
	entryIDs map[string]cron.EntryID
}

// SchedulerOption configures a Scheduler at construction.
type SchedulerOption func(*Scheduler)

// WithTimezone sets the IANA timezone schedules are evaluated in. An unknown
// name falls back to the host's local time.
func WithTimezone(name string) SchedulerOption {
	return func(s *Scheduler) {
		loc, err := time.LoadLocation(name)
		if err != nil {
			s.logger.Warn("unknown timezone, schedules use local time",
				logger.Field{Key: "timezone", Value: name})
			return
		}
		s.loc = loc
	}
}

func NewScheduler(log *logger.Logger, pool WorkerPool, storage *Storage, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		parser:     cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		logger:     log,
		workerPool: pool,
		storage:    storage,
		loc:        time.Local,
		tasks:      make(map[string]Task),
		entryIDs:   make(map[string]cron.EntryID),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cron = cron.New(cron.WithLocation(s.loc))
	return s
}

// Start loads persisted tasks and begins firing schedules. Persisted tasks
// that no longer validate are skipped, not dropped from storage.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("scheduler already started")
	}

	s.ctx, s.cancel = context.WithCancel(ctx)

	if s.storage != nil {
		tasks, err := s.storage.Load()
		if err != nil {
			return fmt.Errorf("failed to load scheduled tasks: %w", err)
		}
		for _, task := range tasks {
			if _, ok := s.entryIDs[task.ID]; ok {
				// Already registered, e.g. added while the scheduler was
				// stopped. Registering again would fire it twice.
				s.tasks[task.ID] = task
				continue
			}
			if err := s.schedule(task); err != nil {
				s.logger.Error("skipping persisted task with invalid schedule", err,
					logger.Field{Key: "task_id", Value: task.ID},
					logger.Field{Key: "schedule", Value: task.Schedule})
				continue
			}
			s.tasks[task.ID] = task
		}
	}

	s.started = true
	s.cron.Start()
	s.logger.Info("cron scheduler started",
		logger.Field{Key: "tasks", Value: len(s.tasks)})

	ctx = s.ctx
	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		// A restart swaps the context; only halt if ours is still current.
		if s.ctx != ctx || !s.started {
			return
		}
		s.halt()
		s.started = false
		s.logger.Info("cron scheduler stopped")
	}()

	return nil
}

// Stop halts the scheduler.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return fmt.Errorf("scheduler not started")
	}

	s.cancel()
	s.halt()
	s.started = false
	return nil
}

// halt stops the cron runner and unregisters every entry, so a later Start
// reschedules purely from storage instead of stacking duplicates on top of
// the entries robfig/cron keeps across Stop. Caller holds the lock.
func (s *Scheduler) halt() {
	s.cron.Stop()
	for taskID, entryID := range s.entryIDs {
		s.cron.Remove(entryID)
		delete(s.entryIDs, taskID)
	}
	s.tasks = make(map[string]Task)
}

// Location reports the timezone schedules are evaluated in.
func (s *Scheduler) Location() *time.Location {
	return s.cron.Location()
}

// Validate checks a crontab expression without scheduling anything.
func (s *Scheduler) Validate(expression string) error {
	if _, err := s.parser.Parse(expression); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expression, err)
	}
	return nil
}

// Add validates, schedules and persists a task. Returns the task ID.
func (s *Scheduler) Add(task Task) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if task.Prompt == "" {
		return "", fmt.Errorf("task prompt must not be empty")
	}
	if err := s.Validate(task.Schedule); err != nil {
		return "", err
	}

	if task.ID == "" {
		task.ID = generateTaskID()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now()
	}

	if err := s.schedule(task); err != nil {
		return "", err
	}
	s.tasks[task.ID] = task

	if s.storage != nil {
		if err := s.storage.Upsert(task); err != nil {
			s.logger.Error("failed to persist task", err,
				logger.Field{Key: "task_id", Value: task.ID})
			// Task stays scheduled in memory.
		}
	}

	s.logger.Info("scheduled task added",
		logger.Field{Key: "task_id", Value: task.ID},
		logger.Field{Key: "schedule", Value: task.Schedule},
		logger.Field{Key: "new_context", Value: task.NewContext},
		logger.Field{Key: "notify", Value: task.Notify})

	return task.ID, nil
}

// Remove unschedules a task and deletes it from storage.
func (s *Scheduler) Remove(taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[taskID]; !ok {
		return fmt.Errorf("task not found: %s", taskID)
	}

	if entryID, ok := s.entryIDs[taskID]; ok {
		s.cron.Remove(entryID)
		delete(s.entryIDs, taskID)
	}
	delete(s.tasks, taskID)

	if s.storage != nil {
		if err := s.storage.Remove(taskID); err != nil {
			s.logger.Error("failed to remove task from storage", err,
				logger.Field{Key: "task_id", Value: taskID})
		}
	}

	s.logger.Info("scheduled task removed",
		logger.Field{Key: "task_id", Value: taskID})
	return nil
}

// List returns all tasks ordered by creation time.
func (s *Scheduler) List() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		tasks = append(tasks, task)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].CreatedAt.Before(tasks[j].CreatedAt) })
	return tasks
}

// Get retrieves one task by ID.
func (s *Scheduler) Get(taskID string) (Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return Task{}, fmt.Errorf("task not found: %s", taskID)
	}
	return task, nil
}

// IsStarted reports whether the scheduler is running.
func (s *Scheduler) IsStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// schedule registers the task with the underlying cron runner. Caller holds
// the lock.
func (s *Scheduler) schedule(task Task) error {
	t := task
	entryID, err := s.cron.AddFunc(task.Schedule, func() {
		s.fire(t)
	})
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", task.Schedule, err)
	}
	s.entryIDs[task.ID] = entryID
	return nil
}

// fire submits a fired task to the worker pool.
func (s *Scheduler) fire(task Task) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduled task panic recovered", fmt.Errorf("panic: %v", r),
				logger.Field{Key: "task_id", Value: task.ID})
		}
	}()

	if s.workerPool == nil {
		s.logger.Error("scheduled task cannot run: worker pool not configured",
			fmt.Errorf("worker pool not available"),
			logger.Field{Key: "task_id", Value: task.ID})
		return
	}

	poolTaskID := fmt.Sprintf("cron_%s_%d", task.ID, time.Now().UnixNano())
	s.workerPool.Submit(PoolTask{
		ID:   poolTaskID,
		Type: TaskType,
		Payload: TaskPayload{
			TaskID:     task.ID,
			Prompt:     task.Prompt,
			NewContext: task.NewContext,
			Notify:     task.Notify,
			Metadata:   task.Metadata,
		},
		Context: s.ctx,
	})

	s.logger.Info("scheduled task fired",
		logger.Field{Key: "task_id", Value: task.ID},
		logger.Field{Key: "pool_task_id", Value: poolTaskID})
}
