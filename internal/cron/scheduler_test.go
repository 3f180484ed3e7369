package cron

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePool struct {
	mu    sync.Mutex
	tasks []PoolTask
}

func (p *fakePool) Submit(task PoolTask) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tasks = append(p.tasks, task)
}

func (p *fakePool) submitted() []PoolTask {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]PoolTask{}, p.tasks...)
}

func TestSchedulerAddValidatesExpression(t *testing.T) {
	s := NewScheduler(testLogger(t), &fakePool{}, NewStorage(t.TempDir(), testLogger(t)))

	_, err := s.Add(Task{Schedule: "not a cron", Prompt: "hello"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid cron expression")

	// Invalid tasks must not reach storage.
	tasks, err := s.storage.Load()
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestSchedulerAddRequiresPrompt(t *testing.T) {
	s := NewScheduler(testLogger(t), &fakePool{}, nil)

	_, err := s.Add(Task{Schedule: "* * * * *"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prompt")
}

func TestSchedulerAddPersistsAndLists(t *testing.T) {
	storage := NewStorage(t.TempDir(), testLogger(t))
	s := NewScheduler(testLogger(t), &fakePool{}, storage)

	id, err := s.Add(Task{Schedule: "0 9 * * *", Prompt: "daily digest", Notify: true})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	list := s.List()
	require.Len(t, list, 1)
	assert.Equal(t, "daily digest", list[0].Prompt)
	assert.True(t, list[0].Notify)

	stored, err := storage.Load()
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, id, stored[0].ID)
}

func TestSchedulerRemove(t *testing.T) {
	storage := NewStorage(t.TempDir(), testLogger(t))
	s := NewScheduler(testLogger(t), &fakePool{}, storage)

	id, err := s.Add(Task{Schedule: "* * * * *", Prompt: "ping"})
	require.NoError(t, err)

	require.NoError(t, s.Remove(id))
	assert.Empty(t, s.List())

	stored, err := storage.Load()
	require.NoError(t, err)
	assert.Empty(t, stored)

	assert.Error(t, s.Remove(id))
}

func TestSchedulerStartLoadsPersistedTasks(t *testing.T) {
	dir := t.TempDir()
	storage := NewStorage(dir, testLogger(t))
	require.NoError(t, storage.Append(sampleTask("t1")))
	// A task with a broken schedule is skipped on load, not fatal.
	broken := sampleTask("t2")
	broken.Schedule = "banana"
	require.NoError(t, storage.Append(broken))

	s := NewScheduler(testLogger(t), &fakePool{}, NewStorage(dir, testLogger(t)))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.Start(ctx))
	defer func() { _ = s.Stop() }()

	list := s.List()
	require.Len(t, list, 1)
	assert.Equal(t, "t1", list[0].ID)
	assert.True(t, s.IsStarted())
}

func TestSchedulerDoubleStart(t *testing.T) {
	s := NewScheduler(testLogger(t), &fakePool{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.Start(ctx))
	assert.Error(t, s.Start(ctx))
	require.NoError(t, s.Stop())
	assert.Error(t, s.Stop())
}

func TestSchedulerFireSubmitsPayload(t *testing.T) {
	pool := &fakePool{}
	s := NewScheduler(testLogger(t), pool, nil)
	s.ctx = context.Background()

	s.fire(Task{ID: "t1", Prompt: "check feeds", NewContext: true, Notify: true})

	submitted := pool.submitted()
	require.Len(t, submitted, 1)
	assert.Equal(t, "cron", submitted[0].Type)

	payload, ok := submitted[0].Payload.(TaskPayload)
	require.True(t, ok)
	assert.Equal(t, "t1", payload.TaskID)
	assert.Equal(t, "check feeds", payload.Prompt)
	assert.True(t, payload.NewContext)
	assert.True(t, payload.Notify)
}

func TestSchedulerRestartDoesNotDuplicateEntries(t *testing.T) {
	dir := t.TempDir()
	storage := NewStorage(dir, testLogger(t))
	require.NoError(t, storage.Append(sampleTask("t1")))

	s := NewScheduler(testLogger(t), &fakePool{}, storage)
	require.NoError(t, s.Start(context.Background()))
	require.Len(t, s.cron.Entries(), 1)

	require.NoError(t, s.Stop())
	assert.Empty(t, s.cron.Entries(), "stopping must unregister cron entries")

	// The runner keeps entries across Stop, so a restart that reloads
	// storage would otherwise fire the task twice per tick.
	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop() }()

	assert.Len(t, s.cron.Entries(), 1)
	assert.Len(t, s.List(), 1)
}

func TestSchedulerTimezoneOption(t *testing.T) {
	s := NewScheduler(testLogger(t), nil, nil, WithTimezone("America/New_York"))
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	assert.Equal(t, loc, s.cron.Location())

	// Unknown names fall back to local time.
	s = NewScheduler(testLogger(t), nil, nil, WithTimezone("Mars/Olympus"))
	assert.Equal(t, time.Local, s.cron.Location())
}

func TestSchedulerValidate(t *testing.T) {
	s := NewScheduler(testLogger(t), nil, nil)

	require.NoError(t, s.Validate("*/10 * * * *"))
	require.NoError(t, s.Validate("@hourly"))
	assert.Error(t, s.Validate("61 * * * *"))
	assert.Error(t, s.Validate(""))
}
