package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gutosantos82/py-gpt/internal/bus"
	"github.com/gutosantos82/py-gpt/internal/config"
	"github.com/gutosantos82/py-gpt/internal/cron"
	"github.com/gutosantos82/py-gpt/internal/logger"
	"github.com/gutosantos82/py-gpt/internal/workers"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Workspace: config.WorkspaceConfig{Path: t.TempDir()},
		Agent: config.AgentConfig{
			Model:         "test-model",
			MaxIterations: 3,
		},
		LLM: config.LLMConfig{
			APIKey:  "test-key",
			BaseURL: "http://127.0.0.1:1/v1",
		},
		Plugins: config.PluginsConfig{
			Files: config.FilesPluginConfig{Enabled: true},
			Web: config.WebPluginConfig{
				Enabled:  true,
				Commands: map[string]bool{"web_search": false},
			},
		},
		Cron:       config.CronConfig{Enabled: true, Timezone: "UTC"},
		Workers:    config.WorkersConfig{PoolSize: 2, QueueSize: 16},
		MessageBus: config.MessageBusConfig{Capacity: 16},
		Metrics:    config.MetricsConfig{Enabled: true, Listen: "127.0.0.1:0"},
	}
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "text", Output: "stderr"})
	require.NoError(t, err)
	return log
}

func initializedApp(t *testing.T) *App {
	t.Helper()
	a := New(testConfig(t), testLogger(t))
	require.NoError(t, a.Initialize(context.Background()))
	t.Cleanup(func() { _ = a.Shutdown() })
	return a
}

func TestInitializeRegistersConfiguredPlugins(t *testing.T) {
	a := initializedApp(t)

	reg := a.Plugins()
	for _, id := range []string{"files", "web", "voice", "telegram", "cron"} {
		_, ok := reg.Get(id)
		assert.True(t, ok, "plugin %s should be registered", id)
	}
	_, ok := reg.Get("code")
	assert.False(t, ok, "code plugin stays out when disabled")

	assert.True(t, reg.IsEnabled("files"))
	assert.True(t, reg.IsEnabled("web"))
	assert.False(t, reg.IsEnabled("telegram"))
	assert.False(t, reg.IsEnabled("voice"))
}

func TestInitializeAppliesCommandToggles(t *testing.T) {
	a := initializedApp(t)

	assert.False(t, a.Plugins().CommandEnabled("web_search"))
	assert.True(t, a.Plugins().CommandEnabled("web_fetch"))
}

func TestInitializeStartsScheduler(t *testing.T) {
	a := initializedApp(t)

	assert.True(t, a.Scheduler().IsStarted())
	assert.Equal(t, time.UTC, a.Scheduler().Location(),
		"schedules must run in the configured timezone")
}

func TestShutdownIsIdempotent(t *testing.T) {
	a := New(testConfig(t), testLogger(t))
	require.NoError(t, a.Initialize(context.Background()))

	assert.NoError(t, a.Shutdown())
	assert.NoError(t, a.Shutdown())
	assert.False(t, a.Scheduler().IsStarted())
}

func TestCronExecutorPublishesInbound(t *testing.T) {
	a := initializedApp(t)

	inbound := a.messageBus.SubscribeInbound(context.Background())
	exec := a.cronExecutor()

	result, err := exec(context.Background(), workers.Task{
		ID:   "cron_task_1_123",
		Type: cron.TaskType,
		Payload: cron.TaskPayload{
			TaskID: "task_1",
			Prompt: "daily summary",
			Notify: true,
		},
	})
	require.NoError(t, err)
	assert.Contains(t, result, "cron_task_1")

	select {
	case msg := <-inbound:
		assert.Equal(t, bus.ChannelTypeCron, msg.ChannelType)
		assert.Equal(t, "daily summary", msg.Content)
		assert.Equal(t, "cron_task_1", msg.SessionID)
		assert.Equal(t, true, msg.Metadata["notify"])
		assert.Equal(t, "task_1", msg.Metadata["task_id"])
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled prompt never reached the bus")
	}
}

func TestCronExecutorFreshContextPerFiring(t *testing.T) {
	a := initializedApp(t)
	exec := a.cronExecutor()

	payload := cron.TaskPayload{TaskID: "task_2", Prompt: "ping", NewContext: true}

	first, err := exec(context.Background(), workers.Task{Type: cron.TaskType, Payload: payload})
	require.NoError(t, err)
	second, err := exec(context.Background(), workers.Task{Type: cron.TaskType, Payload: payload})
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestCronExecutorRejectsForeignPayload(t *testing.T) {
	a := initializedApp(t)
	exec := a.cronExecutor()

	_, err := exec(context.Background(), workers.Task{Type: cron.TaskType, Payload: "bogus"})
	assert.Error(t, err)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	a := New(testConfig(t), testLogger(t))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	// Give Initialize time to finish before cancelling.
	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
