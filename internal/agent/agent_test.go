package agent

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gutosantos82/py-gpt/internal/bus"
	"github.com/gutosantos82/py-gpt/internal/config"
	"github.com/gutosantos82/py-gpt/internal/llm"
	"github.com/gutosantos82/py-gpt/internal/logger"
	"github.com/gutosantos82/py-gpt/internal/plugin"
)

type echoCommand struct {
	mu    sync.Mutex
	calls []string
}

func (c *echoCommand) Name() string        { return "stub_echo" }
func (c *echoCommand) Description() string { return "echoes its arguments" }

func (c *echoCommand) Parameters() map[string]interface{} {
	return map[string]interface{}{"type": "object", "properties": map[string]interface{}{}}
}

func (c *echoCommand) Execute(ctx context.Context, args string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, args)
	return "echo: " + args, nil
}

func (c *echoCommand) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

type stubPlugin struct {
	id       string
	commands []plugin.Command
}

func (p *stubPlugin) ID() string                 { return p.id }
func (p *stubPlugin) Name() string               { return p.id }
func (p *stubPlugin) Version() string            { return "0.0.0" }
func (p *stubPlugin) Description() string        { return "test plugin" }
func (p *stubPlugin) Options() []plugin.Option   { return nil }
func (p *stubPlugin) Commands() []plugin.Command { return p.commands }

func (p *stubPlugin) Handle(ctx context.Context, ev plugin.Event) error { return nil }

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "text", Output: "stderr"})
	require.NoError(t, err)
	return log
}

type testEnv struct {
	agent    *Agent
	registry *plugin.Registry
	echo     *echoCommand
	bus      *bus.MessageBus
}

func newTestEnv(t *testing.T, provider llm.Provider, cfg config.AgentConfig) *testEnv {
	t.Helper()

	log := testLogger(t)
	registry := plugin.NewRegistry(log)
	echo := &echoCommand{}
	require.NoError(t, registry.Register(&stubPlugin{id: "stub", commands: []plugin.Command{echo}}))
	require.NoError(t, registry.Enable(context.Background(), "stub"))

	dispatcher := plugin.NewDispatcher(registry, log, 5*time.Second)

	sessions, err := NewSessionManager(t.TempDir())
	require.NoError(t, err)

	msgBus := bus.New(16, log, nil)
	require.NoError(t, msgBus.Start(context.Background()))
	t.Cleanup(func() { _ = msgBus.Stop() })

	return &testEnv{
		agent:    New(cfg, provider, registry, dispatcher, sessions, msgBus, log),
		registry: registry,
		echo:     echo,
		bus:      msgBus,
	}
}

func TestProcessReturnsReply(t *testing.T) {
	env := newTestEnv(t, llm.NewEchoProvider(), config.AgentConfig{})

	reply, err := env.agent.Process(context.Background(), "s1", "hello agent")
	require.NoError(t, err)
	assert.Equal(t, "hello agent", reply)

	sess, err := env.agent.sessions.Get("s1")
	require.NoError(t, err)
	messages, err := sess.Read()
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, llm.RoleUser, messages[0].Role)
	assert.Equal(t, llm.RoleAssistant, messages[1].Role)
}

func TestProcessExecutesToolCalls(t *testing.T) {
	provider := llm.NewFixedProvider("done")
	provider.ToolCallQueue = [][]llm.ToolCall{
		{{ID: "call_1", Name: "stub_echo", Arguments: `{"text": "ping"}`}},
	}
	env := newTestEnv(t, provider, config.AgentConfig{})

	reply, err := env.agent.Process(context.Background(), "s1", "use the tool")
	require.NoError(t, err)
	assert.Equal(t, "done", reply)
	assert.Equal(t, 1, env.echo.callCount())

	sess, err := env.agent.sessions.Get("s1")
	require.NoError(t, err)
	messages, err := sess.Read()
	require.NoError(t, err)
	// user, assistant (tool call), tool result, final assistant
	require.Len(t, messages, 4)
	assert.Equal(t, llm.RoleTool, messages[2].Role)
	assert.Equal(t, "call_1", messages[2].ToolCallID)
	assert.Contains(t, messages[2].Content, "ping")
}

func TestProcessDisabledCommandNeverRuns(t *testing.T) {
	provider := llm.NewFixedProvider("done")
	provider.ToolCallQueue = [][]llm.ToolCall{
		{{ID: "call_1", Name: "stub_echo", Arguments: `{}`}},
	}
	env := newTestEnv(t, provider, config.AgentConfig{})
	require.NoError(t, env.registry.Disable(context.Background(), "stub"))

	reply, err := env.agent.Process(context.Background(), "s1", "try anyway")
	require.NoError(t, err)
	assert.Equal(t, "done", reply)
	assert.Equal(t, 0, env.echo.callCount())

	sess, err := env.agent.sessions.Get("s1")
	require.NoError(t, err)
	messages, err := sess.Read()
	require.NoError(t, err)
	require.Len(t, messages, 4)
	assert.Contains(t, messages[2].Content, "Error:")
}

func TestProcessBoundedIterations(t *testing.T) {
	provider := llm.NewFixedProvider("never reached")
	for i := 0; i < 5; i++ {
		provider.ToolCallQueue = append(provider.ToolCallQueue,
			[]llm.ToolCall{{ID: "c", Name: "stub_echo", Arguments: `{}`}})
	}
	env := newTestEnv(t, provider, config.AgentConfig{MaxIterations: 3})

	_, err := env.agent.Process(context.Background(), "s1", "loop forever")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maximum tool call iterations")
	assert.Equal(t, 3, env.echo.callCount())
}

func TestProcessProviderError(t *testing.T) {
	env := newTestEnv(t, llm.NewErrorProvider(), config.AgentConfig{})

	_, err := env.agent.Process(context.Background(), "s1", "hello")
	require.Error(t, err)
}

func TestBusRoundTrip(t *testing.T) {
	env := newTestEnv(t, llm.NewEchoProvider(), config.AgentConfig{})

	outboundCh := env.bus.SubscribeOutbound(context.Background())
	require.NotNil(t, outboundCh)

	require.NoError(t, env.agent.Start(context.Background()))
	defer env.agent.Stop()

	inbound := bus.NewInboundMessage(bus.ChannelTypeTelegram, "100", "telegram:42", "ping", nil)
	require.NoError(t, env.bus.PublishInbound(*inbound))

	select {
	case reply := <-outboundCh:
		assert.Equal(t, bus.ChannelTypeTelegram, reply.ChannelType)
		assert.Equal(t, "telegram:42", reply.SessionID)
		assert.Equal(t, "ping", reply.Content)
	case <-time.After(3 * time.Second):
		t.Fatal("no outbound reply")
	}
}

func TestNewSessionCommandClearsHistory(t *testing.T) {
	env := newTestEnv(t, llm.NewEchoProvider(), config.AgentConfig{})

	_, err := env.agent.Process(context.Background(), "telegram:42", "remember this")
	require.NoError(t, err)

	env.agent.handleInbound(context.Background(), bus.InboundMessage{
		ChannelType: bus.ChannelTypeTelegram,
		SessionID:   "telegram:42",
		Content:     "/new",
		Metadata:    map[string]any{"command": "new_session"},
	})

	sess, err := env.agent.sessions.Get("telegram:42")
	require.NoError(t, err)
	messages, err := sess.Read()
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestScheduledRunsNotifyOnlyWhenAsked(t *testing.T) {
	env := newTestEnv(t, llm.NewEchoProvider(), config.AgentConfig{})

	outboundCh := env.bus.SubscribeOutbound(context.Background())

	// notify=false: the run is processed but no reply is published.
	env.agent.handleInbound(context.Background(), bus.InboundMessage{
		ChannelType: bus.ChannelTypeCron,
		SessionID:   "cron_task_1",
		Content:     "silent check",
		Metadata:    map[string]any{"notify": false},
	})

	select {
	case msg := <-outboundCh:
		t.Fatalf("unexpected outbound for silent run: %+v", msg)
	case <-time.After(100 * time.Millisecond):
	}

	env.agent.handleInbound(context.Background(), bus.InboundMessage{
		ChannelType: bus.ChannelTypeCron,
		SessionID:   "cron_task_2",
		Content:     "loud check",
		Metadata:    map[string]any{"notify": true},
	})

	select {
	case msg := <-outboundCh:
		assert.Equal(t, bus.ChannelTypeCron, msg.ChannelType)
		assert.Equal(t, "loud check", msg.Content)
	case <-time.After(2 * time.Second):
		t.Fatal("no outbound for notifying run")
	}
}
