// Package agent runs the conversation loop: inbound prompts from the message
// bus go through the LLM with the plugin catalogue exposed as callable tools,
// tool calls are executed by the dispatcher, and the final reply is published
// back to the originating channel. Each conversation is a persisted session.
package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/gutosantos82/py-gpt/internal/bus"
	"github.com/gutosantos82/py-gpt/internal/config"
	"github.com/gutosantos82/py-gpt/internal/llm"
	"github.com/gutosantos82/py-gpt/internal/logger"
	"github.com/gutosantos82/py-gpt/internal/plugin"
)

const (
	defaultMaxTokens     = 4096
	defaultTemperature   = 0.7
	defaultMaxIterations = 10
)

// Agent is the conversation loop.
type Agent struct {
	cfg        config.AgentConfig
	provider   llm.Provider
	registry   *plugin.Registry
	dispatcher *plugin.Dispatcher
	sessions   *SessionManager
	bus        *bus.MessageBus
	logger     *logger.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	started bool
}

// New creates an agent. The bus may be nil when the agent is driven
// directly through Process, e.g. from the CLI.
func New(cfg config.AgentConfig, provider llm.Provider, registry *plugin.Registry,
	dispatcher *plugin.Dispatcher, sessions *SessionManager, msgBus *bus.MessageBus,
	log *logger.Logger) *Agent {

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.MaxIterations == 0 {
		cfg.MaxIterations = defaultMaxIterations
	}
	if cfg.Model == "" {
		cfg.Model = provider.GetDefaultModel()
	}

	return &Agent{
		cfg:        cfg,
		provider:   provider,
		registry:   registry,
		dispatcher: dispatcher,
		sessions:   sessions,
		bus:        msgBus,
		logger:     log,
	}
}

// Start subscribes to inbound bus messages and processes them until the
// context is cancelled.
func (a *Agent) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.started {
		return fmt.Errorf("agent is already started")
	}
	if a.bus == nil {
		return fmt.Errorf("agent has no message bus")
	}

	runCtx, cancel := context.WithCancel(ctx)
	inboundCh := a.bus.SubscribeInbound(runCtx)
	if inboundCh == nil {
		cancel()
		return fmt.Errorf("message bus is not started")
	}

	a.cancel = cancel
	a.started = true
	go a.run(runCtx, inboundCh)

	a.logger.Info("agent started",
		logger.Field{Key: "model", Value: a.cfg.Model},
		logger.Field{Key: "max_iterations", Value: a.cfg.MaxIterations})
	return nil
}

// Stop cancels the processing loop.
func (a *Agent) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.started {
		return
	}
	a.cancel()
	a.started = false
	a.logger.Info("agent stopped")
}

func (a *Agent) run(ctx context.Context, inboundCh <-chan bus.InboundMessage) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-inboundCh:
			if !ok {
				return
			}
			a.handleInbound(ctx, msg)
		}
	}
}

// handleInbound processes one bus message end to end.
func (a *Agent) handleInbound(ctx context.Context, msg bus.InboundMessage) {
	if command, _ := msg.Metadata["command"].(string); command == "new_session" {
		if err := a.sessions.Clear(msg.SessionID); err != nil {
			a.logger.ErrorCtx(ctx, "failed to clear session", err,
				logger.Field{Key: "session_id", Value: msg.SessionID})
		}
		return
	}

	reply, err := a.Process(ctx, msg.SessionID, msg.Content)
	if err != nil {
		a.logger.ErrorCtx(ctx, "failed to process message", err,
			logger.Field{Key: "session_id", Value: msg.SessionID})
		reply = fmt.Sprintf("I encountered an error processing your message: %v", err)
	}

	if !a.shouldNotify(msg) {
		a.logger.DebugCtx(ctx, "notification suppressed for scheduled run",
			logger.Field{Key: "session_id", Value: msg.SessionID})
		return
	}

	outbound := bus.NewOutboundMessage(msg.ChannelType, msg.UserID, msg.SessionID, reply, nil)
	if err := a.bus.PublishOutbound(*outbound); err != nil {
		a.logger.ErrorCtx(ctx, "failed to publish reply", err,
			logger.Field{Key: "session_id", Value: msg.SessionID})
	}
}

// shouldNotify decides whether the reply goes back to a channel. Scheduled
// runs are silent unless the task asked for notification; interactive
// channels always get the reply.
func (a *Agent) shouldNotify(msg bus.InboundMessage) bool {
	if msg.ChannelType != bus.ChannelTypeCron {
		return true
	}
	notify, _ := msg.Metadata["notify"].(bool)
	return notify
}

// Process runs one prompt through the tool-calling loop and returns the
// final assistant reply. The loop is bounded by MaxIterations; hitting the
// bound is an error, not a silent truncation.
func (a *Agent) Process(ctx context.Context, sessionID, prompt string) (string, error) {
	sess, err := a.sessions.Get(sessionID)
	if err != nil {
		return "", err
	}

	if err := sess.Append(llm.Message{Role: llm.RoleUser, Content: prompt}); err != nil {
		return "", fmt.Errorf("failed to persist user message: %w", err)
	}

	tools := a.toolDefinitions()

	for iteration := 0; iteration < a.cfg.MaxIterations; iteration++ {
		history, err := sess.Read()
		if err != nil {
			return "", fmt.Errorf("failed to read session history: %w", err)
		}

		messages := history
		if a.cfg.SystemPrompt != "" {
			messages = append([]llm.Message{{
				Role:    llm.RoleSystem,
				Content: a.cfg.SystemPrompt,
			}}, history...)
		}

		req := llm.ChatRequest{
			Messages:    messages,
			Model:       a.cfg.Model,
			Temperature: a.cfg.Temperature,
			MaxTokens:   a.cfg.MaxTokens,
			Tools:       tools,
		}

		resp, err := a.provider.Chat(ctx, req)
		if err != nil {
			return "", fmt.Errorf("LLM call failed: %w", err)
		}

		a.logger.DebugCtx(ctx, "LLM response received",
			logger.Field{Key: "session_id", Value: sessionID},
			logger.Field{Key: "finish_reason", Value: string(resp.FinishReason)},
			logger.Field{Key: "tool_calls", Value: len(resp.ToolCalls)},
			logger.Field{Key: "iteration", Value: iteration})

		if resp.FinishReason != llm.FinishReasonToolCalls || len(resp.ToolCalls) == 0 {
			if err := sess.Append(llm.Message{Role: llm.RoleAssistant, Content: resp.Content}); err != nil {
				return "", fmt.Errorf("failed to persist assistant message: %w", err)
			}
			return resp.Content, nil
		}

		if err := sess.Append(llm.Message{Role: llm.RoleAssistant, Content: resp.Content}); err != nil {
			return "", fmt.Errorf("failed to persist assistant message: %w", err)
		}

		for _, call := range resp.ToolCalls {
			result := a.dispatcher.Execute(ctx, plugin.Call{
				ID:        call.ID,
				Name:      call.Name,
				Arguments: call.Arguments,
			})

			content := result.Content
			if result.Error != "" {
				content = fmt.Sprintf("Error: %s", result.Error)
			}
			if err := sess.Append(llm.Message{
				Role:       llm.RoleTool,
				Content:    content,
				ToolCallID: call.ID,
			}); err != nil {
				return "", fmt.Errorf("failed to persist tool result: %w", err)
			}
		}
	}

	return "", fmt.Errorf("reached maximum tool call iterations (%d)", a.cfg.MaxIterations)
}

// toolDefinitions exposes the currently invocable plugin commands. Disabled
// plugins and commands never reach the model.
func (a *Agent) toolDefinitions() []llm.ToolDefinition {
	if !a.provider.SupportsToolCalling() {
		return nil
	}

	schema := a.registry.ToSchema()
	if len(schema) == 0 {
		return nil
	}

	tools := make([]llm.ToolDefinition, len(schema))
	for i, def := range schema {
		tools[i] = llm.ToolDefinition{
			Name:        def.Name,
			Description: def.Description,
			Parameters:  def.Parameters,
		}
	}
	return tools
}
