package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gutosantos82/py-gpt/internal/agent"
	"github.com/gutosantos82/py-gpt/internal/bus"
	"github.com/gutosantos82/py-gpt/internal/cron"
	"github.com/gutosantos82/py-gpt/internal/docker"
	"github.com/gutosantos82/py-gpt/internal/llm"
	"github.com/gutosantos82/py-gpt/internal/logger"
	"github.com/gutosantos82/py-gpt/internal/metrics"
	"github.com/gutosantos82/py-gpt/internal/plugin"
	"github.com/gutosantos82/py-gpt/internal/plugins/code"
	"github.com/gutosantos82/py-gpt/internal/plugins/files"
	"github.com/gutosantos82/py-gpt/internal/plugins/scheduler"
	"github.com/gutosantos82/py-gpt/internal/plugins/telegram"
	"github.com/gutosantos82/py-gpt/internal/plugins/voice"
	"github.com/gutosantos82/py-gpt/internal/plugins/web"
	"github.com/gutosantos82/py-gpt/internal/workers"
	"github.com/gutosantos82/py-gpt/internal/workspace"
)

// Initialize builds and starts all components in dependency order:
// metrics registry, message bus, workspace, worker pool, plugin catalogue,
// cron scheduler, and finally the agent loop.
func (a *App) Initialize(ctx context.Context) error {
	a.ctx, a.cancel = context.WithCancel(ctx)

	a.metricsReg = metrics.NewRegistry()

	a.messageBus = bus.New(a.config.MessageBus.Capacity, a.logger,
		bus.NewMetrics(metrics.Namespace, a.metricsReg))
	if err := a.messageBus.Start(a.ctx); err != nil {
		return fmt.Errorf("failed to start message bus: %w", err)
	}

	ws := workspace.New(a.config.Workspace.Path)
	if err := ws.EnsureDir(); err != nil {
		return fmt.Errorf("failed to create workspace directory: %w", err)
	}
	a.workspace = ws

	a.workerPool = workers.NewPool(a.config.Workers.PoolSize, a.config.Workers.QueueSize,
		a.logger, workers.NewMetrics(metrics.Namespace, a.metricsReg))

	provider := llm.NewOpenAIProvider(llm.OpenAIConfig{
		APIKey:         a.config.LLM.APIKey,
		BaseURL:        a.config.LLM.BaseURL,
		Model:          a.config.Agent.Model,
		TimeoutSeconds: a.config.LLM.TimeoutSeconds,
	}, a.logger)

	if err := a.initPlugins(); err != nil {
		return err
	}

	a.workerPool.RegisterExecutor(cron.TaskType, a.cronExecutor())
	a.workerPool.Start()

	if err := a.enablePlugins(); err != nil {
		return err
	}

	if a.config.Plugins.SettingsPath != "" {
		a.watcher = plugin.NewSettingsWatcher(a.plugins, a.config.Plugins.SettingsPath, a.logger)
		if err := a.watcher.Start(a.ctx); err != nil {
			return fmt.Errorf("failed to start settings watcher: %w", err)
		}
	}

	sessions, err := agent.NewSessionManager(a.config.SessionsDir())
	if err != nil {
		return fmt.Errorf("failed to create session manager: %w", err)
	}

	a.agent = agent.New(a.config.Agent, provider, a.plugins, a.dispatcher,
		sessions, a.messageBus, a.logger)
	if err := a.agent.Start(a.ctx); err != nil {
		return fmt.Errorf("failed to start agent: %w", err)
	}

	if a.config.Metrics.Enabled {
		a.metricsSrv = metrics.NewServer(a.config.Metrics.Listen, a.metricsReg, a.logger)
		if err := a.metricsSrv.Start(); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
	}

	a.mu.Lock()
	a.started = true
	a.mu.Unlock()
	return nil
}

// initPlugins registers every configured plugin in the catalogue and applies
// the per-command toggles. Registration does not enable anything yet.
func (a *App) initPlugins() error {
	a.plugins = plugin.NewRegistry(a.logger)
	a.dispatcher = plugin.NewDispatcher(a.plugins, a.logger,
		time.Duration(a.config.Agent.TimeoutSeconds)*time.Second)

	cfg := a.config.Plugins

	if err := a.plugins.Register(files.New(cfg.Files, a.workspace, a.logger)); err != nil {
		return fmt.Errorf("failed to register files plugin: %w", err)
	}
	a.applyCommandToggles(files.PluginID, cfg.Files.Commands)

	if err := a.plugins.Register(web.New(cfg.Web, a.logger)); err != nil {
		return fmt.Errorf("failed to register web plugin: %w", err)
	}
	a.applyCommandToggles(web.PluginID, cfg.Web.Commands)

	if cfg.Code.Enabled {
		client, err := docker.NewDaemonClient()
		if err != nil {
			return fmt.Errorf("code plugin is enabled but docker is unavailable: %w", err)
		}
		runner := docker.NewRunner(client, cfg.Code.RatePerMinute, a.logger,
			docker.NewMetrics(metrics.Namespace, a.metricsReg))
		if err := a.plugins.Register(code.New(cfg.Code, runner, a.logger)); err != nil {
			return fmt.Errorf("failed to register code plugin: %w", err)
		}
		a.applyCommandToggles(code.PluginID, cfg.Code.Commands)
	}

	synth := voice.NewSynthesizer(voice.SynthesizerConfig{
		APIKey:         a.config.LLM.APIKey,
		BaseURL:        a.config.LLM.BaseURL,
		TimeoutSeconds: a.config.LLM.TimeoutSeconds,
	}, a.logger)
	voicePlugin := voice.New(cfg.Voice, synth, a.workspace, a.workerPool, a.logger)
	if err := a.plugins.Register(voicePlugin); err != nil {
		return fmt.Errorf("failed to register voice plugin: %w", err)
	}
	a.applyCommandToggles(voice.PluginID, cfg.Voice.Commands)
	a.workerPool.RegisterExecutor(voice.SpeechTaskType, voicePlugin.Executor())

	a.telegram = telegram.New(cfg.Telegram, a.logger, a.messageBus)
	a.telegram.SetToggler(a.plugins)
	if err := a.plugins.Register(a.telegram); err != nil {
		return fmt.Errorf("failed to register telegram plugin: %w", err)
	}
	a.applyCommandToggles(telegram.PluginID, cfg.Telegram.Commands)

	storage := cron.NewStorage(a.workspace.Path(), a.logger)
	a.scheduler = cron.NewScheduler(a.logger, poolAdapter{a.workerPool}, storage,
		cron.WithTimezone(a.config.Cron.Timezone))
	if err := a.plugins.Register(scheduler.New(a.scheduler, a.logger)); err != nil {
		return fmt.Errorf("failed to register scheduler plugin: %w", err)
	}

	return nil
}

// enablePlugins switches on the plugins the configuration enables. Enabling
// dispatches the lifecycle event that starts plugin workers (telegram
// polling, cron timers).
func (a *App) enablePlugins() error {
	enabled := map[string]bool{
		files.PluginID:     a.config.Plugins.Files.Enabled,
		web.PluginID:       a.config.Plugins.Web.Enabled,
		code.PluginID:      a.config.Plugins.Code.Enabled,
		voice.PluginID:     a.config.Plugins.Voice.Enabled,
		telegram.PluginID:  a.config.Plugins.Telegram.Enabled,
		scheduler.PluginID: a.config.Cron.Enabled,
	}

	for id, on := range enabled {
		if !on {
			continue
		}
		if _, ok := a.plugins.Get(id); !ok {
			continue
		}
		if err := a.plugins.Enable(a.ctx, id); err != nil {
			return fmt.Errorf("failed to enable plugin %s: %w", id, err)
		}
	}
	return nil
}

func (a *App) applyCommandToggles(pluginID string, toggles map[string]bool) {
	for command, enabled := range toggles {
		if err := a.plugins.SetCommandEnabled(pluginID, command, enabled); err != nil {
			a.logger.Warn("invalid command toggle",
				logger.Field{Key: "plugin", Value: pluginID},
				logger.Field{Key: "command", Value: command},
				logger.Field{Key: "error", Value: err.Error()})
		}
	}
}

// poolAdapter lets the cron scheduler submit to the worker pool without a
// package cycle.
type poolAdapter struct {
	pool *workers.Pool
}

func (p poolAdapter) Submit(task cron.PoolTask) {
	p.pool.Submit(workers.Task{
		ID:      task.ID,
		Type:    task.Type,
		Payload: task.Payload,
		Context: task.Context,
	})
}

// cronExecutor turns a fired scheduled task into an inbound bus message. A
// task that asks for a fresh context gets a unique session per firing.
func (a *App) cronExecutor() workers.Executor {
	return func(ctx context.Context, task workers.Task) (string, error) {
		payload, ok := task.Payload.(cron.TaskPayload)
		if !ok {
			return "", fmt.Errorf("invalid cron task payload")
		}

		session := fmt.Sprintf("cron_%s", payload.TaskID)
		if payload.NewContext {
			session = fmt.Sprintf("%s_%d", session, time.Now().UnixNano())
		}

		metadata := map[string]any{
			"task_id": payload.TaskID,
			"notify":  payload.Notify,
		}
		for k, v := range payload.Metadata {
			metadata[k] = v
		}

		msg := bus.NewInboundMessage(bus.ChannelTypeCron, "scheduler", session,
			payload.Prompt, metadata)
		if err := a.messageBus.PublishInbound(*msg); err != nil {
			return "", fmt.Errorf("failed to publish scheduled prompt: %w", err)
		}
		return fmt.Sprintf("scheduled prompt dispatched to session %s", session), nil
	}
}
