// Package app assembles the runtime: message bus, worker pool, plugin
// catalogue, cron scheduler, agent loop, and the optional metrics listener.
// Components start in dependency order and shut down in reverse.
package app

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gutosantos82/py-gpt/internal/agent"
	"github.com/gutosantos82/py-gpt/internal/bus"
	"github.com/gutosantos82/py-gpt/internal/config"
	"github.com/gutosantos82/py-gpt/internal/cron"
	"github.com/gutosantos82/py-gpt/internal/logger"
	"github.com/gutosantos82/py-gpt/internal/metrics"
	"github.com/gutosantos82/py-gpt/internal/plugin"
	"github.com/gutosantos82/py-gpt/internal/plugins/telegram"
	"github.com/gutosantos82/py-gpt/internal/workers"
	"github.com/gutosantos82/py-gpt/internal/workspace"
)

// App holds the runtime components.
type App struct {
	config *config.Config
	logger *logger.Logger

	metricsReg *prometheus.Registry
	metricsSrv *metrics.Server

	messageBus *bus.MessageBus
	workspace  *workspace.Workspace
	workerPool *workers.Pool

	plugins    *plugin.Registry
	dispatcher *plugin.Dispatcher
	watcher    *plugin.SettingsWatcher
	telegram   *telegram.Plugin

	scheduler *cron.Scheduler
	agent     *agent.Agent

	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
	started bool
}

// New creates an App. Components are built in Initialize.
func New(cfg *config.Config, log *logger.Logger) *App {
	return &App{
		config: cfg,
		logger: log,
	}
}

// Run initializes all components and blocks until the context is cancelled,
// then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	if err := a.Initialize(ctx); err != nil {
		return err
	}

	a.logger.Info("application is running")
	<-ctx.Done()

	return a.Shutdown()
}

// Plugins returns the plugin registry, available after Initialize.
func (a *App) Plugins() *plugin.Registry {
	return a.plugins
}

// Scheduler returns the cron scheduler, available after Initialize.
func (a *App) Scheduler() *cron.Scheduler {
	return a.scheduler
}
