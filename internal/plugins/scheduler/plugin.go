// Package scheduler is the scheduled-tasks plugin. It exposes the cron
// scheduler to the model as commands: tasks carry a crontab expression, a
// prompt, and flags controlling whether the run opens a fresh conversation
// context and whether the result is pushed to the user. Enabling the plugin
// starts the scheduler; disabling it stops all timers.
package scheduler

import (
	"context"

	"github.com/gutosantos82/py-gpt/internal/cron"
	"github.com/gutosantos82/py-gpt/internal/logger"
	"github.com/gutosantos82/py-gpt/internal/plugin"
)

// PluginID is the catalogue identifier of the scheduled-tasks plugin.
const PluginID = "cron"

// Plugin exposes the cron scheduler as plugin commands.
type Plugin struct {
	scheduler *cron.Scheduler
	logger    *logger.Logger
	commands  []plugin.Command
}

func New(scheduler *cron.Scheduler, log *logger.Logger) *Plugin {
	p := &Plugin{
		scheduler: scheduler,
		logger:    log,
	}
	p.commands = []plugin.Command{
		&AddCommand{plugin: p},
		&ListCommand{plugin: p},
		&RemoveCommand{plugin: p},
	}
	return p
}

func (p *Plugin) ID() string      { return PluginID }
func (p *Plugin) Name() string    { return "Crontab / Task scheduler" }
func (p *Plugin) Version() string { return "1.0.0" }

func (p *Plugin) Description() string {
	return "Schedules recurring prompts using crontab expressions."
}

func (p *Plugin) Options() []plugin.Option {
	return nil
}

func (p *Plugin) Commands() []plugin.Command {
	return p.commands
}

// Handle starts the scheduler on enable and stops it on disable. Scheduled
// tasks stay persisted while the plugin is off and resume on re-enable.
func (p *Plugin) Handle(ctx context.Context, ev plugin.Event) error {
	switch ev.Type {
	case plugin.EventEnable:
		if p.scheduler.IsStarted() {
			return nil
		}
		return p.scheduler.Start(ctx)
	case plugin.EventDisable:
		if !p.scheduler.IsStarted() {
			return nil
		}
		return p.scheduler.Stop()
	}
	return nil
}
