// Package code provides the code interpreter plugin. Snippets run inside
// throwaway Docker containers with no network and tight resource limits.
package code

import (
	"context"
	"sort"

	"github.com/gutosantos82/py-gpt/internal/config"
	"github.com/gutosantos82/py-gpt/internal/docker"
	"github.com/gutosantos82/py-gpt/internal/logger"
	"github.com/gutosantos82/py-gpt/internal/plugin"
)

const PluginID = "code"

type Plugin struct {
	cfg      config.CodePluginConfig
	logger   *logger.Logger
	commands []plugin.Command
}

func New(cfg config.CodePluginConfig, runner *docker.Runner, log *logger.Logger) *Plugin {
	return &Plugin{
		cfg:    cfg,
		logger: log,
		commands: []plugin.Command{
			NewExecuteCommand(cfg, runner, log),
		},
	}
}

func (p *Plugin) ID() string      { return PluginID }
func (p *Plugin) Name() string    { return "Code Interpreter" }
func (p *Plugin) Version() string { return "1.0.0" }

func (p *Plugin) Description() string {
	return "Executes code snippets in sandboxed Docker containers."
}

func (p *Plugin) Options() []plugin.Option {
	return []plugin.Option{
		{
			Name:        "timeout_seconds",
			Type:        plugin.OptionInt,
			Default:     p.cfg.TimeoutSeconds,
			Label:       "Execution timeout",
			Description: "Maximum run time per snippet in seconds.",
		},
		{
			Name:        "rate_per_minute",
			Type:        plugin.OptionInt,
			Default:     p.cfg.RatePerMinute,
			Label:       "Executions per minute",
			Description: "Rate limit on container runs.",
		},
	}
}

func (p *Plugin) Commands() []plugin.Command {
	return p.commands
}

func (p *Plugin) Handle(ctx context.Context, event plugin.Event) error {
	p.logger.Debug("code plugin event",
		logger.Field{Key: "event", Value: string(event.Type)})
	return nil
}

// Languages returns the configured language names, sorted.
func (p *Plugin) Languages() []string {
	langs := make([]string, 0, len(p.cfg.Images))
	for lang := range p.cfg.Images {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}
