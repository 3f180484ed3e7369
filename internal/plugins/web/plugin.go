// Package web provides the web plugin: URL fetching with format conversion
// and DuckDuckGo HTML search.
package web

import (
	"context"

	"github.com/gutosantos82/py-gpt/internal/config"
	"github.com/gutosantos82/py-gpt/internal/logger"
	"github.com/gutosantos82/py-gpt/internal/plugin"
)

const PluginID = "web"

type Plugin struct {
	cfg      config.WebPluginConfig
	logger   *logger.Logger
	commands []plugin.Command
}

func New(cfg config.WebPluginConfig, log *logger.Logger) *Plugin {
	return &Plugin{
		cfg:    cfg,
		logger: log,
		commands: []plugin.Command{
			NewFetchCommand(cfg, log),
			NewSearchCommand(cfg, log),
		},
	}
}

func (p *Plugin) ID() string      { return PluginID }
func (p *Plugin) Name() string    { return "Web Access" }
func (p *Plugin) Version() string { return "1.0.0" }

func (p *Plugin) Description() string {
	return "Fetches URLs and searches the web."
}

func (p *Plugin) Options() []plugin.Option {
	return []plugin.Option{
		{
			Name:        "timeout_seconds",
			Type:        plugin.OptionInt,
			Default:     p.cfg.TimeoutSeconds,
			Label:       "Request timeout",
			Description: "HTTP request timeout in seconds.",
		},
		{
			Name:        "user_agent",
			Type:        plugin.OptionText,
			Default:     p.cfg.UserAgent,
			Label:       "User agent",
			Description: "User-Agent header sent with every request.",
		},
		{
			Name:        "max_results",
			Type:        plugin.OptionInt,
			Default:     p.cfg.MaxResults,
			Label:       "Search result limit",
			Description: "Maximum number of web search results returned.",
		},
	}
}

func (p *Plugin) Commands() []plugin.Command {
	return p.commands
}

func (p *Plugin) Handle(ctx context.Context, event plugin.Event) error {
	p.logger.Debug("web plugin event",
		logger.Field{Key: "event", Value: string(event.Type)})
	return nil
}
