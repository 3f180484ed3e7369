package files

import (
	"context"

	"github.com/gutosantos82/py-gpt/internal/config"
	"github.com/gutosantos82/py-gpt/internal/logger"
	"github.com/gutosantos82/py-gpt/internal/plugin"
	"github.com/gutosantos82/py-gpt/internal/workspace"
)

const PluginID = "files"

// Plugin exposes workspace file operations as commands.
type Plugin struct {
	cfg      config.FilesPluginConfig
	ws       *workspace.Workspace
	logger   *logger.Logger
	commands []plugin.Command
}

func New(cfg config.FilesPluginConfig, ws *workspace.Workspace, log *logger.Logger) *Plugin {
	base := commandBase{workspace: ws, cfg: cfg}
	return &Plugin{
		cfg:    cfg,
		ws:     ws,
		logger: log,
		commands: []plugin.Command{
			&ReadCommand{commandBase: base},
			&WriteCommand{commandBase: base},
			&DeleteCommand{commandBase: base},
			&ListCommand{commandBase: base},
		},
	}
}

func (p *Plugin) ID() string      { return PluginID }
func (p *Plugin) Name() string    { return "Files I/O" }
func (p *Plugin) Version() string { return "1.0.0" }

func (p *Plugin) Description() string {
	return "Reads, writes, deletes and lists files inside the workspace."
}

func (p *Plugin) Options() []plugin.Option {
	return []plugin.Option{
		{
			Name:        "whitelist_dirs",
			Type:        plugin.OptionText,
			Default:     joinList(p.cfg.WhitelistDirs),
			Label:       "Whitelisted directories",
			Description: "Absolute directories accessible outside the workspace, comma separated.",
		},
		{
			Name:        "read_only_dirs",
			Type:        plugin.OptionText,
			Default:     joinList(p.cfg.ReadOnlyDirs),
			Label:       "Read-only directories",
			Description: "Directories where write and delete are rejected, comma separated.",
		},
	}
}

func (p *Plugin) Commands() []plugin.Command {
	return p.commands
}

// Handle is a no-op: the files plugin keeps no background state.
func (p *Plugin) Handle(ctx context.Context, event plugin.Event) error {
	p.logger.Debug("files plugin event",
		logger.Field{Key: "event", Value: string(event.Type)})
	return nil
}

func joinList(items []string) string {
	out := ""
	for i, item := range items {
		if i > 0 {
			out += ","
		}
		out += item
	}
	return out
}
