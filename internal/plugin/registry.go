package plugin

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/gutosantos82/py-gpt/internal/logger"
)

// Registry manages the plugin catalogue: registration, enabled state,
// per-command toggles, and option value overrides. All operations are
// thread-safe.
type Registry struct {
	mu      sync.RWMutex
	logger  *logger.Logger
	plugins map[string]Plugin
	order   []string // registration order for stable listings

	enabled  map[string]bool            // plugin id -> enabled
	commands map[string]map[string]bool // plugin id -> command name -> enabled
	options  map[string]map[string]any  // plugin id -> option name -> override value

	byCommand map[string]commandRef // command name -> owning plugin + command
}

type commandRef struct {
	pluginID string
	command  Command
}

// NewRegistry creates an empty plugin registry.
func NewRegistry(log *logger.Logger) *Registry {
	return &Registry{
		logger:    log,
		plugins:   make(map[string]Plugin),
		enabled:   make(map[string]bool),
		commands:  make(map[string]map[string]bool),
		options:   make(map[string]map[string]any),
		byCommand: make(map[string]commandRef),
	}
}

// Register adds a plugin to the catalogue. Command names must be globally
// unique across plugins; a collision is an error. Plugins start disabled
// until Enable is called.
func (r *Registry) Register(p Plugin) error {
	if p == nil {
		return fmt.Errorf("cannot register nil plugin")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := p.ID()
	if id == "" {
		return fmt.Errorf("plugin id cannot be empty")
	}
	if _, exists := r.plugins[id]; exists {
		return fmt.Errorf("plugin already registered: %s", id)
	}

	for _, cmd := range p.Commands() {
		name := cmd.Name()
		if name == "" {
			return fmt.Errorf("plugin %s has a command with empty name", id)
		}
		if ref, taken := r.byCommand[name]; taken {
			return fmt.Errorf("command %s of plugin %s collides with plugin %s", name, id, ref.pluginID)
		}
	}

	r.plugins[id] = p
	r.order = append(r.order, id)
	r.commands[id] = make(map[string]bool)
	for _, cmd := range p.Commands() {
		r.commands[id][cmd.Name()] = true
		r.byCommand[cmd.Name()] = commandRef{pluginID: id, command: cmd}
	}

	r.logger.Debug("plugin registered",
		logger.Field{Key: "plugin_id", Value: id},
		logger.Field{Key: "commands", Value: len(r.commands[id])})

	return nil
}

// Get retrieves a plugin by its ID.
func (r *Registry) Get(id string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[id]
	return p, ok
}

// List returns all registered plugins in registration order.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	plugins := make([]Plugin, 0, len(r.order))
	for _, id := range r.order {
		plugins = append(plugins, r.plugins[id])
	}
	return plugins
}

// Enable switches a plugin on and dispatches the enable event.
func (r *Registry) Enable(ctx context.Context, id string) error {
	r.mu.Lock()
	p, ok := r.plugins[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("plugin not registered: %s", id)
	}
	if r.enabled[id] {
		r.mu.Unlock()
		return nil
	}
	r.enabled[id] = true
	r.mu.Unlock()

	r.logger.Info("plugin enabled", logger.Field{Key: "plugin_id", Value: id})
	return p.Handle(ctx, Event{Type: EventEnable, PluginID: id})
}

// Disable switches a plugin off and dispatches the disable event.
func (r *Registry) Disable(ctx context.Context, id string) error {
	r.mu.Lock()
	p, ok := r.plugins[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("plugin not registered: %s", id)
	}
	if !r.enabled[id] {
		r.mu.Unlock()
		return nil
	}
	r.enabled[id] = false
	r.mu.Unlock()

	r.logger.Info("plugin disabled", logger.Field{Key: "plugin_id", Value: id})
	return p.Handle(ctx, Event{Type: EventDisable, PluginID: id})
}

// IsEnabled reports whether a plugin is currently enabled.
func (r *Registry) IsEnabled(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.enabled[id]
}

// SetCommandEnabled toggles a single command of a plugin.
func (r *Registry) SetCommandEnabled(pluginID, command string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cmds, ok := r.commands[pluginID]
	if !ok {
		return fmt.Errorf("plugin not registered: %s", pluginID)
	}
	if _, ok := cmds[command]; !ok {
		return fmt.Errorf("plugin %s has no command %s", pluginID, command)
	}
	cmds[command] = enabled
	return nil
}

// CommandEnabled reports whether a command may be invoked: the owning
// plugin must be enabled and the command toggle must be on.
func (r *Registry) CommandEnabled(command string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ref, ok := r.byCommand[command]
	if !ok {
		return false
	}
	return r.enabled[ref.pluginID] && r.commands[ref.pluginID][command]
}

// LookupCommand resolves a command name to its implementation and owning
// plugin ID.
func (r *Registry) LookupCommand(command string) (Command, string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ref, ok := r.byCommand[command]
	if !ok {
		return nil, "", false
	}
	return ref.command, ref.pluginID, true
}

// SetOption overrides an option value for a plugin at runtime.
// The caller is responsible for dispatching a settings-changed event
// afterwards (see ApplySettings).
func (r *Registry) SetOption(pluginID, name string, value any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.plugins[pluginID]; !ok {
		return fmt.Errorf("plugin not registered: %s", pluginID)
	}
	if r.options[pluginID] == nil {
		r.options[pluginID] = make(map[string]any)
	}
	r.options[pluginID][name] = value
	return nil
}

// OptionValue returns the current value of a plugin option: the runtime
// override if set, otherwise the declared default.
func (r *Registry) OptionValue(pluginID, name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if overrides, ok := r.options[pluginID]; ok {
		if v, ok := overrides[name]; ok {
			return v, true
		}
	}

	p, ok := r.plugins[pluginID]
	if !ok {
		return nil, false
	}
	for _, opt := range p.Options() {
		if opt.Name == name {
			return opt.Default, true
		}
	}
	return nil, false
}

// ToSchema returns function definitions for all currently invocable
// commands, sorted by name for deterministic prompts.
func (r *Registry) ToSchema() []CommandDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]CommandDefinition, 0, len(r.byCommand))
	for name, ref := range r.byCommand {
		if !r.enabled[ref.pluginID] || !r.commands[ref.pluginID][name] {
			continue
		}
		defs = append(defs, CommandDefinition{
			Name:        name,
			Description: ref.command.Description(),
			Parameters:  ref.command.Parameters(),
		})
	}

	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// CommandDefinition is a command definition in OpenAI function calling format.
type CommandDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}
