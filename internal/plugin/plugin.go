// Package plugin defines the plugin catalogue: named, independently
// configurable adapters that expose commands to the language model. Each
// command is individually enabled or disabled; the dispatcher refuses calls
// to disabled or unknown commands. Plugins receive lifecycle events when they
// are enabled, disabled, or when their settings change.
package plugin

import (
	"context"
)

// EventType represents a plugin lifecycle event.
type EventType string

const (
	// EventEnable is dispatched when the plugin is switched on.
	EventEnable EventType = "enable"
	// EventDisable is dispatched when the plugin is switched off.
	EventDisable EventType = "disable"
	// EventSettingsChanged is dispatched after the plugin's option values
	// change at runtime. Plugins with background workers restart them.
	EventSettingsChanged EventType = "settings_changed"
)

// Event carries a lifecycle notification to a plugin. For settings-changed
// events, Settings holds the option values that changed, keyed by option
// name, so the plugin can reconfigure without a registry reference.
type Event struct {
	Type     EventType
	PluginID string
	Settings map[string]any
}

// Plugin is a named adapter over one external API or OS facility.
type Plugin interface {
	// ID returns the unique plugin identifier (e.g. "files", "telegram").
	ID() string

	// Name returns the human-readable plugin name.
	Name() string

	// Version returns the plugin version string.
	Version() string

	// Description explains what the plugin does.
	Description() string

	// Options returns the plugin's configuration surface with defaults.
	Options() []Option

	// Commands returns the commands the plugin exposes to the model.
	Commands() []Command

	// Handle reacts to a lifecycle event. Plugins without background
	// state may return nil unconditionally.
	Handle(ctx context.Context, ev Event) error
}

// Command is a callable unit within a plugin, invoked by the model with
// named parameters encoded as a JSON object.
type Command interface {
	// Name returns the unique command name used in function calling.
	Name() string

	// Description helps the model decide when to use the command.
	Description() string

	// Parameters returns a JSON Schema object describing the command's
	// input parameters, in OpenAI function calling format.
	Parameters() map[string]interface{}

	// Execute runs the command. args is a JSON-encoded object with the
	// command's named parameters. The result is returned as text.
	Execute(ctx context.Context, args string) (string, error)
}
