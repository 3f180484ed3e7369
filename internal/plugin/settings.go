package plugin

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"reflect"
)

// Settings is the runtime overrides document for the catalogue, keyed by
// plugin ID. It is what the settings file contains and what ApplySettings
// consumes.
type Settings map[string]PluginSettings

// PluginSettings holds runtime state for a single plugin.
type PluginSettings struct {
	// Enabled switches the whole plugin. nil leaves the current state.
	Enabled *bool `json:"enabled,omitempty"`

	// Options overrides option values by name.
	Options map[string]any `json:"options,omitempty"`

	// Commands toggles individual commands by name.
	Commands map[string]bool `json:"commands,omitempty"`
}

// LoadSettings reads a settings file. A missing file yields empty settings.
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Settings{}, nil
		}
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse settings file: %w", err)
	}
	return s, nil
}

// ApplySettings applies runtime overrides to the registry. Plugins whose
// option values changed receive a settings-changed event so they can restart
// background workers; enable/disable transitions dispatch their own events.
// Unknown plugin IDs are skipped with an error in the returned slice.
func (r *Registry) ApplySettings(ctx context.Context, s Settings) []error {
	var errs []error

	for pluginID, ps := range s {
		p, ok := r.Get(pluginID)
		if !ok {
			errs = append(errs, fmt.Errorf("settings reference unknown plugin: %s", pluginID))
			continue
		}

		changed := make(map[string]any)
		for name, value := range ps.Options {
			if current, ok := r.OptionValue(pluginID, name); ok && reflect.DeepEqual(current, value) {
				continue
			}
			if err := r.SetOption(pluginID, name, value); err != nil {
				errs = append(errs, err)
				continue
			}
			changed[name] = value
		}

		for cmd, enabled := range ps.Commands {
			if err := r.SetCommandEnabled(pluginID, cmd, enabled); err != nil {
				errs = append(errs, err)
			}
		}

		if ps.Enabled != nil {
			var err error
			if *ps.Enabled {
				err = r.Enable(ctx, pluginID)
			} else {
				err = r.Disable(ctx, pluginID)
			}
			if err != nil {
				errs = append(errs, fmt.Errorf("plugin %s: %w", pluginID, err))
				continue
			}
		}

		// Only running plugins care about option changes.
		if len(changed) > 0 && r.IsEnabled(pluginID) {
			if err := p.Handle(ctx, Event{Type: EventSettingsChanged, PluginID: pluginID, Settings: changed}); err != nil {
				errs = append(errs, fmt.Errorf("plugin %s settings changed: %w", pluginID, err))
			}
		}
	}

	return errs
}
