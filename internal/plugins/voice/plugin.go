// Package voice provides the voice plugin: text-to-speech synthesis running
// on the worker pool and audio transcription. Audio output lands in the
// workspace voice directory.
package voice

import (
	"context"
	"fmt"

	"golang.org/x/text/language"

	"github.com/gutosantos82/py-gpt/internal/config"
	"github.com/gutosantos82/py-gpt/internal/logger"
	"github.com/gutosantos82/py-gpt/internal/plugin"
	"github.com/gutosantos82/py-gpt/internal/workers"
	"github.com/gutosantos82/py-gpt/internal/workspace"
)

const (
	PluginID = "voice"

	// SpeechTaskType is the worker pool task type for background synthesis.
	SpeechTaskType = "speech"
)

// Pool is the worker pool surface the plugin needs.
type Pool interface {
	SubmitWithContext(ctx context.Context, task workers.Task) error
}

type Plugin struct {
	cfg      config.VoicePluginConfig
	synth    *Synthesizer
	ws       *workspace.Workspace
	pool     Pool
	logger   *logger.Logger
	commands []plugin.Command
}

func New(cfg config.VoicePluginConfig, synth *Synthesizer, ws *workspace.Workspace, pool Pool, log *logger.Logger) *Plugin {
	p := &Plugin{
		cfg:    cfg,
		synth:  synth,
		ws:     ws,
		pool:   pool,
		logger: log,
	}
	p.commands = []plugin.Command{
		&SpeakCommand{plugin: p},
		&TranscribeCommand{plugin: p},
	}
	return p
}

func (p *Plugin) ID() string      { return PluginID }
func (p *Plugin) Name() string    { return "Audio Output & Input" }
func (p *Plugin) Version() string { return "1.0.0" }

func (p *Plugin) Description() string {
	return "Synthesizes speech from text and transcribes audio files."
}

func (p *Plugin) Options() []plugin.Option {
	return []plugin.Option{
		{
			Name:        "voice",
			Type:        plugin.OptionText,
			Default:     p.cfg.Voice,
			Label:       "Voice",
			Description: "Voice preset used for synthesis.",
		},
		{
			Name:        "language",
			Type:        plugin.OptionText,
			Default:     p.cfg.Language,
			Label:       "Language",
			Description: "BCP 47 language tag, e.g. 'en' or 'pt-BR'.",
		},
		{
			Name:        "speech_model",
			Type:        plugin.OptionText,
			Default:     p.cfg.SpeechModel,
			Label:       "Speech model",
			Description: "Model used for text-to-speech.",
		},
		{
			Name:        "transcribe_model",
			Type:        plugin.OptionText,
			Default:     p.cfg.TranscribeModel,
			Label:       "Transcription model",
			Description: "Model used for audio transcription.",
		},
	}
}

func (p *Plugin) Commands() []plugin.Command {
	return p.commands
}

func (p *Plugin) Handle(ctx context.Context, event plugin.Event) error {
	p.logger.Debug("voice plugin event",
		logger.Field{Key: "event", Value: string(event.Type)})
	return nil
}

// Executor returns the worker pool executor for speech tasks.
func (p *Plugin) Executor() workers.Executor {
	return func(ctx context.Context, task workers.Task) (string, error) {
		req, ok := task.Payload.(SpeechRequest)
		if !ok {
			return "", fmt.Errorf("invalid speech task payload")
		}
		return p.synth.Synthesize(ctx, req)
	}
}

// validateLanguage checks a BCP 47 tag.
func validateLanguage(tag string) error {
	if tag == "" {
		return nil
	}
	if _, err := language.Parse(tag); err != nil {
		return fmt.Errorf("invalid language tag %q: %w", tag, err)
	}
	return nil
}
