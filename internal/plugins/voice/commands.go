package voice

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/gutosantos82/py-gpt/internal/logger"
	"github.com/gutosantos82/py-gpt/internal/workers"
	"github.com/gutosantos82/py-gpt/internal/workspace"
)

// SpeakCommand queues text-to-speech synthesis on the worker pool and
// returns immediately with the output path.
type SpeakCommand struct {
	plugin *Plugin
}

type SpeakArgs struct {
	Text     string `json:"text"`
	Voice    string `json:"voice,omitempty"`
	Language string `json:"language,omitempty"`
}

func (c *SpeakCommand) Name() string {
	return "text_to_speech"
}

func (c *SpeakCommand) Description() string {
	return "Converts text to speech. Synthesis runs in the background; the audio file path is returned immediately."
}

func (c *SpeakCommand) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"text": map[string]interface{}{
				"type":        "string",
				"description": "The text to speak.",
			},
			"voice": map[string]interface{}{
				"type":        "string",
				"description": "Voice preset. Defaults to the configured voice.",
			},
			"language": map[string]interface{}{
				"type":        "string",
				"description": "BCP 47 language tag, e.g. 'en' or 'pt-BR'.",
			},
		},
		"required": []string{"text"},
	}
}

func (c *SpeakCommand) Execute(ctx context.Context, args string) (string, error) {
	var speakArgs SpeakArgs
	if err := json.Unmarshal([]byte(args), &speakArgs); err != nil {
		return "", fmt.Errorf("failed to parse arguments: %w", err)
	}

	if strings.TrimSpace(speakArgs.Text) == "" {
		return "", fmt.Errorf("text is required")
	}
	if err := validateLanguage(speakArgs.Language); err != nil {
		return "", err
	}

	voice := speakArgs.Voice
	if voice == "" {
		voice = c.plugin.cfg.Voice
	}

	outputPath := filepath.Join(c.plugin.ws.Subpath(workspace.SubdirVoice), audioFileName())
	taskID := fmt.Sprintf("speech_%s", uuid.NewString())

	err := c.plugin.pool.SubmitWithContext(ctx, workers.Task{
		ID:   taskID,
		Type: SpeechTaskType,
		Payload: SpeechRequest{
			Text:       speakArgs.Text,
			Voice:      voice,
			Model:      c.plugin.cfg.SpeechModel,
			OutputPath: outputPath,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to queue synthesis: %w", err)
	}

	c.plugin.logger.Info("speech synthesis queued",
		logger.Field{Key: "task_id", Value: taskID},
		logger.Field{Key: "voice", Value: voice})

	out, err := json.Marshal(map[string]string{
		"status": "queued",
		"task":   taskID,
		"path":   outputPath,
	})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// TranscribeCommand converts an audio file in the workspace to text.
type TranscribeCommand struct {
	plugin *Plugin
}

type TranscribeArgs struct {
	Path     string `json:"path"`
	Language string `json:"language,omitempty"`
}

func (c *TranscribeCommand) Name() string {
	return "transcribe"
}

func (c *TranscribeCommand) Description() string {
	return "Transcribes an audio file from the workspace to text."
}

func (c *TranscribeCommand) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Path to the audio file, relative to the workspace.",
			},
			"language": map[string]interface{}{
				"type":        "string",
				"description": "BCP 47 language tag hint for recognition.",
			},
		},
		"required": []string{"path"},
	}
}

func (c *TranscribeCommand) Execute(ctx context.Context, args string) (string, error) {
	var trArgs TranscribeArgs
	if err := json.Unmarshal([]byte(args), &trArgs); err != nil {
		return "", fmt.Errorf("failed to parse arguments: %w", err)
	}

	if trArgs.Path == "" {
		return "", fmt.Errorf("path is required")
	}
	if err := validateLanguage(trArgs.Language); err != nil {
		return "", err
	}

	fullPath, err := c.plugin.ws.ResolvePath(trArgs.Path)
	if err != nil {
		return "", err
	}

	languageTag := trArgs.Language
	if languageTag == "" {
		languageTag = c.plugin.cfg.Language
	}

	text, err := c.plugin.synth.Transcribe(ctx, fullPath, c.plugin.cfg.TranscribeModel, languageTag)
	if err != nil {
		return "", err
	}

	return text, nil
}
