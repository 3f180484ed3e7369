package code

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gutosantos82/py-gpt/internal/config"
	"github.com/gutosantos82/py-gpt/internal/docker"
	"github.com/gutosantos82/py-gpt/internal/logger"
)

// ExecuteCommand runs one snippet per container.
type ExecuteCommand struct {
	cfg    config.CodePluginConfig
	runner *docker.Runner
	logger *logger.Logger
}

type ExecuteArgs struct {
	Language string `json:"language"`
	Code     string `json:"code"`
	Timeout  *int   `json:"timeout,omitempty"`
}

func NewExecuteCommand(cfg config.CodePluginConfig, runner *docker.Runner, log *logger.Logger) *ExecuteCommand {
	return &ExecuteCommand{cfg: cfg, runner: runner, logger: log}
}

func (c *ExecuteCommand) Name() string {
	return "code_execute"
}

func (c *ExecuteCommand) Description() string {
	return "Executes a code snippet in a sandboxed container and returns its output."
}

func (c *ExecuteCommand) Parameters() map[string]interface{} {
	langs := make([]string, 0, len(c.cfg.Images))
	for lang := range c.cfg.Images {
		langs = append(langs, lang)
	}
	sort.Strings(langs)

	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"language": map[string]interface{}{
				"type":        "string",
				"enum":        langs,
				"description": "The language to run the snippet with.",
			},
			"code": map[string]interface{}{
				"type":        "string",
				"description": "The code to execute.",
			},
			"timeout": map[string]interface{}{
				"type":        "integer",
				"description": "Timeout in seconds. Overrides the configured default.",
				"minimum":     1,
				"maximum":     300,
			},
		},
		"required": []string{"language", "code"},
	}
}

func (c *ExecuteCommand) Execute(ctx context.Context, args string) (string, error) {
	var execArgs ExecuteArgs
	if err := json.Unmarshal([]byte(args), &execArgs); err != nil {
		return "", fmt.Errorf("failed to parse arguments: %w", err)
	}

	if strings.TrimSpace(execArgs.Code) == "" {
		return "", fmt.Errorf("code is required")
	}

	image, ok := c.cfg.Images[execArgs.Language]
	if !ok {
		return "", fmt.Errorf("unsupported language: %s", execArgs.Language)
	}

	timeout := time.Duration(c.cfg.TimeoutSeconds) * time.Second
	if execArgs.Timeout != nil {
		if *execArgs.Timeout < 1 || *execArgs.Timeout > 300 {
			return "", fmt.Errorf("timeout must be between 1 and 300 seconds")
		}
		timeout = time.Duration(*execArgs.Timeout) * time.Second
	}

	cmd, err := containerCommand(execArgs.Language, execArgs.Code)
	if err != nil {
		return "", err
	}

	result, err := c.runner.Run(ctx, docker.RunConfig{
		Image:   image,
		Cmd:     cmd,
		Timeout: timeout,
	})
	if err != nil {
		return "", fmt.Errorf("execution failed: %w", err)
	}

	c.logger.Info("code executed",
		logger.Field{Key: "language", Value: execArgs.Language},
		logger.Field{Key: "exit_code", Value: result.ExitCode},
		logger.Field{Key: "duration_ms", Value: result.Duration.Milliseconds()},
		logger.Field{Key: "timed_out", Value: result.TimedOut})

	out, err := json.MarshalIndent(map[string]interface{}{
		"language":  execArgs.Language,
		"exit_code": result.ExitCode,
		"timed_out": result.TimedOut,
		"duration":  result.Duration.String(),
		"output":    result.Output,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}
	return string(out), nil
}

// containerCommand maps a language to the in-container command line.
func containerCommand(language, code string) ([]string, error) {
	switch language {
	case "python":
		return []string{"python", "-c", code}, nil
	case "bash", "sh":
		return []string{"sh", "-c", code}, nil
	case "node", "javascript":
		return []string{"node", "-e", code}, nil
	default:
		return nil, fmt.Errorf("no command mapping for language: %s", language)
	}
}
