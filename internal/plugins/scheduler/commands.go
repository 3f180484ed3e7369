package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gutosantos82/py-gpt/internal/cron"
	"github.com/gutosantos82/py-gpt/internal/logger"
)

// AddCommand registers a new scheduled task.
type AddCommand struct {
	plugin *Plugin
}

type AddArgs struct {
	Schedule   string `json:"schedule"`
	Prompt     string `json:"prompt"`
	NewContext bool   `json:"new_context,omitempty"`
	Notify     bool   `json:"notify,omitempty"`
}

func (c *AddCommand) Name() string {
	return "cron_add"
}

func (c *AddCommand) Description() string {
	return "Schedules a recurring prompt. The schedule is a standard five-field crontab expression."
}

func (c *AddCommand) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"schedule": map[string]interface{}{
				"type":        "string",
				"description": "Crontab expression, e.g. '30 9 * * 1-5'.",
			},
			"prompt": map[string]interface{}{
				"type":        "string",
				"description": "Prompt sent to the assistant when the schedule fires.",
			},
			"new_context": map[string]interface{}{
				"type":        "boolean",
				"description": "Run each firing in a fresh conversation context.",
			},
			"notify": map[string]interface{}{
				"type":        "boolean",
				"description": "Push the result to the user channel.",
			},
		},
		"required": []string{"schedule", "prompt"},
	}
}

func (c *AddCommand) Execute(ctx context.Context, args string) (string, error) {
	var addArgs AddArgs
	if err := json.Unmarshal([]byte(args), &addArgs); err != nil {
		return "", fmt.Errorf("failed to parse arguments: %w", err)
	}

	id, err := c.plugin.scheduler.Add(cron.Task{
		Schedule:   addArgs.Schedule,
		Prompt:     addArgs.Prompt,
		NewContext: addArgs.NewContext,
		Notify:     addArgs.Notify,
	})
	if err != nil {
		return "", err
	}

	c.plugin.logger.Info("scheduled task added",
		logger.Field{Key: "task_id", Value: id},
		logger.Field{Key: "schedule", Value: addArgs.Schedule})

	out, err := json.Marshal(map[string]string{
		"status":   "scheduled",
		"task":     id,
		"schedule": addArgs.Schedule,
	})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// ListCommand lists scheduled tasks.
type ListCommand struct {
	plugin *Plugin
}

func (c *ListCommand) Name() string {
	return "cron_list"
}

func (c *ListCommand) Description() string {
	return "Lists all scheduled tasks."
}

func (c *ListCommand) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

func (c *ListCommand) Execute(ctx context.Context, args string) (string, error) {
	tasks := c.plugin.scheduler.List()
	if len(tasks) == 0 {
		return "no scheduled tasks", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d scheduled task(s):\n", len(tasks))
	for _, task := range tasks {
		flags := make([]string, 0, 2)
		if task.NewContext {
			flags = append(flags, "new_context")
		}
		if task.Notify {
			flags = append(flags, "notify")
		}
		flagText := ""
		if len(flags) > 0 {
			flagText = " [" + strings.Join(flags, ",") + "]"
		}
		fmt.Fprintf(&sb, "%s: %q at %q%s\n", task.ID, task.Prompt, task.Schedule, flagText)
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

// RemoveCommand removes a scheduled task by ID.
type RemoveCommand struct {
	plugin *Plugin
}

type RemoveArgs struct {
	Task string `json:"task"`
}

func (c *RemoveCommand) Name() string {
	return "cron_remove"
}

func (c *RemoveCommand) Description() string {
	return "Removes a scheduled task by its identifier."
}

func (c *RemoveCommand) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"task": map[string]interface{}{
				"type":        "string",
				"description": "Identifier of the task to remove.",
			},
		},
		"required": []string{"task"},
	}
}

func (c *RemoveCommand) Execute(ctx context.Context, args string) (string, error) {
	var removeArgs RemoveArgs
	if err := json.Unmarshal([]byte(args), &removeArgs); err != nil {
		return "", fmt.Errorf("failed to parse arguments: %w", err)
	}

	if removeArgs.Task == "" {
		return "", fmt.Errorf("task is required")
	}

	if err := c.plugin.scheduler.Remove(removeArgs.Task); err != nil {
		return "", err
	}

	c.plugin.logger.Info("scheduled task removed",
		logger.Field{Key: "task_id", Value: removeArgs.Task})

	return fmt.Sprintf("task %s removed", removeArgs.Task), nil
}
