package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/gutosantos82/py-gpt/internal/config"
	"github.com/gutosantos82/py-gpt/internal/cron"
	"github.com/gutosantos82/py-gpt/internal/logger"
)

var (
	cronConfigPath string
	cronNewContext bool
	cronNotify     bool
)

var cronCmd = &cobra.Command{
	Use:   "cron",
	Short: "Manage scheduled tasks",
	Long: `Manage the crontab-style task scheduler. Tasks are persisted in the
workspace and picked up by a running assistant on its next start.`,
}

var cronAddCmd = &cobra.Command{
	Use:   "add <schedule> <prompt>",
	Short: "Add a scheduled prompt",
	Args:  cobra.ExactArgs(2),
	Run:   runCronAdd,
}

var cronListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all scheduled tasks",
	Run:   runCronList,
}

var cronRemoveCmd = &cobra.Command{
	Use:   "remove <task-id>",
	Short: "Remove a scheduled task",
	Args:  cobra.ExactArgs(1),
	Run:   runCronRemove,
}

func cronStorage() (*cron.Storage, *logger.Logger) {
	log, err := logger.New(logger.Config{Level: "error", Format: "text", Output: "stderr"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	configPath := cronConfigPath
	if configPath == "" {
		configPath = "./config.toml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	return cron.NewStorage(cfg.Workspace.Path, log), log
}

func runCronAdd(cmd *cobra.Command, args []string) {
	schedule := args[0]
	prompt := args[1]

	storage, log := cronStorage()

	// A throwaway scheduler gives us the crontab parser.
	if err := cron.NewScheduler(log, nil, nil).Validate(schedule); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid schedule: %v\n", err)
		os.Exit(1)
	}

	task := cron.Task{
		ID:         fmt.Sprintf("task_%s", uuid.NewString()),
		Schedule:   schedule,
		Prompt:     prompt,
		NewContext: cronNewContext,
		Notify:     cronNotify,
		CreatedAt:  time.Now(),
	}
	if err := storage.Append(task); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to save task: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Task added\n")
	fmt.Printf("ID: %s\n", task.ID)
	fmt.Printf("Schedule: %s\n", task.Schedule)
	fmt.Printf("Prompt: %s\n", task.Prompt)
	fmt.Printf("New context: %v, notify: %v\n", task.NewContext, task.Notify)
	fmt.Printf("Remove it with: pygpt cron remove %s\n", task.ID)
}

func runCronList(cmd *cobra.Command, args []string) {
	storage, _ := cronStorage()

	tasks, err := storage.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load tasks: %v\n", err)
		os.Exit(1)
	}
	if len(tasks) == 0 {
		fmt.Println("No scheduled tasks.")
		return
	}

	fmt.Printf("%d scheduled task(s):\n", len(tasks))
	for _, task := range tasks {
		flags := ""
		if task.NewContext {
			flags += " [new context]"
		}
		if task.Notify {
			flags += " [notify]"
		}
		fmt.Printf("  %s: %q at %q%s\n", task.ID, task.Prompt, task.Schedule, flags)
	}
}

func runCronRemove(cmd *cobra.Command, args []string) {
	storage, _ := cronStorage()

	if err := storage.Remove(args[0]); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to remove task: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ Task %s removed\n", args[0])
}

func init() {
	cronAddCmd.Flags().BoolVar(&cronNewContext, "new-context", false, "Run each firing in a fresh conversation context")
	cronAddCmd.Flags().BoolVar(&cronNotify, "notify", false, "Push the result to the user channel")
	cronCmd.PersistentFlags().StringVarP(&cronConfigPath, "config", "c", "", "Path to configuration file (default: ./config.toml)")

	cronCmd.AddCommand(cronAddCmd)
	cronCmd.AddCommand(cronListCmd)
	cronCmd.AddCommand(cronRemoveCmd)
}
