package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gutosantos82/py-gpt/internal/app"
	"github.com/gutosantos82/py-gpt/internal/config"
	"github.com/gutosantos82/py-gpt/internal/logger"
	"github.com/gutosantos82/py-gpt/internal/version"
)

var (
	runConfigPath string
	runWorkspace  string
	runLogLevel   string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the PyGPT assistant (main command)",
	Long: `Start the PyGPT assistant with the specified configuration.
This initializes all components (message bus, worker pool, plugin catalogue,
cron scheduler, agent loop) and handles graceful shutdown on SIGINT/SIGTERM.`,
	Run: runHandler,
}

func runHandler(cmd *cobra.Command, args []string) {
	loadDotEnv("./.env")

	configPath := runConfigPath
	if configPath == "" {
		configPath = "./config.toml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("❌ Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if runLogLevel != "" {
		cfg.Logging.Level = runLogLevel
	}
	if runWorkspace != "" {
		cfg.Workspace.Path = runWorkspace
	}

	if errors := cfg.Validate(); len(errors) > 0 {
		fmt.Printf("❌ Configuration validation failed:\n")
		for _, e := range errors {
			fmt.Printf("  - %v\n", e)
		}
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		fmt.Printf("❌ Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.Info("🚀 Starting PyGPT",
		logger.Field{Key: "version", Value: version.Short()},
		logger.Field{Key: "config", Value: configPath},
		logger.Field{Key: "workspace", Value: cfg.Workspace.Path},
		logger.Field{Key: "model", Value: cfg.Agent.Model},
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application := app.New(cfg, log)
	if err := application.Run(ctx); err != nil {
		log.Error("PyGPT exited with error", err)
		os.Exit(1)
	}

	log.Info("👋 PyGPT stopped gracefully")
}

// loadDotEnv sets environment variables from a .env file when one exists.
// Existing variables are not overridden.
func loadDotEnv(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		if _, set := os.LookupEnv(key); !set {
			os.Setenv(key, strings.TrimSpace(parts[1]))
		}
	}
}

func init() {
	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "", "Path to configuration file (default: ./config.toml)")
	runCmd.Flags().StringVarP(&runWorkspace, "workspace", "w", "", "Path to workspace directory (overrides config)")
	runCmd.Flags().StringVarP(&runLogLevel, "log-level", "l", "", "Override log level (debug, info, warn, error)")
}
