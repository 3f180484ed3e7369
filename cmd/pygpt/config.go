package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gutosantos82/py-gpt/internal/config"
	"github.com/gutosantos82/py-gpt/internal/logger"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Validate and inspect PyGPT configuration.`,
}

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate [config-file]",
	Short: "Validate configuration file",
	Long:  `Validate the configuration file and check for errors.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		log, err := logger.New(logger.Config{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
			os.Exit(1)
		}

		configPath := "./config.toml"
		if len(args) > 0 {
			configPath = args[0]
		}

		log.Info("Validating configuration", logger.Field{Key: "path", Value: configPath})

		cfg, err := config.Load(configPath)
		if err != nil {
			log.Error("Failed to load config", err)
			os.Exit(1)
		}

		errors := cfg.Validate()
		if len(errors) > 0 {
			log.Error("Config validation failed", fmt.Errorf("%d errors", len(errors)))
			for _, e := range errors {
				log.Error("Validation error", e)
			}
			os.Exit(1)
		}

		log.Info("Configuration is valid")
	},
}

// configShowCmd prints the effective configuration with secrets masked.
var configShowCmd = &cobra.Command{
	Use:   "show [config-file]",
	Short: "Show effective configuration",
	Long:  `Print the effective configuration after defaults and environment expansion. Secrets are masked.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		configPath := "./config.toml"
		if len(args) > 0 {
			configPath = args[0]
		}

		cfg, err := config.Load(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("workspace: %s\n", cfg.Workspace.Path)
		fmt.Printf("agent: model=%s max_tokens=%d max_iterations=%d temperature=%.2f\n",
			cfg.Agent.Model, cfg.Agent.MaxTokens, cfg.Agent.MaxIterations, cfg.Agent.Temperature)
		fmt.Printf("llm: base_url=%s api_key=%s\n",
			cfg.LLM.BaseURL, config.MaskSecret(cfg.LLM.APIKey))
		fmt.Printf("logging: level=%s format=%s output=%s\n",
			cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
		fmt.Printf("plugins:\n")
		fmt.Printf("  files: enabled=%v\n", cfg.Plugins.Files.Enabled)
		fmt.Printf("  web: enabled=%v\n", cfg.Plugins.Web.Enabled)
		fmt.Printf("  code: enabled=%v rate_per_minute=%d\n",
			cfg.Plugins.Code.Enabled, cfg.Plugins.Code.RatePerMinute)
		fmt.Printf("  voice: enabled=%v voice=%s\n",
			cfg.Plugins.Voice.Enabled, cfg.Plugins.Voice.Voice)
		fmt.Printf("  telegram: enabled=%v bot_token=%s allowed_users=%d\n",
			cfg.Plugins.Telegram.Enabled,
			config.MaskTelegramToken(cfg.Plugins.Telegram.BotToken),
			len(cfg.Plugins.Telegram.AllowedUserIDs))
		fmt.Printf("cron: enabled=%v\n", cfg.Cron.Enabled)
		fmt.Printf("workers: pool_size=%d queue_size=%d\n",
			cfg.Workers.PoolSize, cfg.Workers.QueueSize)
		fmt.Printf("message_bus: capacity=%d\n", cfg.MessageBus.Capacity)
		fmt.Printf("metrics: enabled=%v listen=%s\n",
			cfg.Metrics.Enabled, cfg.Metrics.Listen)
		fmt.Printf("release: manifest=%s dist_dir=%s upload=%v\n",
			cfg.Release.ManifestPath, cfg.Release.DistDir, cfg.Release.Upload)
	},
}

func init() {
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)
}
