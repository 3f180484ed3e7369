package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/gutosantos82/py-gpt/internal/config"
)

var pluginsConfigPath string

var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "Inspect the plugin catalogue",
}

var pluginsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List plugins and their configured state",
	Run:   runPluginsList,
}

func runPluginsList(cmd *cobra.Command, args []string) {
	configPath := pluginsConfigPath
	if configPath == "" {
		configPath = "./config.toml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	type entry struct {
		id       string
		enabled  bool
		commands map[string]bool
	}
	entries := []entry{
		{"files", cfg.Plugins.Files.Enabled, cfg.Plugins.Files.Commands},
		{"web", cfg.Plugins.Web.Enabled, cfg.Plugins.Web.Commands},
		{"code", cfg.Plugins.Code.Enabled, cfg.Plugins.Code.Commands},
		{"voice", cfg.Plugins.Voice.Enabled, cfg.Plugins.Voice.Commands},
		{"telegram", cfg.Plugins.Telegram.Enabled, cfg.Plugins.Telegram.Commands},
		{"cron", cfg.Cron.Enabled, nil},
	}

	for _, e := range entries {
		state := "disabled"
		if e.enabled {
			state = "enabled"
		}
		fmt.Printf("%s (%s)\n", e.id, state)

		if len(e.commands) == 0 {
			continue
		}
		names := make([]string, 0, len(e.commands))
		for name := range e.commands {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			toggle := "on"
			if !e.commands[name] {
				toggle = "off"
			}
			fmt.Printf("  %s: %s\n", name, toggle)
		}
	}
}

func init() {
	pluginsCmd.PersistentFlags().StringVarP(&pluginsConfigPath, "config", "c", "", "Path to configuration file (default: ./config.toml)")
	pluginsCmd.AddCommand(pluginsListCmd)
}
