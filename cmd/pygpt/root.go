package main

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pygpt",
	Short: "PyGPT - personal AI assistant with a plugin catalogue",
	Long: `PyGPT is a self-hosted AI assistant built around a plugin catalogue:
file access, web search, sandboxed code execution, voice synthesis, a
Telegram gateway and a crontab-style task scheduler, all toggleable at
runtime. Plugins expose commands the model can call during a conversation.`,
	Version: Version,
}

func init() {
	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(pluginsCmd)
	rootCmd.AddCommand(cronCmd)
	rootCmd.AddCommand(releaseCmd)
}
