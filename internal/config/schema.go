// Package config provides configuration loading and validation.
// It supports TOML configuration files with environment variable expansion,
// default values, and comprehensive validation.
//
// Configuration structure:
//   - [workspace]: Workspace directory settings
//   - [agent]: Agent model and behavior configuration
//   - [llm]: LLM provider configuration (OpenAI-compatible endpoint)
//   - [logging]: Logging level, format, and output
//   - [plugins.*]: Per-plugin option tables and command toggles
//   - [cron]: Scheduler configuration
//   - [workers]: Worker pool sizing
//   - [message_bus]: Message bus capacity settings
//   - [metrics]: Prometheus listener settings
//   - [release]: Release pipeline settings
//
// Environment variables can be referenced using ${VAR} or ${VAR:default}
// syntax. For example: api_key = "${OPENAI_API_KEY}"
package config

import "path/filepath"

// Config represents the main application configuration.
type Config struct {
	Workspace  WorkspaceConfig  `toml:"workspace"`
	Agent      AgentConfig      `toml:"agent"`
	LLM        LLMConfig        `toml:"llm"`
	Logging    LoggingConfig    `toml:"logging"`
	Plugins    PluginsConfig    `toml:"plugins"`
	Cron       CronConfig       `toml:"cron"`
	Workers    WorkersConfig    `toml:"workers"`
	MessageBus MessageBusConfig `toml:"message_bus"`
	Metrics    MetricsConfig    `toml:"metrics"`
	Release    ReleaseConfig    `toml:"release"`
}

// WorkspaceConfig holds the workspace directory settings.
type WorkspaceConfig struct {
	Path string `toml:"path"`
}

// AgentConfig holds agent behavior settings.
type AgentConfig struct {
	Model          string  `toml:"model"`
	MaxTokens      int     `toml:"max_tokens"`
	MaxIterations  int     `toml:"max_iterations"`
	Temperature    float64 `toml:"temperature"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	SystemPrompt   string  `toml:"system_prompt"`
}

// LLMConfig holds the OpenAI-compatible provider settings.
type LLMConfig struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	Output string `toml:"output"`
}

// PluginsConfig groups per-plugin configuration tables.
// Each table carries the plugin's option values plus a `commands`
// map toggling individual commands on or off. A command missing
// from the map is enabled by default.
type PluginsConfig struct {
	SettingsPath string `toml:"settings_path"` // optional overrides file, hot-reloaded

	Files    FilesPluginConfig    `toml:"files"`
	Web      WebPluginConfig      `toml:"web"`
	Code     CodePluginConfig     `toml:"code"`
	Voice    VoicePluginConfig    `toml:"voice"`
	Telegram TelegramPluginConfig `toml:"telegram"`
}

// FilesPluginConfig holds the files plugin options.
type FilesPluginConfig struct {
	Enabled       bool            `toml:"enabled"`
	WhitelistDirs []string        `toml:"whitelist_dirs"`
	ReadOnlyDirs  []string        `toml:"read_only_dirs"`
	Commands      map[string]bool `toml:"commands"`
}

// WebPluginConfig holds the web plugin options.
type WebPluginConfig struct {
	Enabled         bool            `toml:"enabled"`
	TimeoutSeconds  int             `toml:"timeout_seconds"`
	MaxResponseSize int64           `toml:"max_response_size"`
	UserAgent       string          `toml:"user_agent"`
	SearchBaseURL   string          `toml:"search_base_url"`
	MaxResults      int             `toml:"max_results"`
	Commands        map[string]bool `toml:"commands"`
}

// CodePluginConfig holds the code interpreter plugin options.
type CodePluginConfig struct {
	Enabled        bool              `toml:"enabled"`
	Images         map[string]string `toml:"images"` // language -> docker image
	TimeoutSeconds int               `toml:"timeout_seconds"`
	MaxOutputBytes int64             `toml:"max_output_bytes"`
	RatePerMinute  int               `toml:"rate_per_minute"`
	Commands       map[string]bool   `toml:"commands"`
}

// VoicePluginConfig holds the voice plugin options.
type VoicePluginConfig struct {
	Enabled         bool            `toml:"enabled"`
	Voice           string          `toml:"voice"`
	Language        string          `toml:"language"`
	SpeechModel     string          `toml:"speech_model"`
	TranscribeModel string          `toml:"transcribe_model"`
	Commands        map[string]bool `toml:"commands"`
}

// TelegramPluginConfig holds the telegram gateway plugin options.
type TelegramPluginConfig struct {
	Enabled            bool            `toml:"enabled"`
	BotToken           string          `toml:"bot_token"`
	AllowedUserIDs     []int64         `toml:"allowed_user_ids"`
	SendTimeoutSeconds int             `toml:"send_timeout_seconds"`
	NotifyChatID       int64           `toml:"notify_chat_id"`
	Commands           map[string]bool `toml:"commands"`
}

// CronConfig holds scheduler settings.
type CronConfig struct {
	Enabled  bool   `toml:"enabled"`
	Timezone string `toml:"timezone"`
}

// CronSubdirectory is the subdirectory name for scheduled tasks within workspace.
const CronSubdirectory = "cron"

// TasksDir returns the directory where scheduled tasks are persisted.
func (c *CronConfig) TasksDir(workspacePath string) string {
	return filepath.Join(workspacePath, CronSubdirectory)
}

// WorkersConfig holds worker pool sizing.
type WorkersConfig struct {
	PoolSize  int `toml:"pool_size"`
	QueueSize int `toml:"queue_size"`
}

// MessageBusConfig holds message bus capacity settings.
type MessageBusConfig struct {
	Capacity int `toml:"capacity"`
}

// MetricsConfig holds the Prometheus listener settings.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Listen  string `toml:"listen"`
}

// ReleaseConfig holds release pipeline settings.
type ReleaseConfig struct {
	ManifestPath string `toml:"manifest_path"`
	DistDir      string `toml:"dist_dir"`
	Upload       bool   `toml:"upload"`
}

// VoiceDir returns the directory where synthesized audio is written.
func (c *Config) VoiceDir() string {
	return filepath.Join(c.Workspace.Path, "voice")
}

// SessionsDir returns the directory where session transcripts live.
func (c *Config) SessionsDir() string {
	return filepath.Join(c.Workspace.Path, "sessions")
}
