package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Load reads and parses a TOML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	expandEnvVars(&cfg)

	return &cfg, nil
}

// Validate checks the configuration and returns all problems found.
func (c *Config) Validate() []error {
	var errors []error

	if c.Workspace.Path == "" {
		errors = append(errors, fmt.Errorf("workspace.path is required"))
	} else if err := validatePath(c.Workspace.Path, "workspace.path"); err != nil {
		errors = append(errors, err)
	}

	if c.LLM.APIKey == "" {
		errors = append(errors, fmt.Errorf("llm.api_key is required"))
	} else if err := validateAPIKey(c.LLM.APIKey, "llm.api_key"); err != nil {
		errors = append(errors, err)
	}

	if c.Plugins.Telegram.Enabled {
		if c.Plugins.Telegram.BotToken == "" {
			errors = append(errors, fmt.Errorf("plugins.telegram.bot_token is required when the telegram plugin is enabled"))
		} else if err := validateTelegramToken(c.Plugins.Telegram.BotToken); err != nil {
			errors = append(errors, err)
		}
	}

	if c.Logging.Level == "" {
		errors = append(errors, fmt.Errorf("logging.level is required"))
	} else {
		validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
		if !validLevels[strings.ToLower(c.Logging.Level)] {
			errors = append(errors, fmt.Errorf("invalid logging.level: %s (expected: debug, info, warn, error)", c.Logging.Level))
		}
	}

	if c.Logging.Format == "" {
		errors = append(errors, fmt.Errorf("logging.format is required"))
	} else {
		validFormats := map[string]bool{"json": true, "text": true}
		if !validFormats[strings.ToLower(c.Logging.Format)] {
			errors = append(errors, fmt.Errorf("invalid logging.format: %s (expected: json, text)", c.Logging.Format))
		}
	}

	if c.Logging.Output == "" {
		errors = append(errors, fmt.Errorf("logging.output is required"))
	}

	if c.Plugins.Files.Enabled {
		for _, dir := range c.Plugins.Files.WhitelistDirs {
			if err := validatePath(dir, "plugins.files.whitelist_dirs"); err != nil {
				errors = append(errors, err)
			}
		}
	}

	if c.Plugins.Code.Enabled && len(c.Plugins.Code.Images) == 0 {
		errors = append(errors, fmt.Errorf("plugins.code.images cannot be empty when the code plugin is enabled"))
	}

	if c.Metrics.Enabled && c.Metrics.Listen == "" {
		errors = append(errors, fmt.Errorf("metrics.listen is required when metrics are enabled"))
	}

	return errors
}

func validateAPIKey(key, fieldName string) error {
	if len(key) < 10 {
		return fmt.Errorf("%s is too short (minimum 10 characters, got %d)", fieldName, len(key))
	}
	return nil
}

func validateTelegramToken(token string) error {
	parts := strings.Split(token, ":")
	if len(parts) != 2 {
		return fmt.Errorf("telegram token has invalid format (expected format: <bot_id>:<token>, got: %s)", MaskSecret(token))
	}

	botID := parts[0]
	botToken := parts[1]

	if len(botID) < 3 || len(botID) > 15 {
		return fmt.Errorf("telegram token has invalid bot ID length (expected 3-15 digits, got %d digits)", len(botID))
	}

	for _, r := range botID {
		if r < '0' || r > '9' {
			return fmt.Errorf("telegram token has invalid bot ID (expected digits only, got: %s)", botID)
		}
	}

	if len(botToken) < 10 || len(botToken) > 50 {
		return fmt.Errorf("telegram token has invalid token length (expected 10-50 characters, got %d)", len(botToken))
	}

	return nil
}

func validatePath(path, fieldName string) error {
	if path == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}

	if strings.HasPrefix(path, "~") {
		return nil
	}

	if strings.Contains(path, "..") {
		return fmt.Errorf("%s contains potentially dangerous path traversal sequence", fieldName)
	}

	return nil
}

func expandEnvVars(c *Config) {
	c.LLM.APIKey = expandEnv(c.LLM.APIKey)
	c.Plugins.Telegram.BotToken = expandEnv(c.Plugins.Telegram.BotToken)

	c.Workspace.Path = expandHome(expandEnv(c.Workspace.Path))
	c.Plugins.SettingsPath = expandHome(expandEnv(c.Plugins.SettingsPath))
	c.Release.ManifestPath = expandHome(expandEnv(c.Release.ManifestPath))
	c.Release.DistDir = expandHome(expandEnv(c.Release.DistDir))

	for i, dir := range c.Plugins.Files.WhitelistDirs {
		c.Plugins.Files.WhitelistDirs[i] = expandHome(dir)
	}
	for i, dir := range c.Plugins.Files.ReadOnlyDirs {
		c.Plugins.Files.ReadOnlyDirs[i] = expandHome(dir)
	}
}

// expandEnv expands a ${VAR} or ${VAR:default} reference.
func expandEnv(s string) string {
	if !strings.HasPrefix(s, "${") {
		return s
	}

	end := strings.Index(s, "}")
	if end == -1 {
		return s
	}

	content := s[2:end]
	if parts := strings.SplitN(content, ":", 2); len(parts) == 2 {
		key := parts[0]
		defaultVal := parts[1]
		if val := os.Getenv(key); val != "" {
			return val
		}
		return defaultVal
	}

	return os.Getenv(s[2:end])
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
