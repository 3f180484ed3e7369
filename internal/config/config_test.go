package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
[workspace]
path = "/tmp/pygpt-test"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", cfg.Agent.Model)
	assert.Equal(t, 20, cfg.Agent.MaxIterations)
	assert.Equal(t, "https://api.openai.com/v1", cfg.LLM.BaseURL)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.NotZero(t, cfg.Workers.PoolSize)
	assert.NotZero(t, cfg.MessageBus.Capacity)
	assert.Equal(t, 10, cfg.Plugins.Code.RatePerMinute)
}

func TestLoadParsesPluginTables(t *testing.T) {
	path := writeConfig(t, `
[workspace]
path = "/tmp/pygpt-test"

[plugins.web]
enabled = true
max_results = 5

[plugins.web.commands]
web_search = false

[plugins.telegram]
enabled = true
bot_token = "123456789:AAbbCCddEEffGGhhIIjjKKllMM"
allowed_user_ids = [42, 99]

[cron]
enabled = true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Plugins.Web.Enabled)
	assert.Equal(t, 5, cfg.Plugins.Web.MaxResults)
	assert.Equal(t, map[string]bool{"web_search": false}, cfg.Plugins.Web.Commands)
	assert.Equal(t, []int64{42, 99}, cfg.Plugins.Telegram.AllowedUserIDs)
	assert.True(t, cfg.Cron.Enabled)
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("PYGPT_TEST_KEY", "sk-from-env-0123456789")

	path := writeConfig(t, `
[workspace]
path = "/tmp/pygpt-test"

[llm]
api_key = "${PYGPT_TEST_KEY}"

[plugins.telegram]
bot_token = "${PYGPT_MISSING_TOKEN:fallback-token}"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sk-from-env-0123456789", cfg.LLM.APIKey)
	assert.Equal(t, "fallback-token", cfg.Plugins.Telegram.BotToken)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := &Config{}
	cfg.Plugins.Telegram.Enabled = true

	errs := cfg.Validate()
	require.NotEmpty(t, errs)

	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		messages = append(messages, e.Error())
	}
	joined := ""
	for _, m := range messages {
		joined += m + "\n"
	}
	assert.Contains(t, joined, "workspace.path")
	assert.Contains(t, joined, "llm.api_key")
	assert.Contains(t, joined, "plugins.telegram.bot_token")
}

func TestValidateTelegramToken(t *testing.T) {
	tests := []struct {
		token string
		valid bool
	}{
		{"123456789:AAbbCCddEEffGGhhIIjjKKllMM", true},
		{"no-colon-here", false},
		{"nodigits:AAbbCCddEEffGGhhIIjjKKllMM", false},
		{"123456789:short", false},
	}

	for _, tt := range tests {
		err := validateTelegramToken(tt.token)
		if tt.valid {
			assert.NoError(t, err, tt.token)
		} else {
			assert.Error(t, err, tt.token)
		}
	}
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", MaskSecret(""))
	assert.Equal(t, "***", MaskSecret("short"))
	assert.Equal(t, "sk-a********cdef", MaskSecret("sk-a12345678cdef"))

	// A prefix plus suffix of a short secret is the whole secret.
	assert.Equal(t, "***", MaskSecret("12345678"))
	assert.Equal(t, "***", MaskSecret("12345678901"))
	assert.NotContains(t, MaskSecret("123456789012"), "56789")
}

func TestMaskTelegramToken(t *testing.T) {
	masked := MaskTelegramToken("123456789:AAbbCCddEEffGGhhIIjjKKllMM")
	assert.Contains(t, masked, "123456789:")
	assert.NotContains(t, masked, "AAbbCCddEEffGGhhIIjjKKllMM")
}

func TestWorkspaceDerivedDirs(t *testing.T) {
	cfg := &Config{}
	cfg.Workspace.Path = "/data/pygpt"

	assert.Equal(t, "/data/pygpt/sessions", cfg.SessionsDir())
	assert.Equal(t, "/data/pygpt/voice", cfg.VoiceDir())
	assert.Equal(t, "/data/pygpt/cron", cfg.Cron.TasksDir(cfg.Workspace.Path))
}
