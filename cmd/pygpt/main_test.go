package main

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gutosantos82/py-gpt/internal/cron"
	"github.com/gutosantos82/py-gpt/internal/logger"
)

func TestRunCmdFlags(t *testing.T) {
	tests := []struct {
		name          string
		args          []string
		wantConfig    string
		wantWorkspace string
		wantLogLevel  string
	}{
		{
			name:       "with config flag",
			args:       []string{"--config", "test.toml"},
			wantConfig: "test.toml",
		},
		{
			name:          "with workspace flag",
			args:          []string{"--workspace", "/tmp/ws"},
			wantWorkspace: "/tmp/ws",
		},
		{
			name:         "short flags",
			args:         []string{"-c", "test.toml", "-l", "debug"},
			wantConfig:   "test.toml",
			wantLogLevel: "debug",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runConfigPath = ""
			runWorkspace = ""
			runLogLevel = ""

			runCmd.SetArgs(tt.args)
			_ = runCmd.ParseFlags(tt.args)

			assert.Equal(t, tt.wantConfig, runConfigPath)
			assert.Equal(t, tt.wantWorkspace, runWorkspace)
			assert.Equal(t, tt.wantLogLevel, runLogLevel)
		})
	}
}

func TestCommandStructure(t *testing.T) {
	want := map[string]bool{
		"version": false,
		"config":  false,
		"run":     false,
		"plugins": false,
		"cron":    false,
		"release": false,
	}
	for _, cmd := range rootCmd.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		assert.True(t, found, "subcommand %s should be registered", name)
	}
}

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	workspace := filepath.Join(dir, "workspace")
	require.NoError(t, os.MkdirAll(workspace, 0755))

	configPath := filepath.Join(dir, "config.toml")
	content := fmt.Sprintf("[workspace]\npath = %q\n", workspace)
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))
	return configPath
}

func TestCronAddPersistsTask(t *testing.T) {
	cronConfigPath = writeTestConfig(t)
	cronNewContext = true
	cronNotify = false
	t.Cleanup(func() {
		cronConfigPath = ""
		cronNewContext = false
	})

	runCronAdd(cronAddCmd, []string{"*/5 * * * *", "summarize my inbox"})

	storage, _ := cronStorage()
	tasks, err := storage.Load()
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "*/5 * * * *", tasks[0].Schedule)
	assert.Equal(t, "summarize my inbox", tasks[0].Prompt)
	assert.True(t, tasks[0].NewContext)
	assert.False(t, tasks[0].Notify)
}

func TestCronRemoveDeletesTask(t *testing.T) {
	cronConfigPath = writeTestConfig(t)
	t.Cleanup(func() { cronConfigPath = "" })

	storage, _ := cronStorage()
	require.NoError(t, storage.Append(cron.Task{
		ID:       "task_keep",
		Schedule: "* * * * *",
		Prompt:   "ping",
	}))
	require.NoError(t, storage.Append(cron.Task{
		ID:       "task_drop",
		Schedule: "* * * * *",
		Prompt:   "pong",
	}))

	runCronRemove(cronRemoveCmd, []string{"task_drop"})

	tasks, err := storage.Load()
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "task_keep", tasks[0].ID)
}

func TestCronScheduleValidation(t *testing.T) {
	log, err := logger.New(logger.Config{Level: "error", Format: "text", Output: "stderr"})
	require.NoError(t, err)

	sched := cron.NewScheduler(log, nil, nil)
	assert.NoError(t, sched.Validate("*/5 * * * *"))
	assert.Error(t, sched.Validate("not a schedule"))
}
