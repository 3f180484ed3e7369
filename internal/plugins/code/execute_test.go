package code

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gutosantos82/py-gpt/internal/config"
	"github.com/gutosantos82/py-gpt/internal/logger"
)

func testCommand(t *testing.T) *ExecuteCommand {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "text", Output: "stderr"})
	require.NoError(t, err)

	cfg := config.CodePluginConfig{
		Images: map[string]string{
			"python": "python:3.12-slim",
			"bash":   "alpine:3.20",
		},
		TimeoutSeconds: 30,
	}
	// Runner is nil: argument validation must reject bad input before any
	// container work happens.
	return NewExecuteCommand(cfg, nil, log)
}

func TestExecuteRejectsUnknownLanguage(t *testing.T) {
	cmd := testCommand(t)
	_, err := cmd.Execute(context.Background(), `{"language": "ruby", "code": "puts 1"}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported language")
}

func TestExecuteRequiresCode(t *testing.T) {
	cmd := testCommand(t)
	_, err := cmd.Execute(context.Background(), `{"language": "python", "code": "  "}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "code is required")
}

func TestExecuteRejectsBadTimeout(t *testing.T) {
	cmd := testCommand(t)
	_, err := cmd.Execute(context.Background(), `{"language": "python", "code": "print(1)", "timeout": 0}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}

func TestContainerCommand(t *testing.T) {
	cmd, err := containerCommand("python", "print(1)")
	require.NoError(t, err)
	assert.Equal(t, []string{"python", "-c", "print(1)"}, cmd)

	cmd, err = containerCommand("bash", "echo hi")
	require.NoError(t, err)
	assert.Equal(t, []string{"sh", "-c", "echo hi"}, cmd)

	_, err = containerCommand("cobol", "x")
	assert.Error(t, err)
}

func TestParametersListLanguages(t *testing.T) {
	cmd := testCommand(t)
	params := cmd.Parameters()

	props := params["properties"].(map[string]interface{})
	lang := props["language"].(map[string]interface{})
	assert.Equal(t, []string{"bash", "python"}, lang["enum"])
}
