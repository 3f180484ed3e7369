package plugin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type slowCommand struct {
	stubCommand
	delay time.Duration
}

func (c *slowCommand) Execute(ctx context.Context, args string) (string, error) {
	select {
	case <-time.After(c.delay):
		return c.result, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func dispatcherFixture(t *testing.T, timeout time.Duration, cmds ...Command) (*Registry, *Dispatcher) {
	t.Helper()
	r := NewRegistry(testLogger(t))
	require.NoError(t, r.Register(&stubPlugin{id: "files", commands: cmds}))
	require.NoError(t, r.Enable(context.Background(), "files"))
	return r, NewDispatcher(r, testLogger(t), timeout)
}

func TestDispatcherExecute(t *testing.T) {
	cmd := &stubCommand{name: "read_file", result: "file contents"}
	_, d := dispatcherFixture(t, 0, cmd)

	res := d.Execute(context.Background(), Call{ID: "1", Name: "read_file", Arguments: `{"path":"a.txt"}`})
	assert.Equal(t, "1", res.CallID)
	assert.Equal(t, "file contents", res.Content)
	assert.Empty(t, res.Error)
	assert.Equal(t, 1, cmd.calls)
}

func TestDispatcherUnknownCommand(t *testing.T) {
	_, d := dispatcherFixture(t, 0, &stubCommand{name: "read_file"})

	res := d.Execute(context.Background(), Call{ID: "1", Name: "nope", Arguments: "{}"})
	assert.Contains(t, res.Error, "unknown command")
}

func TestDispatcherDisabledCommandNeverExecutes(t *testing.T) {
	cmd := &stubCommand{name: "write_file", result: "ok"}
	r, d := dispatcherFixture(t, 0, cmd)
	require.NoError(t, r.SetCommandEnabled("files", "write_file", false))

	res := d.Execute(context.Background(), Call{ID: "1", Name: "write_file", Arguments: "{}"})
	assert.Contains(t, res.Error, "disabled")
	assert.Equal(t, 0, cmd.calls)
}

func TestDispatcherDisabledPlugin(t *testing.T) {
	cmd := &stubCommand{name: "read_file", result: "ok"}
	r, d := dispatcherFixture(t, 0, cmd)
	require.NoError(t, r.Disable(context.Background(), "files"))

	res := d.Execute(context.Background(), Call{ID: "1", Name: "read_file", Arguments: "{}"})
	assert.Contains(t, res.Error, "disabled")
	assert.Equal(t, 0, cmd.calls)
}

func TestDispatcherCommandError(t *testing.T) {
	cmd := &stubCommand{name: "read_file", err: errors.New("no such file")}
	_, d := dispatcherFixture(t, 0, cmd)

	res := d.Execute(context.Background(), Call{ID: "1", Name: "read_file", Arguments: "{}"})
	assert.Contains(t, res.Error, "no such file")
	assert.False(t, res.TimedOut)
}

func TestDispatcherTimeout(t *testing.T) {
	cmd := &slowCommand{stubCommand: stubCommand{name: "read_file"}, delay: time.Second}
	_, d := dispatcherFixture(t, 50*time.Millisecond, cmd)

	res := d.Execute(context.Background(), Call{ID: "1", Name: "read_file", Arguments: "{}"})
	assert.True(t, res.TimedOut)
	assert.NotEmpty(t, res.Error)
}
