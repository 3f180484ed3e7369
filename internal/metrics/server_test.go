package metrics

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gutosantos82/py-gpt/internal/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "text", Output: "stderr"})
	require.NoError(t, err)
	return log
}

func TestServerServesRegisteredMetrics(t *testing.T) {
	reg := NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "test_events_total",
		Help:      "Test counter.",
	})
	reg.MustRegister(counter)
	counter.Add(3)

	srv := NewServer("127.0.0.1:0", reg, testLogger(t))
	require.NoError(t, srv.Start())
	defer func() { _ = srv.Stop(context.Background()) }()

	resp, err := http.Get("http://" + srv.Addr() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "pygpt_test_events_total 3")
}

func TestServerDoubleStart(t *testing.T) {
	srv := NewServer("127.0.0.1:0", NewRegistry(), testLogger(t))
	require.NoError(t, srv.Start())
	defer func() { _ = srv.Stop(context.Background()) }()

	assert.Error(t, srv.Start())
}

func TestServerStopIdempotent(t *testing.T) {
	srv := NewServer("127.0.0.1:0", NewRegistry(), testLogger(t))
	require.NoError(t, srv.Start())

	require.NoError(t, srv.Stop(context.Background()))
	require.NoError(t, srv.Stop(context.Background()))
}
