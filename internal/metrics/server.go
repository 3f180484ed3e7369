// Package metrics exposes the runtime's prometheus registry over HTTP. The
// bus, worker pool, and docker runner register their collectors on one shared
// registry; the server scrapes it at /metrics.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gutosantos82/py-gpt/internal/logger"
)

// Namespace prefixes every metric the runtime registers.
const Namespace = "pygpt"

// NewRegistry creates the shared registry with standard process and Go
// runtime collectors preinstalled.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Server serves /metrics.
type Server struct {
	registry *prometheus.Registry
	logger   *logger.Logger
	listen   string

	mu       sync.Mutex
	listener net.Listener
	httpSrv  *http.Server
}

// NewServer creates a metrics server bound to the given address,
// e.g. "127.0.0.1:9090".
func NewServer(listen string, registry *prometheus.Registry, log *logger.Logger) *Server {
	return &Server{
		registry: registry,
		logger:   log,
		listen:   listen,
	}
}

// Start binds the listener and serves in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpSrv != nil {
		return fmt.Errorf("metrics server is already started")
	}

	listener, err := net.Listen("tcp", s.listen)
	if err != nil {
		return fmt.Errorf("failed to bind metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))

	s.listener = listener
	s.httpSrv = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := s.httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server failed", err)
		}
	}()

	s.logger.Info("metrics server started",
		logger.Field{Key: "address", Value: listener.Addr().String()})
	return nil
}

// Addr returns the bound address, useful when the listen address uses
// port 0.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpSrv == nil {
		return nil
	}

	err := s.httpSrv.Shutdown(ctx)
	s.httpSrv = nil
	s.listener = nil
	s.logger.Info("metrics server stopped")
	return err
}
