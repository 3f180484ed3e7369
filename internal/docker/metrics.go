package docker

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks container runs, labelled by image.
type Metrics struct {
	RunsStarted  *prometheus.CounterVec
	RunsFailed   *prometheus.CounterVec
	RunsTimedOut *prometheus.CounterVec
	RunDuration  *prometheus.HistogramVec
	RateLimited  prometheus.Counter
}

func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		RunsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "docker",
				Name:      "runs_started_total",
				Help:      "Container runs started.",
			},
			[]string{"image"},
		),
		RunsFailed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "docker",
				Name:      "runs_failed_total",
				Help:      "Container runs that exited non-zero or errored.",
			},
			[]string{"image"},
		),
		RunsTimedOut: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "docker",
				Name:      "runs_timed_out_total",
				Help:      "Container runs killed by timeout.",
			},
			[]string{"image"},
		),
		RunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "docker",
				Name:      "run_duration_seconds",
				Help:      "Container run wall time.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"image"},
		),
		RateLimited: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "docker",
				Name:      "rate_limited_total",
				Help:      "Runs rejected by the rate limiter.",
			},
		),
	}

	reg.MustRegister(m.RunsStarted, m.RunsFailed, m.RunsTimedOut, m.RunDuration, m.RateLimited)
	return m
}
