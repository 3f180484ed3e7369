package workers

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks pool activity, labelled by task type.
type Metrics struct {
	Submitted *prometheus.CounterVec
	Completed *prometheus.CounterVec
	Failed    *prometheus.CounterVec
	Duration  *prometheus.HistogramVec
}

func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		Submitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "workers",
				Name:      "tasks_submitted_total",
				Help:      "Tasks submitted to the worker pool.",
			},
			[]string{"type"},
		),
		Completed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "workers",
				Name:      "tasks_completed_total",
				Help:      "Tasks that finished without error.",
			},
			[]string{"type"},
		),
		Failed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "workers",
				Name:      "tasks_failed_total",
				Help:      "Tasks that finished with an error.",
			},
			[]string{"type"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "workers",
				Name:      "task_duration_seconds",
				Help:      "Task execution duration.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"type"},
		),
	}

	reg.MustRegister(m.Submitted, m.Completed, m.Failed, m.Duration)
	return m
}
