package bus

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds prometheus counters for bus traffic.
type Metrics struct {
	InboundPublished  *prometheus.CounterVec
	OutboundPublished *prometheus.CounterVec
	Dropped           *prometheus.CounterVec
}

// NewMetrics registers bus counters on the given registerer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		InboundPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bus_inbound_messages_total",
				Help:      "Total inbound messages published to the bus",
			},
			[]string{"channel"},
		),
		OutboundPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bus_outbound_messages_total",
				Help:      "Total outbound messages published to the bus",
			},
			[]string{"channel"},
		),
		Dropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bus_dropped_messages_total",
				Help:      "Messages dropped because a queue was full",
			},
			[]string{"direction"},
		),
	}

	reg.MustRegister(m.InboundPublished, m.OutboundPublished, m.Dropped)
	return m
}
