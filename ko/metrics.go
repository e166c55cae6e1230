package ko

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type graphMetrics struct {
	evaluations prometheus.Counter
	disposals   prometheus.Counter
}

func newGraphMetrics(reg prometheus.Registerer, namespace string) *graphMetrics {
	factory := promauto.With(reg)
	return &graphMetrics{
		evaluations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "evaluations_total",
			Help:      "Computed evaluations.",
		}),
		disposals: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "disposals_total",
			Help:      "Computeds disposed, explicitly or automatically.",
		}),
	}
}

func (m *graphMetrics) evaluated() {
	if m != nil {
		m.evaluations.Inc()
	}
}

func (m *graphMetrics) disposed() {
	if m != nil {
		m.disposals.Inc()
	}
}
