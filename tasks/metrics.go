package tasks

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts scheduler activity. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	Scheduled       prometheus.Counter
	Run             prometheus.Counter
	Errors          prometheus.Counter
	RecursionAborts prometheus.Counter
	Flushes         prometheus.Counter
}

// NewMetrics registers the scheduler counters with reg under namespace.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)
	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tasks",
			Name:      name,
			Help:      help,
		})
	}

	return &Metrics{
		Scheduled:       counter("scheduled_total", "Tasks added to the queue."),
		Run:             counter("run_total", "Tasks that ran to completion."),
		Errors:          counter("errors_total", "Tasks that panicked."),
		RecursionAborts: counter("recursion_aborts_total", "Flushes aborted by the recursion guard."),
		Flushes:         counter("flushes_total", "Completed flushes."),
	}
}

func (m *Metrics) scheduled() {
	if m != nil {
		m.Scheduled.Inc()
	}
}

func (m *Metrics) ran() {
	if m != nil {
		m.Run.Inc()
	}
}

func (m *Metrics) failed() {
	if m != nil {
		m.Errors.Inc()
	}
}

func (m *Metrics) recursionAborted() {
	if m != nil {
		m.RecursionAborts.Inc()
	}
}

func (m *Metrics) flushed() {
	if m != nil {
		m.Flushes.Inc()
	}
}
