package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeOK        = "ok"
	OutcomeDuplicate = "duplicate"
	OutcomeError     = "error"
)

// Metrics is safe to use as a nil pointer; every method becomes a no-op.
type Metrics struct {
	recorded *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration *prometheus.HistogramVec
	messages *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	recorded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "elet2415_updates_recorded_total",
		Help: "Update inserts by outcome.",
	}, []string{"outcome"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "elet2415_query_failures_total",
		Help: "Failed store operations by operation and error class.",
	}, []string{"op", "class"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "elet2415_operation_duration_seconds",
		Help:    "Latency of store operations against MongoDB.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	}, []string{"op"})
	messages := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "elet2415_worker_messages_total",
		Help: "Queue messages handled by update workers.",
	}, []string{"result"})

	reg.MustRegister(recorded, failures, duration, messages)

	return &Metrics{
		recorded: recorded,
		failures: failures,
		duration: duration,
		messages: messages,
	}
}

func (m *Metrics) RecordOutcome(outcome string) {
	if m == nil {
		return
	}
	m.recorded.WithLabelValues(outcome).Inc()
}

func (m *Metrics) OperationFailed(op, class string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(op, class).Inc()
}

func (m *Metrics) ObserveDuration(op string, seconds float64) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(op).Observe(seconds)
}

func (m *Metrics) MessageHandled(result string) {
	if m == nil {
		return
	}
	m.messages.WithLabelValues(result).Inc()
}
