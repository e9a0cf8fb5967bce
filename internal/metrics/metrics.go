// Package metrics holds the Prometheus metrics for command submission and application.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	CommandsSubmitted *prometheus.CounterVec
	CommandsApplied   *prometheus.CounterVec
	CommandsFailed    *prometheus.CounterVec
	RequestsRejected  *prometheus.CounterVec
}

// New creates and registers all metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CommandsSubmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roster_commands_submitted_total",
				Help: "Total number of commands handed to an executor",
			},
			[]string{"command_type", "outcome"},
		),
		CommandsApplied: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roster_commands_applied_total",
				Help: "Total number of queued commands applied by the consumer",
			},
			[]string{"command_type"},
		),
		CommandsFailed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roster_commands_failed_total",
				Help: "Total number of queued commands that failed and were left for redelivery",
			},
			[]string{"command_type"},
		),
		RequestsRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roster_requests_rejected_total",
				Help: "Total number of requests rejected before submission",
			},
			[]string{"operation", "kind"},
		),
	}

	reg.MustRegister(
		m.CommandsSubmitted,
		m.CommandsApplied,
		m.CommandsFailed,
		m.RequestsRejected,
	)

	return m
}

// Submitted records a command handed to an executor.
func (m *Metrics) Submitted(commandType, outcome string) {
	if m == nil {
		return
	}
	m.CommandsSubmitted.WithLabelValues(commandType, outcome).Inc()
}

// Applied records a command applied by the consumer.
func (m *Metrics) Applied(commandType string) {
	if m == nil {
		return
	}
	m.CommandsApplied.WithLabelValues(commandType).Inc()
}

// Failed records a command the consumer could not apply.
func (m *Metrics) Failed(commandType string) {
	if m == nil {
		return
	}
	m.CommandsFailed.WithLabelValues(commandType).Inc()
}

// Rejected records a request rejected with the given error kind.
func (m *Metrics) Rejected(operation, kind string) {
	if m == nil {
		return
	}
	m.RequestsRejected.WithLabelValues(operation, kind).Inc()
}
