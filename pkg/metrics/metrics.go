// Package metrics holds the prometheus collectors shared by the actor
// framework, the HTTP clients and the topic forwarders.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups every collector the actors report to.
type Metrics struct {
	operationsTotal     *prometheus.CounterVec
	operationDuration   *prometheus.HistogramVec
	operationAttempts   *prometheus.CounterVec
	clientRequestsTotal *prometheus.CounterVec
	clientDuration      *prometheus.HistogramVec
	circuitBreakerState *prometheus.GaugeVec
	topicMessagesTotal  *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. A nil reg
// leaves them unregistered, which is what unit tests want.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "policy_actor_operations_total",
				Help: "Total number of actor operations by final result",
			},
			[]string{"actor", "operation", "result"},
		),

		operationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "policy_actor_operation_duration_seconds",
				Help:    "Duration of actor operations including retries",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"actor", "operation"},
		),

		operationAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "policy_actor_operation_attempts_total",
				Help: "Total number of individual operation attempts",
			},
			[]string{"actor", "operation"},
		),

		clientRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "policy_actor_http_client_requests_total",
				Help: "Total number of HTTP client requests by status code",
			},
			[]string{"client", "method", "status"},
		),

		clientDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "policy_actor_http_client_request_duration_seconds",
				Help:    "Duration of HTTP client requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"client"},
		),

		circuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "policy_actor_http_client_circuit_breaker_state",
				Help: "Current circuit breaker state (0=Closed, 1=HalfOpen, 2=Open)",
			},
			[]string{"client"},
		),

		topicMessagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "policy_actor_topic_messages_total",
				Help: "Total number of topic messages by direction",
			},
			[]string{"topic", "direction"},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.operationsTotal,
			m.operationDuration,
			m.operationAttempts,
			m.clientRequestsTotal,
			m.clientDuration,
			m.circuitBreakerState,
			m.topicMessagesTotal,
		)
	}

	return m
}

// Noop returns unregistered collectors.
func Noop() *Metrics {
	return New(nil)
}

// RecordOperation records the final result of an operation.
func (m *Metrics) RecordOperation(actor, operation, result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.operationsTotal.WithLabelValues(actor, operation, result).Inc()
	m.operationDuration.WithLabelValues(actor, operation).Observe(duration.Seconds())
}

// RecordAttempt counts one attempt of an operation.
func (m *Metrics) RecordAttempt(actor, operation string) {
	if m == nil {
		return
	}
	m.operationAttempts.WithLabelValues(actor, operation).Inc()
}

// RecordClientRequest records one HTTP exchange. status is the HTTP code
// or "error" when no response was received.
func (m *Metrics) RecordClientRequest(client, method, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.clientRequestsTotal.WithLabelValues(client, method, status).Inc()
	m.clientDuration.WithLabelValues(client).Observe(duration.Seconds())
}

// SetCircuitBreakerState sets the breaker gauge for client.
func (m *Metrics) SetCircuitBreakerState(client string, state float64) {
	if m == nil {
		return
	}
	m.circuitBreakerState.WithLabelValues(client).Set(state)
}

// RecordTopicMessage counts a message published ("out") or received ("in").
func (m *Metrics) RecordTopicMessage(topic, direction string) {
	if m == nil {
		return
	}
	m.topicMessagesTotal.WithLabelValues(topic, direction).Inc()
}
