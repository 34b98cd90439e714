// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// LLMRequestDuration tracks language-model call duration.
	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "Language-model request duration",
			Buckets: []float64{.5, 1, 2, 5, 10, 20, 30, 45, 60, 90, 120},
		},
		[]string{"provider", "status"},
	)

	// MessagesTotal tracks messages persisted, by sender kind.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_total",
			Help: "Total messages persisted",
		},
		[]string{"sender_kind"},
	)

	// OrchestratorDecisionsTotal tracks orchestrator decisions by outcome.
	OrchestratorDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orchestrator_decisions_total",
			Help: "Orchestrator decisions by outcome",
		},
		[]string{"outcome"},
	)

	// OrchestratorTurnDepth tracks consecutive AI turns before control
	// returned to the user.
	OrchestratorTurnDepth = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "orchestrator_turn_depth",
			Help:    "Consecutive AI turns per user message",
			Buckets: []float64{0, 1, 2, 3},
		},
	)

	// TitleGenerationsTotal tracks best-effort thread title generations.
	TitleGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "title_generations_total",
			Help: "Thread title generations by status",
		},
		[]string{"status"},
	)

	// SSEConnectionsActive tracks active SSE connections.
	SSEConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sse_connections_active",
			Help: "Number of active SSE connections",
		},
	)
)

// Decision outcomes for OrchestratorDecisionsTotal.
const (
	DecisionWaitForUser = "wait_for_user"
	DecisionPersonaTurn = "persona_turn"
	DecisionInvalid     = "invalid"
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordLLMRequest records metrics for one language-model call.
func RecordLLMRequest(provider, status string, duration float64) {
	LLMRequestDuration.WithLabelValues(provider, status).Observe(duration)
}

// IncrementSSEConnections increments the active SSE connection count.
func IncrementSSEConnections() {
	SSEConnectionsActive.Inc()
}

// DecrementSSEConnections decrements the active SSE connection count.
func DecrementSSEConnections() {
	SSEConnectionsActive.Dec()
}
