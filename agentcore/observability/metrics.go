// Package observability provides Prometheus metrics and OpenTelemetry
// tracing instrumentation for the agent runtime.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// DISPATCH METRICS
// =============================================================================

var (
	processTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentruntime_process_total",
			Help: "Total number of dispatch calls",
		},
		[]string{"agent", "task", "status"}, // status: success, error
	)

	processDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agentruntime_process_duration_seconds",
			Help:    "Dispatch call duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		},
		[]string{"agent", "task"},
	)

	handlerRegistrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentruntime_handler_registrations_total",
			Help: "Total number of handler pair registrations",
		},
		[]string{"task"},
	)

	sessionStateKeys = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "agentruntime_session_state_keys",
			Help: "Number of top-level keys in an agent's session state",
		},
		[]string{"agent"},
	)
)

// =============================================================================
// BRIDGE METRICS
// =============================================================================

var (
	bridgeInvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentruntime_bridge_invocations_total",
			Help: "Total number of external engine invocations",
		},
		[]string{"engine", "status"}, // status: success or the failure kind
	)

	bridgeDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agentruntime_bridge_duration_seconds",
			Help:    "External engine invocation duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"engine"},
	)

	bridgeTempFilesSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agentruntime_bridge_temp_files_swept_total",
			Help: "Stale bridge temp files removed by the janitor",
		},
	)
)

// =============================================================================
// PUBLIC API
// =============================================================================

// RecordProcess records dispatch metrics.
// This should be called after a dispatch call completes.
func RecordProcess(agent, task, status string, durationMS int) {
	processTotal.WithLabelValues(agent, task, status).Inc()
	processDurationSeconds.WithLabelValues(agent, task).Observe(float64(durationMS) / 1000.0)
}

// RecordHandlerRegistration records a handler pair registration.
func RecordHandlerRegistration(task string) {
	handlerRegistrationsTotal.WithLabelValues(task).Inc()
}

// SetSessionStateKeys updates the session state size gauge for an agent.
func SetSessionStateKeys(agent string, keys int) {
	sessionStateKeys.WithLabelValues(agent).Set(float64(keys))
}

// RecordBridgeInvocation records external engine invocation metrics.
// The status is "success" or the failure kind that ended the invocation.
func RecordBridgeInvocation(engine, status string, durationMS int) {
	bridgeInvocationsTotal.WithLabelValues(engine, status).Inc()
	bridgeDurationSeconds.WithLabelValues(engine).Observe(float64(durationMS) / 1000.0)
}

// RecordTempFilesSwept counts stale temp files removed by the janitor.
func RecordTempFilesSwept(n int) {
	if n > 0 {
		bridgeTempFilesSwept.Add(float64(n))
	}
}
