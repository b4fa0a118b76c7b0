// Package telemetry records Prometheus metrics for service calls, flows and exports.
// The CLI is short-lived, so metrics are flushed to a node-exporter textfile on exit.
package telemetry

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Flow outcomes.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeAbandoned = "abandoned"
)

var (
	registerOnce sync.Once
	registry     = prometheus.NewRegistry()

	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "archflow",
			Subsystem: "service",
			Name:      "requests_total",
			Help:      "Total requests sent to the analysis service.",
		},
		[]string{"endpoint", "status"},
	)
	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "archflow",
			Subsystem: "service",
			Name:      "request_duration_seconds",
			Help:      "Analysis service request duration in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		},
		[]string{"endpoint", "status"},
	)
	analysisRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "archflow",
			Subsystem: "analysis",
			Name:      "retries_total",
			Help:      "Analysis calls reissued after a server error.",
		},
	)
	flowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "archflow",
			Subsystem: "analysis",
			Name:      "flows_total",
			Help:      "Analysis flows by outcome.",
		},
		[]string{"outcome"},
	)
	historyOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "archflow",
			Subsystem: "history",
			Name:      "operations_total",
			Help:      "History store operations by result.",
		},
		[]string{"op", "success"},
	)
	exportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "archflow",
			Subsystem: "graph",
			Name:      "exports_total",
			Help:      "Graph PNG exports by result.",
		},
		[]string{"success"},
	)
)

// RegisterMetrics registers all collectors once.
func RegisterMetrics() {
	registerOnce.Do(func() {
		registry.MustRegister(requestsTotal, requestDuration, analysisRetries, flowsTotal, historyOps, exportsTotal)
	})
}

// Registry returns the registry holding archflow collectors.
func Registry() *prometheus.Registry {
	RegisterMetrics()
	return registry
}

// RecordRequest records one service call. A zero status marks a transport failure.
func RecordRequest(endpoint string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	requestsTotal.WithLabelValues(endpoint, statusLabel).Inc()
	requestDuration.WithLabelValues(endpoint, statusLabel).Observe(duration.Seconds())
}

// RecordRetry records one automatic analysis retry.
func RecordRetry() {
	RegisterMetrics()
	analysisRetries.Inc()
}

// RecordFlow records the outcome of one analysis flow.
func RecordFlow(outcome string) {
	RegisterMetrics()
	flowsTotal.WithLabelValues(outcome).Inc()
}

// RecordHistoryOp records a history read, write or clear.
func RecordHistoryOp(op string, err error) {
	RegisterMetrics()
	historyOps.WithLabelValues(op, strconv.FormatBool(err == nil)).Inc()
}

// RecordExport records one PNG export.
func RecordExport(err error) {
	RegisterMetrics()
	exportsTotal.WithLabelValues(strconv.FormatBool(err == nil)).Inc()
}

// WriteTextfile writes the current metrics in text exposition format.
// It is a no-op when path is empty.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, Registry())
}
