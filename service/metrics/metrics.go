package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the application. Following the
// explicit dependency injection pattern, this struct is passed to all
// components that need to record metrics. A nil *Metrics is safe to use and
// records nothing, so tests and one-shot CLI invocations can skip registration.
type Metrics struct {
	// Ledger RPC metrics
	rpcCallsTotal   *prometheus.CounterVec
	rpcCallDuration *prometheus.HistogramVec
	rpcRetries      *prometheus.CounterVec

	// Submission metrics
	submissionsTotal  *prometheus.CounterVec
	broadcastAttempts *prometheus.HistogramVec

	// Vanity search metrics
	vanityKeysScanned prometheus.Counter
	vanityMatches     prometheus.Counter
	vanityThroughput  prometheus.Gauge

	// Holdings metrics
	holdingsRefreshDuration *prometheus.HistogramVec
	holdingsAssetsDropped   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance and registers all collectors.
// If registry is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		rpcCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forge_rpc_calls_total",
				Help: "Total number of ledger RPC calls by method and status",
			},
			[]string{"method", "status"},
		),
		rpcCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "forge_rpc_call_duration_seconds",
				Help:    "Duration of ledger RPC calls in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"method"},
		),
		rpcRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forge_rpc_retries_total",
				Help: "Total number of broadcast retry attempts by reason",
			},
			[]string{"reason"},
		),
		submissionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forge_submissions_total",
				Help: "Total number of transaction submissions by outcome",
			},
			[]string{"outcome"},
		),
		broadcastAttempts: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "forge_broadcast_attempts",
				Help:    "Broadcast attempts needed per submitted transaction",
				Buckets: []float64{1, 2, 3, 4, 5},
			},
			[]string{"outcome"},
		),
		vanityKeysScanned: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "forge_vanity_keys_scanned_total",
				Help: "Total number of keypairs generated by the vanity search",
			},
		),
		vanityMatches: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "forge_vanity_matches_total",
				Help: "Total number of vanity search matches found",
			},
		),
		vanityThroughput: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "forge_vanity_keys_per_second",
				Help: "Current vanity search throughput in keys per second",
			},
		),
		holdingsRefreshDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "forge_holdings_refresh_duration_seconds",
				Help:    "Duration of a full holdings refresh in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
			[]string{"status"},
		),
		holdingsAssetsDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forge_holdings_assets_dropped_total",
				Help: "Assets dropped during a holdings refresh by reason",
			},
			[]string{"reason"},
		),
	}
}

// RecordRPCCall records a ledger RPC call with its duration.
func (m *Metrics) RecordRPCCall(method, status string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.rpcCallsTotal.WithLabelValues(method, status).Inc()
	m.rpcCallDuration.WithLabelValues(method).Observe(durationSeconds)
}

// RecordRPCRetry records a broadcast retry attempt.
func (m *Metrics) RecordRPCRetry(reason string) {
	if m == nil {
		return
	}
	m.rpcRetries.WithLabelValues(reason).Inc()
}

// RecordSubmission records a completed transaction submission.
func (m *Metrics) RecordSubmission(outcome string, attempts int) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(outcome).Inc()
	m.broadcastAttempts.WithLabelValues(outcome).Observe(float64(attempts))
}

// RecordVanityScan records vanity search progress.
func (m *Metrics) RecordVanityScan(scanned, matches int, keysPerSecond float64) {
	if m == nil {
		return
	}
	m.vanityKeysScanned.Add(float64(scanned))
	m.vanityMatches.Add(float64(matches))
	m.vanityThroughput.Set(keysPerSecond)
}

// RecordHoldingsRefresh records a completed holdings refresh.
func (m *Metrics) RecordHoldingsRefresh(status string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.holdingsRefreshDuration.WithLabelValues(status).Observe(durationSeconds)
}

// RecordHoldingDropped records an asset dropped during a refresh.
func (m *Metrics) RecordHoldingDropped(reason string) {
	if m == nil {
		return
	}
	m.holdingsAssetsDropped.WithLabelValues(reason).Inc()
}
