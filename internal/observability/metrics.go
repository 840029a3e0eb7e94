package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce             sync.Once
	httpRequestsTotal        *prometheus.CounterVec
	httpLatencySeconds       *prometheus.HistogramVec
	httpErrorsTotal          *prometheus.CounterVec
	submissionsReceivedTotal *prometheus.CounterVec
	evaluationsRecordedTotal *prometheus.CounterVec
	leaderboardRebuildsTotal *prometheus.CounterVec
	leaderboardClientsActive prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arena_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "arena_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arena_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		submissionsReceivedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arena_submissions_received_total",
			Help: "Total number of submissions accepted into the ledger.",
		}, []string{"scoring_mode"})

		evaluationsRecordedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arena_evaluations_recorded_total",
			Help: "Total number of judge evaluations recorded.",
		}, []string{"scoring_mode"})

		leaderboardRebuildsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arena_leaderboard_rebuilds_total",
			Help: "Total number of full leaderboard recomputations.",
		}, []string{"trigger"})

		leaderboardClientsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "arena_leaderboard_clients_active",
			Help: "Number of websocket clients streaming live leaderboards.",
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			submissionsReceivedTotal,
			evaluationsRecordedTotal,
			leaderboardRebuildsTotal,
			leaderboardClientsActive,
		)
	})
}

// HTTPRequests exposes the counter for served requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for served requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// SubmissionsReceivedTotal exposes the counter for accepted submissions.
func SubmissionsReceivedTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsReceivedTotal
}

// EvaluationsRecordedTotal exposes the counter for recorded evaluations.
func EvaluationsRecordedTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return evaluationsRecordedTotal
}

// LeaderboardRebuildsTotal exposes the counter for leaderboard recomputations.
func LeaderboardRebuildsTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return leaderboardRebuildsTotal
}

// LeaderboardClientsActive exposes the gauge of live leaderboard subscribers.
func LeaderboardClientsActive() prometheus.Gauge {
	RegisterMetrics()
	return leaderboardClientsActive
}
