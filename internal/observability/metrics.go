// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the dashboard.
type Metrics struct {
	// Aggregation metrics
	AggregationQueries   *prometheus.CounterVec
	AggregationCellError *prometheus.CounterVec
	AggregationDuration  *prometheus.HistogramVec

	// Playback metrics
	PlaybackSessionsTotal  prometheus.Counter
	PlaybackSessionsActive prometheus.Gauge
	PlaybackPointsLoaded   prometheus.Counter
	PlaybackPointsDropped  prometheus.Counter

	// Remote client metrics
	RemoteRequestDuration *prometheus.HistogramVec
	RemoteRequestErrors   *prometheus.CounterVec

	// Cache metrics
	RankingCacheHits   prometheus.Counter
	RankingCacheMisses prometheus.Counter

	// Rebuild metrics
	RebuildRunsTotal *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "cricket_rank_lab"
	}

	return &Metrics{
		AggregationQueries: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "aggregation",
			Name:      "queries_total",
			Help:      "Total number of aggregation queries by operation",
		}, []string{"operation"}),
		AggregationCellError: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "aggregation",
			Name:      "cell_errors_total",
			Help:      "Total number of isolated per-cell fetch failures",
		}, []string{"team", "role"}),
		AggregationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "aggregation",
			Name:      "duration_seconds",
			Help:      "Aggregation query duration by operation",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),

		PlaybackSessionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "playback",
			Name:      "sessions_total",
			Help:      "Total number of playback sessions opened",
		}),
		PlaybackSessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "playback",
			Name:      "sessions_active",
			Help:      "Number of currently open playback sessions",
		}),
		PlaybackPointsLoaded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "playback",
			Name:      "points_loaded_total",
			Help:      "Total number of timeline points revealed to sessions",
		}),
		PlaybackPointsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "playback",
			Name:      "points_dropped_total",
			Help:      "Total number of timeline points dropped on fetch failure",
		}),

		RemoteRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "remote",
			Name:      "request_duration_seconds",
			Help:      "Remote ranking service request duration by endpoint",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		RemoteRequestErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "remote",
			Name:      "request_errors_total",
			Help:      "Total number of remote ranking service request failures",
		}, []string{"endpoint"}),

		RankingCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "ranking_hits_total",
			Help:      "Total number of ranking cache hits",
		}),
		RankingCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "ranking_misses_total",
			Help:      "Total number of ranking cache misses",
		}),

		RebuildRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "admin",
			Name:      "rebuild_runs_total",
			Help:      "Total number of snapshot rebuild calls by status",
		}, []string{"status"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the package-level metrics instance used by the
// convenience Record* helpers below.
var DefaultMetrics = NewMetrics("cricket_rank_lab")

// RecordAggregationQuery records one aggregation operation and its duration.
func RecordAggregationQuery(operation string, seconds float64) {
	DefaultMetrics.AggregationQueries.WithLabelValues(operation).Inc()
	DefaultMetrics.AggregationDuration.WithLabelValues(operation).Observe(seconds)
}

// RecordCellError records an isolated per-cell fetch failure during fan-out.
func RecordCellError(team, role string) {
	DefaultMetrics.AggregationCellError.WithLabelValues(team, role).Inc()
}

// RecordSessionOpened records a new playback session.
func RecordSessionOpened() {
	DefaultMetrics.PlaybackSessionsTotal.Inc()
	DefaultMetrics.PlaybackSessionsActive.Inc()
}

// RecordSessionClosed records a playback session ending.
func RecordSessionClosed() {
	DefaultMetrics.PlaybackSessionsActive.Dec()
}

// RecordPointsLoaded records timeline points revealed and dropped by a batch.
func RecordPointsLoaded(loaded, dropped int) {
	DefaultMetrics.PlaybackPointsLoaded.Add(float64(loaded))
	if dropped > 0 {
		DefaultMetrics.PlaybackPointsDropped.Add(float64(dropped))
	}
}

// RecordRemoteRequest records a remote ranking service call.
func RecordRemoteRequest(endpoint string, seconds float64, err error) {
	DefaultMetrics.RemoteRequestDuration.WithLabelValues(endpoint).Observe(seconds)
	if err != nil {
		DefaultMetrics.RemoteRequestErrors.WithLabelValues(endpoint).Inc()
	}
}

// RecordCacheLookup records a ranking cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		DefaultMetrics.RankingCacheHits.Inc()
	} else {
		DefaultMetrics.RankingCacheMisses.Inc()
	}
}

// RecordRebuildRun records a snapshot rebuild call outcome.
func RecordRebuildRun(success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	DefaultMetrics.RebuildRunsTotal.WithLabelValues(status).Inc()
}
