package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// Collectors are created at package load so components can record before
// (or without) registration; InitMetrics exposes them.
var (
	SyncRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hermitcraft_sync_runs_total",
			Help: "Sync runs, by operation and status.",
		},
		[]string{"operation", "status"},
	)

	SyncItems = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hermitcraft_sync_items_total",
			Help: "Items processed by sync runs, by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	SyncDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hermitcraft_sync_run_duration_seconds",
			Help:    "Duration of sync runs in seconds.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 900},
		},
		[]string{"operation"},
	)

	QuotaUnits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hermitcraft_youtube_quota_units_total",
			Help: "YouTube Data API quota units spent, by API method.",
		},
		[]string{"op"},
	)

	QuotaUsedToday = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hermitcraft_youtube_quota_used_today",
			Help: "Quota units recorded for the current Pacific-time day.",
		},
	)

	ExternalRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hermitcraft_external_requests_total",
			Help: "Outbound platform API calls, by platform, operation and status.",
		},
		[]string{"platform", "op", "status"},
	)

	CacheInvalidations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hermitcraft_cache_invalidations_total",
			Help: "Read-cache invalidations, by status.",
		},
		[]string{"status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hermitcraft_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds, by endpoint and method.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	RequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hermitcraft_requests_in_flight",
			Help: "Number of HTTP requests currently being served.",
		},
	)
)

// InitMetrics registers all collectors with the default registry. Call once
// at startup.
func InitMetrics(pool *pgxpool.Pool) {
	prometheus.MustRegister(
		SyncRuns,
		SyncItems,
		SyncDuration,
		QuotaUnits,
		QuotaUsedToday,
		ExternalRequests,
		CacheInvalidations,
		RequestDuration,
		RequestsInFlight,
	)

	// DB pool gauges read live stats from pgxpool
	if pool != nil {
		prometheus.MustRegister(
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "hermitcraft_db_connection_pool_active",
					Help: "Number of active database connections.",
				},
				func() float64 { return float64(pool.Stat().AcquiredConns()) },
			),
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "hermitcraft_db_connection_pool_idle",
					Help: "Number of idle database connections.",
				},
				func() float64 { return float64(pool.Stat().IdleConns()) },
			),
		)
	}
}
