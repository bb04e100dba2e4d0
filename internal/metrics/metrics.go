// Package metrics exposes Prometheus instrumentation for the HTTP API and the ranking core
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "programrank_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "programrank_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	APIRateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "programrank_api_rate_limit_hits_total",
			Help: "Requests rejected by the per-IP rate limit",
		},
	)

	RankDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "programrank_rank_duration_seconds",
			Help:    "Time spent scoring and ordering one candidate pool",
			Buckets: prometheus.DefBuckets,
		},
	)

	RankPoolSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "programrank_rank_pool_size",
			Help:    "Candidate programs per ranking request",
			Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000},
		},
	)

	FieldRelevanceDegraded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "programrank_field_relevance_degraded_total",
			Help: "Rankings where field relevance fell back to zero scores",
		},
	)

	DedupGroupsFound = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "programrank_dedup_groups_found_total",
			Help: "Duplicate groups reported by duplicate scans",
		},
	)

	DedupProgramsDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "programrank_dedup_programs_deleted_total",
			Help: "Programs deleted by applied deduplication",
		},
	)
)

// RecordAPIRequest records a completed API request
func RecordAPIRequest(method, endpoint string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordRank records one ranking invocation
func RecordRank(poolSize int, duration time.Duration, degraded bool) {
	RankPoolSize.Observe(float64(poolSize))
	RankDuration.Observe(duration.Seconds())
	if degraded {
		FieldRelevanceDegraded.Inc()
	}
}

// RecordDedup records a duplicate scan and, when applied, its deletions
func RecordDedup(groups, deleted int) {
	DedupGroupsFound.Add(float64(groups))
	DedupProgramsDeleted.Add(float64(deleted))
}
