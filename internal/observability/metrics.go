package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ComposeDuration records engine operation latency.
	ComposeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "feedengine_compose_duration_seconds",
		Help:    "Latency of feed composition and ranking operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// ComposeCandidates records how many candidate rows were merged before dedup.
	ComposeCandidates = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "feedengine_compose_candidates",
		Help:    "Candidate rows gathered before deduplication",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	}, []string{"operation"})

	// ComposeResults records the size of returned sequences.
	ComposeResults = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "feedengine_compose_results",
		Help:    "Entries returned by feed composition and ranking operations",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	}, []string{"operation"})

	// StoreQueryLatency records content store query latency by operation and table.
	StoreQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "feedengine_store_query_duration_seconds",
		Help:    "Content store query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedengine_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})
)

// TrackQuery returns a function that records store query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		StoreQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// ObserveCompose records latency and sizes for one engine operation.
func ObserveCompose(operation string, start time.Time, candidates, results int) {
	ComposeDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if candidates >= 0 {
		ComposeCandidates.WithLabelValues(operation).Observe(float64(candidates))
	}
	ComposeResults.WithLabelValues(operation).Observe(float64(results))
}
