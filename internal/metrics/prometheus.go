package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the pick generation pipeline

var (
	// Provider call metrics
	ProviderCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pickgen_provider_calls_total",
			Help: "Total number of upstream provider API calls",
		},
		[]string{"provider", "operation", "status"},
	)

	ProviderCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pickgen_provider_call_duration_seconds",
			Help:    "Duration of provider API calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "operation"},
	)

	// Cache metrics
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pickgen_cache_hits_total",
			Help: "Total number of response cache hits",
		},
	)

	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pickgen_cache_misses_total",
			Help: "Total number of response cache misses",
		},
	)

	// Profile build metrics
	ProfilesBuilt = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pickgen_profiles_built_total",
			Help: "Total number of game profiles built",
		},
		[]string{"outcome"},
	)

	SourceFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pickgen_source_failures_total",
			Help: "Per-source failures recorded during profile builds",
		},
		[]string{"source"},
	)

	// Cycle metrics
	CyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pickgen_cycles_total",
			Help: "Total number of generation cycles",
		},
		[]string{"status"},
	)

	CycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pickgen_cycle_duration_seconds",
			Help:    "Duration of generation cycles in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	// Persistence metrics
	PicksWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pickgen_picks_written_total",
			Help: "Total number of picks persisted",
		},
	)

	BatchesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pickgen_batches_skipped_total",
			Help: "Batch writes skipped, by reason",
		},
		[]string{"reason"},
	)

	CandidatesFiltered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pickgen_candidates_filtered_total",
			Help: "Candidate picks processed by the confidence filter",
		},
		[]string{"outcome"},
	)

	// System metrics
	SystemUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pickgen_system_uptime_seconds",
			Help: "System uptime in seconds",
		},
	)

	LastSuccessfulCycle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pickgen_last_successful_cycle_timestamp",
			Help: "Timestamp of the last successful generation cycle",
		},
	)
)

// RecordProviderCall records a provider API call metric
func RecordProviderCall(provider, operation, status string, duration float64) {
	ProviderCallsTotal.WithLabelValues(provider, operation, status).Inc()
	ProviderCallDuration.WithLabelValues(provider, operation).Observe(duration)
}

// RecordCacheHit records a cache hit
func RecordCacheHit() {
	CacheHitsTotal.Inc()
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss() {
	CacheMissesTotal.Inc()
}

// RecordProfile records a profile build outcome
func RecordProfile(outcome string) {
	ProfilesBuilt.WithLabelValues(outcome).Inc()
}

// RecordSourceFailure records a per-source failure during a profile build
func RecordSourceFailure(source string) {
	SourceFailuresTotal.WithLabelValues(source).Inc()
}

// RecordCycle records a generation cycle outcome
func RecordCycle(status string, duration float64) {
	CyclesTotal.WithLabelValues(status).Inc()
	CycleDuration.Observe(duration)

	if status == "success" {
		LastSuccessfulCycle.SetToCurrentTime()
	}
}

// RecordBatchWrite records a persisted batch
func RecordBatchWrite(count int) {
	PicksWritten.Add(float64(count))
}

// RecordBatchSkip records a skipped batch write
func RecordBatchSkip(reason string) {
	BatchesSkipped.WithLabelValues(reason).Inc()
}

// RecordCandidate records a confidence filter outcome
func RecordCandidate(outcome string) {
	CandidatesFiltered.WithLabelValues(outcome).Inc()
}
