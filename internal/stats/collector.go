// Package stats provides a unified interface for collecting metrics.
package stats

// Metric names used throughout the library.
const (
	// Transposition table metrics.
	MetricLookups          = "connect4_tt_lookups_total"
	MetricHits             = "connect4_tt_hits_total"
	MetricMisses           = "connect4_tt_misses_total"
	MetricInserts          = "connect4_tt_inserts_total"
	MetricPartitionLoads   = "connect4_tt_partition_loads_total"
	MetricMalformedRecords = "connect4_tt_malformed_records_total"
	MetricTableSize        = "connect4_tt_records"

	// Search metrics.
	MetricSearches      = "connect4_searches_total"
	MetricNodes         = "connect4_search_nodes_total"
	MetricCutoffs       = "connect4_search_tt_cutoffs_total"
	MetricSearchSeconds = "connect4_search_duration_seconds"
	MetricRollouts      = "connect4_rollouts_total"

	// Seeding metrics.
	MetricSeededRecords = "connect4_seed_records_total"
	MetricSeedSkipped   = "connect4_seed_skipped_total"
	MetricSeedRetries   = "connect4_seed_regenerated_total"

	// Cache metrics.
	MetricCacheHits   = "connect4_cache_hits_total"
	MetricCacheMisses = "connect4_cache_misses_total"
	MetricCacheSize   = "connect4_cache_size"
)

// Collector defines the interface for collecting metrics.
type Collector interface {
	// IncCounter increments a counter metric by delta.
	IncCounter(name string, delta int64)

	// SetGauge sets a gauge metric to value.
	SetGauge(name string, value int64)

	// ObserveHistogram records a value in a histogram metric.
	ObserveHistogram(name string, value float64)
}
