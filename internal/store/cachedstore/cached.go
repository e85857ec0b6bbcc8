// Package cachedstore wraps a Store with an LRU read cache.
//
// Each engine loads a partition once, so the cache pays off when several
// engines in one process read through the same Store; see Share.
// Appends are written through to the underlying store and evict the cached
// copy of the partition, so the next read sees the new tail.
package cachedstore

import (
	"context"
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/discochess/connect4/internal/stats"
	"github.com/discochess/connect4/internal/store"
)

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// Stats contains cache statistics.
type Stats struct {
	Hits   int64
	Misses int64
	Size   int // Current number of entries
}

// HitRate returns the cache hit rate as a percentage.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// Store wraps another Store with caching.
type Store struct {
	underlying store.Store
	cache      *lru.Cache[int, []byte]
	collector  stats.Collector

	hits   atomic.Int64
	misses atomic.Int64
	refs   atomic.Int32
}

// New creates a cached store holding up to capacity partitions.
// The collector is optional; if nil, a no-op collector is used.
func New(underlying store.Store, capacity int, collector stats.Collector) (*Store, error) {
	cache, err := lru.New[int, []byte](capacity)
	if err != nil {
		return nil, fmt.Errorf("creating cache: %w", err)
	}
	if collector == nil {
		collector = stats.NewNoop()
	}
	s := &Store{
		underlying: underlying,
		cache:      cache,
		collector:  collector,
	}
	s.refs.Store(1)
	return s, nil
}

// Share registers another owner of s and returns s. Every owner calls Close
// once; the underlying store is closed by the last one.
func (s *Store) Share() *Store {
	s.refs.Add(1)
	return s
}

// ReadPartition reads a partition, checking the cache first.
func (s *Store) ReadPartition(ctx context.Context, id int) ([]byte, error) {
	if data, ok := s.cache.Get(id); ok {
		s.hits.Add(1)
		s.collector.IncCounter(stats.MetricCacheHits, 1)
		return data, nil
	}
	s.misses.Add(1)
	s.collector.IncCounter(stats.MetricCacheMisses, 1)

	data, err := s.underlying.ReadPartition(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cache.Add(id, data)
	s.collector.SetGauge(stats.MetricCacheSize, int64(s.cache.Len()))
	return data, nil
}

// AppendPartition writes through and drops the cached copy.
func (s *Store) AppendPartition(ctx context.Context, id int, data []byte) error {
	err := s.underlying.AppendPartition(ctx, id, data)
	s.cache.Remove(id)
	return err
}

// Close releases one owner and closes the underlying store once no owners
// remain.
func (s *Store) Close() error {
	if s.refs.Add(-1) > 0 {
		return nil
	}
	s.cache.Purge()
	return s.underlying.Close()
}

// Stats returns cache statistics.
func (s *Store) Stats() Stats {
	return Stats{
		Hits:   s.hits.Load(),
		Misses: s.misses.Load(),
		Size:   s.cache.Len(),
	}
}
