// Package ttable implements the partitioned transposition table.
//
// Each partition is loaded from its store log the first time it is touched
// and kept for the life of the process. Interactive inserts stay in memory;
// only Append writes to the store, and it never writes a key the log already
// holds. Entries are never evicted.
package ttable

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/discochess/connect4/internal/record"
	"github.com/discochess/connect4/internal/shard"
	"github.com/discochess/connect4/internal/stats"
	"github.com/discochess/connect4/internal/store"
	"github.com/discochess/connect4/internal/symmetry"
)

type entry struct {
	rec record.Record
	// persisted is set once the key is present in the store log.
	persisted bool
}

type partition struct {
	mu        sync.RWMutex
	loaded    bool
	loadErr   error
	entries   map[uint64]entry
	persisted int
	malformed int
}

// Table is a transposition table over a partitioned store.
// A Table is safe for concurrent use by multiple goroutines.
type Table struct {
	store    store.Store
	strategy shard.Strategy
	parts    []*partition
	stats    stats.Collector
	logger   *zap.Logger
	strict   bool

	size atomic.Int64
}

// Option configures a Table.
type Option func(*Table)

// WithStats sets the stats collector.
func WithStats(c stats.Collector) Option {
	return func(t *Table) {
		t.stats = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(t *Table) {
		t.logger = l
	}
}

// WithStrict makes a malformed log line fail the partition load instead of
// being skipped.
func WithStrict(strict bool) Option {
	return func(t *Table) {
		t.strict = strict
	}
}

// New creates a table over st partitioned by strategy.
func New(st store.Store, strategy shard.Strategy, opts ...Option) *Table {
	t := &Table{
		store:    st,
		strategy: strategy,
		parts:    make([]*partition, strategy.Count()),
		stats:    stats.NewNoop(),
		logger:   zap.NewNop(),
	}
	for i := range t.parts {
		t.parts[i] = &partition{entries: make(map[uint64]entry)}
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Strategy returns the partitioning strategy.
func (t *Table) Strategy() shard.Strategy {
	return t.strategy
}

// Store returns the backing store.
func (t *Table) Store() store.Store {
	return t.store
}

// Lookup returns the first candidate record whose depth is at least minDepth
// and whose side to move fits the candidate's symmetry, adapted to the
// original position.
func (t *Table) Lookup(ctx context.Context, plies int, cands []symmetry.Candidate, minDepth int) (record.Record, bool) {
	t.stats.IncCounter(stats.MetricLookups, 1)
	p := t.partition(ctx, plies)

	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, c := range cands {
		e, ok := p.entries[c.Key]
		if !ok || e.rec.Depth < minDepth {
			continue
		}
		if rec, ok := c.Adapt(e.rec); ok {
			t.stats.IncCounter(stats.MetricHits, 1)
			return rec, true
		}
	}
	t.stats.IncCounter(stats.MetricMisses, 1)
	return record.Record{}, false
}

// Insert caches rec in memory. An existing entry is replaced only by a record
// searched at least as deep.
func (t *Table) Insert(ctx context.Context, plies int, rec record.Record) {
	p := t.partition(ctx, plies)

	p.mu.Lock()
	defer p.mu.Unlock()
	old, ok := p.entries[rec.Key]
	if ok && rec.Depth < old.rec.Depth {
		return
	}
	p.entries[rec.Key] = entry{rec: rec, persisted: old.persisted}
	if !ok {
		t.size.Add(1)
	}
	t.stats.IncCounter(stats.MetricInserts, 1)
}

// Contains reports whether the store log already holds a record that answers
// a lookup for any candidate.
func (t *Table) Contains(ctx context.Context, plies int, cands []symmetry.Candidate) bool {
	p := t.partition(ctx, plies)

	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, c := range cands {
		e, ok := p.entries[c.Key]
		if !ok || !e.persisted {
			continue
		}
		if _, ok := c.Adapt(e.rec); ok {
			return true
		}
	}
	return false
}

// Append persists recs to the partition holding positions with plies discs
// and merges them into memory. Records whose key is already persisted, and
// repeats within recs, are skipped. It returns the number written.
func (t *Table) Append(ctx context.Context, plies int, recs []record.Record) (int, error) {
	id := t.strategy.Bucket(plies)
	p := t.parts[id]
	if err := t.load(ctx, id, p); err != nil {
		return 0, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	fresh := make([]record.Record, 0, len(recs))
	seen := make(map[uint64]bool, len(recs))
	for _, r := range recs {
		if p.entries[r.Key].persisted || seen[r.Key] {
			continue
		}
		seen[r.Key] = true
		fresh = append(fresh, r)
	}
	if len(fresh) == 0 {
		return 0, nil
	}

	if err := t.store.AppendPartition(ctx, id, record.Encode(fresh)); err != nil {
		return 0, fmt.Errorf("appending partition %d: %w", id, err)
	}

	for _, r := range fresh {
		old, ok := p.entries[r.Key]
		if ok && old.rec.Depth > r.Depth {
			old.persisted = true
			p.entries[r.Key] = old
		} else {
			p.entries[r.Key] = entry{rec: r, persisted: true}
		}
		if !ok {
			t.size.Add(1)
		}
	}
	p.persisted += len(fresh)
	t.stats.SetGauge(stats.MetricTableSize, t.size.Load())
	return len(fresh), nil
}

// Preload loads every partition and returns the load errors, if any.
func (t *Table) Preload(ctx context.Context) error {
	var errs []error
	for id, p := range t.parts {
		if err := t.load(ctx, id, p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of records held in memory.
func (t *Table) Len() int {
	return int(t.size.Load())
}

// PartitionInfo describes one partition.
type PartitionInfo struct {
	ID        int
	FirstPly  int
	LastPly   int
	Loaded    bool
	Records   int
	Persisted int
	Malformed int
	Err       error
}

// Partitions returns a snapshot of every partition.
func (t *Table) Partitions() []PartitionInfo {
	out := make([]PartitionInfo, len(t.parts))
	for id, p := range t.parts {
		lo, hi := t.strategy.Range(id)
		p.mu.RLock()
		out[id] = PartitionInfo{
			ID:        id,
			FirstPly:  lo,
			LastPly:   hi,
			Loaded:    p.loaded,
			Records:   len(p.entries),
			Persisted: p.persisted,
			Malformed: p.malformed,
			Err:       p.loadErr,
		}
		p.mu.RUnlock()
	}
	return out
}

// partition returns the loaded partition for plies. A failed load leaves the
// partition empty; the error is kept and reported by Preload.
func (t *Table) partition(ctx context.Context, plies int) *partition {
	id := t.strategy.Bucket(plies)
	p := t.parts[id]
	_ = t.load(ctx, id, p)
	return p
}

// load reads a partition log once. Cancellation is not recorded, so a later
// call retries.
func (t *Table) load(ctx context.Context, id int, p *partition) error {
	p.mu.RLock()
	loaded, loadErr := p.loaded, p.loadErr
	p.mu.RUnlock()
	if loaded {
		return loadErr
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loaded {
		return p.loadErr
	}

	data, err := t.store.ReadPartition(ctx, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		data = nil
	case err != nil:
		if ctx.Err() != nil {
			return err
		}
		p.loaded = true
		p.loadErr = fmt.Errorf("loading partition %d: %w", id, err)
		t.logger.Error("partition load failed", zap.Int("partition", id), zap.Error(err))
		return p.loadErr
	}

	before := len(p.entries)
	persisted := 0
	err = record.Scan(data, func(r record.Record) {
		persisted++
		old, ok := p.entries[r.Key]
		if ok && old.rec.Depth > r.Depth {
			old.persisted = true
			p.entries[r.Key] = old
			return
		}
		p.entries[r.Key] = entry{rec: r, persisted: true}
	}, func(line int, text string, err error) error {
		p.malformed++
		t.stats.IncCounter(stats.MetricMalformedRecords, 1)
		if t.strict {
			return fmt.Errorf("partition %d line %d: %w", id, line, err)
		}
		t.logger.Warn("skipping malformed record",
			zap.Int("partition", id),
			zap.Int("line", line),
			zap.String("text", text),
			zap.Error(err),
		)
		return nil
	})
	p.loaded = true
	if err != nil {
		p.loadErr = fmt.Errorf("loading partition %d: %w", id, err)
		return p.loadErr
	}

	p.persisted = persisted
	t.size.Add(int64(len(p.entries) - before))
	t.stats.IncCounter(stats.MetricPartitionLoads, 1)
	t.stats.SetGauge(stats.MetricTableSize, t.size.Load())
	t.logger.Debug("partition loaded",
		zap.Int("partition", id),
		zap.Int("records", len(p.entries)),
		zap.Int("malformed", p.malformed),
	)
	return nil
}
