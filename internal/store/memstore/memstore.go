// Package memstore provides an in-memory store implementation for tests and
// engines that never persist.
package memstore

import (
	"context"
	"slices"
	"sync"

	"github.com/discochess/connect4/internal/store"
)

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// Store is an in-memory store.
type Store struct {
	mu         sync.RWMutex
	partitions map[int][]byte
	appends    int
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		partitions: make(map[int][]byte),
	}
}

// SetPartition replaces the log of a partition (for test setup).
// The data is copied to prevent caller mutations from affecting the store.
func (s *Store) SetPartition(id int, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.partitions[id] = slices.Clone(data)
}

// ReadPartition returns a copy of a partition log.
func (s *Store) ReadPartition(ctx context.Context, id int) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.partitions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return slices.Clone(data), nil
}

// AppendPartition appends data to a partition log.
func (s *Store) AppendPartition(ctx context.Context, id int, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.partitions[id] = append(s.partitions[id], data...)
	s.appends++
	return nil
}

// Appends returns how many appends the store has accepted.
func (s *Store) Appends() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.appends
}

// Close is a no-op for the memory store.
func (s *Store) Close() error {
	return nil
}
