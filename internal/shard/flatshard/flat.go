// Package flatshard keeps every position in a single partition.
// It suits tests and small stores.
package flatshard

import "github.com/discochess/connect4/internal/shard"

// Strategy places every position in partition 0.
type Strategy struct{}

// Ensure Strategy implements shard.Strategy.
var _ shard.Strategy = (*Strategy)(nil)

// New creates a new flat strategy.
func New() *Strategy {
	return &Strategy{}
}

// Name returns "flat".
func (s *Strategy) Name() string {
	return "flat"
}

// Bucket always returns 0.
func (s *Strategy) Bucket(int) int {
	return 0
}

// Count returns 1.
func (s *Strategy) Count() int {
	return 1
}

// Range returns the full ply range.
func (s *Strategy) Range(int) (lo, hi int) {
	return 0, shard.MaxStoredPlies
}
