// Package plyshard partitions positions into fixed windows of plies.
//
// A position with p discs played belongs to bucket floor(p / window). The
// last bucket absorbs any ply count past MaxStoredPlies.
package plyshard

import (
	"fmt"

	"github.com/discochess/connect4/internal/shard"
)

// DefaultWindow is the number of plies per partition.
const DefaultWindow = 3

// Strategy implements fixed-window ply bucketing.
type Strategy struct {
	window int
	count  int
}

// Ensure Strategy implements shard.Strategy.
var _ shard.Strategy = (*Strategy)(nil)

// New creates a strategy with the given window.
func New(window int) (*Strategy, error) {
	if window < 1 || window > shard.MaxStoredPlies+1 {
		return nil, fmt.Errorf("plyshard: window %d out of range", window)
	}
	return &Strategy{
		window: window,
		count:  shard.MaxStoredPlies/window + 1,
	}, nil
}

// Name returns "ply".
func (s *Strategy) Name() string {
	return "ply"
}

// Window returns the number of plies per partition.
func (s *Strategy) Window() int {
	return s.window
}

// Bucket returns floor(plies / window), clamped to the valid range.
func (s *Strategy) Bucket(plies int) int {
	b := plies / s.window
	switch {
	case plies < 0:
		return 0
	case b >= s.count:
		return s.count - 1
	default:
		return b
	}
}

// Count returns the number of partitions.
func (s *Strategy) Count() int {
	return s.count
}

// Range returns the plies covered by bucket.
func (s *Strategy) Range(bucket int) (lo, hi int) {
	lo = bucket * s.window
	hi = min(lo+s.window-1, shard.MaxStoredPlies)
	return lo, hi
}
