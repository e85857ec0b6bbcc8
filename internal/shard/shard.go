// Package shard defines how positions are partitioned across transposition
// table partitions by the number of discs played.
package shard

import "fmt"

// MaxStoredPlies is the largest ply count of a stored position. Records are
// only written for positions with a move left to play.
const MaxStoredPlies = 41

// Strategy maps a ply count to a partition.
type Strategy interface {
	// Name returns a human-readable name for this strategy.
	Name() string

	// Bucket returns the partition for a position with plies discs played.
	// The result is in [0, Count()).
	Bucket(plies int) int

	// Count returns the number of partitions.
	Count() int

	// Range returns the inclusive ply range covered by bucket.
	Range(bucket int) (lo, hi int)
}

// FileName returns the conventional partition file name, e.g.
// "03_table_9_11.txt".
func FileName(s Strategy, bucket int) string {
	lo, hi := s.Range(bucket)
	return fmt.Sprintf("%02d_table_%d_%d.txt", bucket, lo, hi)
}
