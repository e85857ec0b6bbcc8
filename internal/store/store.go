// Package store defines the storage backend interface for partition logs.
//
// A partition log is newline-delimited record text that only ever grows.
// Backends own compression and naming; callers see plain text.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a partition has never been written.
var ErrNotFound = errors.New("store: partition not found")

// Store defines the interface for storage backends.
// Implementations handle path formats and storage details internally.
type Store interface {
	// ReadPartition returns the full decompressed log of a partition.
	ReadPartition(ctx context.Context, id int) ([]byte, error)

	// AppendPartition adds data to the end of a partition log, creating it
	// if needed. Earlier content is never modified.
	AppendPartition(ctx context.Context, id int, data []byte) error

	// Close releases any resources held by the store.
	Close() error
}
