// Package diskstore implements a filesystem storage backend with one append-
// only file per partition.
package diskstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/discochess/connect4/internal/codec"
	"github.com/discochess/connect4/internal/shard"
	"github.com/discochess/connect4/internal/store"
)

// PartitionDir is the subdirectory holding partition files.
const PartitionDir = "partitions"

const lockFile = ".seed.lock"

// ErrLocked indicates another process holds the store's exclusive lock.
var ErrLocked = errors.New("diskstore: store locked by another process")

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// Store is a disk-based filesystem storage backend.
type Store struct {
	root     string
	codec    codec.Codec
	strategy shard.Strategy
}

// New creates a new disk store rooted at the given directory.
// The directory must exist. The codec handles compression and the strategy
// names the partition files.
func New(root string, strategy shard.Strategy, c codec.Codec) (*Store, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	return &Store{
		root:     root,
		codec:    c,
		strategy: strategy,
	}, nil
}

// ReadPartition reads and decompresses a partition file.
func (s *Store) ReadPartition(ctx context.Context, id int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	compressed, err := os.ReadFile(s.Path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("reading partition: %w", err)
	}

	data, err := codec.Decompress(s.codec, compressed)
	if err != nil {
		return nil, fmt.Errorf("partition %d: %w", id, err)
	}
	return data, nil
}

// AppendPartition compresses data as a new frame and appends it to the
// partition file.
func (s *Store) AppendPartition(ctx context.Context, id int, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}

	frame, err := codec.Compress(s.codec, data)
	if err != nil {
		return fmt.Errorf("partition %d: %w", id, err)
	}

	if err := os.MkdirAll(filepath.Join(s.root, PartitionDir), 0o755); err != nil {
		return fmt.Errorf("creating partition directory: %w", err)
	}

	f, err := os.OpenFile(s.Path(id), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening partition: %w", err)
	}
	if _, err := f.Write(frame); err != nil {
		f.Close()
		return fmt.Errorf("appending partition: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("syncing partition: %w", err)
	}
	return f.Close()
}

// Lock takes the store's exclusive lock, waiting until ctx is done. Seeding
// holds it for the whole batch so two seeders never interleave appends.
// The returned function releases the lock.
func (s *Store) Lock(ctx context.Context) (func() error, error) {
	fl := flock.New(filepath.Join(s.root, lockFile))
	ok, err := fl.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrLocked, err)
		}
		return nil, fmt.Errorf("acquiring lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return fl.Unlock, nil
}

// Close releases any resources held by the store.
func (s *Store) Close() error {
	return nil
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

// Path returns the filesystem path for a partition.
func (s *Store) Path(id int) string {
	name := shard.FileName(s.strategy, id)
	if ext := s.codec.Extension(); ext != "" {
		name += "." + ext
	}
	return filepath.Join(s.root, PartitionDir, name)
}
