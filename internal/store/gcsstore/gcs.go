// Package gcsstore implements a Google Cloud Storage backend.
//
// Appends rewrite the partition object with a new compressed frame at the
// end, guarded by a generation precondition so a concurrent writer causes a
// retry instead of a lost update.
package gcsstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"

	"github.com/discochess/connect4/internal/codec"
	"github.com/discochess/connect4/internal/shard"
	"github.com/discochess/connect4/internal/store"
)

const maxAppendAttempts = 5

var (
	// ErrConflict indicates an append lost every race against other writers.
	ErrConflict = errors.New("gcsstore: concurrent modification")

	errPrecondition = errors.New("gcsstore: precondition failed")
)

// bucket is the object access the store needs. Generation 0 means the object
// does not exist.
type bucket interface {
	read(ctx context.Context, name string) ([]byte, int64, error)
	write(ctx context.Context, name string, data []byte, generation int64) error
	close() error
}

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// Store is a Google Cloud Storage backend.
type Store struct {
	bucket   bucket
	prefix   string
	codec    codec.Codec
	strategy shard.Strategy
}

// New creates a new GCS store.
// The bucket must already exist.
func New(ctx context.Context, bucketName string, strategy shard.Strategy, c codec.Codec, opts ...Option) (*Store, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating GCS client: %w", err)
	}

	s := &Store{
		bucket:   &gcsBucket{client: client, handle: client.Bucket(bucketName)},
		codec:    c,
		strategy: strategy,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix sets a key prefix for all operations.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = strings.TrimSuffix(prefix, "/")
		if s.prefix != "" {
			s.prefix += "/"
		}
	}
}

// ReadPartition reads and decompresses a partition object.
func (s *Store) ReadPartition(ctx context.Context, id int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, _, err := s.bucket.read(ctx, s.partitionKey(id))
	if err != nil {
		return nil, err
	}
	data, err := codec.Decompress(s.codec, raw)
	if err != nil {
		return nil, fmt.Errorf("partition %d: %w", id, err)
	}
	return data, nil
}

// AppendPartition adds a compressed frame to the partition object.
func (s *Store) AppendPartition(ctx context.Context, id int, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	frame, err := codec.Compress(s.codec, data)
	if err != nil {
		return fmt.Errorf("partition %d: %w", id, err)
	}

	name := s.partitionKey(id)
	for range maxAppendAttempts {
		if err := ctx.Err(); err != nil {
			return err
		}
		raw, gen, err := s.bucket.read(ctx, name)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		err = s.bucket.write(ctx, name, append(raw, frame...), gen)
		if err == nil {
			return nil
		}
		if !errors.Is(err, errPrecondition) {
			return fmt.Errorf("writing partition %d: %w", id, err)
		}
	}
	return fmt.Errorf("partition %d: %w", id, ErrConflict)
}

// Close releases resources.
func (s *Store) Close() error {
	return s.bucket.close()
}

// partitionKey returns the full object key for a partition.
func (s *Store) partitionKey(id int) string {
	name := shard.FileName(s.strategy, id)
	if ext := s.codec.Extension(); ext != "" {
		name += "." + ext
	}
	return s.prefix + "partitions/" + name
}

type gcsBucket struct {
	client *storage.Client
	handle *storage.BucketHandle
}

func (b *gcsBucket) read(ctx context.Context, name string) ([]byte, int64, error) {
	reader, err := b.handle.Object(name).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, 0, store.ErrNotFound
		}
		return nil, 0, fmt.Errorf("creating reader: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, 0, fmt.Errorf("reading object: %w", err)
	}
	return data, reader.Attrs.Generation, nil
}

func (b *gcsBucket) write(ctx context.Context, name string, data []byte, generation int64) error {
	cond := storage.Conditions{GenerationMatch: generation}
	if generation == 0 {
		cond = storage.Conditions{DoesNotExist: true}
	}

	w := b.handle.Object(name).If(cond).NewWriter(ctx)
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed {
			return errPrecondition
		}
		return err
	}
	return nil
}

func (b *gcsBucket) close() error {
	return b.client.Close()
}
