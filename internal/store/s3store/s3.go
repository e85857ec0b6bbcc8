// Package s3store implements an AWS S3 storage backend.
//
// S3 objects cannot be appended to, so an append downloads the partition
// object, adds a new compressed frame and writes it back with a conditional
// put. A concurrent writer makes the put fail and the append is retried.
package s3store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/discochess/connect4/internal/codec"
	"github.com/discochess/connect4/internal/shard"
	"github.com/discochess/connect4/internal/store"
)

const maxAppendAttempts = 5

// ErrConflict indicates an append lost every race against other writers.
var ErrConflict = errors.New("s3store: concurrent modification")

// API is the subset of the S3 client the store uses.
type API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// Store is an AWS S3 storage backend.
type Store struct {
	client   API
	bucket   string
	prefix   string
	codec    codec.Codec
	strategy shard.Strategy
}

// New creates a new S3 store.
// The bucket must already exist.
func New(ctx context.Context, bucketName string, strategy shard.Strategy, c codec.Codec, opts ...Option) (*Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	s := &Store{
		client:   s3.NewFromConfig(cfg),
		bucket:   bucketName,
		codec:    c,
		strategy: strategy,
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Option configures a Store.
type Option func(*Store) error

// WithPrefix sets a key prefix for all operations.
func WithPrefix(prefix string) Option {
	return func(s *Store) error {
		s.prefix = strings.TrimSuffix(prefix, "/")
		if s.prefix != "" {
			s.prefix += "/"
		}
		return nil
	}
}

// WithRegion sets the AWS region.
func WithRegion(region string) Option {
	return func(s *Store) error {
		cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
		if err != nil {
			return fmt.Errorf("loading AWS config with region: %w", err)
		}
		s.client = s3.NewFromConfig(cfg)
		return nil
	}
}

// WithEndpoint sets a custom endpoint (for S3-compatible services like MinIO).
func WithEndpoint(endpoint string) Option {
	return func(s *Store) error {
		cfg, err := config.LoadDefaultConfig(context.Background())
		if err != nil {
			return fmt.Errorf("loading AWS config for endpoint: %w", err)
		}
		s.client = s3.NewFromConfig(cfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		})
		return nil
	}
}

// WithClient replaces the S3 client.
func WithClient(client API) Option {
	return func(s *Store) error {
		s.client = client
		return nil
	}
}

// ReadPartition reads and decompresses a partition object.
func (s *Store) ReadPartition(ctx context.Context, id int) ([]byte, error) {
	raw, _, err := s.get(ctx, id)
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

	for range maxAppendAttempts {
		raw, etag, err := s.get(ctx, id)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}

		input := &s3.PutObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(s.partitionKey(id)),
			Body:   bytes.NewReader(append(raw, frame...)),
		}
		if etag == "" {
			input.IfNoneMatch = aws.String("*")
		} else {
			input.IfMatch = aws.String(etag)
		}

		_, err = s.client.PutObject(ctx, input)
		if err == nil {
			return nil
		}
		if !isConflict(err) {
			return fmt.Errorf("writing partition %d: %w", id, err)
		}
	}
	return fmt.Errorf("partition %d: %w", id, ErrConflict)
}

// Close releases resources.
func (s *Store) Close() error {
	// S3 client doesn't need explicit closing.
	return nil
}

// get returns the raw object and its ETag.
func (s *Store) get(ctx context.Context, id int) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.partitionKey(id)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, "", store.ErrNotFound
		}
		return nil, "", fmt.Errorf("reading partition %d: %w", id, err)
	}
	defer result.Body.Close()

	raw, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, "", fmt.Errorf("reading partition %d: %w", id, err)
	}
	return raw, aws.ToString(result.ETag), nil
}

// partitionKey returns the full object key for a partition.
func (s *Store) partitionKey(id int) string {
	name := shard.FileName(s.strategy, id)
	if ext := s.codec.Extension(); ext != "" {
		name += "." + ext
	}
	return s.prefix + "partitions/" + name
}

func isConflict(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "PreconditionFailed", "ConditionalRequestConflict":
		return true
	default:
		return false
	}
}
