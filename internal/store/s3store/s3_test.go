package s3store

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strconv"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/discochess/connect4/internal/codec"
	"github.com/discochess/connect4/internal/shard/plyshard"
	"github.com/discochess/connect4/internal/store"
)

// fakeS3 is an in-memory object store honouring conditional puts.
type fakeS3 struct {
	objects  map[string][]byte
	versions map[string]int
	// conflicts makes the next n puts fail as if another writer won.
	conflicts int
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte), versions: make(map[string]int)}
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body: io.NopCloser(bytes.NewReader(data)),
		ETag: aws.String(strconv.Itoa(f.versions[*in.Key])),
	}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.conflicts > 0 {
		f.conflicts--
		return nil, &smithy.GenericAPIError{Code: "PreconditionFailed"}
	}
	key := *in.Key
	_, exists := f.objects[key]
	if in.IfNoneMatch != nil && exists {
		return nil, &smithy.GenericAPIError{Code: "PreconditionFailed"}
	}
	if in.IfMatch != nil && *in.IfMatch != strconv.Itoa(f.versions[key]) {
		return nil, &smithy.GenericAPIError{Code: "PreconditionFailed"}
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[key] = data
	f.versions[key]++
	return &s3.PutObjectOutput{}, nil
}

func newTestStore(t *testing.T, client API, c codec.Codec) *Store {
	t.Helper()
	strategy, err := plyshard.New(3)
	if err != nil {
		t.Fatal(err)
	}
	return &Store{client: client, bucket: "b", codec: c, strategy: strategy}
}

func TestWithPrefix(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"prefix", "prefix/"},
		{"prefix/", "prefix/"},
		{"a/b/c", "a/b/c/"},
		{"a/b/c/", "a/b/c/"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			s := &Store{}
			opt := WithPrefix(tt.input)
			if err := opt(s); err != nil {
				t.Fatalf("WithPrefix() error = %v", err)
			}
			if s.prefix != tt.want {
				t.Errorf("prefix = %q, want %q", s.prefix, tt.want)
			}
		})
	}
}

func TestStore_partitionKey(t *testing.T) {
	s := newTestStore(t, newFakeS3(), codec.Zstd{})
	s.prefix = "data/v1/"

	tests := []struct {
		id   int
		want string
	}{
		{0, "data/v1/partitions/00_table_0_2.txt.zst"},
		{13, "data/v1/partitions/13_table_39_41.txt.zst"},
	}
	for _, tt := range tests {
		if got := s.partitionKey(tt.id); got != tt.want {
			t.Errorf("partitionKey(%d) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestStore_AppendAndRead(t *testing.T) {
	s := newTestStore(t, newFakeS3(), codec.Zstd{})
	ctx := context.Background()

	if _, err := s.ReadPartition(ctx, 4); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("ReadPartition() error = %v, want ErrNotFound", err)
	}
	if err := s.AppendPartition(ctx, 4, []byte("a\n")); err != nil {
		t.Fatalf("AppendPartition() error = %v", err)
	}
	if err := s.AppendPartition(ctx, 4, []byte("b\n")); err != nil {
		t.Fatalf("AppendPartition() error = %v", err)
	}

	got, err := s.ReadPartition(ctx, 4)
	if err != nil {
		t.Fatalf("ReadPartition() error = %v", err)
	}
	if string(got) != "a\nb\n" {
		t.Errorf("ReadPartition() = %q, want %q", got, "a\nb\n")
	}
}

func TestStore_AppendRetriesConflicts(t *testing.T) {
	fake := newFakeS3()
	fake.conflicts = 2
	s := newTestStore(t, fake, codec.None{})

	if err := s.AppendPartition(context.Background(), 0, []byte("x\n")); err != nil {
		t.Fatalf("AppendPartition() error = %v", err)
	}

	fake.conflicts = maxAppendAttempts
	err := s.AppendPartition(context.Background(), 0, []byte("y\n"))
	if !errors.Is(err, ErrConflict) {
		t.Errorf("AppendPartition() error = %v, want ErrConflict", err)
	}
}

func TestStore_Close(t *testing.T) {
	s := &Store{}
	if err := s.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
