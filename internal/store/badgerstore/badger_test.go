package badgerstore

import (
	"context"
	"errors"
	"testing"

	"github.com/discochess/connect4/internal/store"
)

func TestStore_InMemory(t *testing.T) {
	s, err := New("", WithInMemory())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	if _, err := s.ReadPartition(ctx, 1); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("ReadPartition() error = %v, want ErrNotFound", err)
	}

	for _, chunk := range []string{"a\n", "b\n", "c\n"} {
		if err := s.AppendPartition(ctx, 1, []byte(chunk)); err != nil {
			t.Fatalf("AppendPartition() error = %v", err)
		}
	}
	if err := s.AppendPartition(ctx, 10, []byte("other\n")); err != nil {
		t.Fatalf("AppendPartition() error = %v", err)
	}

	got, err := s.ReadPartition(ctx, 1)
	if err != nil {
		t.Fatalf("ReadPartition() error = %v", err)
	}
	if string(got) != "a\nb\nc\n" {
		t.Errorf("ReadPartition() = %q, want %q", got, "a\nb\nc\n")
	}
}

func TestStore_Reopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := s.AppendPartition(ctx, 0, []byte("first\n")); err != nil {
		t.Fatalf("AppendPartition() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	s, err = New(dir)
	if err != nil {
		t.Fatalf("New() reopen error = %v", err)
	}
	defer s.Close()
	if err := s.AppendPartition(ctx, 0, []byte("second\n")); err != nil {
		t.Fatalf("AppendPartition() error = %v", err)
	}

	got, err := s.ReadPartition(ctx, 0)
	if err != nil {
		t.Fatalf("ReadPartition() error = %v", err)
	}
	if string(got) != "first\nsecond\n" {
		t.Errorf("ReadPartition() = %q, want %q", got, "first\nsecond\n")
	}
}
