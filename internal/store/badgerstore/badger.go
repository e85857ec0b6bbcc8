// Package badgerstore implements a storage backend on an embedded BadgerDB.
//
// Every append is written under its own key, "p/<partition>/<sequence>", so
// a partition log is the concatenation of its values in key order.
package badgerstore

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/discochess/connect4/internal/store"
)

const seqBandwidth = 16

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// Store is a BadgerDB storage backend.
type Store struct {
	db *badger.DB

	mu   sync.Mutex
	seqs map[int]*badger.Sequence
}

// Option configures a Store.
type Option func(*badger.Options)

// WithInMemory keeps the database in memory only.
func WithInMemory() Option {
	return func(o *badger.Options) {
		*o = o.WithDir("").WithValueDir("").WithInMemory(true)
	}
}

// New opens or creates a database in dir.
func New(dir string, opts ...Option) (*Store, error) {
	bopts := badger.DefaultOptions(dir)
	bopts.Logger = nil
	for _, opt := range opts {
		opt(&bopts)
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("opening badger: %w", err)
	}
	return &Store{
		db:   db,
		seqs: make(map[int]*badger.Sequence),
	}, nil
}

// ReadPartition concatenates every append made to a partition.
func (s *Store) ReadPartition(ctx context.Context, id int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := partitionPrefix(id)
	var data []byte
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix, PrefetchValues: true, PrefetchSize: 64})
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			found = true
			err := it.Item().Value(func(v []byte) error {
				data = append(data, v...)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading partition %d: %w", id, err)
	}
	if !found {
		return nil, store.ErrNotFound
	}
	return data, nil
}

// AppendPartition stores data under the partition's next sequence number.
func (s *Store) AppendPartition(ctx context.Context, id int, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}

	seq, err := s.sequence(id)
	if err != nil {
		return err
	}
	n, err := seq.Next()
	if err != nil {
		return fmt.Errorf("partition %d sequence: %w", id, err)
	}

	key := binary.BigEndian.AppendUint64(partitionPrefix(id), n)
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
	if err != nil {
		return fmt.Errorf("appending partition %d: %w", id, err)
	}
	return nil
}

// Close releases sequences and closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, seq := range s.seqs {
		errs = append(errs, seq.Release())
	}
	s.seqs = nil
	errs = append(errs, s.db.Close())
	return errors.Join(errs...)
}

func (s *Store) sequence(id int) (*badger.Sequence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq, ok := s.seqs[id]; ok {
		return seq, nil
	}
	seq, err := s.db.GetSequence([]byte(fmt.Sprintf("seq/%02d", id)), seqBandwidth)
	if err != nil {
		return nil, fmt.Errorf("partition %d sequence: %w", id, err)
	}
	s.seqs[id] = seq
	return seq, nil
}

func partitionPrefix(id int) []byte {
	return []byte(fmt.Sprintf("p/%02d/", id))
}
