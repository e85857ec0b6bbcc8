package seeder

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/discochess/connect4/internal/bitboard"
	"github.com/discochess/connect4/internal/codec"
	"github.com/discochess/connect4/internal/eval"
	"github.com/discochess/connect4/internal/record"
	"github.com/discochess/connect4/internal/search"
	"github.com/discochess/connect4/internal/shard/plyshard"
	"github.com/discochess/connect4/internal/store"
	"github.com/discochess/connect4/internal/store/diskstore"
	"github.com/discochess/connect4/internal/store/memstore"
	"github.com/discochess/connect4/internal/ttable"
	"github.com/discochess/connect4/internal/zobrist"
)

func newSeeder(t *testing.T, st store.Store, opts ...Option) *Seeder {
	t.Helper()
	strategy, err := plyshard.New(plyshard.DefaultWindow)
	if err != nil {
		t.Fatalf("plyshard.New() error = %v", err)
	}
	z := zobrist.Default()
	table := ttable.New(st, strategy)
	searcher := search.New(table, z, eval.NewHeuristic(), search.WithSeed(1))
	opts = append([]Option{WithDepth(2), WithWorkers(4), WithSeed(1)}, opts...)
	return New(searcher, z, opts...)
}

func readRecords(t *testing.T, st store.Store, id int) []record.Record {
	t.Helper()
	data, err := st.ReadPartition(context.Background(), id)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		t.Fatalf("ReadPartition(%d) error = %v", id, err)
	}
	var recs []record.Record
	err = record.Scan(data, func(r record.Record) {
		recs = append(recs, r)
	}, func(line int, text string, err error) error {
		return err
	})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	return recs
}

func TestSeed_WritesRecords(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	s := newSeeder(t, st)

	sum, err := s.Seed(ctx, 10, 8)
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	if sum.Written != 10 || sum.Generated != 10 {
		t.Errorf("Seed() = %+v, want 10 generated and written", sum)
	}
	if sum.Partition != 2 {
		t.Errorf("Seed().Partition = %d, want 2", sum.Partition)
	}

	recs := readRecords(t, st, sum.Partition)
	if len(recs) != 10 {
		t.Fatalf("partition holds %d records, want 10", len(recs))
	}
	for _, r := range recs {
		if r.Depth != 2 || r.Bound != record.Exact || r.Player != bitboard.X || !r.Move.Valid() {
			t.Errorf("record %v, want depth 2, exact, X to move and a move", r)
		}
	}
}

func TestSeed_Idempotent(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()

	// Two plies give 49 positions in 25 mirror classes.
	const classes = 25
	first, err := newSeeder(t, st, WithMaxAttempts(5000)).Seed(ctx, 100, 2)
	if err != nil {
		t.Fatalf("first Seed() error = %v", err)
	}
	if first.Written != classes {
		t.Errorf("first Seed().Written = %d, want %d", first.Written, classes)
	}

	// A fresh table reloads the log, as a new process would.
	second, err := newSeeder(t, st, WithMaxAttempts(5000), WithSeed(2)).Seed(ctx, 100, 2)
	if err != nil {
		t.Fatalf("second Seed() error = %v", err)
	}
	if second.Written != 0 {
		t.Errorf("second Seed().Written = %d, want 0", second.Written)
	}
	if second.Skipped == 0 {
		t.Error("second Seed().Skipped = 0, want skips")
	}

	z := zobrist.Default()
	recs := readRecords(t, st, 0)
	if len(recs) != classes {
		t.Fatalf("partition holds %d records, want %d", len(recs), classes)
	}
	keys := make(map[uint64]bool)
	for _, r := range recs {
		if keys[r.Key] {
			t.Errorf("duplicate key %d", r.Key)
		}
		keys[r.Key] = true
	}

	// No record may be the mirror image of another.
	for a := range bitboard.Move(bitboard.Width) {
		for b := range bitboard.Move(bitboard.Width) {
			pos := bitboard.Empty().Drop(bitboard.X, a).Drop(bitboard.O, b)
			id, mirror := z.Hash(pos), z.Hash(pos.Mirror())
			if id != mirror && keys[id] && keys[mirror] {
				t.Errorf("position %d%d stored under both identity and mirror keys", a, b)
			}
			if !keys[id] && !keys[mirror] {
				t.Errorf("position %d%d not seeded", a, b)
			}
		}
	}
}

func TestSeed_DiskGrowsMonotonically(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	strategy, _ := plyshard.New(plyshard.DefaultWindow)
	st, err := diskstore.New(dir, strategy, codec.Zstd{})
	if err != nil {
		t.Fatalf("diskstore.New() error = %v", err)
	}

	var sizes []int64
	for i := range 3 {
		s := newSeeder(t, st, WithSeed(int64(i)), WithManifest(dir, codec.Zstd{}.Name()))
		if _, err := s.Seed(ctx, 5, 6); err != nil {
			t.Fatalf("Seed() #%d error = %v", i, err)
		}
		info, err := os.Stat(st.Path(strategy.Bucket(6)))
		if err != nil {
			t.Fatalf("stat partition: %v", err)
		}
		sizes = append(sizes, info.Size())
	}
	for i := 1; i < len(sizes); i++ {
		if sizes[i] < sizes[i-1] {
			t.Errorf("partition size went from %d to %d", sizes[i-1], sizes[i])
		}
	}

	recs := readRecords(t, st, strategy.Bucket(6))
	m, err := ReadManifest(dir)
	if err != nil {
		t.Fatalf("ReadManifest() error = %v", err)
	}
	if m.RecordCount != int64(len(recs)) {
		t.Errorf("manifest RecordCount = %d, want %d", m.RecordCount, len(recs))
	}
	if m.Records[strategy.Bucket(6)] != int64(len(recs)) {
		t.Errorf("manifest Records[%d] = %d, want %d", strategy.Bucket(6), m.Records[strategy.Bucket(6)], len(recs))
	}
	if m.Window != plyshard.DefaultWindow || m.Codec != "zstd" {
		t.Errorf("manifest = %+v, want window %d and zstd", m, plyshard.DefaultWindow)
	}
}

func TestSeed_ManifestMismatch(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	strategy, _ := plyshard.New(6)
	if err := WriteManifest(dir, NewManifest(strategy, "none", zobrist.Default())); err != nil {
		t.Fatalf("WriteManifest() error = %v", err)
	}

	s := newSeeder(t, memstore.New(), WithManifest(dir, "none"))
	if _, err := s.Seed(ctx, 1, 4); !errors.Is(err, ErrManifestMismatch) {
		t.Errorf("Seed() error = %v, want %v", err, ErrManifestMismatch)
	}
}

func TestSeed_InvalidPlies(t *testing.T) {
	s := newSeeder(t, memstore.New())
	for _, plies := range []int{-1, 42} {
		if _, err := s.Seed(context.Background(), 1, plies); !errors.Is(err, ErrInvalidPlies) {
			t.Errorf("Seed(1, %d) error = %v, want %v", plies, err, ErrInvalidPlies)
		}
	}
}

type failingStore struct {
	*memstore.Store
}

func (failingStore) AppendPartition(context.Context, int, []byte) error {
	return errors.New("disk full")
}

func TestSeed_StorageErrorIsFatal(t *testing.T) {
	var phases []string
	s := newSeeder(t, failingStore{memstore.New()}, WithProgress(func(p Progress) {
		phases = append(phases, p.Phase)
	}))
	if _, err := s.Seed(context.Background(), 3, 4); err == nil {
		t.Fatal("Seed() error = nil, want storage error")
	}
	if len(phases) == 0 || phases[len(phases)-1] != PhaseError {
		t.Errorf("progress phases = %v, want trailing %q", phases, PhaseError)
	}
}

func TestPlayoutReachesPlies(t *testing.T) {
	s := newSeeder(t, memstore.New())
	for plies := range 20 {
		pos, player, ok := s.playout(plies)
		if !ok {
			if !pos.HasWinner() {
				t.Errorf("playout(%d) failed without a winner", plies)
			}
			continue
		}
		if got := pos.PlayedCount(); got != plies {
			t.Errorf("playout(%d).PlayedCount() = %d, want %d", plies, got, plies)
		}
		want := bitboard.X
		if plies%2 == 1 {
			want = bitboard.O
		}
		if player != want {
			t.Errorf("playout(%d) player = %v, want %v", plies, player, want)
		}
	}
}
