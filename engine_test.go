package connect4

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/discochess/connect4/internal/randutil"
	"github.com/discochess/connect4/internal/record"
	"github.com/discochess/connect4/internal/seeder"
	"github.com/discochess/connect4/internal/shard/flatshard"
	"github.com/discochess/connect4/internal/shard/plyshard"
	"github.com/discochess/connect4/internal/store/memstore"
	"github.com/discochess/connect4/internal/ttable"
	"github.com/discochess/connect4/internal/zobrist"
)

func newEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithRand(randutil.New(1))}, opts...)
	e, err := New(opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func TestNew_Defaults(t *testing.T) {
	e := newEngine(t)
	if _, ok := e.Store().(*memstore.Store); !ok {
		t.Errorf("Store() = %T, want *memstore.Store", e.Store())
	}
	if got := e.Table().Strategy().Count(); got != 14 {
		t.Errorf("Strategy().Count() = %d, want 14", got)
	}
}

func TestNew_WithStore(t *testing.T) {
	mem := memstore.New()
	e := newEngine(t, WithStore(mem))
	if e.Store() != mem {
		t.Error("Store() returned unexpected store")
	}
}

func TestNew_WithTable(t *testing.T) {
	strategy, _ := plyshard.New(6)
	table := ttable.New(memstore.New(), strategy)
	e := newEngine(t, WithTable(table))
	if e.Table() != table {
		t.Error("Table() returned unexpected table")
	}
}

func TestEngine_Close(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	g, err := e.NewGame(1)
	if err != nil {
		t.Fatalf("NewGame() error = %v", err)
	}

	if err := e.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := e.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("second Close() error = %v, want ErrClosed", err)
	}
	if _, err := e.NewGame(1); !errors.Is(err, ErrClosed) {
		t.Errorf("NewGame() after Close error = %v, want ErrClosed", err)
	}
	if _, err := g.Move(3); !errors.Is(err, ErrClosed) {
		t.Errorf("Move() after Close error = %v, want ErrClosed", err)
	}
}

func TestNewGame_Validation(t *testing.T) {
	e := newEngine(t)
	if _, err := e.NewGame(-1); !errors.Is(err, ErrInvalidDifficulty) {
		t.Errorf("NewGame(-1) error = %v, want ErrInvalidDifficulty", err)
	}
	if _, err := e.NewGame(2, WithStarter(None)); !errors.Is(err, ErrInvalidPlayer) {
		t.Errorf("NewGame(WithStarter(None)) error = %v, want ErrInvalidPlayer", err)
	}

	g, err := e.NewGame(2, WithStarter(O))
	if err != nil {
		t.Fatalf("NewGame() error = %v", err)
	}
	if g.Player() != O {
		t.Errorf("Player() = %v, want O", g.Player())
	}
}

func TestWithDataDir(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	opt, err := WithDataDir(dir)
	if err != nil {
		t.Fatalf("WithDataDir() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, zobrist.FileName)); err != nil {
		t.Errorf("zobrist table not generated: %v", err)
	}

	e := newEngine(t, opt)
	g, err := e.NewGame(3)
	if err != nil {
		t.Fatalf("NewGame() error = %v", err)
	}
	key := g.Hash()
	rec := record.Record{Key: key, Depth: 3, Move: 3, Score: 1, Player: X}
	if _, err := e.Table().Append(ctx, 0, []record.Record{rec}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	// A second engine over the same directory sees the record with the same
	// keys.
	opt, err = WithDataDir(dir)
	if err != nil {
		t.Fatalf("second WithDataDir() error = %v", err)
	}
	e2 := newEngine(t, opt)
	if e2.Zobrist().Fingerprint() != e.Zobrist().Fingerprint() {
		t.Error("second engine loaded a different zobrist table")
	}
	g2, _ := e2.NewGame(3)
	if g2.Hash() != key {
		t.Errorf("Hash() = %d, want %d", g2.Hash(), key)
	}
	if got := e2.Table().Len(); got != 0 {
		t.Errorf("Len() before load = %d, want 0", got)
	}
	if err := e2.Table().Preload(ctx); err != nil {
		t.Fatalf("Preload() error = %v", err)
	}
	if got := e2.Table().Len(); got != 1 {
		t.Errorf("Len() after load = %d, want 1", got)
	}
}

func TestWithDataDir_ManifestMismatch(t *testing.T) {
	dir := t.TempDir()
	strategy, _ := plyshard.New(3)
	if err := zobrist.Generate().Save(filepath.Join(dir, zobrist.FileName)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	// The manifest names another key table.
	if err := seeder.WriteManifest(dir, seeder.NewManifest(strategy, "none", zobrist.Default())); err != nil {
		t.Fatalf("WriteManifest() error = %v", err)
	}
	if _, err := WithDataDir(dir); !errors.Is(err, seeder.ErrManifestMismatch) {
		t.Errorf("WithDataDir() error = %v, want ErrManifestMismatch", err)
	}
}

func TestWithDataDir_FlatManifest(t *testing.T) {
	dir := t.TempDir()
	z := zobrist.Generate()
	if err := z.Save(filepath.Join(dir, zobrist.FileName)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := seeder.WriteManifest(dir, seeder.NewManifest(flatshard.New(), "zstd", z)); err != nil {
		t.Fatalf("WriteManifest() error = %v", err)
	}

	opt, err := WithDataDir(dir)
	if err != nil {
		t.Fatalf("WithDataDir() error = %v", err)
	}
	e := newEngine(t, opt)
	if s := e.Table().Strategy(); s.Name() != "flat" || s.Count() != 1 {
		t.Errorf("Strategy() = %s/%d, want flat/1", s.Name(), s.Count())
	}
}
