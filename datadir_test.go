package connect4

import (
	"context"
	"testing"

	"github.com/discochess/connect4/internal/record"
)

func TestOpenDataDir_SharedCache(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	opt, err := WithDataDir(dir)
	if err != nil {
		t.Fatalf("WithDataDir() error = %v", err)
	}
	writer := newEngine(t, opt)
	g, _ := writer.NewGame(3)
	recs := []record.Record{{Key: g.Hash(), Depth: 3, Move: 3, Score: 1, Player: X}}
	if _, err := writer.Table().Append(ctx, 0, recs); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	d, err := OpenDataDir(dir, 16, nil)
	if err != nil {
		t.Fatalf("OpenDataDir() error = %v", err)
	}
	engines := make([]*Engine, 2)
	for i := range engines {
		if engines[i], err = New(d.Option()); err != nil {
			t.Fatalf("New() error = %v", err)
		}
		if err := engines[i].Table().Preload(ctx); err != nil {
			t.Fatalf("Preload() error = %v", err)
		}
		if got := engines[i].Table().Len(); got != 1 {
			t.Errorf("engine %d Len() = %d, want 1", i, got)
		}
	}

	stats := d.CacheStats()
	if stats.Hits != 1 || stats.Size != 1 {
		t.Errorf("CacheStats() = %+v, want 1 hit and 1 cached partition", stats)
	}
	if engines[1].Zobrist().Fingerprint() != writer.Zobrist().Fingerprint() {
		t.Error("shared engine loaded a different zobrist table")
	}

	for _, e := range engines {
		if err := e.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	}
	if err := d.Close(); err != nil {
		t.Errorf("DataDir Close() error = %v", err)
	}
}
