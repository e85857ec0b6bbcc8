package seeder

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/discochess/connect4/internal/shard/flatshard"
	"github.com/discochess/connect4/internal/shard/plyshard"
	"github.com/discochess/connect4/internal/zobrist"
)

func TestManifestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	strategy, _ := plyshard.New(6)
	m := NewManifest(strategy, "gzip", zobrist.Default())
	m.Add(3, 12)
	m.Add(3, 4)

	if err := WriteManifest(dir, m); err != nil {
		t.Fatalf("WriteManifest() error = %v", err)
	}
	got, err := ReadManifest(dir)
	if err != nil {
		t.Fatalf("ReadManifest() error = %v", err)
	}
	if got.Window != 6 || got.Partitions != 7 || got.Strategy != "ply" {
		t.Errorf("ReadManifest() = %+v, want ply/6 with 7 partitions", got)
	}
	if got.Records[3] != 16 || got.RecordCount != 16 {
		t.Errorf("ReadManifest() records = %v (%d), want 16 in partition 3", got.Records, got.RecordCount)
	}
	if err := got.Check(strategy, "gzip", zobrist.Default()); err != nil {
		t.Errorf("Check() error = %v", err)
	}
}

func TestManifestCheck(t *testing.T) {
	ply3, _ := plyshard.New(3)
	m := NewManifest(ply3, "none", zobrist.Default())

	tests := []struct {
		name string
		err  error
		fn   func() error
	}{
		{"same", nil, func() error { return m.Check(ply3, "none", zobrist.Default()) }},
		{"other keys", ErrManifestMismatch, func() error { return m.Check(ply3, "none", zobrist.Generate()) }},
		{"other strategy", ErrManifestMismatch, func() error { return m.Check(flatshard.New(), "none", zobrist.Default()) }},
		{"other codec", ErrManifestMismatch, func() error { return m.Check(ply3, "zstd", zobrist.Default()) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !errors.Is(err, tt.err) {
				t.Errorf("Check() error = %v, want %v", err, tt.err)
			}
		})
	}
}

func TestReadManifest_Missing(t *testing.T) {
	if _, err := ReadManifest(t.TempDir()); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ReadManifest() error = %v, want %v", err, fs.ErrNotExist)
	}
}

func TestManifestAddGrows(t *testing.T) {
	m := &Manifest{}
	m.Add(2, 5)
	if len(m.Records) != 3 || m.Records[2] != 5 {
		t.Errorf("Records = %v, want [0 0 5]", m.Records)
	}
}

func TestManifest_NewStrategy(t *testing.T) {
	ply6, _ := plyshard.New(6)
	tests := []struct {
		name  string
		m     *Manifest
		want  string
		count int
		err   error
	}{
		{"ply", NewManifest(ply6, "none", zobrist.Default()), "ply", 7, nil},
		{"flat", NewManifest(flatshard.New(), "none", zobrist.Default()), "flat", 1, nil},
		{"unknown", &Manifest{Strategy: "fnv"}, "", 0, ErrManifestMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := tt.m.NewStrategy()
			if !errors.Is(err, tt.err) {
				t.Fatalf("NewStrategy() error = %v, want %v", err, tt.err)
			}
			if err != nil {
				return
			}
			if s.Name() != tt.want || s.Count() != tt.count {
				t.Errorf("NewStrategy() = %s/%d, want %s/%d", s.Name(), s.Count(), tt.want, tt.count)
			}
			if err := tt.m.Check(s, "none", zobrist.Default()); err != nil {
				t.Errorf("Check(NewStrategy()) error = %v", err)
			}
		})
	}
}
