package seeder

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/discochess/connect4/internal/fileutil"
	"github.com/discochess/connect4/internal/shard"
	"github.com/discochess/connect4/internal/shard/flatshard"
	"github.com/discochess/connect4/internal/shard/plyshard"
	"github.com/discochess/connect4/internal/zobrist"
)

// ManifestFile is the name of the manifest in a data directory.
const ManifestFile = "manifest.json"

const manifestVersion = 1

// ErrManifestMismatch indicates a data directory written with a different
// Zobrist table or partitioning than the one in use.
var ErrManifestMismatch = errors.New("seeder: manifest does not match store layout")

// Manifest contains metadata about a seeded store.
type Manifest struct {
	Version    int    `json:"version"`
	Strategy   string `json:"strategy"`
	Window     int    `json:"window,omitempty"`
	Partitions int    `json:"partitions"`
	Codec      string `json:"codec"`
	// Zobrist is the fingerprint of the key table, in hex.
	Zobrist     string    `json:"zobrist"`
	RecordCount int64     `json:"record_count"`
	Records     []int64   `json:"records"` // Per partition.
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewManifest describes an empty store.
func NewManifest(strategy shard.Strategy, codecName string, z *zobrist.Table) *Manifest {
	m := &Manifest{
		Version:    manifestVersion,
		Strategy:   strategy.Name(),
		Partitions: strategy.Count(),
		Codec:      codecName,
		Zobrist:    Fingerprint(z),
		Records:    make([]int64, strategy.Count()),
	}
	if w, ok := strategy.(interface{ Window() int }); ok {
		m.Window = w.Window()
	}
	return m
}

// Fingerprint formats the fingerprint of z as stored in manifests.
func Fingerprint(z *zobrist.Table) string {
	return strconv.FormatUint(z.Fingerprint(), 16)
}

// Check reports ErrManifestMismatch if m was written with another layout.
func (m *Manifest) Check(strategy shard.Strategy, codecName string, z *zobrist.Table) error {
	want := NewManifest(strategy, codecName, z)
	switch {
	case m.Zobrist != want.Zobrist:
		return fmt.Errorf("%w: zobrist table %s, store written with %s", ErrManifestMismatch, want.Zobrist, m.Zobrist)
	case m.Strategy != want.Strategy || m.Window != want.Window || m.Partitions != want.Partitions:
		return fmt.Errorf("%w: partitioning %s/%d, store written with %s/%d", ErrManifestMismatch, want.Strategy, want.Window, m.Strategy, m.Window)
	case m.Codec != want.Codec:
		return fmt.Errorf("%w: codec %s, store written with %s", ErrManifestMismatch, want.Codec, m.Codec)
	}
	return nil
}

// NewStrategy returns the partitioning the store was written with.
func (m *Manifest) NewStrategy() (shard.Strategy, error) {
	switch m.Strategy {
	case "flat":
		return flatshard.New(), nil
	case "ply":
		s, err := plyshard.New(m.Window)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: unknown strategy %q", ErrManifestMismatch, m.Strategy)
	}
}

// Add counts n records appended to partition id.
func (m *Manifest) Add(id int, n int) {
	if id >= len(m.Records) {
		m.Records = append(m.Records, make([]int64, id+1-len(m.Records))...)
	}
	m.Records[id] += int64(n)
	m.RecordCount += int64(n)
}

// WriteManifest writes the manifest to the data directory.
func WriteManifest(dir string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	if err := fileutil.WriteFileAtomic(filepath.Join(dir, ManifestFile), data, 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// ReadManifest reads the manifest from a data directory. A missing manifest
// yields an error matching os.ErrNotExist.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}
