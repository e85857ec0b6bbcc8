// Package zobrist hashes Connect-Four positions by XOR-ing one random key per
// occupied (cell, player) pair.
//
// The key table must stay stable across runs: every persisted transposition
// record is addressed by hashes computed from it, so regenerating the table
// invalidates the whole store.
package zobrist

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"math/bits"
	"os"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
	"lukechampine.com/frand"

	"github.com/discochess/connect4/internal/bitboard"
	"github.com/discochess/connect4/internal/fileutil"
	"github.com/discochess/connect4/internal/randutil"
)

// FileName is the conventional name of the persisted key table.
const FileName = "zobrist_hashes.txt"

// NumKeys is the number of keys in a table: one per bit slot and player.
const NumKeys = bitboard.Slots * 2

const bignum = 1<<63 - 2

// defaultSeed seeds the deterministic table returned by Default.
const defaultSeed = 0x5eed_c4

// ErrMissingTable indicates the key table could not be loaded or generated.
var ErrMissingTable = errors.New("zobrist: key table unavailable")

// Table holds the random keys. It is immutable after construction and safe
// for concurrent use.
type Table struct {
	keys [bitboard.Slots][2]uint64
}

// Generate returns a table of fresh cryptographically random non-zero keys.
func Generate() *Table {
	t := &Table{}
	for i := range t.keys {
		for j := range t.keys[i] {
			t.keys[i][j] = frand.Uint64n(bignum) + 1
		}
	}
	return t
}

// Default returns a fixed table derived from a constant seed. It is meant for
// tests and in-memory engines that never persist records.
func Default() *Table {
	r := randutil.New(defaultSeed)
	t := &Table{}
	for i := range t.keys {
		for j := range t.keys[i] {
			t.keys[i][j] = r.Uint64N(bignum) + 1
		}
	}
	return t
}

// Key returns the key for a disc of p on bit slot.
func (t *Table) Key(slot int, p bitboard.Player) uint64 {
	return t.keys[slot][p.Index()]
}

// Hash computes the hash of pos from scratch. The empty board hashes to 0.
func (t *Table) Hash(pos bitboard.Position) uint64 {
	var h uint64
	for _, p := range [...]bitboard.Player{bitboard.X, bitboard.O} {
		idx := p.Index()
		for m := pos.Mask(p); m != 0; m &= m - 1 {
			h ^= t.keys[bits.TrailingZeros64(m)][idx]
		}
	}
	return h
}

// Update toggles a disc of p on slot in h. It serves both moves and undos.
func (t *Table) Update(h uint64, slot int, p bitboard.Player) uint64 {
	return h ^ t.keys[slot][p.Index()]
}

// MarshalText encodes the table as NumKeys newline-separated decimal values,
// cell-major with the X key before the O key.
func (t *Table) MarshalText() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(NumKeys * 21)
	for i := range t.keys {
		for j := range t.keys[i] {
			buf.WriteString(strconv.FormatUint(t.keys[i][j], 10))
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes(), nil
}

// Fingerprint identifies the table. Manifests record it so a store is never
// read with keys other than the ones that wrote it.
func (t *Table) Fingerprint() uint64 {
	data, _ := t.MarshalText()
	return xxhash.Sum64(data)
}

// Parse decodes a table in the MarshalText format.
func Parse(data []byte) (*Table, error) {
	t := &Table{}
	n := 0
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		if n >= NumKeys {
			return nil, fmt.Errorf("%w: more than %d keys", ErrMissingTable, NumKeys)
		}
		v, err := strconv.ParseUint(string(line), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMissingTable, n+1, err)
		}
		t.keys[n/2][n%2] = v
		n++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingTable, err)
	}
	if n != NumKeys {
		return nil, fmt.Errorf("%w: got %d keys, want %d", ErrMissingTable, n, NumKeys)
	}
	return t, nil
}

// Load reads a table from path.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingTable, err)
	}
	return Parse(data)
}

// Save writes the table to path atomically.
func (t *Table) Save(path string) error {
	data, err := t.MarshalText()
	if err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(path, data, 0o644)
}

// LoadOrGenerate loads the table at path, generating and saving a new one
// when the file is absent or empty. A file that exists but does not parse is
// an error; it is never silently replaced.
func LoadOrGenerate(path string, logger *zap.Logger) (*Table, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	info, err := os.Stat(path)
	switch {
	case err == nil && info.Size() > 0:
		return Load(path)
	case err != nil && !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("%w: %v", ErrMissingTable, err)
	}

	t := Generate()
	if err := t.Save(path); err != nil {
		return nil, fmt.Errorf("%w: saving generated table: %v", ErrMissingTable, err)
	}
	logger.Warn("generated new zobrist table; existing records are invalid",
		zap.String("path", path),
		zap.Uint64("fingerprint", t.Fingerprint()),
	)
	return t, nil
}
