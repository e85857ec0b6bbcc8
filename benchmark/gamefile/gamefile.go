// Package gamefile reads and writes files of recorded games.
//
// A game is a line of column digits in the order they were played, X
// moving first. Lines starting with '#' and blank lines are ignored. Files
// ending in .zst are zstd-compressed.
package gamefile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/discochess/connect4/internal/bitboard"
	"github.com/discochess/connect4/internal/fileutil"
)

// Read parses games from r. Every game must be legal: no move into a full
// column and no move after four in a row.
func Read(r io.Reader) ([]string, error) {
	var games []string

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if err := Validate(text); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		games = append(games, text)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading games: %w", err)
	}
	return games, nil
}

// ReadFile reads games from path, decompressing .zst files.
func ReadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening games file: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".zst") {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("creating zstd decoder: %w", err)
		}
		defer dec.Close()
		r = dec
	}
	return Read(r)
}

// Write writes one game per line.
func Write(w io.Writer, games []string) error {
	bw := bufio.NewWriter(w)
	for _, g := range games {
		if _, err := bw.WriteString(g + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile atomically replaces path with games, compressing when the name
// ends in .zst.
func WriteFile(path string, games []string) error {
	var sb strings.Builder
	if err := Write(&sb, games); err != nil {
		return err
	}
	data := []byte(sb.String())

	if strings.HasSuffix(path, ".zst") {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return fmt.Errorf("creating zstd encoder: %w", err)
		}
		data = enc.EncodeAll(data, nil)
		if err := enc.Close(); err != nil {
			return err
		}
	}
	return fileutil.WriteFileAtomic(path, data, 0o644)
}

// Validate replays moves and reports the first illegal one.
func Validate(moves string) error {
	pos := bitboard.Empty()
	p := bitboard.X
	for i, r := range moves {
		if pos.IsGameOver() {
			return fmt.Errorf("move %d after game end", i+1)
		}
		if r < '0' || r >= '0'+bitboard.Width {
			return fmt.Errorf("move %d: %q: %w", i+1, r, bitboard.ErrInvalidColumn)
		}
		next, err := pos.Play(p, bitboard.Move(r-'0'))
		if err != nil {
			return fmt.Errorf("move %d: %w", i+1, err)
		}
		pos, p = next, p.Opponent()
	}
	return nil
}
