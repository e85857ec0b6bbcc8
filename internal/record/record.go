// Package record defines transposition table records and their persisted
// line format:
//
//	<key> <depth> <flag> <move> <score> <player>
//
// key is a decimal uint64, flag is one of ExactFlag, LowerBoundFlag or
// UpperBoundFlag, move is a column or -1, score is a float32 in the shortest
// form that round-trips and player is 1 or -1.
package record

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/discochess/connect4/internal/bitboard"
)

// ErrMalformedRecord indicates a line that does not parse as a record.
var ErrMalformedRecord = errors.New("record: malformed record")

// Bound classifies a score relative to the side to move when it was stored.
type Bound uint8

const (
	// Exact scores lie strictly inside the search window.
	Exact Bound = iota
	// LowerBound scores caused a beta cutoff; the true value is at least Score.
	LowerBound
	// UpperBound scores failed low; the true value is at most Score.
	UpperBound
)

func (b Bound) String() string {
	switch b {
	case Exact:
		return "ExactFlag"
	case LowerBound:
		return "LowerBoundFlag"
	case UpperBound:
		return "UpperBoundFlag"
	default:
		return fmt.Sprintf("Bound(%d)", uint8(b))
	}
}

// ParseBound parses the persisted flag name.
func ParseBound(s string) (Bound, error) {
	switch s {
	case "ExactFlag":
		return Exact, nil
	case "LowerBoundFlag":
		return LowerBound, nil
	case "UpperBoundFlag":
		return UpperBound, nil
	default:
		return 0, fmt.Errorf("%w: unknown flag %q", ErrMalformedRecord, s)
	}
}

// Record is a cached search result. Score is absolute: positive values favour
// X regardless of Player, the side to move when the record was stored.
type Record struct {
	Key    uint64
	Depth  int
	Bound  Bound
	Move   bitboard.Move
	Score  float32
	Player bitboard.Player
}

// RelativeScore returns the score from the point of view of Player.
func (r Record) RelativeScore() float32 {
	return r.Score * float32(r.Player)
}

// AppendText appends the line form of r, without a newline, to dst.
func (r Record) AppendText(dst []byte) []byte {
	dst = strconv.AppendUint(dst, r.Key, 10)
	dst = append(dst, ' ')
	dst = strconv.AppendInt(dst, int64(r.Depth), 10)
	dst = append(dst, ' ')
	dst = append(dst, r.Bound.String()...)
	dst = append(dst, ' ')
	dst = strconv.AppendInt(dst, int64(r.Move), 10)
	dst = append(dst, ' ')
	dst = strconv.AppendFloat(dst, float64(r.Score), 'g', -1, 32)
	dst = append(dst, ' ')
	dst = strconv.AppendInt(dst, int64(r.Player), 10)
	return dst
}

func (r Record) String() string {
	return string(r.AppendText(nil))
}

// Parse decodes a single line.
func Parse(line string) (Record, error) {
	fields := strings.Fields(line)
	if len(fields) != 6 {
		return Record{}, fmt.Errorf("%w: got %d fields, want 6", ErrMalformedRecord, len(fields))
	}

	key, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("%w: key: %v", ErrMalformedRecord, err)
	}
	depth, err := strconv.Atoi(fields[1])
	if err != nil || depth < 0 {
		return Record{}, fmt.Errorf("%w: depth %q", ErrMalformedRecord, fields[1])
	}
	bound, err := ParseBound(fields[2])
	if err != nil {
		return Record{}, err
	}
	move, err := strconv.Atoi(fields[3])
	if err != nil || (move != int(bitboard.NoMove) && !bitboard.Move(move).Valid()) {
		return Record{}, fmt.Errorf("%w: move %q", ErrMalformedRecord, fields[3])
	}
	score, err := strconv.ParseFloat(fields[4], 32)
	if err != nil || math.IsNaN(score) {
		return Record{}, fmt.Errorf("%w: score %q", ErrMalformedRecord, fields[4])
	}
	player, err := strconv.Atoi(fields[5])
	if err != nil || !bitboard.Player(player).Valid() {
		return Record{}, fmt.Errorf("%w: player %q", ErrMalformedRecord, fields[5])
	}

	return Record{
		Key:    key,
		Depth:  depth,
		Bound:  bound,
		Move:   bitboard.Move(move),
		Score:  float32(score),
		Player: bitboard.Player(player),
	}, nil
}

// Encode renders recs as newline-terminated lines.
func Encode(recs []Record) []byte {
	buf := make([]byte, 0, len(recs)*48)
	for _, r := range recs {
		buf = r.AppendText(buf)
		buf = append(buf, '\n')
	}
	return buf
}

// Scan decodes every line of data, calling fn for each record. Malformed
// lines are passed to bad with their 1-based line number; Scan stops and
// returns the error bad returns, if any. Blank lines are ignored.
func Scan(data []byte, fn func(Record), bad func(line int, text string, err error) error) error {
	sc := bufio.NewScanner(bytes.NewReader(data))
	n := 0
	for sc.Scan() {
		n++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		r, err := Parse(text)
		if err != nil {
			if berr := bad(n, text, err); berr != nil {
				return berr
			}
			continue
		}
		fn(r)
	}
	return sc.Err()
}
