// Package symmetry derives the alternate lookup keys of a position.
//
// A position, its left-right reflection and its colour-swapped image have the
// same game value, so a record stored under any of them answers a lookup for
// the others once its move and score are adapted back.
package symmetry

import (
	"github.com/discochess/connect4/internal/bitboard"
	"github.com/discochess/connect4/internal/record"
	"github.com/discochess/connect4/internal/zobrist"
)

// Kind names a board symmetry.
type Kind uint8

const (
	Identity Kind = iota
	Mirror
	Inverse
	MirrorInverse
)

func (k Kind) String() string {
	switch k {
	case Identity:
		return "identity"
	case Mirror:
		return "mirror"
	case Inverse:
		return "inverse"
	case MirrorInverse:
		return "mirror+inverse"
	default:
		return "unknown"
	}
}

func (k Kind) mirrored() bool { return k == Mirror || k == MirrorInverse }
func (k Kind) inverted() bool { return k == Inverse || k == MirrorInverse }

// Candidate is a lookup key for one symmetry of a position.
type Candidate struct {
	Kind Kind
	Key  uint64
	// Player is the side to move in the original position.
	Player bitboard.Player
}

// Candidates returns the identity, mirror, inverse and mirror+inverse keys of
// pos in that order. hash must be the Zobrist hash of pos. Symmetric boards
// yield repeated keys; they are kept because each kind adapts differently.
func Candidates(t *zobrist.Table, pos bitboard.Position, player bitboard.Player, hash uint64) [4]Candidate {
	mirror := pos.Mirror()
	return [4]Candidate{
		{Kind: Identity, Key: hash, Player: player},
		{Kind: Mirror, Key: t.Hash(mirror), Player: player},
		{Kind: Inverse, Key: t.Hash(pos.Swap()), Player: player},
		{Kind: MirrorInverse, Key: t.Hash(mirror.Swap()), Player: player},
	}
}

// Adapt maps a record stored under c.Key back onto the original position.
// It reports false when the record's side to move does not fit the symmetry.
//
// The bound kind is relative to the side to move, so it survives colour
// inversion unchanged: negating the absolute score and flipping the player
// leaves the relative score as it was.
func (c Candidate) Adapt(r record.Record) (record.Record, bool) {
	if c.Kind.inverted() {
		if r.Player != c.Player.Opponent() {
			return record.Record{}, false
		}
		r.Score = -r.Score
		r.Player = c.Player
	} else if r.Player != c.Player {
		return record.Record{}, false
	}
	if c.Kind.mirrored() {
		r.Move = r.Move.Mirror()
	}
	return r, true
}
