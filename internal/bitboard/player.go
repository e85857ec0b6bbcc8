package bitboard

import "fmt"

// Player identifies a side. X is the maximizing player.
type Player int8

const (
	None Player = 0
	X    Player = 1
	O    Player = -1
)

// Opponent returns the other side.
func (p Player) Opponent() Player {
	return -p
}

// Valid reports whether p is X or O.
func (p Player) Valid() bool {
	return p == X || p == O
}

// Index returns the mask index of p: 0 for X, 1 for O.
func (p Player) Index() int {
	if p == X {
		return 0
	}
	return 1
}

func (p Player) String() string {
	switch p {
	case X:
		return "X"
	case O:
		return "O"
	default:
		return "-"
	}
}

// ParsePlayer accepts "X"/"O", "1"/"-1" and the starter notation "1"/"2".
func ParsePlayer(s string) (Player, error) {
	switch s {
	case "X", "x", "1":
		return X, nil
	case "O", "o", "-1", "2":
		return O, nil
	default:
		return None, fmt.Errorf("bitboard: unknown player %q", s)
	}
}

// Move is a column index. NoMove marks the absence of a move.
type Move int

// NoMove is stored in records that carry no best move.
const NoMove Move = -1

// Valid reports whether m is a column on the board.
func (m Move) Valid() bool {
	return m >= 0 && m < Width
}

// Mirror returns the column reflected left to right. NoMove is unchanged.
func (m Move) Mirror() Move {
	if !m.Valid() {
		return m
	}
	return Width - 1 - m
}
