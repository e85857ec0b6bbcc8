package connect4

import (
	"strconv"

	"github.com/discochess/connect4/internal/eval"
)

// Analysis is the engine's verdict on a position.
type Analysis struct {
	// Move is the chosen column.
	Move int

	// Score is from X's point of view: positive values favour X, negative
	// values favour O. Decided games score beyond ±1e6.
	Score float32

	// Player is the side to move.
	Player Player

	// Depth is the search depth; zero for a random move.
	Depth int

	// Nodes is the number of positions visited.
	Nodes int64

	// Ties is the number of moves that shared the best score.
	Ties int

	remaining int
}

// IsWin returns true if the search proved a win for either side.
func (a Analysis) IsWin() bool {
	return eval.IsWin(a.Score)
}

// Winner returns the side the search proved wins, or None.
func (a Analysis) Winner() Player {
	switch {
	case !a.IsWin():
		return None
	case a.Score > 0:
		return X
	default:
		return O
	}
}

// WinIn returns the number of plies, including the current move, until the
// proved win completes. It returns 0 when no win was proved.
func (a Analysis) WinIn() int {
	if !a.IsWin() {
		return 0
	}
	s := a.Score
	if s < 0 {
		s = -s
	}
	left := int(s - eval.WinScore)
	return a.remaining - left
}

// ScoreString returns a human-readable score.
// Examples: "+12", "-3.5", "0", "#3", "#-5". A mate count is in plies and
// its sign names the winner: positive for X.
func (a Analysis) ScoreString() string {
	if a.IsWin() {
		n := a.WinIn()
		if a.Score < 0 {
			n = -n
		}
		return "#" + strconv.Itoa(n)
	}
	if a.Depth == 0 {
		return "?"
	}
	s := strconv.FormatFloat(float64(a.Score), 'f', -1, 32)
	if a.Score > 0 {
		return "+" + s
	}
	return s
}
