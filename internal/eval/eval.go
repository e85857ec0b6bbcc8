// Package eval scores Connect-Four positions for the search.
//
// Scores are absolute: positive values favour X. Terminal positions score
// ±(WinScore + empty cells), so faster wins score higher and the value of a
// position never depends on the path that reached it.
package eval

import "github.com/discochess/connect4/internal/bitboard"

// WinScore is the base magnitude of a won position. Evaluator scores stay far
// below it.
const WinScore float32 = 1e6

// Evaluator scores a non-terminal position at the search horizon.
type Evaluator interface {
	// Name returns the evaluator name used in configuration.
	Name() string

	// Evaluate returns the absolute score of pos with toMove to play.
	Evaluate(pos bitboard.Position, toMove bitboard.Player) float32
}

// Terminal returns the absolute score of a finished game and reports whether
// pos is finished.
func Terminal(pos bitboard.Position) (float32, bool) {
	if w, ok := pos.Winner(); ok {
		return float32(w) * Win(pos.Remaining()), true
	}
	if pos.IsFull() {
		return 0, true
	}
	return 0, false
}

// Win returns the magnitude of a win with remaining empty cells left.
func Win(remaining int) float32 {
	return WinScore + float32(remaining)
}

// IsWin reports whether score is a decided result rather than an estimate.
func IsWin(score float32) bool {
	return score >= WinScore || score <= -WinScore
}
