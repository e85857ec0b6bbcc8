package bitboard

import "slices"

// History is an immutable stack of prior positions.
type History struct {
	stack []Position
}

// Push returns a history with pos on top. The receiver is not modified.
func (h History) Push(pos Position) History {
	return History{stack: append(slices.Clip(h.stack), pos)}
}

// Len returns the number of recorded positions.
func (h History) Len() int {
	return len(h.stack)
}

// Undo pops n positions. It returns the position that was current n moves
// ago and the history preceding it.
func (h History) Undo(n int) (Position, History, error) {
	if n < 1 || n > len(h.stack) {
		return Position{}, h, ErrUndoUnderflow
	}
	i := len(h.stack) - n
	return h.stack[i], History{stack: h.stack[:i]}, nil
}
