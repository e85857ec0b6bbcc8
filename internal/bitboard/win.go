package bitboard

// directions are the shift distances for vertical, horizontal and the two
// diagonals in the column-major layout.
var directions = [...]uint{1, Lane, Lane - 1, Lane + 1}

// HasFourInRow reports whether mask contains four consecutive set bits in
// any direction.
func HasFourInRow(mask uint64) bool {
	for _, d := range directions {
		b := mask & (mask >> d)
		if b&(b>>(2*d)) != 0 {
			return true
		}
	}
	return false
}

// HasWinner reports whether either player has four in a row.
func (pos Position) HasWinner() bool {
	return HasFourInRow(pos.masks[0]) || HasFourInRow(pos.masks[1])
}

// Winner returns the player with four in a row, if any.
func (pos Position) Winner() (Player, bool) {
	switch {
	case HasFourInRow(pos.masks[0]):
		return X, true
	case HasFourInRow(pos.masks[1]):
		return O, true
	default:
		return None, false
	}
}

// WinsWith reports whether p completes four in a row by playing col.
// It returns false for illegal moves.
func (pos Position) WinsWith(p Player, col Move) bool {
	if !pos.CanPlay(col) {
		return false
	}
	return HasFourInRow(pos.masks[p.Index()] | 1<<pos.heights[col])
}

// IsGameOver reports whether the game has a winner or the board is full.
func (pos Position) IsGameOver() bool {
	return pos.HasWinner() || pos.IsFull()
}
