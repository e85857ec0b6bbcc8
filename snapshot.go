package connect4

import (
	"encoding/json"

	"github.com/discochess/connect4/internal/bitboard"
)

// Snapshot is a plain-data view of a game for rendering layers.
type Snapshot struct {
	// Masks holds X's cells then O's, one bit per cell at column*7+row.
	Masks [2]uint64 `json:"masks"`

	// Cells is indexed [row][column] with row 0 at the bottom: 1 for X,
	// -1 for O, 0 for empty.
	Cells [bitboard.Height][bitboard.Width]int8 `json:"cells"`

	Player     string `json:"player"`
	Plies      int    `json:"plies"`
	Difficulty int    `json:"difficulty"`
	Over       bool   `json:"over"`
	Winner     string `json:"winner,omitempty"`
	LegalMoves []int  `json:"legal_moves"`
}

// Snapshot returns the current state as plain data.
func (g Game) Snapshot() Snapshot {
	s := Snapshot{
		Masks:      [2]uint64{g.pos.Mask(X), g.pos.Mask(O)},
		Player:     g.player.String(),
		Plies:      g.pos.PlayedCount(),
		Difficulty: g.difficulty,
		Over:       g.pos.IsGameOver(),
		LegalMoves: g.LegalMoves(),
	}
	for row := range bitboard.Height {
		for col := range bitboard.Width {
			s.Cells[row][col] = int8(g.pos.Cell(col, row))
		}
	}
	if w, ok := g.pos.Winner(); ok {
		s.Winner = w.String()
	}
	return s
}

// MarshalJSON encodes the game as its snapshot.
func (g Game) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Snapshot())
}
