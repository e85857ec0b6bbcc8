package bitboard

import (
	"fmt"
	"testing"
)

func bit(col, row int) uint64 {
	return 1 << (col*Lane + row)
}

// line returns the mask of n cells starting at col, row stepping by dc, dr.
func line(col, row, dc, dr, n int) uint64 {
	var m uint64
	for i := range n {
		m |= bit(col+i*dc, row+i*dr)
	}
	return m
}

func TestHasFourInRow(t *testing.T) {
	type pattern struct {
		name   string
		dc, dr int
	}
	patterns := []pattern{
		{"vertical", 0, 1},
		{"horizontal", 1, 0},
		{"diagonal up", 1, 1},
		{"diagonal down", 1, -1},
	}

	for _, p := range patterns {
		for col := range Width {
			for row := range Height {
				endCol := col + 3*p.dc
				endRow := row + 3*p.dr
				if endCol < 0 || endCol >= Width || endRow < 0 || endRow >= Height {
					continue
				}
				name := fmt.Sprintf("%s at %d,%d", p.name, col, row)
				t.Run(name, func(t *testing.T) {
					if !HasFourInRow(line(col, row, p.dc, p.dr, 4)) {
						t.Error("HasFourInRow(four) = false, want true")
					}
					if HasFourInRow(line(col, row, p.dc, p.dr, 3)) {
						t.Error("HasFourInRow(three) = true, want false")
					}
					// Remove an inner cell instead of an end cell.
					gap := line(col, row, p.dc, p.dr, 4) &^ bit(col+p.dc, row+p.dr)
					if HasFourInRow(gap) {
						t.Error("HasFourInRow(gap) = true, want false")
					}
				})
			}
		}
	}
}

func TestHasFourInRowNoWraparound(t *testing.T) {
	tests := []struct {
		name string
		mask uint64
	}{
		// Top of column 0 then bottom of column 1.
		{"vertical across lanes", bit(0, 4) | bit(0, 5) | bit(1, 0) | bit(1, 1)},
		{"diagonal across lanes", bit(0, 5) | bit(1, 0) | bit(2, 1) | bit(3, 2)},
		{"empty", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if HasFourInRow(tt.mask) {
				t.Errorf("HasFourInRow(%#x) = true, want false", tt.mask)
			}
		})
	}
}

func TestWinner(t *testing.T) {
	pos, err := FromMasks(0b1111, bit(1, 0)|bit(2, 0)|bit(3, 0))
	if err != nil {
		t.Fatalf("FromMasks() error = %v", err)
	}
	w, ok := pos.Winner()
	if !ok || w != X {
		t.Errorf("Winner() = %v, %v, want X, true", w, ok)
	}
	if !pos.IsGameOver() {
		t.Error("IsGameOver() = false, want true")
	}
}

func TestWinsWith(t *testing.T) {
	pos, err := FromMasks(0b111, bit(4, 0)|bit(5, 0)|bit(6, 0))
	if err != nil {
		t.Fatalf("FromMasks() error = %v", err)
	}
	if !pos.WinsWith(X, 0) {
		t.Error("WinsWith(X, 0) = false, want true")
	}
	if pos.WinsWith(X, 1) {
		t.Error("WinsWith(X, 1) = true, want false")
	}
	if !pos.WinsWith(O, 3) {
		t.Error("WinsWith(O, 3) = false, want true")
	}
	if pos.WinsWith(X, -1) {
		t.Error("WinsWith(X, -1) = true, want false")
	}
	if pos.HasWinner() {
		t.Error("WinsWith() committed the move")
	}
}

func TestDrawIsGameOver(t *testing.T) {
	// Rows alternate within every column; the column phase pattern breaks
	// every horizontal and diagonal line.
	phase := [Width]int{0, 0, 1, 1, 0, 0, 1}
	var x, o uint64
	for c := range Width {
		for r := range Height {
			if (r+phase[c])%2 == 0 {
				x |= bit(c, r)
			} else {
				o |= bit(c, r)
			}
		}
	}
	pos, err := FromMasks(x, o)
	if err != nil {
		t.Fatalf("FromMasks() error = %v", err)
	}
	if !pos.IsFull() {
		t.Fatalf("PlayedCount() = %d, want %d", pos.PlayedCount(), Cells)
	}
	if w, ok := pos.Winner(); ok {
		t.Fatalf("Winner() = %v, want none", w)
	}
	if !pos.IsGameOver() {
		t.Error("IsGameOver() = false on a full board")
	}
	if got := pos.PossibleMoves(); len(got) != 0 {
		t.Errorf("PossibleMoves() = %v, want none", got)
	}
}
