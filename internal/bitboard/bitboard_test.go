package bitboard

import (
	"errors"
	"slices"
	"testing"
)

func TestEmpty(t *testing.T) {
	pos := Empty()
	if got := pos.PlayedCount(); got != 0 {
		t.Errorf("PlayedCount() = %d, want 0", got)
	}
	if got := pos.Remaining(); got != Cells {
		t.Errorf("Remaining() = %d, want %d", got, Cells)
	}
	want := []Move{0, 1, 2, 3, 4, 5, 6}
	if got := pos.PossibleMoves(); !slices.Equal(got, want) {
		t.Errorf("PossibleMoves() = %v, want %v", got, want)
	}
	for c, h := range pos.Heights() {
		if int(h) != c*Lane {
			t.Errorf("Heights()[%d] = %d, want %d", c, h, c*Lane)
		}
	}
}

func TestPlay(t *testing.T) {
	pos := Empty()
	var err error
	for i := range Height {
		p := X
		if i%2 == 1 {
			p = O
		}
		pos, err = pos.Play(p, 3)
		if err != nil {
			t.Fatalf("Play() error = %v", err)
		}
	}

	if got := pos.Cell(3, 0); got != X {
		t.Errorf("Cell(3, 0) = %v, want X", got)
	}
	if got := pos.Cell(3, 5); got != O {
		t.Errorf("Cell(3, 5) = %v, want O", got)
	}
	if pos.CanPlay(3) {
		t.Error("CanPlay(3) = true, want false")
	}
	if got := pos.PossibleMoves(); slices.Contains(got, 3) {
		t.Errorf("PossibleMoves() = %v, should not contain 3", got)
	}
	if pos.Mask(X)&pos.Mask(O) != 0 {
		t.Error("masks overlap")
	}
	if pos.Occupied()&topMask != 0 {
		t.Error("sentinel bit set")
	}
}

func TestPlayErrors(t *testing.T) {
	full := Empty()
	for range Height {
		full = full.Drop(X, 0)
	}

	tests := []struct {
		name    string
		pos     Position
		col     Move
		wantErr error
	}{
		{"negative", Empty(), -1, ErrInvalidColumn},
		{"too large", Empty(), Width, ErrInvalidColumn},
		{"full column", full, 0, ErrColumnFull},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.pos.Play(X, tt.col)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Play() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.pos {
				t.Error("Play() modified the position on error")
			}
		})
	}
}

func TestLegalityMatchesHeights(t *testing.T) {
	pos := Empty()
	for c := range Move(Width) {
		for range int(c) {
			pos = pos.Drop(O, c)
		}
	}
	// Column 6 now holds Height discs.
	for c := range Move(Width) {
		_, err := pos.Play(X, c)
		full := pos.Slot(c) == int(c)*Lane+Height
		if full != errors.Is(err, ErrColumnFull) {
			t.Errorf("Play(%d) error = %v, slot %d", c, err, pos.Slot(c))
		}
	}
}

func TestFromMasks(t *testing.T) {
	tests := []struct {
		name    string
		x, o    uint64
		wantErr bool
	}{
		{"empty", 0, 0, false},
		{"stacked", 0b1, 0b10, false},
		{"overlap", 0b1, 0b1, true},
		{"floating", 0b10, 0, true},
		{"sentinel", 0b1111111, 0, true},
		{"beyond board", 1 << 49, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromMasks(tt.x, tt.o)
			if (err != nil) != tt.wantErr {
				t.Errorf("FromMasks() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMirror(t *testing.T) {
	pos, _, err := ParseMoves(X, "0012")
	if err != nil {
		t.Fatalf("ParseMoves() error = %v", err)
	}
	m := pos.Mirror()

	want, _, err := ParseMoves(X, "6654")
	if err != nil {
		t.Fatalf("ParseMoves() error = %v", err)
	}
	if m != want {
		t.Errorf("Mirror() =\n%v\nwant\n%v", m, want)
	}
	if m.Mirror() != pos {
		t.Error("Mirror() is not an involution")
	}
}

func TestSwap(t *testing.T) {
	pos, _, err := ParseMoves(X, "334")
	if err != nil {
		t.Fatalf("ParseMoves() error = %v", err)
	}
	s := pos.Swap()
	if s.Mask(X) != pos.Mask(O) || s.Mask(O) != pos.Mask(X) {
		t.Error("Swap() did not exchange masks")
	}
	if s.Heights() != pos.Heights() {
		t.Error("Swap() changed heights")
	}
}

func TestParseRoundTrip(t *testing.T) {
	board := `
.......
.......
.......
...O...
..XX...
.OXXO..`
	pos, err := Parse(board)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := pos.PlayedCount(); got != 7 {
		t.Errorf("PlayedCount() = %d, want 7", got)
	}
	again, err := Parse(pos.String())
	if err != nil {
		t.Fatalf("Parse(String()) error = %v", err)
	}
	if again != pos {
		t.Errorf("Parse(String()) =\n%v\nwant\n%v", again, pos)
	}
}

func TestParseRejectsFloatingDisc(t *testing.T) {
	board := `
.......
.......
.......
...X...
.......
.......`
	if _, err := Parse(board); !errors.Is(err, ErrInvalidPosition) {
		t.Errorf("Parse() error = %v, want %v", err, ErrInvalidPosition)
	}
}

func TestParseMoves(t *testing.T) {
	_, next, err := ParseMoves(O, "123")
	if err != nil {
		t.Fatalf("ParseMoves() error = %v", err)
	}
	if next != X {
		t.Errorf("ParseMoves() next = %v, want X", next)
	}
	if _, _, err := ParseMoves(X, "19"); !errors.Is(err, ErrInvalidColumn) {
		t.Errorf("ParseMoves() error = %v, want %v", err, ErrInvalidColumn)
	}
	if _, _, err := ParseMoves(X, "0000000"); !errors.Is(err, ErrColumnFull) {
		t.Errorf("ParseMoves() error = %v, want %v", err, ErrColumnFull)
	}
}

func TestParseMoves_AfterWin(t *testing.T) {
	pos, next, err := ParseMoves(X, "0101010")
	if err != nil {
		t.Fatalf("ParseMoves() error = %v", err)
	}
	if w, ok := pos.Winner(); !ok || w != X || next != O {
		t.Errorf("ParseMoves() winner %v %v next %v, want X true O", w, ok, next)
	}

	pos, _, err = ParseMoves(X, "01010102")
	if !errors.Is(err, ErrGameOver) {
		t.Fatalf("ParseMoves() error = %v, want %v", err, ErrGameOver)
	}
	if pos.PlayedCount() != 7 {
		t.Errorf("ParseMoves() stopped at %d discs, want 7", pos.PlayedCount())
	}
}

func TestHistoryUndo(t *testing.T) {
	var h History
	pos := Empty()
	var positions []Position
	for _, c := range []Move{3, 3, 2} {
		positions = append(positions, pos)
		h = h.Push(pos)
		pos = pos.Drop(X, c)
	}

	got, rest, err := h.Undo(2)
	if err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if got != positions[1] {
		t.Error("Undo(2) returned the wrong position")
	}
	if rest.Len() != 1 {
		t.Errorf("Undo(2) history len = %d, want 1", rest.Len())
	}

	if _, _, err := h.Undo(4); !errors.Is(err, ErrUndoUnderflow) {
		t.Errorf("Undo(4) error = %v, want %v", err, ErrUndoUnderflow)
	}
	if _, _, err := h.Undo(0); !errors.Is(err, ErrUndoUnderflow) {
		t.Errorf("Undo(0) error = %v, want %v", err, ErrUndoUnderflow)
	}
}

func TestHistoryPushDoesNotAlias(t *testing.T) {
	var h History
	h = h.Push(Empty())
	a := h.Push(Empty().Drop(X, 0))
	b := h.Push(Empty().Drop(X, 6))

	gotA, _, _ := a.Undo(1)
	gotB, _, _ := b.Undo(1)
	if gotA == gotB {
		t.Error("branches of the same history share storage")
	}
}

func TestMoveMirror(t *testing.T) {
	tests := []struct {
		in, want Move
	}{
		{0, 6}, {1, 5}, {2, 4}, {3, 3}, {6, 0}, {NoMove, NoMove},
	}
	for _, tt := range tests {
		if got := tt.in.Mirror(); got != tt.want {
			t.Errorf("Move(%d).Mirror() = %d, want %d", tt.in, got, tt.want)
		}
	}
}
