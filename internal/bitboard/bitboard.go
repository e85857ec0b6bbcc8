// Package bitboard encodes a 7x6 Connect-Four board as two 64-bit masks.
//
// Each column occupies a contiguous 7-bit lane: bit column*7+row, row 0 at the
// bottom. The seventh bit of every lane is a sentinel that legal play never
// sets; it stops horizontal and diagonal shifts from wrapping between columns
// and marks a full column.
package bitboard

import (
	"errors"
	"math/bits"
)

// Board geometry.
const (
	Width  = 7
	Height = 6

	// Lane is the number of bits reserved per column, including the sentinel.
	Lane = Height + 1

	// Cells is the number of playable cells.
	Cells = Width * Height

	// Slots is one past the highest playable bit. Zobrist tables are sized
	// by it.
	Slots = (Width-1)*Lane + Height
)

var (
	// ErrInvalidColumn indicates a column outside [0, Width).
	ErrInvalidColumn = errors.New("bitboard: invalid column")

	// ErrColumnFull indicates a move into a column with no free cell.
	ErrColumnFull = errors.New("bitboard: column full")

	// ErrUndoUnderflow indicates an undo of more moves than were recorded.
	ErrUndoUnderflow = errors.New("bitboard: undo exceeds history")

	// ErrGameOver indicates a move after four in a row.
	ErrGameOver = errors.New("bitboard: game over")

	// ErrInvalidPosition indicates masks that legal play cannot produce.
	ErrInvalidPosition = errors.New("bitboard: invalid position")
)

const (
	// bottomMask has the row-0 bit of every lane set.
	bottomMask uint64 = 1 | 1<<7 | 1<<14 | 1<<21 | 1<<28 | 1<<35 | 1<<42

	// topMask has the sentinel bit of every lane set.
	topMask = bottomMask << Height

	// boardMask covers every playable cell.
	boardMask = bottomMask * ((1 << Height) - 1)

	laneMask uint64 = (1 << Height) - 1
)

// Position is an immutable board. The zero value is not a valid position;
// use Empty.
type Position struct {
	masks   [2]uint64
	heights [Width]uint8
}

// Empty returns the position with no discs.
func Empty() Position {
	var p Position
	for c := range Width {
		p.heights[c] = uint8(c * Lane)
	}
	return p
}

// FromMasks builds a position from one mask per player. The masks must not
// overlap, must stay within the playable cells and must respect gravity.
func FromMasks(x, o uint64) (Position, error) {
	if x&o != 0 || (x|o)&^boardMask != 0 {
		return Position{}, ErrInvalidPosition
	}
	p := Position{masks: [2]uint64{x, o}}
	occupied := x | o
	for c := range Width {
		lane := (occupied >> (c * Lane)) & laneMask
		filled := bits.OnesCount64(lane)
		// Gravity: the occupied cells of a lane form a prefix from the bottom.
		if lane != (1<<filled)-1 {
			return Position{}, ErrInvalidPosition
		}
		p.heights[c] = uint8(c*Lane + filled)
	}
	return p, nil
}

// Mask returns the cells owned by p.
func (pos Position) Mask(p Player) uint64 {
	return pos.masks[p.Index()]
}

// Occupied returns every cell holding a disc.
func (pos Position) Occupied() uint64 {
	return pos.masks[0] | pos.masks[1]
}

// Heights returns the absolute bit index of the next free cell per column.
func (pos Position) Heights() [Width]uint8 {
	return pos.heights
}

// Slot returns the bit index a disc dropped into col would occupy.
// The caller must ensure col is valid.
func (pos Position) Slot(col Move) int {
	return int(pos.heights[col])
}

// CanPlay reports whether col is a legal move.
func (pos Position) CanPlay(col Move) bool {
	return col.Valid() && topMask&(1<<pos.heights[col]) == 0
}

// Play drops a disc for p into col and returns the resulting position.
func (pos Position) Play(p Player, col Move) (Position, error) {
	if !col.Valid() {
		return pos, ErrInvalidColumn
	}
	if !pos.CanPlay(col) {
		return pos, ErrColumnFull
	}
	return pos.Drop(p, col), nil
}

// Drop applies a move already known to be legal. It is the unchecked form of
// Play used by search loops that iterate PossibleMoves.
func (pos Position) Drop(p Player, col Move) Position {
	pos.masks[p.Index()] |= 1 << pos.heights[col]
	pos.heights[col]++
	return pos
}

// PossibleMoves returns the legal columns in ascending order.
func (pos Position) PossibleMoves() []Move {
	return pos.AppendMoves(make([]Move, 0, Width))
}

// AppendMoves appends the legal columns in ascending order to dst.
func (pos Position) AppendMoves(dst []Move) []Move {
	for c := range Move(Width) {
		if topMask&(1<<pos.heights[c]) == 0 {
			dst = append(dst, c)
		}
	}
	return dst
}

// PlayedCount returns the number of discs on the board.
func (pos Position) PlayedCount() int {
	return bits.OnesCount64(pos.Occupied())
}

// Remaining returns the number of empty cells.
func (pos Position) Remaining() int {
	return Cells - pos.PlayedCount()
}

// IsFull reports whether every cell holds a disc.
func (pos Position) IsFull() bool {
	return pos.PlayedCount() == Cells
}

// Cell returns the owner of the cell at col, row, or None.
func (pos Position) Cell(col, row int) Player {
	if col < 0 || col >= Width || row < 0 || row >= Height {
		return None
	}
	bit := uint64(1) << (col*Lane + row)
	switch {
	case pos.masks[0]&bit != 0:
		return X
	case pos.masks[1]&bit != 0:
		return O
	default:
		return None
	}
}

// Mirror reflects the board left to right.
func (pos Position) Mirror() Position {
	var m Position
	for c := range Width {
		mc := Width - 1 - c
		shift := c * Lane
		mshift := mc * Lane
		m.masks[0] |= ((pos.masks[0] >> shift) & laneMask) << mshift
		m.masks[1] |= ((pos.masks[1] >> shift) & laneMask) << mshift
		m.heights[mc] = uint8(mshift + int(pos.heights[c]) - shift)
	}
	return m
}

// Swap exchanges the discs of the two players.
func (pos Position) Swap() Position {
	pos.masks[0], pos.masks[1] = pos.masks[1], pos.masks[0]
	return pos
}
