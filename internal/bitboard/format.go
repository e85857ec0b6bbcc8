package bitboard

import (
	"fmt"
	"strings"
)

// String renders the board top row first using X, O and '.'.
func (pos Position) String() string {
	var sb strings.Builder
	sb.Grow(Height * (Width + 1))
	for row := Height - 1; row >= 0; row-- {
		for col := range Width {
			switch pos.Cell(col, row) {
			case X:
				sb.WriteByte('X')
			case O:
				sb.WriteByte('O')
			default:
				sb.WriteByte('.')
			}
		}
		if row > 0 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// Parse reads a board in the format produced by String. Blank lines and
// surrounding whitespace are ignored.
func Parse(s string) (Position, error) {
	var rows []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			rows = append(rows, line)
		}
	}
	if len(rows) != Height {
		return Position{}, fmt.Errorf("parsing board: got %d rows, want %d: %w", len(rows), Height, ErrInvalidPosition)
	}

	var x, o uint64
	for i, line := range rows {
		if len(line) != Width {
			return Position{}, fmt.Errorf("parsing board: row %d has %d cells, want %d: %w", i, len(line), Width, ErrInvalidPosition)
		}
		row := Height - 1 - i
		for col := range Width {
			bit := uint64(1) << (col*Lane + row)
			switch line[col] {
			case 'X', 'x':
				x |= bit
			case 'O', 'o':
				o |= bit
			case '.':
			default:
				return Position{}, fmt.Errorf("parsing board: unexpected %q: %w", line[col], ErrInvalidPosition)
			}
		}
	}
	return FromMasks(x, o)
}

// ParseMoves plays a sequence of column digits starting with starter and
// returns the resulting position and the side to move. A move after a
// winning one fails with ErrGameOver.
func ParseMoves(starter Player, moves string) (Position, Player, error) {
	pos := Empty()
	p := starter
	for i, r := range moves {
		if pos.HasWinner() {
			return pos, p, fmt.Errorf("move %d: %w", i, ErrGameOver)
		}
		if r < '0' || r > '9' {
			return pos, p, fmt.Errorf("move %d: %q: %w", i, r, ErrInvalidColumn)
		}
		next, err := pos.Play(p, Move(r-'0'))
		if err != nil {
			return pos, p, fmt.Errorf("move %d: %w", i, err)
		}
		pos = next
		p = p.Opponent()
	}
	return pos, p, nil
}
