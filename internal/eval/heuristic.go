package eval

import (
	"math/bits"

	"github.com/discochess/connect4/internal/bitboard"
)

// Pattern weights.
const (
	twoWeight    = 2
	threeWeight  = 5
	centreWeight = 3
)

// windowWeights is indexed by the number of discs of a single owner in an
// otherwise empty window.
var windowWeights = [5]float32{0, 0, twoWeight, threeWeight, 0}

// windows holds the 69 four-cell lines of the board.
var windows = buildWindows()

const centreMask = uint64((1<<bitboard.Height)-1) << (bitboard.Width / 2 * bitboard.Lane)

func buildWindows() []uint64 {
	type dir struct{ dc, dr int }
	var out []uint64
	for _, d := range []dir{{0, 1}, {1, 0}, {1, 1}, {1, -1}} {
		for c := range bitboard.Width {
			for r := range bitboard.Height {
				ec, er := c+3*d.dc, r+3*d.dr
				if ec >= bitboard.Width || er < 0 || er >= bitboard.Height {
					continue
				}
				var m uint64
				for i := range 4 {
					m |= 1 << ((c+i*d.dc)*bitboard.Lane + r + i*d.dr)
				}
				out = append(out, m)
			}
		}
	}
	return out
}

// Heuristic scores open two- and three-disc lines and centre control.
// It is deterministic, mirror symmetric and antisymmetric under a colour swap.
type Heuristic struct{}

// Compile-time check that Heuristic implements Evaluator.
var _ Evaluator = Heuristic{}

// NewHeuristic returns the pattern heuristic.
func NewHeuristic() Heuristic {
	return Heuristic{}
}

func (Heuristic) Name() string { return "heuristic" }

// Evaluate ignores the side to move.
func (Heuristic) Evaluate(pos bitboard.Position, _ bitboard.Player) float32 {
	x, o := pos.Mask(bitboard.X), pos.Mask(bitboard.O)

	var score float32
	for _, w := range windows {
		nx := bits.OnesCount64(x & w)
		no := bits.OnesCount64(o & w)
		switch {
		case no == 0:
			score += windowWeights[nx]
		case nx == 0:
			score -= windowWeights[no]
		}
	}
	score += centreWeight * float32(bits.OnesCount64(x&centreMask)-bits.OnesCount64(o&centreMask))
	return score
}
