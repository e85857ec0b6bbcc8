// Package arena plays engine configurations against each other.
//
// Each opening is played twice with colours swapped so that neither side
// profits from moving first. Per-move node counts and search times are kept
// for statistical comparison.
package arena

import (
	"context"
	"errors"
	"fmt"
	"math"
	rand "math/rand/v2"
	"strings"
	"time"

	"github.com/discochess/connect4"
	"github.com/discochess/connect4/internal/bitboard"
	"github.com/discochess/connect4/internal/randutil"
)

// Contestant is one side of a match.
type Contestant struct {
	Name       string
	Engine     *connect4.Engine
	Difficulty int
}

// Outcome of a game from the first contestant's point of view.
type Outcome int

const (
	Loss Outcome = -1
	Draw Outcome = 0
	Win  Outcome = 1
)

func (o Outcome) String() string {
	switch o {
	case Win:
		return "1-0"
	case Loss:
		return "0-1"
	default:
		return "1/2"
	}
}

// GameResult records a single game.
type GameResult struct {
	Opening string
	Moves   string
	// AFirst is true when the first contestant played X.
	AFirst  bool
	Outcome Outcome
}

// SideResult holds per-move measurements for one contestant.
type SideResult struct {
	Name      string
	Nodes     []float64
	Durations []time.Duration
}

// Seconds returns the search times in seconds.
func (s *SideResult) Seconds() []float64 {
	out := make([]float64, len(s.Durations))
	for i, d := range s.Durations {
		out[i] = d.Seconds()
	}
	return out
}

// Result aggregates a match.
type Result struct {
	A, B  SideResult
	Games []GameResult

	Wins, Draws, Losses int
}

// Score returns the first contestant's points per game: 1 for a win, 0.5 for
// a draw.
func (r *Result) Score() float64 {
	n := r.Wins + r.Draws + r.Losses
	if n == 0 {
		return 0
	}
	return (float64(r.Wins) + 0.5*float64(r.Draws)) / float64(n)
}

// EloDiff estimates the rating difference of A over B from the match score.
// It is infinite when one side won every game.
func (r *Result) EloDiff() float64 {
	s := r.Score()
	switch s {
	case 0:
		return math.Inf(-1)
	case 1:
		return math.Inf(1)
	}
	return -400 * math.Log10(1/s-1)
}

// Options configures a match.
type Options struct {
	// Openings are move sequences to start from. When empty, Games random
	// openings of OpeningPlies moves are drawn.
	Openings     []string
	Games        int
	OpeningPlies int
	Seed         int64

	// Progress is called after every game.
	Progress func(done, total int)
}

// Run plays a against b. Cancelling ctx stops the match after the current
// move and returns the games finished so far together with ctx's error.
func Run(ctx context.Context, a, b Contestant, opts Options) (*Result, error) {
	openings := opts.Openings
	if len(openings) == 0 {
		rng := randutil.New(opts.Seed)
		for range opts.Games {
			openings = append(openings, randomOpening(rng, opts.OpeningPlies))
		}
	}

	res := &Result{A: SideResult{Name: a.Name}, B: SideResult{Name: b.Name}}
	total := 2 * len(openings)
	for i, opening := range openings {
		for _, aFirst := range []bool{true, false} {
			g, err := play(ctx, res, a, b, opening, aFirst)
			if err != nil {
				return res, fmt.Errorf("opening %d %q: %w", i, opening, err)
			}
			res.Games = append(res.Games, g)
			switch g.Outcome {
			case Win:
				res.Wins++
			case Loss:
				res.Losses++
			default:
				res.Draws++
			}
			if opts.Progress != nil {
				opts.Progress(len(res.Games), total)
			}
		}
	}
	return res, nil
}

func play(ctx context.Context, res *Result, a, b Contestant, opening string, aFirst bool) (GameResult, error) {
	pos, player, err := bitboard.ParseMoves(bitboard.X, opening)
	if err != nil {
		return GameResult{}, err
	}

	var moves strings.Builder
	moves.WriteString(opening)

	xSide, oSide := a, b
	xRes, oRes := &res.A, &res.B
	if !aFirst {
		xSide, oSide = b, a
		xRes, oRes = &res.B, &res.A
	}

	for !pos.IsGameOver() {
		side, sr := xSide, xRes
		if player == bitboard.O {
			side, sr = oSide, oRes
		}

		g, err := side.Engine.FromPosition(pos, player, side.Difficulty)
		if err != nil {
			return GameResult{}, err
		}
		start := time.Now()
		an, err := g.Analyze(ctx)
		if err != nil {
			if errors.Is(err, connect4.ErrGameOver) {
				break
			}
			return GameResult{}, err
		}
		if err := ctx.Err(); err != nil {
			return GameResult{}, err
		}
		sr.Durations = append(sr.Durations, time.Since(start))
		sr.Nodes = append(sr.Nodes, float64(an.Nodes))

		col := bitboard.Move(an.Move)
		if pos, err = pos.Play(player, col); err != nil {
			return GameResult{}, fmt.Errorf("%s played %d: %w", side.Name, an.Move, err)
		}
		moves.WriteByte(byte('0' + an.Move))
		player = player.Opponent()
	}

	out := GameResult{Opening: opening, Moves: moves.String(), AFirst: aFirst}
	if w, ok := pos.Winner(); ok {
		aWon := (w == bitboard.X) == aFirst
		out.Outcome = Loss
		if aWon {
			out.Outcome = Win
		}
	}
	return out, nil
}

// randomOpening plays plies random moves that do not end the game.
func randomOpening(rng *rand.Rand, plies int) string {
	for {
		pos, p := bitboard.Empty(), bitboard.X
		var sb strings.Builder
		ok := true
		for range plies {
			moves := pos.PossibleMoves()
			m := moves[rng.IntN(len(moves))]
			pos = pos.Drop(p, m)
			if pos.IsGameOver() {
				ok = false
				break
			}
			sb.WriteByte(byte('0' + m))
			p = p.Opponent()
		}
		if ok {
			return sb.String()
		}
	}
}
