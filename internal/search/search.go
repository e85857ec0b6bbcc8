// Package search implements depth-limited negamax with alpha-beta pruning
// over the transposition table.
package search

import (
	"context"
	"errors"
	"math"
	rand "math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/discochess/connect4/internal/bitboard"
	"github.com/discochess/connect4/internal/eval"
	"github.com/discochess/connect4/internal/randutil"
	"github.com/discochess/connect4/internal/record"
	"github.com/discochess/connect4/internal/stats"
	"github.com/discochess/connect4/internal/symmetry"
	"github.com/discochess/connect4/internal/ttable"
	"github.com/discochess/connect4/internal/zobrist"
)

var (
	// ErrGameOver indicates a search of a finished position.
	ErrGameOver = errors.New("search: game over")

	// ErrInvalidDepth indicates a depth below one.
	ErrInvalidDepth = errors.New("search: depth must be at least 1")
)

var (
	negInf = float32(math.Inf(-1))
	posInf = float32(math.Inf(1))
)

// Result is the outcome of a root search.
type Result struct {
	// Move is the chosen column, or NoMove if cancellation came before any
	// root child finished.
	Move bitboard.Move

	// Score is absolute: positive favours X.
	Score float32

	// Player is the side that searched.
	Player bitboard.Player

	Depth   int
	Nodes   int64
	Cutoffs int64

	// Ties is the number of root moves that shared the best score.
	Ties int
}

// RelativeScore returns the score from the point of view of Player.
func (r Result) RelativeScore() float32 {
	return r.Score * float32(r.Player)
}

// Searcher runs searches against a shared table.
// A Searcher is safe for concurrent use by multiple goroutines.
type Searcher struct {
	table     *ttable.Table
	zobrist   *zobrist.Table
	evaluator eval.Evaluator
	stats     stats.Collector
	logger    *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithStats sets the stats collector.
func WithStats(c stats.Collector) Option {
	return func(s *Searcher) {
		s.stats = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Searcher) {
		s.logger = l
	}
}

// WithRand sets the source that move shuffling and tie-breaking derive from.
func WithRand(r *rand.Rand) Option {
	return func(s *Searcher) {
		s.rng = r
	}
}

// WithSeed makes searches reproducible.
func WithSeed(seed int64) Option {
	return func(s *Searcher) {
		s.rng = randutil.New(seed)
	}
}

// New creates a searcher.
func New(table *ttable.Table, z *zobrist.Table, ev eval.Evaluator, opts ...Option) *Searcher {
	s := &Searcher{
		table:     table,
		zobrist:   z,
		evaluator: ev,
		stats:     stats.NewNoop(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return s
}

// Table returns the transposition table.
func (s *Searcher) Table() *ttable.Table {
	return s.table
}

// Evaluator returns the horizon evaluator.
func (s *Searcher) Evaluator() eval.Evaluator {
	return s.evaluator
}

// run holds the state of one search.
type run struct {
	ctx     context.Context
	rng     *rand.Rand
	nodes   int64
	cutoffs int64
}

// Search finds the best move for player in pos, looking depth plies ahead.
// hash must be the Zobrist hash of pos.
//
// The context is checked between root moves. On cancellation Search returns
// the best move among the root moves already searched together with the
// context error.
func (s *Searcher) Search(ctx context.Context, pos bitboard.Position, player bitboard.Player, hash uint64, depth int) (Result, error) {
	if depth < 1 {
		return Result{}, ErrInvalidDepth
	}
	if pos.IsGameOver() {
		return Result{}, ErrGameOver
	}

	start := time.Now()
	r := &run{ctx: ctx, rng: s.child()}
	res, err := s.root(r, pos, player, hash, depth)
	elapsed := time.Since(start)

	s.stats.IncCounter(stats.MetricSearches, 1)
	s.stats.IncCounter(stats.MetricNodes, r.nodes)
	s.stats.IncCounter(stats.MetricCutoffs, r.cutoffs)
	s.stats.ObserveHistogram(stats.MetricSearchSeconds, elapsed.Seconds())
	s.logger.Debug("search finished",
		zap.Stringer("player", player),
		zap.Int("depth", depth),
		zap.Int("move", int(res.Move)),
		zap.Float32("score", res.Score),
		zap.Int64("nodes", r.nodes),
		zap.Int64("cutoffs", r.cutoffs),
		zap.Int("ties", res.Ties),
		zap.Duration("elapsed", elapsed),
	)
	return res, err
}

func (s *Searcher) child() *rand.Rand {
	s.mu.Lock()
	defer s.mu.Unlock()
	return randutil.Child(s.rng)
}

// root searches every move with a window just below the best score so far,
// so moves equal to the best come back exact and can be told apart from
// worse ones. One of the best moves is picked at random.
func (s *Searcher) root(r *run, pos bitboard.Position, player bitboard.Player, hash uint64, depth int) (Result, error) {
	r.nodes++
	res := Result{Move: bitboard.NoMove, Player: player, Depth: depth}

	moves := pos.AppendMoves(make([]bitboard.Move, 0, bitboard.Width))
	randutil.Shuffle(r.rng, moves)

	for _, m := range moves {
		if pos.WinsWith(player, m) {
			res.Move = m
			res.Score = absolute(eval.Win(pos.Remaining()-1), player)
			res.Ties = 1
			res.Nodes, res.Cutoffs = r.nodes, r.cutoffs
			return res, nil
		}
	}

	best := negInf
	ties := make([]bitboard.Move, 0, len(moves))
	var err error
	for _, m := range moves {
		if err = r.ctx.Err(); err != nil {
			break
		}
		alpha := math.Nextafter32(best, negInf)
		score := -s.negamax(r, pos.Drop(player, m), player.Opponent(),
			s.zobrist.Update(hash, pos.Slot(m), player), depth-1, negInf, -alpha)
		switch {
		case score > best:
			best = score
			ties = append(ties[:0], m)
		case score == best:
			ties = append(ties, m)
		}
	}

	res.Nodes, res.Cutoffs = r.nodes, r.cutoffs
	if len(ties) == 0 {
		return res, err
	}
	res.Move = ties[r.rng.IntN(len(ties))]
	res.Score = absolute(best, player)
	res.Ties = len(ties)
	if err != nil {
		return res, err
	}

	s.table.Insert(r.ctx, pos.PlayedCount(), record.Record{
		Key:    hash,
		Depth:  depth,
		Bound:  record.Exact,
		Move:   res.Move,
		Score:  res.Score,
		Player: player,
	})
	return res, nil
}

// negamax returns the fail-soft value of pos for p, the side to move.
func (s *Searcher) negamax(r *run, pos bitboard.Position, p bitboard.Player, hash uint64, depth int, alpha, beta float32) float32 {
	r.nodes++

	if score, over := eval.Terminal(pos); over {
		return score * float32(p)
	}
	if depth == 0 {
		return s.evaluator.Evaluate(pos, p) * float32(p)
	}

	plies := pos.PlayedCount()
	cands := symmetry.Candidates(s.zobrist, pos, p, hash)
	if rec, ok := s.table.Lookup(r.ctx, plies, cands[:], depth); ok {
		score := rec.RelativeScore()
		switch rec.Bound {
		case record.Exact:
			r.cutoffs++
			return score
		case record.LowerBound:
			alpha = max(alpha, score)
		case record.UpperBound:
			beta = min(beta, score)
		}
		if alpha >= beta {
			r.cutoffs++
			return score
		}
	}

	var buf [bitboard.Width]bitboard.Move
	moves := pos.AppendMoves(buf[:0])
	randutil.Shuffle(r.rng, moves)

	for _, m := range moves {
		if pos.WinsWith(p, m) {
			return eval.Win(pos.Remaining() - 1)
		}
	}

	best, bestMove := negInf, bitboard.NoMove
	for _, m := range moves {
		score := -s.negamax(r, pos.Drop(p, m), p.Opponent(),
			s.zobrist.Update(hash, pos.Slot(m), p), depth-1, -beta, -max(alpha, best))
		if score > best {
			best, bestMove = score, m
			if best >= beta {
				break
			}
		}
	}
	if bestMove == bitboard.NoMove {
		return best
	}

	bound := record.Exact
	switch {
	case best <= alpha:
		bound = record.UpperBound
	case best >= beta:
		bound = record.LowerBound
	}
	s.table.Insert(r.ctx, plies, record.Record{
		Key:    hash,
		Depth:  depth,
		Bound:  bound,
		Move:   bestMove,
		Score:  absolute(best, p),
		Player: p,
	})
	return best
}

// absolute converts a score relative to p into an absolute one. Zero stays
// positive so that records never carry "-0".
func absolute(score float32, p bitboard.Player) float32 {
	if score == 0 {
		return 0
	}
	return score * float32(p)
}
