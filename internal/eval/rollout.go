package eval

import (
	rand "math/rand/v2"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/discochess/connect4/internal/bitboard"
	"github.com/discochess/connect4/internal/randutil"
	"github.com/discochess/connect4/internal/stats"
)

// DefaultSimulations is the number of playouts per evaluation.
const DefaultSimulations = 200

// rolloutScale bounds the magnitude of a rollout score.
const rolloutScale = 1000

// maxWeight is the largest weight one playout can contribute.
const maxWeight = bitboard.Cells + 1

// Rollout estimates a position by random playouts. Each playout that ends in
// a win adds winner × (empty cells + 1), so quick wins weigh more than late
// ones; draws add nothing. The average is scaled to ±1000.
type Rollout struct {
	simulations int
	workers     int
	stats       stats.Collector

	mu  sync.Mutex
	rng *rand.Rand
}

// Compile-time check that Rollout implements Evaluator.
var _ Evaluator = (*Rollout)(nil)

// RolloutOption configures a Rollout.
type RolloutOption func(*Rollout)

// WithSimulations sets the number of playouts per evaluation.
func WithSimulations(n int) RolloutOption {
	return func(r *Rollout) {
		if n > 0 {
			r.simulations = n
		}
	}
}

// WithWorkers bounds the number of concurrent playouts.
func WithWorkers(n int) RolloutOption {
	return func(r *Rollout) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithSeed makes the playouts reproducible.
func WithSeed(seed int64) RolloutOption {
	return func(r *Rollout) {
		r.rng = randutil.New(seed)
	}
}

// WithStats sets the stats collector.
func WithStats(c stats.Collector) RolloutOption {
	return func(r *Rollout) {
		if c != nil {
			r.stats = c
		}
	}
}

// NewRollout creates a rollout evaluator.
func NewRollout(opts ...RolloutOption) *Rollout {
	r := &Rollout{
		simulations: DefaultSimulations,
		workers:     runtime.GOMAXPROCS(0),
		stats:       stats.NewNoop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.rng == nil {
		r.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return r
}

func (r *Rollout) Name() string { return "rollout" }

// Evaluate runs the playouts concurrently and averages their weights.
func (r *Rollout) Evaluate(pos bitboard.Position, toMove bitboard.Player) float32 {
	seeds := r.seeds()

	var total atomic.Int64
	var g errgroup.Group
	g.SetLimit(r.workers)
	for _, seed := range seeds {
		g.Go(func() error {
			total.Add(playout(pos, toMove, randutil.New(seed)))
			return nil
		})
	}
	// Playouts never fail.
	_ = g.Wait()

	r.stats.IncCounter(stats.MetricRollouts, int64(len(seeds)))
	avg := float32(total.Load()) / float32(len(seeds))
	return avg / maxWeight * rolloutScale
}

func (r *Rollout) seeds() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	seeds := make([]int64, r.simulations)
	for i := range seeds {
		seeds[i] = r.rng.Int64()
	}
	return seeds
}

// playout plays uniformly random moves to the end and returns the signed
// weight of the result.
func playout(pos bitboard.Position, p bitboard.Player, rng *rand.Rand) int64 {
	var buf [bitboard.Width]bitboard.Move
	for {
		moves := pos.AppendMoves(buf[:0])
		if len(moves) == 0 {
			return 0
		}
		m := moves[rng.IntN(len(moves))]
		if pos.WinsWith(p, m) {
			return int64(p) * int64(pos.Remaining())
		}
		pos = pos.Drop(p, m)
		p = p.Opponent()
	}
}
