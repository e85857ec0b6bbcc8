// Package seeder fills the persisted transposition table offline.
//
// A batch plays random games to a target ply count, drops positions the store
// already answers under any symmetry, searches the rest at a fixed depth and
// appends the root records to one partition in a single write.
package seeder

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	rand "math/rand/v2"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/discochess/connect4/internal/bitboard"
	"github.com/discochess/connect4/internal/randutil"
	"github.com/discochess/connect4/internal/record"
	"github.com/discochess/connect4/internal/search"
	"github.com/discochess/connect4/internal/shard"
	"github.com/discochess/connect4/internal/stats"
	"github.com/discochess/connect4/internal/symmetry"
	"github.com/discochess/connect4/internal/ttable"
	"github.com/discochess/connect4/internal/zobrist"
)

// Progress phases.
const (
	PhaseGenerate = "generate"
	PhaseSearch   = "search"
	PhaseAppend   = "append"
	PhaseDone     = "done"
	PhaseError    = "error"
)

const (
	// DefaultDepth is the search depth of seeded records.
	DefaultDepth = 5

	// attemptsPerPosition bounds random games per requested position when
	// no explicit limit is set.
	attemptsPerPosition = 20
)

// ErrInvalidPlies indicates a target outside the storable ply range.
var ErrInvalidPlies = errors.New("seeder: plies out of range")

// Locker is implemented by stores that can be held exclusively for a batch.
type Locker interface {
	Lock(ctx context.Context) (func() error, error)
}

// Seeder generates and persists searched positions.
type Seeder struct {
	searcher    *search.Searcher
	table       *ttable.Table
	zobrist     *zobrist.Table
	depth       int
	workers     int
	maxAttempts int
	progress    ProgressFunc
	stats       stats.Collector
	logger      *zap.Logger
	rng         *rand.Rand
	manifestDir string
	codecName   string
}

// Option configures the Seeder.
type Option func(*Seeder)

// WithDepth sets the search depth of seeded records.
func WithDepth(d int) Option {
	return func(s *Seeder) { s.depth = d }
}

// WithWorkers sets the number of positions searched in parallel.
func WithWorkers(n int) Option {
	return func(s *Seeder) { s.workers = n }
}

// WithMaxAttempts bounds the random games played per batch.
func WithMaxAttempts(n int) Option {
	return func(s *Seeder) { s.maxAttempts = n }
}

// WithProgress sets the progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(s *Seeder) { s.progress = fn }
}

// WithStats sets the stats collector.
func WithStats(c stats.Collector) Option {
	return func(s *Seeder) { s.stats = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Seeder) { s.logger = l }
}

// WithSeed makes position generation reproducible.
func WithSeed(seed int64) Option {
	return func(s *Seeder) { s.rng = randutil.New(seed) }
}

// WithManifest keeps dir/manifest.json up to date, recording codecName as
// the store's compression.
func WithManifest(dir, codecName string) Option {
	return func(s *Seeder) {
		s.manifestDir = dir
		s.codecName = codecName
	}
}

// New creates a seeder that searches with searcher and writes to its table.
func New(searcher *search.Searcher, z *zobrist.Table, opts ...Option) *Seeder {
	s := &Seeder{
		searcher: searcher,
		table:    searcher.Table(),
		zobrist:  z,
		depth:    DefaultDepth,
		workers:  runtime.NumCPU(),
		stats:    stats.NewNoop(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return s
}

// Summary reports the outcome of a batch.
type Summary struct {
	Plies     int
	Partition int
	Generated int
	Skipped   int
	Retries   int
	Written   int
	Elapsed   time.Duration
}

type position struct {
	pos    bitboard.Position
	player bitboard.Player
	hash   uint64
}

// Seed adds up to amount new records for positions with plies discs. Fewer
// are written when random play stops finding unseen positions.
// Storage errors abort the batch.
func (s *Seeder) Seed(ctx context.Context, amount, plies int) (Summary, error) {
	startTime := time.Now()
	if plies < 0 || plies > shard.MaxStoredPlies {
		return Summary{}, fmt.Errorf("%w: %d", ErrInvalidPlies, plies)
	}

	if l, ok := s.table.Store().(Locker); ok {
		unlock, err := l.Lock(ctx)
		if err != nil {
			return Summary{}, fmt.Errorf("locking store: %w", err)
		}
		defer func() {
			if err := unlock(); err != nil {
				s.logger.Warn("releasing store lock", zap.Error(err))
			}
		}()
	}

	var manifest *Manifest
	if s.manifestDir != "" {
		m, err := s.loadManifest()
		if err != nil {
			return Summary{}, err
		}
		manifest = m
	}

	sum := Summary{Plies: plies, Partition: s.table.Strategy().Bucket(plies)}
	positions, err := s.generate(ctx, amount, plies, &sum, startTime)
	if err != nil {
		return s.fail(sum, startTime, err)
	}

	recs, err := s.searchAll(ctx, positions, &sum, startTime)
	if err != nil {
		return s.fail(sum, startTime, err)
	}

	s.reportProgress(Progress{Phase: PhaseAppend, Plies: plies, Partition: sum.Partition, StartTime: startTime})
	n, err := s.table.Append(ctx, plies, recs)
	if err != nil {
		return s.fail(sum, startTime, fmt.Errorf("appending records: %w", err))
	}
	sum.Written = n
	s.stats.IncCounter(stats.MetricSeededRecords, int64(n))

	if manifest != nil && n > 0 {
		manifest.Add(sum.Partition, n)
		manifest.UpdatedAt = time.Now().UTC()
		if err := WriteManifest(s.manifestDir, manifest); err != nil {
			return s.fail(sum, startTime, err)
		}
	}

	sum.Elapsed = time.Since(startTime)
	s.reportProgress(Progress{
		Phase:     PhaseDone,
		Plies:     plies,
		Partition: sum.Partition,
		Target:    amount,
		Generated: sum.Generated,
		Skipped:   sum.Skipped,
		Retries:   sum.Retries,
		Searched:  len(recs),
		Written:   n,
		StartTime: startTime,
	})
	s.logger.Info("seeding finished",
		zap.Int("plies", plies),
		zap.Int("partition", sum.Partition),
		zap.Int("generated", sum.Generated),
		zap.Int("skipped", sum.Skipped),
		zap.Int("retries", sum.Retries),
		zap.Int("written", n),
		zap.Duration("elapsed", sum.Elapsed),
	)
	return sum, nil
}

// generate plays random games until amount unseen positions are collected or
// the attempt budget runs out. Games that end before plies are replayed.
func (s *Seeder) generate(ctx context.Context, amount, plies int, sum *Summary, startTime time.Time) ([]position, error) {
	maxAttempts := s.maxAttempts
	if maxAttempts <= 0 {
		maxAttempts = amount*attemptsPerPosition + attemptsPerPosition
	}

	out := make([]position, 0, amount)
	seen := make(map[uint64]bool, amount*4)
	for attempt := 0; len(out) < amount && attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pos, player, ok := s.playout(plies)
		if !ok {
			sum.Retries++
			s.stats.IncCounter(stats.MetricSeedRetries, 1)
			continue
		}

		hash := s.zobrist.Hash(pos)
		if seen[hash] {
			continue
		}
		cands := symmetry.Candidates(s.zobrist, pos, player, hash)
		if s.table.Contains(ctx, plies, cands[:]) {
			sum.Skipped++
			s.stats.IncCounter(stats.MetricSeedSkipped, 1)
			continue
		}
		// Colour-inverted images of positions reached with X first have the
		// other side to move at odd plies and are unreachable at even ones,
		// so only the reflection can repeat within a batch.
		seen[cands[symmetry.Identity].Key] = true
		seen[cands[symmetry.Mirror].Key] = true

		out = append(out, position{pos: pos, player: player, hash: hash})
		sum.Generated++
		if sum.Generated%100 == 0 {
			s.reportProgress(Progress{
				Phase:     PhaseGenerate,
				Plies:     plies,
				Partition: sum.Partition,
				Target:    amount,
				Generated: sum.Generated,
				Skipped:   sum.Skipped,
				Retries:   sum.Retries,
				StartTime: startTime,
			})
		}
	}
	return out, nil
}

// playout drops random discs from the empty board, X first. It reports false
// if the game ends before plies discs are on the board.
func (s *Seeder) playout(plies int) (bitboard.Position, bitboard.Player, bool) {
	pos, p := bitboard.Empty(), bitboard.X
	var buf [bitboard.Width]bitboard.Move
	for range plies {
		moves := pos.AppendMoves(buf[:0])
		pos = pos.Drop(p, moves[s.rng.IntN(len(moves))])
		if pos.HasWinner() {
			return pos, p, false
		}
		p = p.Opponent()
	}
	return pos, p, true
}

// searchAll searches positions on a bounded pool of workers.
func (s *Seeder) searchAll(ctx context.Context, positions []position, sum *Summary, startTime time.Time) ([]record.Record, error) {
	recs := make([]record.Record, len(positions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.workers, 1))
	for i, p := range positions {
		g.Go(func() error {
			res, err := s.searcher.Search(gctx, p.pos, p.player, p.hash, s.depth)
			if err != nil {
				return fmt.Errorf("searching position %d: %w", i, err)
			}
			recs[i] = record.Record{
				Key:    p.hash,
				Depth:  s.depth,
				Bound:  record.Exact,
				Move:   res.Move,
				Score:  res.Score,
				Player: p.player,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.reportProgress(Progress{
		Phase:     PhaseSearch,
		Plies:     sum.Plies,
		Partition: sum.Partition,
		Generated: sum.Generated,
		Searched:  len(recs),
		StartTime: startTime,
	})
	return recs, nil
}

func (s *Seeder) loadManifest() (*Manifest, error) {
	strategy := s.table.Strategy()
	m, err := ReadManifest(s.manifestDir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return NewManifest(strategy, s.codecName, s.zobrist), nil
	case err != nil:
		return nil, err
	}
	if err := m.Check(strategy, s.codecName, s.zobrist); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Seeder) fail(sum Summary, startTime time.Time, err error) (Summary, error) {
	sum.Elapsed = time.Since(startTime)
	s.reportProgress(Progress{Phase: PhaseError, Plies: sum.Plies, Partition: sum.Partition, StartTime: startTime, Error: err})
	return sum, err
}

func (s *Seeder) reportProgress(p Progress) {
	if s.progress != nil {
		s.progress(p)
	}
}
