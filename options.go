package connect4

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	rand "math/rand/v2"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/discochess/connect4/internal/codec"
	"github.com/discochess/connect4/internal/eval"
	"github.com/discochess/connect4/internal/seeder"
	"github.com/discochess/connect4/internal/shard"
	"github.com/discochess/connect4/internal/shard/plyshard"
	"github.com/discochess/connect4/internal/stats"
	"github.com/discochess/connect4/internal/store"
	"github.com/discochess/connect4/internal/store/diskstore"
	"github.com/discochess/connect4/internal/ttable"
	"github.com/discochess/connect4/internal/zobrist"
)

// Option configures an Engine.
type Option interface {
	apply(*options)
}

// options holds the engine configuration.
type options struct {
	table         *ttable.Table
	store         store.Store
	shardStrategy shard.Strategy
	zobrist       *zobrist.Table
	evaluator     eval.Evaluator
	stats         stats.Collector
	logger        *zap.Logger
	rng           *rand.Rand
	strict        bool
}

// defaultOptions returns the default configuration.
func defaultOptions() options {
	strategy, _ := plyshard.New(plyshard.DefaultWindow)
	return options{
		shardStrategy: strategy,
		zobrist:       zobrist.Default(),
		evaluator:     eval.NewHeuristic(),
		stats:         stats.NewNoop(),
		logger:        zap.NewNop(),
	}
}

// optionFunc wraps a function to implement Option.
type optionFunc func(*options)

// Compile-time check that optionFunc implements Option.
var _ Option = optionFunc(nil)

func (f optionFunc) apply(o *options) { f(o) }

// WithStore sets the partition log backend.
// If not set, records live in memory for the life of the engine.
func WithStore(s store.Store) Option {
	return optionFunc(func(o *options) {
		o.store = s
	})
}

// WithShardStrategy sets the partitioning strategy.
// If not set, positions are bucketed by ply in windows of three.
func WithShardStrategy(s shard.Strategy) Option {
	return optionFunc(func(o *options) {
		o.shardStrategy = s
	})
}

// WithTable uses an existing transposition table. Its store and strategy
// take precedence over WithStore and WithShardStrategy.
func WithTable(t *ttable.Table) Option {
	return optionFunc(func(o *options) {
		o.table = t
	})
}

// WithZobrist sets the Zobrist key table. It must be the table the store was
// written with.
// If not set, a fixed built-in table is used.
func WithZobrist(t *zobrist.Table) Option {
	return optionFunc(func(o *options) {
		o.zobrist = t
	})
}

// WithEvaluator sets the evaluator used at the search horizon.
// If not set, the static pattern heuristic is used.
func WithEvaluator(ev eval.Evaluator) Option {
	return optionFunc(func(o *options) {
		o.evaluator = ev
	})
}

// WithStats sets the stats collector.
// If not set, a no-op collector is used.
func WithStats(c stats.Collector) Option {
	return optionFunc(func(o *options) {
		o.stats = c
	})
}

// WithLogger sets the logger.
// If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(o *options) {
		o.logger = l
	})
}

// WithRand sets the source for random moves, move ordering and tie-breaks.
// If not set, a randomly seeded source is used.
func WithRand(r *rand.Rand) Option {
	return optionFunc(func(o *options) {
		o.rng = r
	})
}

// WithStrict makes malformed stored records fail partition loads.
func WithStrict(strict bool) Option {
	return optionFunc(func(o *options) {
		o.strict = strict
	})
}

// WithDataDir configures the engine from a data directory.
// It reads manifest.json, if present, to pick the partitioning and codec,
// loads zobrist_hashes.txt (generating it for a new directory) and creates a
// disk-based store.
func WithDataDir(dir string) (Option, error) {
	layout, err := loadDataDir(dir)
	if err != nil {
		return nil, err
	}
	st, err := layout.open()
	if err != nil {
		return nil, err
	}
	return layout.option(st), nil
}

// dataDirLayout is the partitioning and key table a data directory was
// written with.
type dataDirLayout struct {
	dir      string
	strategy shard.Strategy
	codec    codec.Codec
	zobrist  *zobrist.Table
}

func loadDataDir(dir string) (dataDirLayout, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return dataDirLayout{}, fmt.Errorf("creating data directory: %w", err)
	}

	var strategy shard.Strategy
	codecName := codec.None{}.Name()
	manifest, err := seeder.ReadManifest(dir)
	switch {
	case err == nil:
		codecName = manifest.Codec
		if strategy, err = manifest.NewStrategy(); err != nil {
			return dataDirLayout{}, fmt.Errorf("manifest strategy: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
		strategy, _ = plyshard.New(plyshard.DefaultWindow)
	default:
		return dataDirLayout{}, err
	}
	cd, err := codec.ByName(codecName)
	if err != nil {
		return dataDirLayout{}, fmt.Errorf("manifest codec: %w", err)
	}

	z, err := zobrist.LoadOrGenerate(filepath.Join(dir, zobrist.FileName), nil)
	if err != nil {
		return dataDirLayout{}, err
	}
	if manifest != nil {
		if err := manifest.Check(strategy, codecName, z); err != nil {
			return dataDirLayout{}, err
		}
	}
	return dataDirLayout{dir: dir, strategy: strategy, codec: cd, zobrist: z}, nil
}

func (l dataDirLayout) open() (*diskstore.Store, error) {
	st, err := diskstore.New(l.dir, l.strategy, l.codec)
	if err != nil {
		return nil, fmt.Errorf("creating store: %w", err)
	}
	return st, nil
}

func (l dataDirLayout) option(st store.Store) Option {
	return optionFunc(func(o *options) {
		o.store = st
		o.shardStrategy = l.strategy
		o.zobrist = l.zobrist
	})
}
