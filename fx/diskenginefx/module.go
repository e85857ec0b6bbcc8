// Package diskenginefx provides an fx module for a disk-backed connect4 engine.
package diskenginefx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/discochess/connect4"
	"github.com/discochess/connect4/internal/eval"
	"github.com/discochess/connect4/internal/stats"
	"github.com/discochess/connect4/internal/stats/logger"
)

// Config holds configuration for the disk-backed engine.
type Config struct {
	// DataDir is the directory containing the partition files, the
	// manifest and the zobrist table. It is created on first use.
	DataDir string

	// Strict fails partition loads on malformed records.
	Strict bool

	// CacheSize is the number of decoded partitions kept for all engines
	// built from the shared *connect4.DataDir. Zero means 16.
	CacheSize int

	// Rollouts switches the horizon evaluator from the static heuristic to
	// random playouts with the given number of simulations per position.
	Rollouts int
}

const defaultCacheSize = 16

// Module provides a disk-backed engine and the *connect4.DataDir it reads
// through. Further engines over the same directory should be built with
// DataDir.Option so that they share its partition cache.
// Requires a *zap.Logger and a Config to be provided.
var Module = fx.Module("diskengine",
	fx.Provide(
		newStatsCollector,
		newDataDir,
		newEngine,
	),
)

func newStatsCollector(log *zap.Logger) stats.Collector {
	return logger.New(log.Named("connect4.stats"))
}

func newDataDir(cfg Config, collector stats.Collector, lc fx.Lifecycle) (*connect4.DataDir, error) {
	size := cfg.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	d, err := connect4.OpenDataDir(cfg.DataDir, size, collector)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return d.Close()
		},
	})
	return d, nil
}

// Params holds dependencies for creating the engine.
type Params struct {
	fx.In

	Config    Config
	DataDir   *connect4.DataDir
	Logger    *zap.Logger
	Collector stats.Collector
	Lifecycle fx.Lifecycle
}

// Result holds the provided engine.
type Result struct {
	fx.Out

	Engine *connect4.Engine
}

func newEngine(p Params) (Result, error) {
	var ev eval.Evaluator = eval.NewHeuristic()
	if p.Config.Rollouts > 0 {
		ev = eval.NewRollout(
			eval.WithSimulations(p.Config.Rollouts),
			eval.WithStats(p.Collector),
		)
	}

	engine, err := connect4.New(
		p.DataDir.Option(),
		connect4.WithEvaluator(ev),
		connect4.WithStrict(p.Config.Strict),
		connect4.WithStats(p.Collector),
		connect4.WithLogger(p.Logger.Named("connect4")),
	)
	if err != nil {
		return Result{}, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return engine.Close()
		},
	})

	return Result{Engine: engine}, nil
}
