// Package memoryenginefx provides an fx module for an engine whose
// transposition table lives only in memory.
// Useful for testing.
package memoryenginefx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/discochess/connect4"
	"github.com/discochess/connect4/internal/stats"
	"github.com/discochess/connect4/internal/stats/logger"
	"github.com/discochess/connect4/internal/store/memstore"
)

// Module provides an in-memory engine for testing.
// Requires a *zap.Logger to be provided.
var Module = fx.Module("memoryengine",
	fx.Provide(
		newStatsCollector,
		newMemStore,
		newEngine,
	),
)

func newStatsCollector(log *zap.Logger) stats.Collector {
	return logger.New(log.Named("connect4.stats"))
}

// newMemStore exposes the store so tests can seed partitions directly.
func newMemStore() *memstore.Store {
	return memstore.New()
}

// Params holds dependencies for creating the engine.
type Params struct {
	fx.In

	Logger    *zap.Logger
	Collector stats.Collector
	Store     *memstore.Store
	Lifecycle fx.Lifecycle
}

func newEngine(p Params) (*connect4.Engine, error) {
	engine, err := connect4.New(
		connect4.WithStore(p.Store),
		connect4.WithStats(p.Collector),
		connect4.WithLogger(p.Logger.Named("connect4")),
	)
	if err != nil {
		return nil, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return engine.Close()
		},
	})

	return engine, nil
}
