package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"go.uber.org/zap"

	"github.com/discochess/connect4"
	"github.com/discochess/connect4/internal/config"
	"github.com/discochess/connect4/internal/seeder"
	"github.com/discochess/connect4/internal/zobrist"
)

// openEngine builds an engine from the loaded configuration. For the disk
// backend the store's manifest must agree with the configured layout.
func openEngine(ctx context.Context) (*connect4.Engine, error) {
	strategy, err := cfg.Strategy()
	if err != nil {
		return nil, err
	}

	z, err := zobrist.LoadOrGenerate(cfg.ZobristPath(), log.Named("zobrist"))
	if err != nil {
		return nil, err
	}

	if cfg.Backend == config.BackendDisk {
		m, err := seeder.ReadManifest(cfg.DataDir)
		switch {
		case err == nil:
			if err := m.Check(strategy, cfg.Codec, z); err != nil {
				return nil, fmt.Errorf("%s: %w", cfg.DataDir, err)
			}
		case !errors.Is(err, fs.ErrNotExist):
			return nil, err
		}
	}

	st, err := cfg.OpenStore(ctx, strategy)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Backend, err)
	}

	ev, err := cfg.NewEvaluator(collector)
	if err != nil {
		st.Close()
		return nil, err
	}

	engine, err := connect4.New(
		connect4.WithStore(st),
		connect4.WithShardStrategy(strategy),
		connect4.WithZobrist(z),
		connect4.WithEvaluator(ev),
		connect4.WithStrict(cfg.Strict),
		connect4.WithStats(collector),
		connect4.WithLogger(log.Named("connect4")),
	)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("creating engine: %w", err)
	}

	log.Debug("engine opened",
		zap.String("backend", cfg.Backend),
		zap.String("dataDir", cfg.DataDir),
		zap.String("evaluator", ev.Name()),
	)
	return engine, nil
}
