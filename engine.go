// Package connect4 plays Connect-Four with a negamax search backed by a
// persisted, symmetry-aware transposition table.
//
// Example usage:
//
//	dataDir, err := connect4.WithDataDir("/path/to/data")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	engine, err := connect4.New(dataDir)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer engine.Close()
//
//	game, err := engine.NewGame(4)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	game, err = game.Move(3)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	game, err = game.BestMove(ctx)
//	fmt.Println(game)
package connect4

import (
	"errors"
	"fmt"
	rand "math/rand/v2"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/discochess/connect4/internal/bitboard"
	"github.com/discochess/connect4/internal/randutil"
	"github.com/discochess/connect4/internal/search"
	"github.com/discochess/connect4/internal/stats"
	"github.com/discochess/connect4/internal/store"
	"github.com/discochess/connect4/internal/store/memstore"
	"github.com/discochess/connect4/internal/ttable"
	"github.com/discochess/connect4/internal/zobrist"
)

// Sentinel errors for well-defined error conditions.
var (
	// ErrInvalidColumn indicates a column outside [0, 6].
	ErrInvalidColumn = bitboard.ErrInvalidColumn

	// ErrColumnFull indicates a move into a full column.
	ErrColumnFull = bitboard.ErrColumnFull

	// ErrUndoUnderflow indicates an undo of more moves than were played.
	ErrUndoUnderflow = bitboard.ErrUndoUnderflow

	// ErrGameOver indicates a move in a finished game.
	ErrGameOver = bitboard.ErrGameOver

	// ErrGameNotOver indicates a winner query before the game ended.
	ErrGameNotOver = errors.New("connect4: game not over")

	// ErrInvalidDifficulty indicates a negative search depth.
	ErrInvalidDifficulty = errors.New("connect4: invalid difficulty")

	// ErrInvalidPlayer indicates a side other than X or O.
	ErrInvalidPlayer = errors.New("connect4: invalid player")

	// ErrClosed indicates the engine has been closed.
	ErrClosed = errors.New("connect4: engine closed")
)

// Player identifies a side. X has the positive scores.
type Player = bitboard.Player

// Sides.
const (
	None = bitboard.None
	X    = bitboard.X
	O    = bitboard.O
)

// Position is an immutable board.
type Position = bitboard.Position

// Engine owns the transposition table and searcher that games share.
// An Engine is safe for concurrent use by multiple goroutines.
type Engine struct {
	table    *ttable.Table
	zobrist  *zobrist.Table
	searcher *search.Searcher
	stats    stats.Collector
	logger   *zap.Logger
	closed   atomic.Bool

	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a new Engine with the given options.
// If no options are provided, an in-memory table is used.
func New(opts ...Option) (*Engine, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt.apply(&cfg)
	}

	table := cfg.table
	if table == nil {
		st := cfg.store
		if st == nil {
			st = memstore.New()
		}
		table = ttable.New(st, cfg.shardStrategy,
			ttable.WithStats(cfg.stats),
			ttable.WithLogger(cfg.logger.Named("ttable")),
			ttable.WithStrict(cfg.strict),
		)
	}

	rng := cfg.rng
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	e := &Engine{
		table:   table,
		zobrist: cfg.zobrist,
		stats:   cfg.stats,
		logger:  cfg.logger,
		rng:     rng,
	}
	e.searcher = search.New(table, cfg.zobrist, cfg.evaluator,
		search.WithStats(cfg.stats),
		search.WithLogger(cfg.logger.Named("search")),
		search.WithRand(randutil.Child(rng)),
	)

	e.logger.Debug("engine initialized",
		zap.String("shardStrategy", table.Strategy().Name()),
		zap.Int("partitions", table.Strategy().Count()),
		zap.String("evaluator", cfg.evaluator.Name()),
	)
	return e, nil
}

// GameOption configures a new game.
type GameOption func(*gameOptions)

type gameOptions struct {
	starter Player
}

// WithStarter sets the side that moves first. X starts by default.
func WithStarter(p Player) GameOption {
	return func(o *gameOptions) {
		o.starter = p
	}
}

// NewGame starts a game on the empty board. difficulty is the search depth
// used by BestMove; zero plays random legal moves.
func (e *Engine) NewGame(difficulty int, opts ...GameOption) (Game, error) {
	o := gameOptions{starter: X}
	for _, opt := range opts {
		opt(&o)
	}
	return e.FromPosition(bitboard.Empty(), o.starter, difficulty)
}

// FromPosition starts a game at pos with player to move. The position has no
// undo history.
func (e *Engine) FromPosition(pos Position, player Player, difficulty int) (Game, error) {
	if e.closed.Load() {
		return Game{}, ErrClosed
	}
	if difficulty < 0 {
		return Game{}, fmt.Errorf("%w: %d", ErrInvalidDifficulty, difficulty)
	}
	if !player.Valid() {
		return Game{}, fmt.Errorf("%w: %d", ErrInvalidPlayer, player)
	}
	return Game{
		engine:     e,
		pos:        pos,
		player:     player,
		hash:       e.zobrist.Hash(pos),
		difficulty: difficulty,
	}, nil
}

// Close releases all resources associated with the engine.
// After Close, the engine should not be used.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	if err := e.table.Store().Close(); err != nil {
		return fmt.Errorf("closing store: %w", err)
	}
	return nil
}

// Table returns the transposition table.
func (e *Engine) Table() *ttable.Table {
	return e.table
}

// Store returns the partition log backend.
func (e *Engine) Store() store.Store {
	return e.table.Store()
}

// Zobrist returns the key table.
func (e *Engine) Zobrist() *zobrist.Table {
	return e.zobrist
}

// Searcher returns the searcher games use.
func (e *Engine) Searcher() *search.Searcher {
	return e.searcher
}

func (e *Engine) randomMove(pos Position) bitboard.Move {
	moves := pos.PossibleMoves()
	e.mu.Lock()
	defer e.mu.Unlock()
	return moves[e.rng.IntN(len(moves))]
}
