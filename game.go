package connect4

import (
	"context"
	"errors"
	"fmt"

	"github.com/discochess/connect4/internal/bitboard"
	"github.com/discochess/connect4/internal/search"
)

// Game is an immutable game state. Every operation returns a new Game and
// leaves the receiver untouched, so a Game can be kept as an undo point or
// shared between goroutines.
type Game struct {
	engine     *Engine
	pos        Position
	player     Player
	hash       uint64
	history    bitboard.History
	difficulty int
}

// Move drops a disc for the side to move into column.
func (g Game) Move(column int) (Game, error) {
	if err := g.check(); err != nil {
		return g, err
	}
	if g.pos.IsGameOver() {
		return g, ErrGameOver
	}

	col := bitboard.Move(column)
	next, err := g.pos.Play(g.player, col)
	if err != nil {
		return g, fmt.Errorf("column %d: %w", column, err)
	}

	return Game{
		engine:     g.engine,
		pos:        next,
		player:     g.player.Opponent(),
		hash:       g.engine.zobrist.Update(g.hash, g.pos.Slot(col), g.player),
		history:    g.history.Push(g.pos),
		difficulty: g.difficulty,
	}, nil
}

// UndoMove takes back the last n moves.
func (g Game) UndoMove(n int) (Game, error) {
	if err := g.check(); err != nil {
		return g, err
	}
	pos, history, err := g.history.Undo(n)
	if err != nil {
		return g, fmt.Errorf("undo %d of %d: %w", n, g.history.Len(), err)
	}

	player := g.player
	if n%2 == 1 {
		player = player.Opponent()
	}
	return Game{
		engine:     g.engine,
		pos:        pos,
		player:     player,
		hash:       g.engine.zobrist.Hash(pos),
		history:    history,
		difficulty: g.difficulty,
	}, nil
}

// BestMove plays the engine's choice for the side to move. At difficulty
// zero the move is uniformly random.
func (g Game) BestMove(ctx context.Context) (Game, error) {
	a, err := g.Analyze(ctx)
	if err != nil {
		return g, err
	}
	return g.Move(a.Move)
}

// Analyze searches the position at the game's difficulty without playing.
// At difficulty zero it returns a random legal move with no score.
func (g Game) Analyze(ctx context.Context) (Analysis, error) {
	if err := g.check(); err != nil {
		return Analysis{}, err
	}
	if g.pos.IsGameOver() {
		return Analysis{}, ErrGameOver
	}

	a := Analysis{Player: g.player, remaining: g.pos.Remaining()}
	if g.difficulty == 0 {
		a.Move = int(g.engine.randomMove(g.pos))
		return a, nil
	}

	res, err := g.engine.searcher.Search(ctx, g.pos, g.player, g.hash, g.difficulty)
	if err != nil {
		if errors.Is(err, search.ErrGameOver) {
			return Analysis{}, ErrGameOver
		}
		if res.Move == bitboard.NoMove {
			return Analysis{}, err
		}
		// Cancelled after some root moves finished; the best of those stands.
		g.engine.logger.Debug("search cancelled, using partial result")
	}
	a.Move = int(res.Move)
	a.Score = res.Score
	a.Depth = res.Depth
	a.Nodes = res.Nodes
	a.Ties = res.Ties
	return a, nil
}

// IsGameOver reports whether a side has four in a row or the board is full.
func (g Game) IsGameOver() bool {
	return g.pos.IsGameOver()
}

// Winner returns the winning side. ok is false for a draw. It returns
// ErrGameNotOver while the game is still running.
func (g Game) Winner() (winner Player, ok bool, err error) {
	if !g.pos.IsGameOver() {
		return None, false, ErrGameNotOver
	}
	winner, ok = g.pos.Winner()
	return winner, ok, nil
}

// Player returns the side to move.
func (g Game) Player() Player {
	return g.player
}

// Position returns the board.
func (g Game) Position() Position {
	return g.pos
}

// Hash returns the Zobrist hash of the board.
func (g Game) Hash() uint64 {
	return g.hash
}

// Plies returns the number of discs on the board.
func (g Game) Plies() int {
	return g.pos.PlayedCount()
}

// Difficulty returns the search depth used by BestMove.
func (g Game) Difficulty() int {
	return g.difficulty
}

// History returns the number of moves that can be undone.
func (g Game) History() int {
	return g.history.Len()
}

// LegalMoves returns the playable columns in ascending order, or none once
// the game is over.
func (g Game) LegalMoves() []int {
	if g.pos.IsGameOver() {
		return []int{}
	}
	moves := g.pos.PossibleMoves()
	out := make([]int, len(moves))
	for i, m := range moves {
		out[i] = int(m)
	}
	return out
}

// String renders the board top row first.
func (g Game) String() string {
	return g.pos.String()
}

func (g Game) check() error {
	if g.engine == nil {
		return errors.New("connect4: game not created by an engine")
	}
	if g.engine.closed.Load() {
		return ErrClosed
	}
	return nil
}
