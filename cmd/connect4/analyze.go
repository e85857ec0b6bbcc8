package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/discochess/connect4"
	"github.com/discochess/connect4/benchmark/gamefile"
	"github.com/discochess/connect4/internal/bitboard"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [MOVES]",
	Short: "Analyze a position given as a move sequence",
	Long: `Search the position reached by a sequence of column digits, X moving
first, and print the best move and its score.

With --games, every position of every game in the file is analyzed
instead. The file holds one move sequence per line and may be
zstd-compressed (.zst).

Examples:
  # Empty board
  connect4 analyze ""

  # After four central moves
  connect4 analyze 3344 --depth 10

  # Score every position of recorded games
  connect4 analyze --games games.txt.zst --depth 6`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

var (
	analyzeDepth   int
	analyzeJSON    bool
	analyzeTiming  bool
	analyzeGames   string
	analyzeMaxGame int
)

func init() {
	analyzeCmd.Flags().IntVar(&analyzeDepth, "depth", 8, "search depth")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "output result as JSON")
	analyzeCmd.Flags().BoolVar(&analyzeTiming, "timing", false, "show search timing")
	analyzeCmd.Flags().StringVar(&analyzeGames, "games", "", "file of move sequences to analyze")
	analyzeCmd.Flags().IntVar(&analyzeMaxGame, "max-games", 10, "maximum number of games to analyze from --games")
	rootCmd.AddCommand(analyzeCmd)
}

// analysisOutput is the JSON form of one analyzed position.
type analysisOutput struct {
	Moves     string            `json:"moves"`
	Move      int               `json:"move"`
	Score     string            `json:"score"`
	Depth     int               `json:"depth"`
	Nodes     int64             `json:"nodes"`
	Ties      int               `json:"ties"`
	ElapsedMS int64             `json:"elapsed_ms,omitempty"`
	Position  connect4.Snapshot `json:"position"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if analyzeGames == "" && len(args) == 0 {
		return fmt.Errorf("need a move sequence or --games")
	}

	engine, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer engine.Close()

	out := cmd.OutOrStdout()
	if analyzeGames != "" {
		return analyzeFile(ctx, engine, out, analyzeGames, analyzeMaxGame)
	}

	g, err := gameFromMoves(engine, args[0])
	if err != nil {
		return err
	}
	if g.IsGameOver() {
		printBoard(out, g)
		return connect4.ErrGameOver
	}

	start := time.Now()
	a, err := g.Analyze(ctx)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	elapsed := time.Since(start)

	if analyzeJSON {
		res := analysisOutput{
			Moves:    args[0],
			Move:     a.Move,
			Score:    a.ScoreString(),
			Depth:    a.Depth,
			Nodes:    a.Nodes,
			Ties:     a.Ties,
			Position: g.Snapshot(),
		}
		if analyzeTiming {
			res.ElapsedMS = elapsed.Milliseconds()
		}
		return json.NewEncoder(out).Encode(res)
	}

	printBoard(out, g)
	fmt.Fprintf(out, "To move: %s\n", a.Player)
	fmt.Fprintf(out, "Best:    %d\n", a.Move)
	fmt.Fprintf(out, "Score:   %s\n", a.ScoreString())
	fmt.Fprintf(out, "Depth:   %d\n", a.Depth)
	fmt.Fprintf(out, "Nodes:   %d\n", a.Nodes)
	if a.Ties > 1 {
		fmt.Fprintf(out, "Ties:    %d\n", a.Ties)
	}
	if analyzeTiming {
		fmt.Fprintf(out, "Time:    %s\n", elapsed)
	}
	return nil
}

func gameFromMoves(engine *connect4.Engine, moves string) (connect4.Game, error) {
	pos, player, err := bitboard.ParseMoves(bitboard.X, moves)
	if err != nil {
		return connect4.Game{}, fmt.Errorf("parsing moves %q: %w", moves, err)
	}
	return engine.FromPosition(pos, player, analyzeDepth)
}

func analyzeFile(ctx context.Context, engine *connect4.Engine, out io.Writer, path string, maxGames int) error {
	games, err := gamefile.ReadFile(path)
	if err != nil {
		return err
	}
	if len(games) > maxGames {
		games = games[:maxGames]
	}

	w := bufio.NewWriter(out)
	defer w.Flush()

	var positions int
	var total time.Duration
	for i, moves := range games {
		fmt.Fprintf(w, "\n=== Game %d: %s ===\n", i+1, moves)
		for ply := 0; ply < len(moves); ply++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			g, err := gameFromMoves(engine, moves[:ply])
			if err != nil {
				return fmt.Errorf("game %d: %w", i+1, err)
			}
			if g.IsGameOver() {
				break
			}

			start := time.Now()
			a, err := g.Analyze(ctx)
			if err != nil {
				return fmt.Errorf("game %d ply %d: %w", i+1, ply, err)
			}
			elapsed := time.Since(start)
			total += elapsed
			positions++

			played := int(moves[ply] - '0')
			mark := ""
			if played != a.Move {
				mark = " *"
			}
			fmt.Fprintf(w, "  Ply %2d: played %d, best %d (%s)%s\n", ply+1, played, a.Move, a.ScoreString(), mark)
		}
	}

	fmt.Fprintf(w, "\n=== Summary ===\n")
	fmt.Fprintf(w, "Games analyzed: %d\n", len(games))
	fmt.Fprintf(w, "Positions:      %d\n", positions)
	if positions > 0 {
		fmt.Fprintf(w, "Avg search:     %v\n", total/time.Duration(positions))
	}
	return nil
}
