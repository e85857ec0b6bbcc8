package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/discochess/connect4"
	"github.com/discochess/connect4/internal/bitboard"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a game against the engine",
	Long: `Play an interactive game against the engine.

At the prompt enter a column (0-6) to drop a disc, or one of:
  hint      show the engine's analysis without playing
  ai        let the engine play your move
  undo [n]  take back n plies (default 2, your move and the reply)
  quit      leave the game

Examples:
  # Play first at depth 8
  connect4 play --difficulty 8

  # Let the engine open
  connect4 play --human O`,
	RunE: runPlay,
}

var (
	playDifficulty int
	playStarter    string
	playHuman      string
	playTimeout    time.Duration
)

func init() {
	playCmd.Flags().IntVar(&playDifficulty, "difficulty", 6, "search depth, 0 plays random moves")
	playCmd.Flags().StringVar(&playStarter, "starter", "X", "side that moves first: X or O")
	playCmd.Flags().StringVar(&playHuman, "human", "X", "side you play: X or O")
	playCmd.Flags().DurationVar(&playTimeout, "timeout", time.Minute, "time limit per engine move")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	starter, err := bitboard.ParsePlayer(playStarter)
	if err != nil {
		return err
	}
	human, err := bitboard.ParsePlayer(playHuman)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer engine.Close()

	g, err := engine.NewGame(playDifficulty, connect4.WithStarter(starter))
	if err != nil {
		return err
	}
	return repl(ctx, g, human, os.Stdin, cmd.OutOrStdout())
}

func repl(ctx context.Context, g connect4.Game, human connect4.Player, in io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(in)
	for {
		printBoard(out, g)
		if g.IsGameOver() {
			w, ok, _ := g.Winner()
			if ok {
				fmt.Fprintf(out, "%s wins.\n", w)
			} else {
				fmt.Fprintln(out, "Draw.")
			}
			return nil
		}

		if g.Player() != human {
			next, a, err := engineMove(ctx, g)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Engine plays %d (%s)\n", a.Move, a.ScoreString())
			g = next
			continue
		}

		fmt.Fprintf(out, "%s to move> ", g.Player())
		if !sc.Scan() {
			return sc.Err()
		}
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}

		switch cmd := strings.ToLower(fields[0]); cmd {
		case "q", "quit", "exit":
			return nil
		case "hint":
			a, err := analyze(ctx, g)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Best: %d  score %s  nodes %d  ties %d\n", a.Move, a.ScoreString(), a.Nodes, a.Ties)
		case "ai":
			next, a, err := engineMove(ctx, g)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Played %d (%s)\n", a.Move, a.ScoreString())
			g = next
		case "u", "undo":
			n := 2
			if len(fields) > 1 {
				v, err := strconv.Atoi(fields[1])
				if err != nil {
					fmt.Fprintf(out, "bad undo count %q\n", fields[1])
					continue
				}
				n = v
			}
			prev, err := g.UndoMove(n)
			if err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			g = prev
		default:
			col, err := strconv.Atoi(cmd)
			if err != nil {
				fmt.Fprintf(out, "unknown command %q\n", cmd)
				continue
			}
			next, err := g.Move(col)
			if err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			g = next
		}
	}
}

func analyze(ctx context.Context, g connect4.Game) (connect4.Analysis, error) {
	ctx, cancel := context.WithTimeout(ctx, playTimeout)
	defer cancel()
	a, err := g.Analyze(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		return a, fmt.Errorf("no move found within %s", playTimeout)
	}
	return a, err
}

func engineMove(ctx context.Context, g connect4.Game) (connect4.Game, connect4.Analysis, error) {
	a, err := analyze(ctx, g)
	if err != nil {
		return g, a, err
	}
	next, err := g.Move(a.Move)
	return next, a, err
}

func printBoard(out io.Writer, g connect4.Game) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, g.String())
	fmt.Fprintln(out, "0123456")
}
