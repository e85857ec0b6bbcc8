// Package main provides the connect4-bench CLI tool for comparing engine
// configurations in self-play.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/discochess/connect4"
	"github.com/discochess/connect4/benchmark/analysis"
	"github.com/discochess/connect4/benchmark/arena"
	"github.com/discochess/connect4/benchmark/gamefile"
	"github.com/discochess/connect4/benchmark/reporting"
	"github.com/discochess/connect4/internal/eval"
	"github.com/discochess/connect4/internal/randutil"
)

var (
	openingsFile string
	games        int
	openingPlies int
	seed         int64
	sides        [2]sideFlags
	cacheSize    int
	outputFormat string
	outputFile   string
	saveGames    string
	verbose      bool
)

// sideFlags configures one contestant.
type sideFlags struct {
	name      string
	depth     int
	evaluator string
	rollouts  int
	dataDir   string
}

var rootCmd = &cobra.Command{
	Use:   "connect4-bench",
	Short: "Benchmark connect4 engine configurations",
	Long: `connect4-bench plays two engine configurations against each other.

Every opening is played twice with colours swapped. Besides the match
score it compares nodes and time per move with rank tests, which shows
for example how much a seeded table saves over an empty one.

Examples:
  # Depth 8 against depth 6 from 20 random 4-ply openings
  connect4-bench run --depth-a 8 --depth-b 6 --games 20

  # Seeded table against an empty one at equal depth
  connect4-bench run --data-a ./data --depth-a 8 --depth-b 8

  # Two evaluators over the same seeded table, sharing one partition cache
  connect4-bench run --data-a ./data --data-b ./data --eval-b rollout

  # Openings from a file, markdown report
  connect4-bench run --openings book.txt --format markdown --output report.md`,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a match",
	RunE:  runBenchmark,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&openingsFile, "openings", "", "file of opening move sequences (supports .zst)")
	f.IntVarP(&games, "games", "g", 10, "random openings to play when --openings is not given")
	f.IntVar(&openingPlies, "opening-plies", 4, "length of random openings")
	f.Int64Var(&seed, "seed", 1, "random seed")
	for i, s := range []string{"a", "b"} {
		f.StringVar(&sides[i].name, "name-"+s, strings.ToUpper(s), "display name of side "+s)
		f.IntVar(&sides[i].depth, "depth-"+s, 6, "search depth of side "+s)
		f.StringVar(&sides[i].evaluator, "eval-"+s, "heuristic", "evaluator of side "+s+": heuristic, rollout")
		f.IntVar(&sides[i].rollouts, "rollouts-"+s, eval.DefaultSimulations, "rollout simulations of side "+s)
		f.StringVar(&sides[i].dataDir, "data-"+s, "", "seeded data directory for side "+s+" (default: empty in-memory table)")
	}
	f.IntVar(&cacheSize, "cache-size", 16, "partitions cached in memory when both sides use the same data directory")
	f.StringVarP(&outputFormat, "format", "f", "text", "output format: text, markdown")
	f.StringVarP(&outputFile, "output", "o", "", "output file (default: stdout)")
	f.StringVar(&saveGames, "save-games", "", "write played games to this file (.zst compresses)")
	f.BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// dataDirs opens each data directory once, so contestants over the same
// directory share a partition cache.
type dataDirs map[string]*connect4.DataDir

func (d dataDirs) option(dir string) (connect4.Option, error) {
	key := filepath.Clean(dir)
	dd, ok := d[key]
	if !ok {
		var err error
		if dd, err = connect4.OpenDataDir(key, cacheSize, nil); err != nil {
			return nil, err
		}
		d[key] = dd
	}
	return dd.Option(), nil
}

func (d dataDirs) Close() {
	for _, dd := range d {
		dd.Close()
	}
}

func newContestant(s sideFlags, seed int64, dirs dataDirs) (arena.Contestant, error) {
	var ev eval.Evaluator
	switch s.evaluator {
	case "heuristic":
		ev = eval.NewHeuristic()
	case "rollout":
		ev = eval.NewRollout(eval.WithSimulations(s.rollouts), eval.WithSeed(seed))
	default:
		return arena.Contestant{}, fmt.Errorf("unknown evaluator: %s", s.evaluator)
	}

	opts := []connect4.Option{
		connect4.WithEvaluator(ev),
		connect4.WithRand(randutil.New(seed)),
	}
	if s.dataDir != "" {
		opt, err := dirs.option(s.dataDir)
		if err != nil {
			return arena.Contestant{}, err
		}
		opts = append(opts, opt)
	}
	e, err := connect4.New(opts...)
	if err != nil {
		return arena.Contestant{}, err
	}
	return arena.Contestant{Name: s.name, Engine: e, Difficulty: s.depth}, nil
}

func runBenchmark(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var openings []string
	if openingsFile != "" {
		var err error
		if openings, err = gamefile.ReadFile(openingsFile); err != nil {
			return err
		}
		if len(openings) == 0 {
			return fmt.Errorf("no openings found in %s", openingsFile)
		}
	}

	dirs := dataDirs{}
	defer dirs.Close()

	var contestants [2]arena.Contestant
	for i, s := range sides {
		c, err := newContestant(s, seed+int64(i), dirs)
		if err != nil {
			return fmt.Errorf("side %s: %w", s.name, err)
		}
		defer c.Engine.Close()
		contestants[i] = c
	}
	a, b := contestants[0], contestants[1]

	opts := arena.Options{
		Openings:     openings,
		Games:        games,
		OpeningPlies: openingPlies,
		Seed:         seed,
	}
	if verbose {
		opts.Progress = func(done, total int) {
			fmt.Fprintf(os.Stderr, "\r[Match] %d / %d games", done, total)
			if done == total {
				fmt.Fprintln(os.Stderr)
			}
		}
	}

	res, err := arena.Run(ctx, a, b, opts)
	if err != nil {
		return err
	}
	if verbose {
		for dir, dd := range dirs {
			st := dd.CacheStats()
			fmt.Fprintf(os.Stderr, "[Cache] %s: %d hits, %d misses (%.1f%%)\n", dir, st.Hits, st.Misses, st.HitRate())
		}
	}

	if saveGames != "" {
		moves := make([]string, len(res.Games))
		for i, g := range res.Games {
			moves[i] = g.Moves
		}
		if err := gamefile.WriteFile(saveGames, moves); err != nil {
			return fmt.Errorf("saving games: %w", err)
		}
	}

	comparisons := []*analysis.Comparison{
		analysis.Compare("nodes/move", a.Name, b.Name, res.A.Nodes, res.B.Nodes, 10000, 0.95),
		analysis.Compare("seconds/move", a.Name, b.Name, res.A.Seconds(), res.B.Seconds(), 10000, 0.95),
	}

	var output io.Writer = os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	openingCount := len(res.Games) / 2
	switch outputFormat {
	case "markdown":
		report := reporting.NewMarkdownReport(output)
		report.WriteHeader("Connect4 Engine Benchmark")
		report.WriteMethodology(openingCount, a, b)
		report.WriteSummaryTable(res)
		for _, c := range comparisons {
			report.WriteComparison(c)
		}
		report.WriteDistributionChart(a.Name+" nodes/move", res.A.Nodes)
		report.WriteDistributionChart(b.Name+" nodes/move", res.B.Nodes)
		report.WriteGames(res)
		report.WriteFooter()
		return nil
	default:
		return writeTextReport(output, openingCount, res, comparisons)
	}
}

func writeTextReport(w io.Writer, openings int, res *arena.Result, comps []*analysis.Comparison) error {
	fmt.Fprintf(w, "Connect4 Engine Benchmark\n")
	fmt.Fprintf(w, "=========================\n\n")
	fmt.Fprintf(w, "Openings: %d\n", openings)
	fmt.Fprintf(w, "Games:    %d\n\n", len(res.Games))

	fmt.Fprintf(w, "Results:\n")
	fmt.Fprintf(w, "--------\n\n")
	fmt.Fprintf(w, "%s vs %s: +%d =%d -%d (%.1f%%)\n", res.A.Name, res.B.Name, res.Wins, res.Draws, res.Losses, res.Score()*100)
	fmt.Fprintf(w, "Elo difference: %+.0f\n\n", res.EloDiff())

	for _, side := range []arena.SideResult{res.A, res.B} {
		nodes := analysis.Describe(side.Nodes)
		fmt.Fprintf(w, "%s:\n", side.Name)
		fmt.Fprintf(w, "  Moves:          %d\n", nodes.N)
		fmt.Fprintf(w, "  Avg nodes/move: %.0f\n", nodes.Mean)
		fmt.Fprintf(w, "  Median nodes:   %.0f\n", nodes.Median)
		fmt.Fprintf(w, "  P90 nodes:      %.0f\n\n", nodes.P90)
	}

	fmt.Fprintf(w, "Statistical Analysis:\n")
	fmt.Fprintf(w, "---------------------\n\n")
	for _, c := range comps {
		fmt.Fprintln(w, c.Summary())
		fmt.Fprintln(w)
	}
	return nil
}
