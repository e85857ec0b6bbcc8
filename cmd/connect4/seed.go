package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/discochess/connect4/internal/config"
	"github.com/discochess/connect4/internal/seeder"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the transposition table with searched positions",
	Long: `Generate positions by random play, search each one and append the
results to the partition holding that move number.

This command will:
1. Play random games up to the requested number of plies
2. Skip positions already in the table, including mirrored ones
3. Search the new positions in parallel
4. Append the records in a single write per partition and update
   manifest.json

Running it again with the same arguments only adds positions the first
run did not find.

Examples:
  # Seed 500 positions after 8 plies
  connect4 seed --amount 500 --plies 8

  # Several move numbers at depth 7 with 8 workers
  connect4 seed --amount 200 --plies 4,6,8,10 --depth 7 --workers 8`,
	RunE: runSeed,
}

var (
	seedAmount      int
	seedPlies       []int
	seedDepth       int
	seedWorkers     int
	seedMaxAttempts int
	seedRandom      int64
)

func init() {
	seedCmd.Flags().IntVarP(&seedAmount, "amount", "n", 100, "positions to add per ply")
	seedCmd.Flags().IntSliceVarP(&seedPlies, "plies", "p", []int{8}, "number of discs on the seeded boards")
	seedCmd.Flags().IntVar(&seedDepth, "depth", 0, "search depth (default from config)")
	seedCmd.Flags().IntVar(&seedWorkers, "workers", 0, "parallel searches (default from config, else CPU count)")
	seedCmd.Flags().IntVar(&seedMaxAttempts, "max-attempts", 0, "random games to try before giving up (default 20 per position)")
	seedCmd.Flags().Int64Var(&seedRandom, "seed", 0, "random seed for reproducible batches, 0 picks one")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer engine.Close()

	depth := cfg.Seed.Depth
	if seedDepth > 0 {
		depth = seedDepth
	}
	workers := cfg.Seed.Workers
	if seedWorkers > 0 {
		workers = seedWorkers
	}
	maxAttempts := cfg.Seed.MaxAttempts
	if seedMaxAttempts > 0 {
		maxAttempts = seedMaxAttempts
	}

	opts := []seeder.Option{
		seeder.WithDepth(depth),
		seeder.WithProgress(seeder.DefaultProgressFunc),
		seeder.WithStats(collector),
		seeder.WithLogger(log.Named("seeder")),
	}
	if workers > 0 {
		opts = append(opts, seeder.WithWorkers(workers))
	}
	if maxAttempts > 0 {
		opts = append(opts, seeder.WithMaxAttempts(maxAttempts))
	}
	if seedRandom != 0 {
		opts = append(opts, seeder.WithSeed(seedRandom))
	}
	if cfg.Backend == config.BackendDisk {
		opts = append(opts, seeder.WithManifest(cfg.DataDir, cfg.Codec))
	}
	s := seeder.New(engine.Searcher(), engine.Zobrist(), opts...)

	fmt.Printf("Seeding transposition table\n")
	fmt.Printf("  Backend:  %s\n", cfg.Backend)
	if cfg.Backend == config.BackendDisk || cfg.Backend == config.BackendBadger {
		fmt.Printf("  Data:     %s\n", cfg.DataDir)
	}
	fmt.Printf("  Amount:   %d per ply\n", seedAmount)
	fmt.Printf("  Plies:    %v\n", seedPlies)
	fmt.Printf("  Depth:    %d\n", depth)
	fmt.Printf("  Window:   %d\n", cfg.Window)
	fmt.Println()

	var written int
	for _, plies := range seedPlies {
		sum, err := s.Seed(ctx, seedAmount, plies)
		if err != nil {
			return fmt.Errorf("seeding ply %d: %w", plies, err)
		}
		written += sum.Written
	}
	if len(seedPlies) > 1 {
		fmt.Printf("\n%d records written in total\n", written)
	}
	return nil
}
