package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"github.com/discochess/connect4/internal/eval"
	"github.com/discochess/connect4/internal/record"
	"github.com/discochess/connect4/internal/seeder"
	"github.com/discochess/connect4/internal/store/diskstore"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show statistics about the persisted table",
	Long: `Display statistics about the persisted transposition table including:
- Records and proven results per partition
- Size on disk (disk backend)
- Mean and spread of heuristic scores and search depths`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

// partitionSummary is one row of the stats table.
type partitionSummary struct {
	id      int
	records int
	xWins   int
	oWins   int
	size    int64
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	engine, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer engine.Close()

	disk, _ := engine.Store().(*diskstore.Store)
	strategy := engine.Table().Strategy()

	var (
		rows    []partitionSummary
		scores  []float64
		depths  []float64
		total   int
		size    int64
		decided int
	)
	err = scanPartitions(ctx, engine.Store(), strategy.Count(), func(ps partitionScan, err error) {
		if ps.Missing {
			return
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "partition %d: %v\n", ps.ID, err)
			return
		}
		row := partitionSummary{id: ps.ID, records: len(ps.Records)}
		for _, r := range ps.Records {
			depths = append(depths, float64(r.Depth))
			switch {
			case eval.IsWin(r.Score) && r.Score > 0:
				row.xWins++
			case eval.IsWin(r.Score):
				row.oWins++
			case r.Bound == record.Exact:
				scores = append(scores, float64(r.Score))
			}
		}
		if disk != nil {
			if info, err := os.Stat(disk.Path(ps.ID)); err == nil {
				row.size = info.Size()
			}
		}
		rows = append(rows, row)
		total += row.records
		size += row.size
		decided += row.xWins + row.oWins
	})
	if err != nil {
		return err
	}

	if len(rows) == 0 {
		fmt.Println("No partitions found.")
		fmt.Println("Run 'connect4 seed' to populate the table.")
		return nil
	}

	fmt.Printf("Backend:        %s\n", cfg.Backend)
	if disk != nil {
		fmt.Printf("Data directory: %s\n", disk.Root())
	}
	fmt.Printf("Strategy:       %s (%d partitions)\n", strategy.Name(), strategy.Count())
	fmt.Printf("Records:        %d\n", total)
	fmt.Printf("Proven results: %d\n", decided)
	if disk != nil {
		fmt.Printf("Total size:     %s\n", seeder.FormatBytes(size))
	}
	if len(depths) > 0 {
		mean, std := stat.MeanStdDev(depths, nil)
		fmt.Printf("Depth:          mean %.2f, stddev %.2f\n", mean, std)
	}
	if len(scores) > 1 {
		mean, std := stat.MeanStdDev(scores, nil)
		fmt.Printf("Exact scores:   mean %+.2f, stddev %.2f, n=%d\n", mean, std, len(scores))
	}

	fmt.Println()
	fmt.Println("Partition  Records  X wins  O wins  Size")
	for _, r := range rows {
		sz := "-"
		if disk != nil {
			sz = seeder.FormatBytes(r.size)
		}
		fmt.Printf("%9d  %7d  %6d  %6d  %s\n", r.id, r.records, r.xWins, r.oWins, sz)
	}
	return nil
}
