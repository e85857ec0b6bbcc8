package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/discochess/connect4/internal/config"
	"github.com/discochess/connect4/internal/record"
	"github.com/discochess/connect4/internal/seeder"
	"github.com/discochess/connect4/internal/store"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the integrity of the persisted table",
	Long: `Verify that every partition in the store is readable.

This command checks:
- Each partition can be read and decompressed
- Each line is a well-formed record
- Keys repeat only where a later search went deeper
- Record counts agree with manifest.json (disk backend)`,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

// partitionScan summarizes one partition log.
type partitionScan struct {
	ID         int
	Missing    bool
	Records    []record.Record
	Malformed  int
	Duplicates int
	Shallower  int
}

// scanPartitions reads every partition of st. A partition that fails to
// read is reported through fn and does not stop the scan.
func scanPartitions(ctx context.Context, st store.Store, count int, fn func(partitionScan, error)) error {
	for id := range count {
		if err := ctx.Err(); err != nil {
			return err
		}

		data, err := st.ReadPartition(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			fn(partitionScan{ID: id, Missing: true}, nil)
			continue
		}
		if err != nil {
			fn(partitionScan{ID: id}, err)
			continue
		}

		ps := partitionScan{ID: id}
		depths := make(map[uint64]int)
		err = record.Scan(data,
			func(r record.Record) {
				if d, ok := depths[r.Key]; ok {
					ps.Duplicates++
					if r.Depth < d {
						ps.Shallower++
						return
					}
				}
				depths[r.Key] = r.Depth
				ps.Records = append(ps.Records, r)
			},
			func(line int, text string, err error) error {
				ps.Malformed++
				if verbose {
					fmt.Printf("    line %d: %v\n", line, err)
				}
				return nil
			},
		)
		fn(ps, err)
	}
	return nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	engine, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer engine.Close()

	var manifest *seeder.Manifest
	if cfg.Backend == config.BackendDisk {
		if m, err := seeder.ReadManifest(cfg.DataDir); err == nil {
			manifest = m
		}
	}

	count := engine.Table().Strategy().Count()
	fmt.Printf("Verifying %d partitions...\n", count)

	var errCount, found int
	err = scanPartitions(ctx, engine.Store(), count, func(ps partitionScan, err error) {
		if ps.Missing {
			if verbose {
				fmt.Printf("  [%d/%d] empty\n", ps.ID+1, count)
			}
			return
		}
		found++
		if verbose {
			fmt.Printf("  [%d/%d] %d records\n", ps.ID+1, count, len(ps.Records))
		}
		if err != nil {
			fmt.Printf("  ERROR: partition %d: %v\n", ps.ID, err)
			errCount++
			return
		}
		if ps.Malformed > 0 {
			fmt.Printf("  ERROR: partition %d: %d malformed lines\n", ps.ID, ps.Malformed)
			errCount++
		}
		if ps.Shallower > 0 {
			fmt.Printf("  WARN: partition %d: %d records shadowed by deeper ones\n", ps.ID, ps.Shallower)
		}
		if manifest != nil {
			lines := int64(len(ps.Records) + ps.Shallower)
			if want := manifestCount(manifest, ps.ID); want != lines {
				fmt.Printf("  ERROR: partition %d: %d records, manifest says %d\n", ps.ID, lines, want)
				errCount++
			}
		}
	})
	if err != nil {
		return err
	}

	if found == 0 {
		fmt.Println("No partitions found.")
		fmt.Println("Run 'connect4 seed' to populate the table.")
		return nil
	}
	if errCount > 0 {
		return fmt.Errorf("%d partitions failed verification", errCount)
	}

	fmt.Println("All partitions verified successfully.")
	return nil
}

func manifestCount(m *seeder.Manifest, id int) int64 {
	if id >= len(m.Records) {
		return 0
	}
	return m.Records[id]
}
