package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/discochess/connect4/internal/zobrist"
)

var zobristCmd = &cobra.Command{
	Use:   "zobrist",
	Short: "Manage the zobrist key table",
	Long: `The zobrist key table maps each cell and side to a random 63-bit key.
Stored records are only meaningful with the table that keyed them, so it
is written once next to the partitions and reused afterwards.`,
}

var zobristGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write a fresh zobrist key table",
	Long: `Write a fresh random key table to the configured location.

An existing table is kept unless --force is given. Replacing it orphans
every record already stored.`,
	RunE: runZobristGenerate,
}

var zobristShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the fingerprint of the zobrist key table",
	RunE:  runZobristShow,
}

var zobristForce bool

func init() {
	zobristGenerateCmd.Flags().BoolVar(&zobristForce, "force", false, "overwrite an existing table")
	zobristCmd.AddCommand(zobristGenerateCmd, zobristShowCmd)
	rootCmd.AddCommand(zobristCmd)
}

func runZobristGenerate(cmd *cobra.Command, args []string) error {
	path := cfg.ZobristPath()
	if _, err := os.Stat(path); err == nil && !zobristForce {
		return fmt.Errorf("%s already exists; use --force to replace it", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	t := zobrist.Generate()
	if err := t.Save(path); err != nil {
		return err
	}
	fmt.Printf("Wrote %s (fingerprint %016x)\n", path, t.Fingerprint())
	return nil
}

func runZobristShow(cmd *cobra.Command, args []string) error {
	path := cfg.ZobristPath()
	t, err := zobrist.Load(path)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d keys, fingerprint %016x\n", path, zobrist.NumKeys, t.Fingerprint())
	return nil
}
