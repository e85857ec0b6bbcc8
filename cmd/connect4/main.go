// Package main provides the connect4 CLI for playing against the engine,
// analyzing positions and seeding the persisted transposition table.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
