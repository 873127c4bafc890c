package commands

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "trader",
	Short: "Swing-trading account simulator",
	Long: `Swing-trading account simulator.

Processes externally generated trading signals through risk validation,
a mock broker, and a persistent portfolio, on a scheduled trading cycle.

Usage:
  go run ./cmd/trader [command]

Examples:
  go run ./cmd/trader start
  go run ./cmd/trader cycle --signals signals.json
  go run ./cmd/trader status
  go run ./cmd/trader test-db`,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}
