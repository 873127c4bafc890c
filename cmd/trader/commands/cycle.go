package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iklein99/swing-trading-agent-sub001/pkg/config"
	"github.com/iklein99/swing-trading-agent-sub001/pkg/logger"
)

var cycleSignalsFile string

var cycleCmd = &cobra.Command{
	Use:   "cycle",
	Short: "Run one trading cycle and exit",
	Long: `Runs a single trading cycle against the configured signal file and
prints the result summary.

Example:
  go run ./cmd/trader cycle
  go run ./cmd/trader cycle --signals today.json`,
	RunE: runCycle,
}

func init() {
	rootCmd.AddCommand(cycleCmd)
	cycleCmd.Flags().StringVar(&cycleSignalsFile, "signals", "", "signal file (overrides SIGNALS_FILE)")
}

func runCycle(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cycleSignalsFile != "" {
		cfg.SignalsFile = cycleSignalsFile
	}
	log := logger.New(cfg)

	ctx := context.Background()
	c, err := buildComponents(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer c.Close()

	result, err := c.orchestrator.RunCycle(ctx)
	if err != nil {
		return fmt.Errorf("run cycle: %w", err)
	}

	fmt.Printf("Cycle %s finished in state %s\n", result.CycleID, result.State)
	fmt.Printf("  buys processed:  %d\n", result.BuySignalsProcessed)
	fmt.Printf("  sells processed: %d\n", result.SellSignalsProcessed)
	fmt.Printf("  exits processed: %d\n", result.ExitSignalsProcessed)
	fmt.Printf("  trades executed: %d\n", result.TradesExecuted)
	fmt.Printf("  trades failed:   %d\n", result.TradesFailed)
	for _, e := range result.Errors {
		fmt.Printf("  [%s] %s\n", e.Phase, e.Message)
	}

	if !result.Succeeded() {
		return fmt.Errorf("cycle ended in state %s", result.State)
	}
	return nil
}
