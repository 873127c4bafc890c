package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iklein99/swing-trading-agent-sub001/pkg/config"
	"github.com/iklein99/swing-trading-agent-sub001/pkg/logger"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print portfolio state and performance",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	ctx := context.Background()
	c, err := buildComponents(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer c.Close()

	p, err := c.manager.GetPortfolio()
	if err != nil {
		return fmt.Errorf("get portfolio: %w", err)
	}

	fmt.Printf("Portfolio %s\n", p.ID)
	fmt.Printf("  total value:  %12.2f\n", p.TotalValue)
	fmt.Printf("  cash balance: %12.2f\n", p.CashBalance)
	fmt.Printf("  daily pnl:    %12.2f\n", p.DailyPnL)
	fmt.Printf("  total pnl:    %12.2f\n", p.TotalPnL)
	fmt.Printf("  drawdown:     %11.2f%%\n", p.Drawdown())

	open := p.OpenPositions()
	fmt.Printf("  open positions: %d\n", len(open))
	for _, pos := range open {
		fmt.Printf("    %-8s %6d @ %10.2f  now %10.2f  upnl %10.2f\n",
			pos.Symbol, pos.Quantity, pos.EntryPrice, pos.CurrentPrice, pos.UnrealizedPnL)
	}

	stats, err := c.manager.GetPerformanceStats(ctx)
	if err != nil {
		return fmt.Errorf("get performance stats: %w", err)
	}
	fmt.Printf("Performance\n")
	fmt.Printf("  trades: %d  closed: %d  win rate: %.1f%%\n",
		stats.TotalTrades, stats.ClosedTrades, stats.WinRate)
	fmt.Printf("  realized pnl: %.2f  profit factor: %.2f\n",
		stats.TotalRealized, stats.ProfitFactor)

	return nil
}
