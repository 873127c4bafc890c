package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/iklein99/swing-trading-agent-sub001/internal/api"
	"github.com/iklein99/swing-trading-agent-sub001/internal/api/handlers"
	"github.com/iklein99/swing-trading-agent-sub001/internal/scheduler"
	"github.com/iklein99/swing-trading-agent-sub001/internal/scheduler/jobs"
	"github.com/iklein99/swing-trading-agent-sub001/pkg/config"
	"github.com/iklein99/swing-trading-agent-sub001/pkg/logger"
)

var startPort string

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the trading engine with scheduler and status API",
	Long: `Runs the full simulator: scheduled trading cycles, periodic price
refresh, daily PnL baseline roll, and the HTTP status API.

Endpoints:
  GET  /health              - Health check
  GET  /api/portfolio       - Portfolio state
  GET  /api/positions       - Open positions
  GET  /api/metrics         - Derived metrics
  GET  /api/performance     - Win/loss statistics
  GET  /api/cycle/latest    - Last cycle result
  POST /api/cycle/run       - Trigger a cycle now

Example:
  go run ./cmd/trader start
  go run ./cmd/trader start --port 8090`,
	RunE: runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
	startCmd.Flags().StringVar(&startPort, "port", "", "HTTP port (overrides PORT)")
}

func runStart(cmd *cobra.Command, args []string) error {
	// 1. Config and logger.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if startPort != "" {
		cfg.Port = startPort
	}
	log := logger.New(cfg)

	ctx := context.Background()

	// 2. Trading engine.
	c, err := buildComponents(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer c.Close()

	// 3. Background jobs.
	sched := scheduler.New(log)
	if err := sched.AddJob(jobs.NewTradingCycleJob(c.orchestrator, cfg.Schedules.TradingCycle, log)); err != nil {
		return fmt.Errorf("register trading cycle job: %w", err)
	}
	if err := sched.AddJob(jobs.NewPriceRefreshJob(c.manager, c.quotes, cfg.Schedules.PriceRefresh, log)); err != nil {
		return fmt.Errorf("register price refresh job: %w", err)
	}
	if err := sched.AddJob(jobs.NewDayRollJob(c.manager, cfg.Schedules.DayRoll, log)); err != nil {
		return fmt.Errorf("register day roll job: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	// 4. Status API.
	handler := handlers.NewTradingHandler(c.manager, c.orchestrator, c.store, sched, log)
	server := api.New(cfg, log, api.NewRouter(handler, log))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// 5. Wait for shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
