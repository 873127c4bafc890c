package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/iklein99/swing-trading-agent-sub001/internal/engine"
	"github.com/iklein99/swing-trading-agent-sub001/pkg/logger"
)

// TradingCycleJob runs one trading cycle per tick. A tick that lands while
// a previous cycle is still in flight is skipped, not queued.
type TradingCycleJob struct {
	orchestrator *engine.Orchestrator
	schedule     string
	logger       *logger.Logger
}

// NewTradingCycleJob creates the trading cycle job.
func NewTradingCycleJob(o *engine.Orchestrator, schedule string, log *logger.Logger) *TradingCycleJob {
	return &TradingCycleJob{
		orchestrator: o,
		schedule:     schedule,
		logger:       log.Component("trading_cycle_job"),
	}
}

// Name returns the job name.
func (j *TradingCycleJob) Name() string {
	return "trading_cycle"
}

// Schedule returns the configured cron expression.
func (j *TradingCycleJob) Schedule() string {
	return j.schedule
}

// Run executes one cycle.
func (j *TradingCycleJob) Run(ctx context.Context) error {
	result, err := j.orchestrator.RunCycle(ctx)
	if errors.Is(err, engine.ErrCycleInFlight) {
		j.logger.Warn("Previous cycle still running, skipping tick")
		return nil
	}
	if err != nil {
		return fmt.Errorf("run cycle: %w", err)
	}

	if !result.Succeeded() {
		return fmt.Errorf("cycle %s ended in state %s with %d errors", result.CycleID, result.State, len(result.Errors))
	}
	return nil
}
