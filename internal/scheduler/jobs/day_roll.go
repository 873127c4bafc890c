package jobs

import (
	"context"
	"fmt"

	"github.com/iklein99/swing-trading-agent-sub001/pkg/logger"
)

// DayRoller resets the daily PnL baseline. Implemented by the portfolio
// manager.
type DayRoller interface {
	RollTradingDay(ctx context.Context) error
}

// DayRollJob re-baselines daily PnL at the start of each trading day,
// which also resets the daily-loss circuit breaker.
type DayRollJob struct {
	portfolio DayRoller
	schedule  string
	logger    *logger.Logger
}

// NewDayRollJob creates the day roll job.
func NewDayRollJob(p DayRoller, schedule string, log *logger.Logger) *DayRollJob {
	return &DayRollJob{
		portfolio: p,
		schedule:  schedule,
		logger:    log.Component("day_roll_job"),
	}
}

// Name returns the job name.
func (j *DayRollJob) Name() string {
	return "day_roll"
}

// Schedule returns the configured cron expression.
func (j *DayRollJob) Schedule() string {
	return j.schedule
}

// Run rolls the trading day.
func (j *DayRollJob) Run(ctx context.Context) error {
	if err := j.portfolio.RollTradingDay(ctx); err != nil {
		return fmt.Errorf("roll trading day: %w", err)
	}
	return nil
}
