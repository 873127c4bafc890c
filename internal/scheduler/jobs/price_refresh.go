package jobs

import (
	"context"
	"fmt"

	"github.com/iklein99/swing-trading-agent-sub001/internal/engine"
	"github.com/iklein99/swing-trading-agent-sub001/pkg/logger"
)

// PriceRefreshJob periodically marks open positions to current quotes
// between trading cycles, so drawdown and daily-loss checks see fresh
// values.
type PriceRefreshJob struct {
	portfolio engine.PortfolioService
	quotes    engine.QuoteSource
	schedule  string
	logger    *logger.Logger
}

// NewPriceRefreshJob creates the price refresh job.
func NewPriceRefreshJob(p engine.PortfolioService, q engine.QuoteSource, schedule string, log *logger.Logger) *PriceRefreshJob {
	return &PriceRefreshJob{
		portfolio: p,
		quotes:    q,
		schedule:  schedule,
		logger:    log.Component("price_refresh_job"),
	}
}

// Name returns the job name.
func (j *PriceRefreshJob) Name() string {
	return "price_refresh"
}

// Schedule returns the configured cron expression.
func (j *PriceRefreshJob) Schedule() string {
	return j.schedule
}

// Run refreshes prices for every open position.
func (j *PriceRefreshJob) Run(ctx context.Context) error {
	positions, err := j.portfolio.GetOpenPositions()
	if err != nil {
		return fmt.Errorf("load positions: %w", err)
	}
	if len(positions) == 0 {
		return nil
	}

	symbols := make([]string, 0, len(positions))
	for _, pos := range positions {
		symbols = append(symbols, pos.Symbol)
	}

	quotes, err := j.quotes.GetQuotes(ctx, symbols)
	if err != nil {
		return fmt.Errorf("fetch quotes: %w", err)
	}

	prices := make(map[string]float64, len(quotes))
	for symbol, q := range quotes {
		prices[symbol] = q.Price
	}
	if err := j.portfolio.UpdatePositionPrices(ctx, prices); err != nil {
		return fmt.Errorf("apply prices: %w", err)
	}

	j.logger.WithField("symbols", len(symbols)).Debug("Prices refreshed")
	return nil
}
