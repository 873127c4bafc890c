package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iklein99/swing-trading-agent-sub001/internal/contracts"
	"github.com/iklein99/swing-trading-agent-sub001/internal/signals"
	"github.com/iklein99/swing-trading-agent-sub001/pkg/logger"
)

// ErrCycleInFlight is returned when RunCycle is called while a previous
// cycle is still running. The caller skips the cycle rather than queueing.
var ErrCycleInFlight = errors.New("trading cycle already in flight")

// PortfolioService is the slice of the portfolio manager the orchestrator
// drives.
type PortfolioService interface {
	ExecuteTradeOrder(ctx context.Context, signal *contracts.TradingSignal) (*contracts.TradeResult, error)
	GetOpenPositions() ([]*contracts.Position, error)
	UpdatePositionPrices(ctx context.Context, prices map[string]float64) error
	UpdatePortfolioMetrics(ctx context.Context) (*contracts.PortfolioMetrics, error)
	TakeSnapshot(ctx context.Context) error
}

// ExitChecker scans open positions for triggered exit rules.
type ExitChecker interface {
	CheckExitCriteria(positions []*contracts.Position) []*contracts.TradingSignal
}

// QuoteSource supplies current prices for the exit-criteria price refresh.
type QuoteSource interface {
	GetQuotes(ctx context.Context, symbols []string) (map[string]*contracts.Quote, error)
}

// Orchestrator runs trading cycles: a fixed phase pipeline of buy-signal
// processing, sell-signal processing, exit-criteria evaluation, and
// portfolio refresh. One cycle runs at a time; overlapping invocations are
// rejected, never queued.
type Orchestrator struct {
	running   sync.Mutex
	portfolio PortfolioService
	exits     ExitChecker
	signals   signals.Source
	quotes    QuoteSource
	logger    *logger.Logger

	seq atomic.Int64

	mu   sync.Mutex
	last *contracts.TradingCycleResult
}

// NewOrchestrator wires the trading cycle orchestrator.
func NewOrchestrator(p PortfolioService, exits ExitChecker, src signals.Source, quotes QuoteSource, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		portfolio: p,
		exits:     exits,
		signals:   src,
		quotes:    quotes,
		logger:    log.Component("orchestrator"),
	}
}

// LastResult returns the most recently completed cycle result, or nil when
// no cycle has run yet.
func (o *Orchestrator) LastResult() *contracts.TradingCycleResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last
}

// RunCycle executes one full trading cycle. Returns ErrCycleInFlight when
// a cycle is already running and the caller's context error when the cycle
// was cancelled before it started. Once signal processing begins, the
// cycle runs to completion on a detached context so cancellation cannot
// leave half-applied position state; all later outcomes, including phase
// failures, are reported through the returned TradingCycleResult.
func (o *Orchestrator) RunCycle(ctx context.Context) (*contracts.TradingCycleResult, error) {
	if !o.running.TryLock() {
		return nil, ErrCycleInFlight
	}
	defer o.running.Unlock()

	// A cycle that has not started yet may still be skipped.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	runCtx := context.WithoutCancel(ctx)

	result := &contracts.TradingCycleResult{
		CycleID:   fmt.Sprintf("cycle-%d-%d", time.Now().Unix(), o.seq.Add(1)),
		State:     contracts.CycleStateStarting,
		StartedAt: time.Now(),
	}
	o.logger.WithField("cycle_id", result.CycleID).Info("Trading cycle started")

	incoming, err := o.signals.GetSignals(runCtx)
	if err != nil {
		// Nothing has been attempted yet: the whole cycle fails with
		// zero trades.
		result.State = contracts.CycleStateFailed
		result.AddError(contracts.CycleStateStarting, fmt.Sprintf("fetch signals: %v", err))
		return o.finish(result), nil
	}

	buys, sells := splitSignals(incoming)

	result.State = contracts.CycleStateBuySignals
	result.BuySignalsProcessed = o.processSignals(runCtx, result, buys)

	result.State = contracts.CycleStateSellSignals
	result.SellSignalsProcessed = o.processSignals(runCtx, result, sells)

	result.State = contracts.CycleStateExitCriteria
	result.ExitSignalsProcessed = o.processExits(runCtx, result)

	// The refresh phase always runs once reached: trade failures above
	// never leave stale metrics behind.
	result.State = contracts.CycleStatePortfolioUpdate
	if _, err := o.portfolio.UpdatePortfolioMetrics(runCtx); err != nil {
		result.State = contracts.CycleStateFailed
		result.AddError(contracts.CycleStatePortfolioUpdate, fmt.Sprintf("update metrics: %v", err))
		return o.finish(result), nil
	}
	if err := o.portfolio.TakeSnapshot(runCtx); err != nil {
		result.AddError(contracts.CycleStatePortfolioUpdate, fmt.Sprintf("save snapshot: %v", err))
	}

	result.State = contracts.CycleStateCompleted
	return o.finish(result), nil
}

// processSignals attempts every signal in order. A failed or rejected
// trade is counted and recorded, never fatal to the phase.
func (o *Orchestrator) processSignals(ctx context.Context, result *contracts.TradingCycleResult, batch []*contracts.TradingSignal) int {
	processed := 0
	for _, signal := range batch {
		processed++

		tr, err := o.portfolio.ExecuteTradeOrder(ctx, signal)
		if err != nil {
			result.TradesFailed++
			result.AddError(result.State, fmt.Sprintf("%s %s: %v", signal.Action, signal.Symbol, err))
			continue
		}
		if !tr.Success {
			result.TradesFailed++
			result.AddError(result.State, fmt.Sprintf("%s %s: %s", signal.Action, signal.Symbol, tr.Error))
			continue
		}

		result.TradesExecuted++
		result.ExecutedTrades = append(result.ExecutedTrades, tr.Trade)
	}
	return processed
}

// processExits refreshes prices for the open positions, scans them for
// triggered exit rules, and executes the resulting sells.
func (o *Orchestrator) processExits(ctx context.Context, result *contracts.TradingCycleResult) int {
	positions, err := o.portfolio.GetOpenPositions()
	if err != nil {
		result.AddError(contracts.CycleStateExitCriteria, fmt.Sprintf("load positions: %v", err))
		return 0
	}
	if len(positions) == 0 {
		return 0
	}

	if err := o.refreshPrices(ctx, positions); err != nil {
		// Exit rules still run against the last known prices.
		result.AddError(contracts.CycleStateExitCriteria, fmt.Sprintf("refresh prices: %v", err))
	} else if positions, err = o.portfolio.GetOpenPositions(); err != nil {
		result.AddError(contracts.CycleStateExitCriteria, fmt.Sprintf("reload positions: %v", err))
		return 0
	}

	exitSignals := o.exits.CheckExitCriteria(positions)
	return o.processSignals(ctx, result, exitSignals)
}

// refreshPrices pulls quotes for the held symbols and applies them.
func (o *Orchestrator) refreshPrices(ctx context.Context, positions []*contracts.Position) error {
	symbols := make([]string, 0, len(positions))
	for _, pos := range positions {
		symbols = append(symbols, pos.Symbol)
	}

	quotes, err := o.quotes.GetQuotes(ctx, symbols)
	if err != nil {
		return err
	}

	prices := make(map[string]float64, len(quotes))
	for symbol, q := range quotes {
		prices[symbol] = q.Price
	}
	return o.portfolio.UpdatePositionPrices(ctx, prices)
}

// finish stamps the result, records it, and logs the summary.
func (o *Orchestrator) finish(result *contracts.TradingCycleResult) *contracts.TradingCycleResult {
	result.CompletedAt = time.Now()

	o.mu.Lock()
	o.last = result
	o.mu.Unlock()

	o.logger.WithFields(map[string]interface{}{
		"cycle_id":        result.CycleID,
		"state":           result.State,
		"buys_processed":  result.BuySignalsProcessed,
		"sells_processed": result.SellSignalsProcessed,
		"exits_processed": result.ExitSignalsProcessed,
		"trades_executed": result.TradesExecuted,
		"trades_failed":   result.TradesFailed,
		"errors":          len(result.Errors),
		"duration":        result.CompletedAt.Sub(result.StartedAt).String(),
	}).Info("Trading cycle finished")

	return result
}

// splitSignals partitions incoming signals by direction, preserving their
// relative order within each phase.
func splitSignals(in []*contracts.TradingSignal) (buys, sells []*contracts.TradingSignal) {
	for _, s := range in {
		if s == nil {
			continue
		}
		if s.Action == contracts.ActionSell {
			sells = append(sells, s)
		} else {
			buys = append(buys, s)
		}
	}
	return buys, sells
}
