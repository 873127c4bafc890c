package contracts

import "time"

// CycleState represents the phase of a trading cycle. One cycle walks the
// states in order and terminates in COMPLETED or FAILED.
type CycleState string

const (
	CycleStateStarting        CycleState = "STARTING"
	CycleStateBuySignals      CycleState = "BUY_SIGNALS"
	CycleStateSellSignals     CycleState = "SELL_SIGNALS"
	CycleStateExitCriteria    CycleState = "EXIT_CRITERIA"
	CycleStatePortfolioUpdate CycleState = "PORTFOLIO_UPDATE"
	CycleStateCompleted       CycleState = "COMPLETED"
	CycleStateFailed          CycleState = "FAILED"
)

// PhaseError records a non-fatal error attributed to one phase of a cycle.
type PhaseError struct {
	Phase   CycleState `json:"phase"`
	Message string     `json:"message"`
}

// TradingCycleResult summarizes one full buy / sell / exit / update pass.
// This is the externally observable contract the logging and UI layers
// depend on.
type TradingCycleResult struct {
	CycleID              string       `json:"cycle_id"`
	State                CycleState   `json:"state"`
	BuySignalsProcessed  int          `json:"buy_signals_processed"`
	SellSignalsProcessed int          `json:"sell_signals_processed"`
	ExitSignalsProcessed int          `json:"exit_signals_processed"`
	TradesExecuted       int          `json:"trades_executed"`
	TradesFailed         int          `json:"trades_failed"`
	ExecutedTrades       []*Trade     `json:"executed_trades"`
	Errors               []PhaseError `json:"errors,omitempty"`
	StartedAt            time.Time    `json:"started_at"`
	CompletedAt          time.Time    `json:"completed_at"`
}

// Succeeded reports whether the cycle reached at least the portfolio-update
// phase. Individual trade failures do not fail a cycle.
func (r *TradingCycleResult) Succeeded() bool {
	return r.State == CycleStateCompleted
}

// AddError records a phase error.
func (r *TradingCycleResult) AddError(phase CycleState, msg string) {
	r.Errors = append(r.Errors, PhaseError{Phase: phase, Message: msg})
}
