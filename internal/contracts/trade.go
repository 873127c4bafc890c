package contracts

import "time"

// TradeStatus represents the lifecycle state of a trade record.
type TradeStatus string

const (
	TradeStatusPending  TradeStatus = "PENDING"
	TradeStatusExecuted TradeStatus = "EXECUTED"
	TradeStatusFailed   TradeStatus = "FAILED"
)

// Trade is an append-only audit record of one execution attempt against the
// broker. Every attempt that reaches the broker produces a record, including
// failures; records are immutable once written.
type Trade struct {
	ID          string      `json:"id"`
	PortfolioID string      `json:"portfolio_id"`
	Symbol      string      `json:"symbol"`
	Action      Action      `json:"action"`
	Quantity    int         `json:"quantity"`
	Price       float64     `json:"price"` // fill price for EXECUTED, requested for FAILED
	Fees        float64     `json:"fees"`
	Status      TradeStatus `json:"status"`
	SignalID    string      `json:"signal_id"`
	Reasoning   string      `json:"reasoning"`
	RealizedPnL float64     `json:"realized_pnl"` // set on closing sells only
	Timestamp   time.Time   `json:"timestamp"`
}

// IsExecuted checks if the trade filled.
func (t *Trade) IsExecuted() bool {
	return t.Status == TradeStatusExecuted
}

// Notional returns the gross trade value excluding fees.
func (t *Trade) Notional() float64 {
	return t.Price * float64(t.Quantity)
}

// TradeResult is the outcome of ExecuteTradeOrder, consumed by the
// orchestrator and the UI/logging layers.
type TradeResult struct {
	Success       bool          `json:"success"`
	Trade         *Trade        `json:"trade,omitempty"`
	Error         string        `json:"error,omitempty"`
	ExecutionTime time.Duration `json:"execution_time"`
}
