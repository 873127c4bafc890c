package broker

import (
	"context"
	"time"

	"github.com/iklein99/swing-trading-agent-sub001/internal/contracts"
)

// Order is one execution request handed to the broker. Price is the
// requested price before slippage.
type Order struct {
	Symbol   string
	Action   contracts.Action
	Quantity int
	Price    float64
}

// ExecutionResult is the broker's answer to one order. The broker never
// mutates portfolio state; the portfolio manager applies the result.
type ExecutionResult struct {
	FillPrice    float64
	Fee          float64
	Latency      time.Duration
	Failed       bool
	ErrorMessage string
}

// Broker is the execution venue interface. MockBroker is the only
// implementation; real brokerage connectivity is out of scope.
type Broker interface {
	Execute(ctx context.Context, order Order) (*ExecutionResult, error)
}
