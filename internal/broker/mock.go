package broker

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/iklein99/swing-trading-agent-sub001/internal/contracts"
	"github.com/iklein99/swing-trading-agent-sub001/pkg/config"
	"github.com/iklein99/swing-trading-agent-sub001/pkg/logger"
)

// RejectionMessage is the fixed broker-style error carried by simulated
// failures. Callers match on this string.
const RejectionMessage = "Mock broker rejected order"

// MockBroker simulates order execution: processing latency, unfavorable
// slippage, a flat fee per fill, and random rejections. Submission is paced
// by a rate limiter the way a real broker API throttles its clients.
type MockBroker struct {
	cfg     config.BrokerConfig
	limiter *rate.Limiter
	logger  *logger.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

var _ Broker = (*MockBroker)(nil)

// NewMockBroker creates a mock broker from config. Seed 0 means
// time-seeded; tests pass a fixed seed for reproducible failures.
func NewMockBroker(cfg config.BrokerConfig, seed int64, log *logger.Logger) *MockBroker {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	ordersPerSecond := rate.Limit(cfg.OrdersPerSecond)
	if ordersPerSecond <= 0 {
		ordersPerSecond = rate.Inf
	}
	return &MockBroker{
		cfg:     cfg,
		limiter: rate.NewLimiter(ordersPerSecond, 1),
		logger:  log.Component("mock_broker"),
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// Execute simulates one order. The latency wait suspends on a timer so
// other in-flight work keeps running; a cancelled context aborts the wait.
func (b *MockBroker) Execute(ctx context.Context, order Order) (*ExecutionResult, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	latency := b.latency()
	if latency > 0 {
		timer := time.NewTimer(latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if b.roll() < b.cfg.FailureRate {
		b.logger.WithFields(map[string]interface{}{
			"symbol":   order.Symbol,
			"action":   order.Action,
			"quantity": order.Quantity,
		}).Warn("Order rejected")
		return &ExecutionResult{
			Latency:      latency,
			Failed:       true,
			ErrorMessage: RejectionMessage,
		}, nil
	}

	result := &ExecutionResult{
		FillPrice: b.fillPrice(order),
		Fee:       b.cfg.FeePerTrade,
		Latency:   latency,
	}

	b.logger.WithFields(map[string]interface{}{
		"symbol":     order.Symbol,
		"action":     order.Action,
		"quantity":   order.Quantity,
		"requested":  order.Price,
		"fill_price": result.FillPrice,
		"fee":        result.Fee,
		"latency_ms": latency.Milliseconds(),
	}).Debug("Order filled")

	return result, nil
}

// fillPrice applies slippage in the direction unfavorable to the trader:
// buys fill higher, sells fill lower.
func (b *MockBroker) fillPrice(order Order) float64 {
	slip := b.cfg.SlippagePercent / 100
	if order.Action == contracts.ActionSell {
		return order.Price * (1 - slip)
	}
	return order.Price * (1 + slip)
}

// latency returns the configured delay with bounded jitter (±25%).
func (b *MockBroker) latency() time.Duration {
	base := time.Duration(b.cfg.LatencyMs) * time.Millisecond
	if base <= 0 {
		return 0
	}
	jitter := 0.75 + b.roll()*0.5
	return time.Duration(float64(base) * jitter)
}

func (b *MockBroker) roll() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rng.Float64()
}
