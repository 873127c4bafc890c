package broker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iklein99/swing-trading-agent-sub001/internal/contracts"
	"github.com/iklein99/swing-trading-agent-sub001/pkg/config"
	"github.com/iklein99/swing-trading-agent-sub001/pkg/logger"
)

func newTestBroker(cfg config.BrokerConfig) *MockBroker {
	return NewMockBroker(cfg, 42, logger.Nop())
}

func TestExecute_AlwaysFailsAtFullFailureRate(t *testing.T) {
	b := newTestBroker(config.BrokerConfig{FailureRate: 1.0})

	for i := 0; i < 10; i++ {
		result, err := b.Execute(context.Background(), Order{
			Symbol: "AAPL", Action: contracts.ActionBuy, Quantity: 10, Price: 150,
		})
		require.NoError(t, err)
		assert.True(t, result.Failed)
		assert.Equal(t, RejectionMessage, result.ErrorMessage)
	}
}

func TestExecute_NeverFailsAtZeroFailureRate(t *testing.T) {
	b := newTestBroker(config.BrokerConfig{FeePerTrade: 1.5})

	result, err := b.Execute(context.Background(), Order{
		Symbol: "AAPL", Action: contracts.ActionBuy, Quantity: 10, Price: 150,
	})
	require.NoError(t, err)
	assert.False(t, result.Failed)
	assert.Equal(t, 1.5, result.Fee)
}

func TestExecute_UnlimitedPacingWhenUnconfigured(t *testing.T) {
	// Zero orders/sec means no throttle, not a stalled limiter.
	b := newTestBroker(config.BrokerConfig{})

	start := time.Now()
	for i := 0; i < 20; i++ {
		_, err := b.Execute(context.Background(), Order{
			Symbol: "AAPL", Action: contracts.ActionBuy, Quantity: 1, Price: 150,
		})
		require.NoError(t, err)
	}
	assert.Less(t, time.Since(start), time.Second)
}

func TestExecute_SlippageIsUnfavorable(t *testing.T) {
	b := newTestBroker(config.BrokerConfig{SlippagePercent: 1.0})

	buy, err := b.Execute(context.Background(), Order{
		Symbol: "AAPL", Action: contracts.ActionBuy, Quantity: 10, Price: 100,
	})
	require.NoError(t, err)
	assert.InDelta(t, 101.0, buy.FillPrice, 1e-9, "buys fill higher")

	sell, err := b.Execute(context.Background(), Order{
		Symbol: "AAPL", Action: contracts.ActionSell, Quantity: 10, Price: 100,
	})
	require.NoError(t, err)
	assert.InDelta(t, 99.0, sell.FillPrice, 1e-9, "sells fill lower")
}

func TestExecute_RespectsContextDuringLatency(t *testing.T) {
	b := newTestBroker(config.BrokerConfig{LatencyMs: 5_000})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := b.Execute(ctx, Order{Symbol: "AAPL", Action: contracts.ActionBuy, Quantity: 1, Price: 100})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second, "latency wait must abort on cancellation")
}

func TestExecute_LatencyWithinJitterBounds(t *testing.T) {
	b := newTestBroker(config.BrokerConfig{LatencyMs: 40})

	result, err := b.Execute(context.Background(), Order{
		Symbol: "AAPL", Action: contracts.ActionBuy, Quantity: 1, Price: 100,
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.Latency, 30*time.Millisecond)
	assert.LessOrEqual(t, result.Latency, 50*time.Millisecond)
}
