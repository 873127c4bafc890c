package market

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iklein99/swing-trading-agent-sub001/pkg/config"
	"github.com/iklein99/swing-trading-agent-sub001/pkg/logger"
)

func simConfig(seed int64) config.MarketConfig {
	return config.MarketConfig{
		Seed:          seed,
		DriftPercent:  0.05,
		VolatilityPct: 1.5,
	}
}

func TestSimulatedSource_Deterministic(t *testing.T) {
	ctx := context.Background()
	a := NewSimulatedSource(simConfig(7), logger.Nop())
	b := NewSimulatedSource(simConfig(7), logger.Nop())

	symbols := []string{"AAPL", "MSFT"}
	for i := 0; i < 10; i++ {
		qa, err := a.GetQuotes(ctx, symbols)
		require.NoError(t, err)
		qb, err := b.GetQuotes(ctx, symbols)
		require.NoError(t, err)

		for _, s := range symbols {
			assert.Equal(t, qa[s].Price, qb[s].Price)
		}
	}
}

func TestSimulatedSource_PrimeSetsStartingPoint(t *testing.T) {
	s := NewSimulatedSource(simConfig(7), logger.Nop())
	s.Prime("AAPL", 150)

	quotes, err := s.GetQuotes(context.Background(), []string{"AAPL"})
	require.NoError(t, err)

	// One 1.5%-vol step off the primed price stays in a narrow band.
	assert.InDelta(t, 150, quotes["AAPL"].Price, 150*0.10)
}

func TestSimulatedSource_PricesStayPositive(t *testing.T) {
	cfg := simConfig(7)
	cfg.DriftPercent = -50
	cfg.VolatilityPct = 80
	s := NewSimulatedSource(cfg, logger.Nop())

	ctx := context.Background()
	for i := 0; i < 200; i++ {
		quotes, err := s.GetQuotes(ctx, []string{"PENNY"})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, quotes["PENNY"].Price, 0.01)
	}
}

func TestSimulatedSource_ContextCancelled(t *testing.T) {
	s := NewSimulatedSource(simConfig(7), logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.GetQuotes(ctx, []string{"AAPL"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSimulatedSource_PerSymbolStartingPrices(t *testing.T) {
	s := NewSimulatedSource(simConfig(7), logger.Nop())

	quotes, err := s.GetQuotes(context.Background(), []string{"AAPL", "MSFT", "NVDA"})
	require.NoError(t, err)
	assert.NotEqual(t, quotes["AAPL"].Price, quotes["MSFT"].Price)
	assert.NotEqual(t, quotes["MSFT"].Price, quotes["NVDA"].Price)
}
