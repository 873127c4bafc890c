package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iklein99/swing-trading-agent-sub001/internal/contracts"
)

func TestMemory_PortfolioLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.GetPortfolio(ctx, "default")
	assert.ErrorIs(t, err, contracts.ErrNotFound)

	p := &contracts.Portfolio{ID: "default", TotalValue: 100000, CashBalance: 100000}
	require.NoError(t, m.CreatePortfolio(ctx, p))
	assert.Error(t, m.CreatePortfolio(ctx, p))

	p.CashBalance = 90000
	require.NoError(t, m.UpdatePortfolio(ctx, p))

	got, err := m.GetPortfolio(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, 90000.0, got.CashBalance)

	assert.ErrorIs(t, m.UpdatePortfolio(ctx, &contracts.Portfolio{ID: "other"}), contracts.ErrNotFound)
}

func TestMemory_ReadsAreCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.CreatePortfolio(ctx, &contracts.Portfolio{
		ID:          "default",
		CashBalance: 100000,
		Positions: []*contracts.Position{
			{ID: "pos-1", Symbol: "AAPL", Quantity: 10},
		},
	}))

	got, err := m.GetPortfolio(ctx, "default")
	require.NoError(t, err)
	got.CashBalance = 0
	got.Positions[0].Quantity = 999

	fresh, err := m.GetPortfolio(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, 100000.0, fresh.CashBalance)
	assert.Equal(t, 10, fresh.Positions[0].Quantity)
}

func TestMemory_PositionsAndOpenFilter(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	open := &contracts.Position{PortfolioID: "default", Symbol: "MSFT", Quantity: 5}
	closed := &contracts.Position{PortfolioID: "default", Symbol: "AAPL", Quantity: 0}
	other := &contracts.Position{PortfolioID: "other", Symbol: "NVDA", Quantity: 3}
	openB := &contracts.Position{PortfolioID: "default", Symbol: "GOOG", Quantity: 2}

	for _, pos := range []*contracts.Position{open, closed, other, openB} {
		require.NoError(t, m.CreatePosition(ctx, pos))
		assert.NotEmpty(t, pos.ID)
	}

	got, err := m.GetOpenPositions(ctx, "default")
	require.NoError(t, err)
	require.Len(t, got, 2)
	// Ordered by symbol.
	assert.Equal(t, "GOOG", got[0].Symbol)
	assert.Equal(t, "MSFT", got[1].Symbol)

	// Closing a position removes it from the open set.
	open.Quantity = 0
	require.NoError(t, m.UpdatePosition(ctx, open))
	got, err = m.GetOpenPositions(ctx, "default")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "GOOG", got[0].Symbol)

	assert.ErrorIs(t, m.UpdatePosition(ctx, &contracts.Position{ID: "missing"}), contracts.ErrNotFound)
}

func TestMemory_TradesAppendOnly(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	for i, symbol := range []string{"AAPL", "MSFT"} {
		require.NoError(t, m.CreateTrade(ctx, &contracts.Trade{
			PortfolioID: "default",
			Symbol:      symbol,
			Action:      contracts.ActionBuy,
			Quantity:    i + 1,
			Status:      contracts.TradeStatusExecuted,
		}))
	}
	require.NoError(t, m.CreateTrade(ctx, &contracts.Trade{PortfolioID: "other", Symbol: "NVDA"}))

	trades, err := m.ListTrades(ctx, "default")
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "AAPL", trades[0].Symbol)
	assert.Equal(t, "MSFT", trades[1].Symbol)
	assert.NotEqual(t, trades[0].ID, trades[1].ID)
}

func TestMemory_Snapshots(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.GetLatestSnapshot(ctx, "default")
	assert.ErrorIs(t, err, contracts.ErrNotFound)

	now := time.Now()
	for _, offset := range []time.Duration{-48 * time.Hour, -2 * time.Hour, -1 * time.Hour} {
		require.NoError(t, m.SaveSnapshot(ctx, &contracts.PortfolioSnapshot{
			PortfolioID: "default",
			TotalValue:  100000,
			CreatedAt:   now.Add(offset),
		}))
	}

	latest, err := m.GetLatestSnapshot(ctx, "default")
	require.NoError(t, err)
	assert.WithinDuration(t, now.Add(-time.Hour), latest.CreatedAt, time.Second)

	recent, err := m.ListSnapshots(ctx, "default", now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.True(t, recent[0].CreatedAt.Before(recent[1].CreatedAt))
}
