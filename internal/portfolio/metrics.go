package portfolio

import (
	"context"
	"fmt"
	"time"

	"github.com/iklein99/swing-trading-agent-sub001/internal/contracts"
)

// UpdatePortfolioMetrics recomputes every derived field from current prices
// and persists the portfolio. The computation is idempotent: calling it
// twice without a price change yields identical state and metrics.
func (m *Manager) UpdatePortfolioMetrics(ctx context.Context) (*contracts.PortfolioMetrics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.portfolio == nil {
		return nil, ErrNotInitialized
	}

	for _, pos := range m.portfolio.OpenPositions() {
		pos.UnrealizedPnL = (pos.CurrentPrice - pos.EntryPrice) * float64(pos.Quantity)
	}
	m.refreshTotals()

	if err := m.store.UpdatePortfolio(ctx, m.portfolio); err != nil {
		return nil, fmt.Errorf("update portfolio: %w", err)
	}

	return m.buildMetrics(), nil
}

// GetMetrics returns the derived metrics view without touching the store.
func (m *Manager) GetMetrics() (*contracts.PortfolioMetrics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.portfolio == nil {
		return nil, ErrNotInitialized
	}
	return m.buildMetrics(), nil
}

// buildMetrics derives the metrics view from portfolio state. Caller holds
// the mutex.
func (m *Manager) buildMetrics() *contracts.PortfolioMetrics {
	p := m.portfolio

	metrics := &contracts.PortfolioMetrics{
		TotalValue:     p.TotalValue,
		CashBalance:    p.CashBalance,
		SectorExposure: make(map[string]float64),
		DailyPnL:       p.DailyPnL,
		TotalPnL:       p.TotalPnL,
		UpdatedAt:      time.Now(),
	}
	if p.TotalValue > 0 {
		metrics.CashPercentage = p.CashBalance / p.TotalValue * 100
	}

	for _, pos := range p.OpenPositions() {
		metrics.PositionCount++

		value := pos.MarketValue()
		if value > metrics.LargestPosition.MarketValue {
			metrics.LargestPosition = contracts.LargestPosition{
				Symbol:      pos.Symbol,
				MarketValue: value,
			}
		}

		sector := pos.Sector
		if sector == "" {
			sector = "unknown"
		}
		if p.TotalValue > 0 {
			metrics.SectorExposure[sector] += value / p.TotalValue * 100
		}
	}

	return metrics
}
