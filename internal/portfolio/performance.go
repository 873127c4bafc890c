package portfolio

import (
	"context"
	"fmt"
	"time"

	"github.com/iklein99/swing-trading-agent-sub001/internal/contracts"
)

// GetPerformanceStats aggregates the executed trade history into win/loss
// statistics. A round trip is an executed sell; its realized PnL decides
// whether it counts as a win or a loss.
func (m *Manager) GetPerformanceStats(ctx context.Context) (*contracts.PerformanceStats, error) {
	m.mu.Lock()
	portfolioID := ""
	if m.portfolio != nil {
		portfolioID = m.portfolio.ID
	}
	m.mu.Unlock()

	if portfolioID == "" {
		return nil, ErrNotInitialized
	}

	trades, err := m.store.ListTrades(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("list trades: %w", err)
	}

	stats := &contracts.PerformanceStats{}
	for _, t := range trades {
		if !t.IsExecuted() {
			continue
		}
		stats.TotalTrades++

		if t.Action != contracts.ActionSell {
			continue
		}
		stats.ClosedTrades++
		stats.TotalRealized += t.RealizedPnL

		if t.RealizedPnL > 0 {
			stats.WinningTrades++
			stats.GrossProfit += t.RealizedPnL
		} else if t.RealizedPnL < 0 {
			stats.LosingTrades++
			stats.GrossLoss += t.RealizedPnL
		}
	}

	if stats.ClosedTrades > 0 {
		stats.WinRate = float64(stats.WinningTrades) / float64(stats.ClosedTrades) * 100
	}
	if stats.WinningTrades > 0 {
		stats.AvgWin = stats.GrossProfit / float64(stats.WinningTrades)
	}
	if stats.LosingTrades > 0 {
		stats.AvgLoss = stats.GrossLoss / float64(stats.LosingTrades)
	}
	if stats.GrossLoss < 0 {
		stats.ProfitFactor = stats.GrossProfit / -stats.GrossLoss
	}

	return stats, nil
}

// GetSnapshotHistory returns the snapshots captured over the last N days,
// oldest first.
func (m *Manager) GetSnapshotHistory(ctx context.Context, days int) ([]*contracts.PortfolioSnapshot, error) {
	m.mu.Lock()
	portfolioID := ""
	if m.portfolio != nil {
		portfolioID = m.portfolio.ID
	}
	m.mu.Unlock()

	if portfolioID == "" {
		return nil, ErrNotInitialized
	}

	since := time.Now().AddDate(0, 0, -days)
	snapshots, err := m.store.ListSnapshots(ctx, portfolioID, since)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return snapshots, nil
}
