package contracts

import "time"

// PositionSnapshot is the per-position breakdown captured with a portfolio
// snapshot.
type PositionSnapshot struct {
	Symbol        string  `json:"symbol"`
	Quantity      int     `json:"quantity"`
	EntryPrice    float64 `json:"entry_price"`
	CurrentPrice  float64 `json:"current_price"`
	MarketValue   float64 `json:"market_value"`
	UnrealizedPnL float64 `json:"unrealized_pnl"`
	Sector        string  `json:"sector"`
}

// PortfolioSnapshot is a point-in-time copy of portfolio state, written at
// cycle boundaries for historical trend queries. Append-only.
type PortfolioSnapshot struct {
	ID          string             `json:"id"`
	PortfolioID string             `json:"portfolio_id"`
	TotalValue  float64            `json:"total_value"`
	CashBalance float64            `json:"cash_balance"`
	DailyPnL    float64            `json:"daily_pnl"`
	TotalPnL    float64            `json:"total_pnl"`
	Positions   []PositionSnapshot `json:"positions"`
	CreatedAt   time.Time          `json:"created_at"`
}

// SnapshotOf captures the current portfolio state.
func SnapshotOf(p *Portfolio, now time.Time) *PortfolioSnapshot {
	snap := &PortfolioSnapshot{
		PortfolioID: p.ID,
		TotalValue:  p.TotalValue,
		CashBalance: p.CashBalance,
		DailyPnL:    p.DailyPnL,
		TotalPnL:    p.TotalPnL,
		CreatedAt:   now,
	}
	for _, pos := range p.OpenPositions() {
		snap.Positions = append(snap.Positions, PositionSnapshot{
			Symbol:        pos.Symbol,
			Quantity:      pos.Quantity,
			EntryPrice:    pos.EntryPrice,
			CurrentPrice:  pos.CurrentPrice,
			MarketValue:   pos.MarketValue(),
			UnrealizedPnL: pos.UnrealizedPnL,
			Sector:        pos.Sector,
		})
	}
	return snap
}
