package contracts

import "time"

// Position is an open or closed holding of one symbol within a portfolio.
// A position closes when Quantity reaches 0; it is never physically deleted
// during a session so realized PnL stays queryable.
type Position struct {
	ID              string         `json:"id"`
	PortfolioID     string         `json:"portfolio_id"`
	Symbol          string         `json:"symbol"`
	Quantity        int            `json:"quantity"`
	InitialQuantity int            `json:"initial_quantity"`
	EntryPrice      float64        `json:"entry_price"` // quantity-weighted average fill price
	CurrentPrice    float64        `json:"current_price"`
	EntryDate       time.Time      `json:"entry_date"`
	StopLoss        float64        `json:"stop_loss"`
	ProfitTargets   []ProfitTarget `json:"profit_targets"`
	TargetsHit      int            `json:"targets_hit"` // profit targets already executed
	UnrealizedPnL   float64        `json:"unrealized_pnl"`
	RealizedPnL     float64        `json:"realized_pnl"`
	Sector          string         `json:"sector"`
	LastUpdated     time.Time      `json:"last_updated"`
}

// IsOpen checks if the position still holds shares.
func (p *Position) IsOpen() bool {
	return p.Quantity > 0
}

// MarketValue returns the current market value of the held shares.
func (p *Position) MarketValue() float64 {
	return float64(p.Quantity) * p.CurrentPrice
}

// CostBasis returns the entry value of the held shares.
func (p *Position) CostBasis() float64 {
	return float64(p.Quantity) * p.EntryPrice
}

// Clone returns a deep copy, detaching the profit-target slice.
func (p *Position) Clone() *Position {
	cp := *p
	cp.ProfitTargets = make([]ProfitTarget, len(p.ProfitTargets))
	copy(cp.ProfitTargets, p.ProfitTargets)
	return &cp
}
