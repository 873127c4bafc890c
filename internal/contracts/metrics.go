package contracts

import "time"

// LargestPosition identifies the biggest open position by market value.
// Zero-valued when the portfolio holds no open positions.
type LargestPosition struct {
	Symbol      string  `json:"symbol"`
	MarketValue float64 `json:"market_value"`
}

// PortfolioMetrics is a derived, side-effect-free view of current portfolio
// state. Recomputed on demand, never independently mutated.
type PortfolioMetrics struct {
	TotalValue      float64            `json:"total_value"`
	CashBalance     float64            `json:"cash_balance"`
	CashPercentage  float64            `json:"cash_percentage"`
	PositionCount   int                `json:"position_count"`
	LargestPosition LargestPosition    `json:"largest_position"`
	SectorExposure  map[string]float64 `json:"sector_exposure"`
	DailyPnL        float64            `json:"daily_pnl"`
	TotalPnL        float64            `json:"total_pnl"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// PerformanceStats aggregates over the full trade history. A "round trip"
// is a closing sell carrying realized PnL.
type PerformanceStats struct {
	TotalTrades   int     `json:"total_trades"`
	ClosedTrades  int     `json:"closed_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	WinRate       float64 `json:"win_rate"`
	GrossProfit   float64 `json:"gross_profit"`
	GrossLoss     float64 `json:"gross_loss"` // negative or zero
	ProfitFactor  float64 `json:"profit_factor"`
	AvgWin        float64 `json:"avg_win"`
	AvgLoss       float64 `json:"avg_loss"`
	TotalRealized float64 `json:"total_realized"`
}
