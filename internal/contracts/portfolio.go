package contracts

import (
	"math"
	"sort"
	"time"
)

// InvariantTolerance is the floating-point tolerance for the portfolio
// value invariant: TotalValue == CashBalance + sum of position market values.
const InvariantTolerance = 1e-6

// Portfolio is the authoritative account state. Owned exclusively by the
// portfolio manager; mutated only through its operations.
type Portfolio struct {
	ID          string    `json:"id"`
	TotalValue  float64   `json:"total_value"`
	CashBalance float64   `json:"cash_balance"`
	DailyPnL    float64   `json:"daily_pnl"`
	TotalPnL    float64   `json:"total_pnl"`
	// PeakValue is the historical high-water mark of TotalValue, the
	// reference point for the drawdown circuit breaker.
	PeakValue float64 `json:"peak_value"`
	// DayStartValue is TotalValue at the start of the current trading day,
	// the baseline for DailyPnL and the daily-loss circuit breaker.
	DayStartValue float64     `json:"day_start_value"`
	Positions     []*Position `json:"positions"` // ordered by symbol
	LastUpdated   time.Time   `json:"last_updated"`
}

// GetPosition finds a position by symbol, open or closed.
func (p *Portfolio) GetPosition(symbol string) (*Position, bool) {
	for _, pos := range p.Positions {
		if pos.Symbol == symbol {
			return pos, true
		}
	}
	return nil, false
}

// OpenPositions returns positions with remaining quantity.
func (p *Portfolio) OpenPositions() []*Position {
	open := make([]*Position, 0, len(p.Positions))
	for _, pos := range p.Positions {
		if pos.IsOpen() {
			open = append(open, pos)
		}
	}
	return open
}

// AddPosition inserts a position keeping the symbol ordering.
func (p *Portfolio) AddPosition(pos *Position) {
	p.Positions = append(p.Positions, pos)
	sort.Slice(p.Positions, func(i, j int) bool {
		return p.Positions[i].Symbol < p.Positions[j].Symbol
	})
}

// PositionsValue returns the summed market value of open positions.
func (p *Portfolio) PositionsValue() float64 {
	var total float64
	for _, pos := range p.Positions {
		total += pos.MarketValue()
	}
	return total
}

// SectorValue returns the summed market value of open positions in a sector.
func (p *Portfolio) SectorValue(sector string) float64 {
	var total float64
	for _, pos := range p.Positions {
		if pos.IsOpen() && pos.Sector == sector {
			total += pos.MarketValue()
		}
	}
	return total
}

// Drawdown returns the fractional decline of TotalValue from PeakValue.
// Zero when at or above the peak, or when no peak is recorded yet.
func (p *Portfolio) Drawdown() float64 {
	if p.PeakValue <= 0 || p.TotalValue >= p.PeakValue {
		return 0
	}
	return (p.PeakValue - p.TotalValue) / p.PeakValue
}

// InvariantGap returns the absolute difference between TotalValue and
// CashBalance + positions value. Must stay within InvariantTolerance.
func (p *Portfolio) InvariantGap() float64 {
	return math.Abs(p.TotalValue - (p.CashBalance + p.PositionsValue()))
}

// Clone returns a deep copy used for rollback bookkeeping.
func (p *Portfolio) Clone() *Portfolio {
	cp := *p
	cp.Positions = make([]*Position, len(p.Positions))
	for i, pos := range p.Positions {
		cp.Positions[i] = pos.Clone()
	}
	return &cp
}
