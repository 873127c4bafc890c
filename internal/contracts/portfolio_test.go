package contracts

import (
	"testing"
	"time"
)

func TestPortfolio_GetPosition(t *testing.T) {
	portfolio := &Portfolio{
		ID: "default",
		Positions: []*Position{
			{Symbol: "AAPL", Quantity: 100, CurrentPrice: 150},
			{Symbol: "MSFT", Quantity: 50, CurrentPrice: 300},
		},
	}

	pos, ok := portfolio.GetPosition("AAPL")
	if !ok {
		t.Fatal("expected to find position for AAPL")
	}
	if pos.Quantity != 100 {
		t.Errorf("Quantity = %d, want 100", pos.Quantity)
	}

	if _, ok := portfolio.GetPosition("TSLA"); ok {
		t.Error("expected not to find position for TSLA")
	}
}

func TestPortfolio_AddPositionKeepsOrder(t *testing.T) {
	portfolio := &Portfolio{}
	for _, sym := range []string{"MSFT", "AAPL", "NVDA"} {
		portfolio.AddPosition(&Position{Symbol: sym, Quantity: 1})
	}

	want := []string{"AAPL", "MSFT", "NVDA"}
	for i, pos := range portfolio.Positions {
		if pos.Symbol != want[i] {
			t.Errorf("Positions[%d] = %s, want %s", i, pos.Symbol, want[i])
		}
	}
}

func TestPortfolio_OpenPositionsSkipsClosed(t *testing.T) {
	portfolio := &Portfolio{
		Positions: []*Position{
			{Symbol: "AAPL", Quantity: 100},
			{Symbol: "MSFT", Quantity: 0}, // closed
		},
	}

	open := portfolio.OpenPositions()
	if len(open) != 1 || open[0].Symbol != "AAPL" {
		t.Errorf("OpenPositions() = %v, want only AAPL", open)
	}
}

func TestPortfolio_InvariantGap(t *testing.T) {
	portfolio := &Portfolio{
		CashBalance: 85_000,
		TotalValue:  100_000,
		Positions: []*Position{
			{Symbol: "AAPL", Quantity: 100, CurrentPrice: 150},
		},
	}

	if gap := portfolio.InvariantGap(); gap > InvariantTolerance {
		t.Errorf("InvariantGap() = %g, want <= %g", gap, InvariantTolerance)
	}

	portfolio.CashBalance -= 10
	if gap := portfolio.InvariantGap(); gap < 9.9 {
		t.Errorf("InvariantGap() = %g, want ~10", gap)
	}
}

func TestPortfolio_Drawdown(t *testing.T) {
	portfolio := &Portfolio{TotalValue: 90_000, PeakValue: 100_000}
	if dd := portfolio.Drawdown(); dd != 0.1 {
		t.Errorf("Drawdown() = %v, want 0.1", dd)
	}

	portfolio.TotalValue = 110_000
	if dd := portfolio.Drawdown(); dd != 0 {
		t.Errorf("Drawdown() above peak = %v, want 0", dd)
	}
}

func TestPortfolio_SectorValue(t *testing.T) {
	portfolio := &Portfolio{
		Positions: []*Position{
			{Symbol: "AAPL", Quantity: 10, CurrentPrice: 100, Sector: "Technology"},
			{Symbol: "MSFT", Quantity: 10, CurrentPrice: 200, Sector: "Technology"},
			{Symbol: "XOM", Quantity: 10, CurrentPrice: 50, Sector: "Energy"},
			{Symbol: "NVDA", Quantity: 0, CurrentPrice: 500, Sector: "Technology"}, // closed
		},
	}

	if v := portfolio.SectorValue("Technology"); v != 3000 {
		t.Errorf("SectorValue(Technology) = %v, want 3000", v)
	}
}

func TestPortfolio_CloneDetachesState(t *testing.T) {
	portfolio := &Portfolio{
		CashBalance: 1000,
		Positions: []*Position{
			{Symbol: "AAPL", Quantity: 10, ProfitTargets: []ProfitTarget{{Price: 160, ExitPercent: 50}}},
		},
		LastUpdated: time.Now(),
	}

	clone := portfolio.Clone()
	clone.CashBalance = 0
	clone.Positions[0].Quantity = 0
	clone.Positions[0].ProfitTargets[0].Price = 1

	if portfolio.CashBalance != 1000 {
		t.Error("clone mutation leaked into original cash balance")
	}
	if portfolio.Positions[0].Quantity != 10 {
		t.Error("clone mutation leaked into original position")
	}
	if portfolio.Positions[0].ProfitTargets[0].Price != 160 {
		t.Error("clone mutation leaked into original profit targets")
	}
}
