package exit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iklein99/swing-trading-agent-sub001/internal/contracts"
	"github.com/iklein99/swing-trading-agent-sub001/pkg/logger"
)

func newTestMonitor() *Monitor {
	return NewMonitor(logger.Nop())
}

func position(symbol string, qty int, entry, current, stop float64, targets []contracts.ProfitTarget) *contracts.Position {
	return &contracts.Position{
		Symbol:          symbol,
		Quantity:        qty,
		InitialQuantity: qty,
		EntryPrice:      entry,
		CurrentPrice:    current,
		StopLoss:        stop,
		ProfitTargets:   targets,
		Sector:          "technology",
	}
}

func TestCheckExitCriteria_NoTriggers(t *testing.T) {
	m := newTestMonitor()

	pos := position("AAPL", 100, 150, 155, 140, []contracts.ProfitTarget{
		{Price: 165, ExitPercent: 50},
	})

	signals := m.CheckExitCriteria([]*contracts.Position{pos})
	assert.Empty(t, signals)
}

func TestCheckExitCriteria_StopLoss(t *testing.T) {
	m := newTestMonitor()

	pos := position("AAPL", 100, 150, 139.50, 140, []contracts.ProfitTarget{
		{Price: 165, ExitPercent: 50},
	})

	signals := m.CheckExitCriteria([]*contracts.Position{pos})
	require.Len(t, signals, 1)

	sig := signals[0]
	assert.Equal(t, "AAPL", sig.Symbol)
	assert.Equal(t, contracts.ActionSell, sig.Action)
	assert.Equal(t, 100, sig.RecommendedSize)
	assert.Equal(t, ReasonStopLoss, sig.Reasoning)
}

func TestCheckExitCriteria_StopLossExactTouch(t *testing.T) {
	m := newTestMonitor()

	pos := position("AAPL", 100, 150, 140, 140, nil)

	signals := m.CheckExitCriteria([]*contracts.Position{pos})
	require.Len(t, signals, 1)
	assert.Equal(t, ReasonStopLoss, signals[0].Reasoning)
}

func TestCheckExitCriteria_StopLossBeatsProfitTarget(t *testing.T) {
	m := newTestMonitor()

	// Degenerate setup where both rules match: stop-loss wins.
	pos := position("AAPL", 100, 150, 140, 145, []contracts.ProfitTarget{
		{Price: 130, ExitPercent: 50},
	})

	signals := m.CheckExitCriteria([]*contracts.Position{pos})
	require.Len(t, signals, 1)
	assert.Equal(t, ReasonStopLoss, signals[0].Reasoning)
	assert.Equal(t, 100, signals[0].RecommendedSize)
}

func TestCheckExitCriteria_FirstProfitTarget(t *testing.T) {
	m := newTestMonitor()

	pos := position("AAPL", 100, 150, 166, 140, []contracts.ProfitTarget{
		{Price: 165, ExitPercent: 50},
		{Price: 180, ExitPercent: 50},
	})

	signals := m.CheckExitCriteria([]*contracts.Position{pos})
	require.Len(t, signals, 1)

	sig := signals[0]
	assert.Equal(t, ReasonProfitTarget, sig.Reasoning)
	assert.Equal(t, 50, sig.RecommendedSize)
}

func TestCheckExitCriteria_PartialUsesInitialQuantity(t *testing.T) {
	m := newTestMonitor()

	// First target already hit and half the position sold: the second
	// partial is still sized off the initial quantity.
	pos := position("AAPL", 60, 150, 181, 140, []contracts.ProfitTarget{
		{Price: 165, ExitPercent: 40},
		{Price: 180, ExitPercent: 30},
		{Price: 200, ExitPercent: 30},
	})
	pos.InitialQuantity = 100
	pos.TargetsHit = 1

	signals := m.CheckExitCriteria([]*contracts.Position{pos})
	require.Len(t, signals, 1)
	assert.Equal(t, 30, signals[0].RecommendedSize)
}

func TestCheckExitCriteria_FinalTargetSellsRemainder(t *testing.T) {
	m := newTestMonitor()

	// Rounding left 37 shares after earlier partials: the last target
	// flushes the remainder rather than a computed fraction.
	pos := position("AAPL", 37, 150, 201, 140, []contracts.ProfitTarget{
		{Price: 165, ExitPercent: 40},
		{Price: 180, ExitPercent: 30},
		{Price: 200, ExitPercent: 30},
	})
	pos.InitialQuantity = 100
	pos.TargetsHit = 2

	signals := m.CheckExitCriteria([]*contracts.Position{pos})
	require.Len(t, signals, 1)
	assert.Equal(t, 37, signals[0].RecommendedSize)
	assert.Equal(t, ReasonProfitTarget, signals[0].Reasoning)
}

func TestCheckExitCriteria_AlreadyHitTargetDoesNotRefire(t *testing.T) {
	m := newTestMonitor()

	pos := position("AAPL", 50, 150, 166, 140, []contracts.ProfitTarget{
		{Price: 165, ExitPercent: 50},
		{Price: 180, ExitPercent: 50},
	})
	pos.InitialQuantity = 100
	pos.TargetsHit = 1

	signals := m.CheckExitCriteria([]*contracts.Position{pos})
	assert.Empty(t, signals)
}

func TestCheckExitCriteria_UnsortedTargets(t *testing.T) {
	m := newTestMonitor()

	pos := position("AAPL", 100, 150, 166, 140, []contracts.ProfitTarget{
		{Price: 180, ExitPercent: 50},
		{Price: 165, ExitPercent: 50},
	})

	signals := m.CheckExitCriteria([]*contracts.Position{pos})
	require.Len(t, signals, 1)
	assert.Equal(t, 50, signals[0].RecommendedSize)
}

func TestCheckExitCriteria_TinyPartialRoundsUpToOneShare(t *testing.T) {
	m := newTestMonitor()

	pos := position("PENNY", 3, 10, 12.5, 8, []contracts.ProfitTarget{
		{Price: 12, ExitPercent: 10},
		{Price: 15, ExitPercent: 90},
	})

	signals := m.CheckExitCriteria([]*contracts.Position{pos})
	require.Len(t, signals, 1)
	assert.Equal(t, 1, signals[0].RecommendedSize)
}

func TestCheckExitCriteria_IndependentPositions(t *testing.T) {
	m := newTestMonitor()

	stopped := position("AAPL", 100, 150, 139, 140, nil)
	holding := position("MSFT", 50, 300, 310, 280, []contracts.ProfitTarget{
		{Price: 330, ExitPercent: 100},
	})
	target := position("NVDA", 20, 500, 551, 450, []contracts.ProfitTarget{
		{Price: 550, ExitPercent: 100},
	})

	signals := m.CheckExitCriteria([]*contracts.Position{stopped, holding, target})
	require.Len(t, signals, 2)
	assert.Equal(t, "AAPL", signals[0].Symbol)
	assert.Equal(t, ReasonStopLoss, signals[0].Reasoning)
	assert.Equal(t, "NVDA", signals[1].Symbol)
	assert.Equal(t, ReasonProfitTarget, signals[1].Reasoning)
}

func TestCheckExitCriteria_SkipsClosedPositions(t *testing.T) {
	m := newTestMonitor()

	closed := position("AAPL", 0, 150, 100, 140, nil)

	signals := m.CheckExitCriteria([]*contracts.Position{closed})
	assert.Empty(t, signals)
}
