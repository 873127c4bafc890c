package exit

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/iklein99/swing-trading-agent-sub001/internal/contracts"
	"github.com/iklein99/swing-trading-agent-sub001/pkg/logger"
)

// Reasoning tags carried by synthetic sell signals.
const (
	ReasonStopLoss     = "stop_loss"
	ReasonProfitTarget = "profit_target"
)

// Monitor evaluates open positions against their stop-loss and
// profit-target rules and emits synthetic sell signals. It holds no state
// of its own: ordering and execution of the emitted signals belong to the
// orchestrator.
type Monitor struct {
	logger *logger.Logger
}

// NewMonitor creates an exit criteria monitor.
func NewMonitor(log *logger.Logger) *Monitor {
	return &Monitor{logger: log.Component("exit_monitor")}
}

// CheckExitCriteria scans the given positions and returns sell signals for
// every triggered exit condition. Stop-loss takes precedence: a position
// that meets both conditions emits only the stop-loss signal. Positions
// trigger independently; at most one signal per position per check.
func (m *Monitor) CheckExitCriteria(positions []*contracts.Position) []*contracts.TradingSignal {
	signals := make([]*contracts.TradingSignal, 0)

	for _, pos := range positions {
		if !pos.IsOpen() {
			continue
		}

		if signal := m.checkPosition(pos); signal != nil {
			m.logger.WithFields(map[string]interface{}{
				"symbol":    signal.Symbol,
				"reasoning": signal.Reasoning,
				"quantity":  signal.RecommendedSize,
				"price":     pos.CurrentPrice,
			}).Info("Exit signal generated")
			signals = append(signals, signal)
		}
	}

	return signals
}

// checkPosition evaluates one position: stop-loss first, then the first
// unmet profit target in ascending price order.
func (m *Monitor) checkPosition(pos *contracts.Position) *contracts.TradingSignal {
	if pos.StopLoss > 0 && pos.CurrentPrice <= pos.StopLoss {
		return m.stopLossSignal(pos)
	}

	targets := ascendingTargets(pos.ProfitTargets)
	if idx := pos.TargetsHit; idx < len(targets) && pos.CurrentPrice >= targets[idx].Price {
		return m.profitTargetSignal(pos, targets, idx)
	}

	return nil
}

// stopLossSignal sells the full remaining quantity.
func (m *Monitor) stopLossSignal(pos *contracts.Position) *contracts.TradingSignal {
	return &contracts.TradingSignal{
		ID:              fmt.Sprintf("exit_%s_%d", pos.Symbol, time.Now().UnixNano()),
		Symbol:          pos.Symbol,
		Action:          contracts.ActionSell,
		Confidence:      1.0,
		RecommendedSize: pos.Quantity,
		EntryPrice:      pos.CurrentPrice,
		Sector:          pos.Sector,
		Reasoning:       ReasonStopLoss,
		Timestamp:       time.Now(),
	}
}

// profitTargetSignal sells the target's configured share of the initial
// quantity, or everything left when the final target is crossed.
func (m *Monitor) profitTargetSignal(pos *contracts.Position, targets []contracts.ProfitTarget, idx int) *contracts.TradingSignal {
	target := targets[idx]

	var qty int
	if idx == len(targets)-1 {
		qty = pos.Quantity
	} else {
		base := pos.InitialQuantity
		if base == 0 {
			base = pos.Quantity
		}
		qty = int(math.Floor(float64(base) * target.ExitPercent / 100))
		if qty < 1 {
			qty = 1
		}
		if qty > pos.Quantity {
			qty = pos.Quantity
		}
	}

	return &contracts.TradingSignal{
		ID:              fmt.Sprintf("exit_%s_%d", pos.Symbol, time.Now().UnixNano()),
		Symbol:          pos.Symbol,
		Action:          contracts.ActionSell,
		Confidence:      1.0,
		RecommendedSize: qty,
		EntryPrice:      pos.CurrentPrice,
		Sector:          pos.Sector,
		Reasoning:       ReasonProfitTarget,
		Timestamp:       time.Now(),
	}
}

// ascendingTargets returns the targets sorted ascending by price without
// mutating the position's slice.
func ascendingTargets(targets []contracts.ProfitTarget) []contracts.ProfitTarget {
	sorted := append([]contracts.ProfitTarget(nil), targets...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Price < sorted[j].Price })
	return sorted
}
