package risk

import (
	"fmt"
	"math"

	"github.com/iklein99/swing-trading-agent-sub001/internal/contracts"
)

// Check names reported in RiskValidation.Checks.
const (
	CheckAction        = "action"
	CheckSymbol        = "symbol"
	CheckPositionSize  = "position_size"
	CheckCash          = "available_cash"
	CheckPositionLimit = "position_limit"
	CheckSectorLimit   = "sector_limit"
	CheckTradeRisk     = "trade_risk"
	CheckDailyLoss     = "daily_loss_breaker"
	CheckDrawdown      = "drawdown_breaker"
)

// ReasonInvalidPositionSize is returned for sells with nothing to sell and
// for buys that size down to zero shares.
const ReasonInvalidPositionSize = "Invalid position size"

// Manager validates and sizes proposed trades against portfolio state and
// configured limits. Validation is a pure function of its inputs: no hidden
// state, no I/O.
type Manager struct{}

// NewManager creates a risk manager.
func NewManager() *Manager {
	return &Manager{}
}

// Validate checks a signal against the portfolio and limits, returning the
// approved size or a rejection reason. Sizes are whole shares; fractional
// results always round down.
func (m *Manager) Validate(signal *contracts.TradingSignal, portfolio *contracts.Portfolio, limits contracts.RiskLimits) *contracts.RiskValidation {
	v := &contracts.RiskValidation{RiskLevel: contracts.RiskLevelLow}

	if signal.Symbol == "" {
		v.Reason = "symbol is required"
		v.RiskLevel = contracts.RiskLevelHigh
		v.Checks = append(v.Checks, contracts.RiskCheck{Name: CheckSymbol, Passed: false, Message: v.Reason})
		return v
	}
	v.Checks = append(v.Checks, contracts.RiskCheck{Name: CheckSymbol, Passed: true})

	switch signal.Action {
	case contracts.ActionSell:
		return m.validateSell(signal, portfolio, v)
	case contracts.ActionBuy:
		return m.validateBuy(signal, portfolio, limits, v)
	default:
		v.Reason = fmt.Sprintf("unknown action %q", signal.Action)
		v.RiskLevel = contracts.RiskLevelHigh
		v.Checks = append(v.Checks, contracts.RiskCheck{Name: CheckAction, Passed: false, Message: v.Reason})
		return v
	}
}

// validateSell caps the attempted size at the held quantity. Sells are
// never blocked by circuit breakers: risk reduction must stay available.
func (m *Manager) validateSell(signal *contracts.TradingSignal, portfolio *contracts.Portfolio, v *contracts.RiskValidation) *contracts.RiskValidation {
	pos, ok := portfolio.GetPosition(signal.Symbol)
	if !ok || pos.Quantity <= 0 {
		v.Reason = ReasonInvalidPositionSize
		v.RiskLevel = contracts.RiskLevelHigh
		v.Checks = append(v.Checks, contracts.RiskCheck{
			Name: CheckPositionSize, Passed: false,
			Message: fmt.Sprintf("no open position for %s", signal.Symbol),
		})
		return v
	}

	size := signal.RecommendedSize
	if size > pos.Quantity {
		size = pos.Quantity
	}
	v.Checks = append(v.Checks, contracts.RiskCheck{
		Name: CheckPositionSize, Passed: true,
		Message: fmt.Sprintf("capped at held quantity %d", pos.Quantity),
	})

	v.Approved = true
	v.AdjustedSize = size
	return v
}

// validateBuy applies the circuit breakers, then sizes the trade down
// through the cash, per-trade-risk, position and sector limits.
func (m *Manager) validateBuy(signal *contracts.TradingSignal, portfolio *contracts.Portfolio, limits contracts.RiskLimits, v *contracts.RiskValidation) *contracts.RiskValidation {
	// Circuit breakers block all new buys until reset.
	if breaker := m.checkBreakers(portfolio, limits, v); breaker != "" {
		v.Reason = breaker
		v.RiskLevel = contracts.RiskLevelHigh
		return v
	}

	if signal.EntryPrice <= 0 {
		v.Reason = ReasonInvalidPositionSize
		v.Checks = append(v.Checks, contracts.RiskCheck{Name: CheckPositionSize, Passed: false, Message: "entry price must be positive"})
		return v
	}

	size := signal.RecommendedSize
	boundBy := ""

	// Available cash.
	maxAffordable := int(math.Floor(portfolio.CashBalance / signal.EntryPrice))
	if size > maxAffordable {
		size = maxAffordable
		boundBy = "available cash"
	}
	v.Checks = append(v.Checks, contracts.RiskCheck{
		Name: CheckCash, Passed: maxAffordable > 0,
		Message: fmt.Sprintf("max affordable %d shares", maxAffordable),
	})

	// Per-trade dollar risk, reduced proportionally before the exposure
	// caps are applied.
	if signal.StopLoss > 0 && signal.StopLoss < signal.EntryPrice {
		riskPerShare := signal.EntryPrice - signal.StopLoss
		maxRisk := limits.MaxRiskPerTrade / 100 * portfolio.TotalValue
		maxShares := int(math.Floor(maxRisk / riskPerShare))
		if size > maxShares {
			size = maxShares
			boundBy = "per-trade risk limit"
		}
		v.Checks = append(v.Checks, contracts.RiskCheck{
			Name: CheckTradeRisk, Passed: maxShares > 0,
			Message: fmt.Sprintf("risk %.2f/share against budget %.2f", riskPerShare, maxRisk),
		})
	}

	// Single-position exposure cap, including any existing holding.
	existingValue := 0.0
	if pos, ok := portfolio.GetPosition(signal.Symbol); ok && pos.IsOpen() {
		existingValue = pos.MarketValue()
	}
	maxPositionValue := limits.MaxPositionPercentage / 100 * portfolio.TotalValue
	headroom := maxPositionValue - existingValue
	maxShares := int(math.Floor(headroom / signal.EntryPrice))
	if maxShares < 0 {
		maxShares = 0
	}
	if size > maxShares {
		size = maxShares
		boundBy = fmt.Sprintf("%.0f%% position limit", limits.MaxPositionPercentage)
	}
	v.Checks = append(v.Checks, contracts.RiskCheck{
		Name: CheckPositionLimit, Passed: maxShares > 0,
		Message: fmt.Sprintf("position headroom %.2f", headroom),
	})

	// Sector concentration cap.
	if signal.Sector != "" {
		sectorValue := portfolio.SectorValue(signal.Sector)
		maxSectorValue := limits.MaxSectorConcentration / 100 * portfolio.TotalValue
		sectorHeadroom := maxSectorValue - sectorValue
		maxSectorShares := int(math.Floor(sectorHeadroom / signal.EntryPrice))
		if maxSectorShares < 0 {
			maxSectorShares = 0
		}
		if size > maxSectorShares {
			size = maxSectorShares
			boundBy = fmt.Sprintf("%.0f%% sector limit for %s", limits.MaxSectorConcentration, signal.Sector)
		}
		v.Checks = append(v.Checks, contracts.RiskCheck{
			Name: CheckSectorLimit, Passed: maxSectorShares > 0,
			Message: fmt.Sprintf("sector %s exposure %.2f of %.2f", signal.Sector, sectorValue, maxSectorValue),
		})
	}

	if size <= 0 {
		v.Reason = fmt.Sprintf("%s: size reduced to zero by %s", ReasonInvalidPositionSize, boundBy)
		if boundBy == "" {
			v.Reason = ReasonInvalidPositionSize
		}
		v.RiskLevel = contracts.RiskLevelHigh
		return v
	}

	v.Approved = true
	v.AdjustedSize = size
	v.RiskLevel = m.classify(size, signal, portfolio, limits)
	return v
}

// checkBreakers evaluates the daily-loss and drawdown circuit breakers.
// Returns a rejection reason when tripped, empty string otherwise.
func (m *Manager) checkBreakers(portfolio *contracts.Portfolio, limits contracts.RiskLimits, v *contracts.RiskValidation) string {
	if limits.MaxDailyLossPercentage > 0 {
		threshold := -limits.MaxDailyLossPercentage / 100 * portfolio.TotalValue
		tripped := portfolio.DailyPnL <= threshold
		v.Checks = append(v.Checks, contracts.RiskCheck{
			Name: CheckDailyLoss, Passed: !tripped,
			Message: fmt.Sprintf("daily PnL %.2f against threshold %.2f", portfolio.DailyPnL, threshold),
		})
		if tripped {
			return fmt.Sprintf("daily loss limit reached (%.2f)", portfolio.DailyPnL)
		}
	}

	if limits.MaxDrawdownPercentage > 0 {
		dd := portfolio.Drawdown()
		tripped := dd >= limits.MaxDrawdownPercentage/100
		v.Checks = append(v.Checks, contracts.RiskCheck{
			Name: CheckDrawdown, Passed: !tripped,
			Message: fmt.Sprintf("drawdown %.2f%% against limit %.0f%%", dd*100, limits.MaxDrawdownPercentage),
		})
		if tripped {
			return fmt.Sprintf("max drawdown reached (%.2f%%)", dd*100)
		}
	}

	return ""
}

// classify grades how much of the configured headroom the sized trade
// consumes: above 80% of the position limit is HIGH, above 50% MEDIUM.
func (m *Manager) classify(size int, signal *contracts.TradingSignal, portfolio *contracts.Portfolio, limits contracts.RiskLimits) contracts.RiskLevel {
	if portfolio.TotalValue <= 0 {
		return contracts.RiskLevelHigh
	}
	maxValue := limits.MaxPositionPercentage / 100 * portfolio.TotalValue
	if maxValue <= 0 {
		return contracts.RiskLevelHigh
	}

	used := float64(size) * signal.EntryPrice / maxValue
	switch {
	case used >= 0.8:
		return contracts.RiskLevelHigh
	case used >= 0.5:
		return contracts.RiskLevelMedium
	default:
		return contracts.RiskLevelLow
	}
}
