package portfolio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/iklein99/swing-trading-agent-sub001/internal/broker"
	"github.com/iklein99/swing-trading-agent-sub001/internal/contracts"
	"github.com/iklein99/swing-trading-agent-sub001/internal/exit"
	"github.com/iklein99/swing-trading-agent-sub001/pkg/logger"
)

// DefaultPortfolioID identifies the single portfolio this process manages.
const DefaultPortfolioID = "default"

// ErrNotInitialized is returned when an operation runs before Initialize.
var ErrNotInitialized = errors.New("portfolio manager not initialized")

// RiskValidator approves, resizes, or rejects a trade order before it
// reaches the broker.
type RiskValidator interface {
	Validate(signal *contracts.TradingSignal, portfolio *contracts.Portfolio, limits contracts.RiskLimits) *contracts.RiskValidation
}

// Manager owns the portfolio state: cash, positions, and the trade audit
// trail. All mutations go through ExecuteTradeOrder under a single mutex,
// so concurrent callers serialize and the cash/position invariant holds at
// every exit point.
type Manager struct {
	mu          sync.Mutex
	store       contracts.Store
	risk        RiskValidator
	broker      broker.Broker
	limits      contracts.RiskLimits
	initialCash float64
	logger      *logger.Logger

	portfolio *contracts.Portfolio
}

// NewManager wires the portfolio manager. Call Initialize before use.
func NewManager(store contracts.Store, risk RiskValidator, brk broker.Broker, limits contracts.RiskLimits, initialCash float64, log *logger.Logger) *Manager {
	return &Manager{
		store:       store,
		risk:        risk,
		broker:      brk,
		limits:      limits,
		initialCash: initialCash,
		logger:      log.Component("portfolio_manager"),
	}
}

// Initialize loads the portfolio from the store, creating it with the
// configured starting cash on first run, and hydrates its open positions.
func (m *Manager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.store.GetPortfolio(ctx, DefaultPortfolioID)
	if errors.Is(err, contracts.ErrNotFound) {
		p = &contracts.Portfolio{
			ID:            DefaultPortfolioID,
			TotalValue:    m.initialCash,
			CashBalance:   m.initialCash,
			PeakValue:     m.initialCash,
			DayStartValue: m.initialCash,
			LastUpdated:   time.Now(),
		}
		if err := m.store.CreatePortfolio(ctx, p); err != nil {
			return fmt.Errorf("create portfolio: %w", err)
		}
		m.logger.WithField("initial_cash", m.initialCash).Info("Portfolio created")
	} else if err != nil {
		return fmt.Errorf("load portfolio: %w", err)
	}

	positions, err := m.store.GetOpenPositions(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("load open positions: %w", err)
	}
	p.Positions = positions

	m.portfolio = p
	m.refreshTotals()

	m.logger.WithFields(map[string]interface{}{
		"portfolio_id": p.ID,
		"total_value":  p.TotalValue,
		"cash":         p.CashBalance,
		"positions":    len(p.OpenPositions()),
	}).Info("Portfolio manager initialized")

	return nil
}

// GetPortfolio returns a deep copy of the current portfolio state.
func (m *Manager) GetPortfolio() (*contracts.Portfolio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.portfolio == nil {
		return nil, ErrNotInitialized
	}
	return m.portfolio.Clone(), nil
}

// GetOpenPositions returns deep copies of the open positions.
func (m *Manager) GetOpenPositions() ([]*contracts.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.portfolio == nil {
		return nil, ErrNotInitialized
	}

	open := m.portfolio.OpenPositions()
	out := make([]*contracts.Position, 0, len(open))
	for _, pos := range open {
		out = append(out, pos.Clone())
	}
	return out, nil
}

// GetCurrentPositions returns deep copies of every position touched this
// session, closed ones included.
func (m *Manager) GetCurrentPositions() ([]*contracts.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.portfolio == nil {
		return nil, ErrNotInitialized
	}

	out := make([]*contracts.Position, 0, len(m.portfolio.Positions))
	for _, pos := range m.portfolio.Positions {
		out = append(out, pos.Clone())
	}
	return out, nil
}

// GetPositionBySymbol returns a deep copy of the open position for symbol,
// or contracts.ErrNotFound when none is held.
func (m *Manager) GetPositionBySymbol(symbol string) (*contracts.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.portfolio == nil {
		return nil, ErrNotInitialized
	}

	pos, ok := m.portfolio.GetPosition(symbol)
	if !ok {
		return nil, contracts.ErrNotFound
	}
	return pos.Clone(), nil
}

// ExecuteTradeOrder runs the full order pipeline for one signal: shape
// validation, risk validation, broker execution, state mutation, and
// persistence. A rejected or broker-failed order returns a non-success
// TradeResult with a nil error; errors are reserved for infrastructure
// failures (context cancellation, store writes). On a persistence failure
// the in-memory state rolls back to the pre-trade snapshot.
func (m *Manager) ExecuteTradeOrder(ctx context.Context, signal *contracts.TradingSignal) (*contracts.TradeResult, error) {
	start := time.Now()

	if err := signal.ValidateShape(); err != nil {
		return &contracts.TradeResult{
			Success:       false,
			Error:         err.Error(),
			ExecutionTime: time.Since(start),
		}, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.portfolio == nil {
		return nil, ErrNotInitialized
	}

	// 1. Risk validation (may shrink the order).
	validation := m.risk.Validate(signal, m.portfolio, m.limits)
	if !validation.Approved {
		m.logger.WithFields(map[string]interface{}{
			"symbol": signal.Symbol,
			"action": signal.Action,
			"reason": validation.Reason,
		}).Warn("Trade rejected by risk validation")
		return &contracts.TradeResult{
			Success:       false,
			Error:         validation.Reason,
			ExecutionTime: time.Since(start),
		}, nil
	}
	qty := validation.AdjustedSize

	// 2. Broker execution.
	result, err := m.broker.Execute(ctx, broker.Order{
		Symbol:   signal.Symbol,
		Action:   signal.Action,
		Quantity: qty,
		Price:    signal.EntryPrice,
	})
	if err != nil {
		return nil, fmt.Errorf("broker execution: %w", err)
	}

	if result.Failed {
		trade := m.recordFailedTrade(ctx, signal, qty)
		m.logger.WithFields(map[string]interface{}{
			"symbol": signal.Symbol,
			"action": signal.Action,
			"error":  result.ErrorMessage,
		}).Warn("Broker rejected order")
		return &contracts.TradeResult{
			Success:       false,
			Trade:         trade,
			Error:         result.ErrorMessage,
			ExecutionTime: time.Since(start),
		}, nil
	}

	// 3. Apply the fill against a snapshot so persistence failures can
	// restore the pre-trade state.
	backup := m.portfolio.Clone()

	var realized float64
	var newPosition bool
	var pos *contracts.Position
	if signal.Action == contracts.ActionBuy {
		pos, newPosition = m.applyBuy(signal, qty, result)
	} else {
		pos, realized = m.applySell(signal, qty, result)
	}
	m.refreshTotals()

	// 4. Persist position, portfolio, and the trade record. A failure on
	// any write restores the pre-trade state; an executed trade is never
	// reported as a success without its durable record.
	if err := m.persistFill(ctx, pos, newPosition); err != nil {
		m.portfolio = backup
		return nil, fmt.Errorf("persist trade: %w", err)
	}
	trade := m.newTrade(signal, qty, result.FillPrice, result.Fee, realized, contracts.TradeStatusExecuted)
	if err := m.store.CreateTrade(ctx, trade); err != nil {
		m.portfolio = backup
		return nil, fmt.Errorf("record trade: %w", err)
	}

	m.logger.WithFields(map[string]interface{}{
		"symbol":     signal.Symbol,
		"action":     signal.Action,
		"quantity":   qty,
		"fill_price": result.FillPrice,
		"fee":        result.Fee,
		"cash":       m.portfolio.CashBalance,
	}).Info("Trade executed")

	return &contracts.TradeResult{
		Success:       true,
		Trade:         trade,
		ExecutionTime: time.Since(start),
	}, nil
}

// applyBuy opens a new position or averages into an existing open one. A
// symbol whose position closed earlier in the session starts a fresh lot;
// the closed lot's sizing and PnL never bleed into the new one. Fees
// reduce cash but never inflate the entry price.
func (m *Manager) applyBuy(signal *contracts.TradingSignal, qty int, result *broker.ExecutionResult) (*contracts.Position, bool) {
	now := time.Now()
	cost := float64(qty)*result.FillPrice + result.Fee
	m.portfolio.CashBalance -= cost

	pos, ok := m.portfolio.GetPosition(signal.Symbol)
	if ok && pos.IsOpen() {
		// Weighted-average entry across the old and new lots.
		totalQty := pos.Quantity + qty
		pos.EntryPrice = (pos.EntryPrice*float64(pos.Quantity) + result.FillPrice*float64(qty)) / float64(totalQty)
		pos.Quantity = totalQty
		pos.InitialQuantity += qty
		pos.CurrentPrice = result.FillPrice
		if signal.StopLoss > 0 {
			pos.StopLoss = signal.StopLoss
		}
		if len(signal.ProfitTargets) > 0 {
			pos.ProfitTargets = signal.ProfitTargets
			pos.TargetsHit = 0
		}
		pos.LastUpdated = now
		return pos, false
	}

	if !ok {
		pos = &contracts.Position{
			PortfolioID: m.portfolio.ID,
			Symbol:      signal.Symbol,
		}
		m.portfolio.AddPosition(pos)
	}

	// Fresh lot: a brand-new symbol, or a re-opened one. Either way the
	// lot-scoped fields start over.
	pos.Quantity = qty
	pos.InitialQuantity = qty
	pos.EntryPrice = result.FillPrice
	pos.CurrentPrice = result.FillPrice
	pos.EntryDate = now
	pos.StopLoss = signal.StopLoss
	pos.ProfitTargets = signal.ProfitTargets
	pos.TargetsHit = 0
	pos.UnrealizedPnL = 0
	pos.RealizedPnL = 0
	pos.Sector = signal.Sector
	pos.LastUpdated = now
	return pos, !ok
}

// applySell reduces the position and books realized PnL net of the fee.
// Risk validation guarantees the position exists and qty fits the holding.
func (m *Manager) applySell(signal *contracts.TradingSignal, qty int, result *broker.ExecutionResult) (*contracts.Position, float64) {
	pos, _ := m.portfolio.GetPosition(signal.Symbol)

	proceeds := float64(qty)*result.FillPrice - result.Fee
	realized := (result.FillPrice-pos.EntryPrice)*float64(qty) - result.Fee

	m.portfolio.CashBalance += proceeds
	pos.Quantity -= qty
	pos.RealizedPnL += realized
	pos.CurrentPrice = result.FillPrice
	pos.LastUpdated = time.Now()
	if signal.Reasoning == exit.ReasonProfitTarget {
		pos.TargetsHit++
	}
	if !pos.IsOpen() {
		pos.UnrealizedPnL = 0
	}

	return pos, realized
}

// persistFill writes the mutated position and portfolio back to the store.
func (m *Manager) persistFill(ctx context.Context, pos *contracts.Position, newPosition bool) error {
	if newPosition {
		if err := m.store.CreatePosition(ctx, pos); err != nil {
			return fmt.Errorf("create position: %w", err)
		}
	} else {
		if err := m.store.UpdatePosition(ctx, pos); err != nil {
			return fmt.Errorf("update position: %w", err)
		}
	}
	if err := m.store.UpdatePortfolio(ctx, m.portfolio); err != nil {
		return fmt.Errorf("update portfolio: %w", err)
	}
	return nil
}

// newTrade builds a trade record from a signal and its execution terms.
func (m *Manager) newTrade(signal *contracts.TradingSignal, qty int, price, fee, realized float64, status contracts.TradeStatus) *contracts.Trade {
	return &contracts.Trade{
		PortfolioID: m.portfolio.ID,
		Symbol:      signal.Symbol,
		Action:      signal.Action,
		Quantity:    qty,
		Price:       price,
		Fees:        fee,
		Status:      status,
		SignalID:    signal.ID,
		Reasoning:   signal.Reasoning,
		RealizedPnL: realized,
		Timestamp:   time.Now(),
	}
}

// recordFailedTrade appends the audit record for a broker-rejected order.
// Only this trail is best-effort: the order changed no state, so a write
// error is logged rather than masking the rejection. Executed trades are
// persisted inside the rollback scope of ExecuteTradeOrder instead.
func (m *Manager) recordFailedTrade(ctx context.Context, signal *contracts.TradingSignal, qty int) *contracts.Trade {
	trade := m.newTrade(signal, qty, signal.EntryPrice, 0, 0, contracts.TradeStatusFailed)
	if err := m.store.CreateTrade(ctx, trade); err != nil {
		m.logger.WithError(err).WithField("symbol", trade.Symbol).Error("Failed to record trade")
	}
	return trade
}

// CalculatePositionSize sizes a buy from the configured risk budget: the
// quantity whose loss at the stop equals MaxRiskPerTrade percent of
// portfolio value, further capped by the position limit, available cash,
// and the signal's own recommendation. Returns 0 when no affordable size
// exists.
func (m *Manager) CalculatePositionSize(signal *contracts.TradingSignal) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.portfolio == nil {
		return 0, ErrNotInitialized
	}
	if signal.EntryPrice <= 0 {
		return 0, fmt.Errorf("entry price must be positive, got %.2f", signal.EntryPrice)
	}

	// Sells trade what is held, nothing more.
	if signal.Action == contracts.ActionSell {
		pos, ok := m.portfolio.GetPosition(signal.Symbol)
		if !ok {
			return 0, nil
		}
		if signal.RecommendedSize > 0 && signal.RecommendedSize < pos.Quantity {
			return signal.RecommendedSize, nil
		}
		return pos.Quantity, nil
	}

	qty := math.MaxInt32

	if signal.StopLoss > 0 && signal.StopLoss < signal.EntryPrice {
		riskBudget := m.portfolio.TotalValue * m.limits.MaxRiskPerTrade / 100
		perShare := signal.EntryPrice - signal.StopLoss
		if byRisk := int(math.Floor(riskBudget / perShare)); byRisk < qty {
			qty = byRisk
		}
	}

	positionCap := m.portfolio.TotalValue * m.limits.MaxPositionPercentage / 100
	if byCap := int(math.Floor(positionCap / signal.EntryPrice)); byCap < qty {
		qty = byCap
	}

	if byCash := int(math.Floor(m.portfolio.CashBalance / signal.EntryPrice)); byCash < qty {
		qty = byCash
	}

	if signal.RecommendedSize > 0 && signal.RecommendedSize < qty {
		qty = signal.RecommendedSize
	}

	if qty < 0 {
		qty = 0
	}
	return qty, nil
}

// UpdatePositionPrices applies fresh quotes to open positions, recomputes
// unrealized PnL, and persists the result. Symbols without a quote keep
// their last price.
func (m *Manager) UpdatePositionPrices(ctx context.Context, prices map[string]float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.portfolio == nil {
		return ErrNotInitialized
	}

	// Apply every quote in memory first, then persist. A store failure
	// restores the pre-refresh state so the portfolio never sits on a
	// half-applied batch.
	backup := m.portfolio.Clone()

	now := time.Now()
	touched := make([]*contracts.Position, 0, len(prices))
	for _, pos := range m.portfolio.OpenPositions() {
		price, ok := prices[pos.Symbol]
		if !ok || price <= 0 {
			continue
		}
		pos.CurrentPrice = price
		pos.UnrealizedPnL = (price - pos.EntryPrice) * float64(pos.Quantity)
		pos.LastUpdated = now
		touched = append(touched, pos)
	}
	m.refreshTotals()

	for _, pos := range touched {
		if err := m.store.UpdatePosition(ctx, pos); err != nil {
			m.portfolio = backup
			return fmt.Errorf("update position %s: %w", pos.Symbol, err)
		}
	}
	if err := m.store.UpdatePortfolio(ctx, m.portfolio); err != nil {
		m.portfolio = backup
		return fmt.Errorf("update portfolio: %w", err)
	}

	m.logger.WithField("positions_updated", len(touched)).Debug("Position prices refreshed")
	return nil
}

// RollTradingDay resets the daily baseline to the current portfolio value.
// Run at the start of each trading day; the daily-loss breaker measures
// against this baseline.
func (m *Manager) RollTradingDay(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.portfolio == nil {
		return ErrNotInitialized
	}

	m.portfolio.DayStartValue = m.portfolio.TotalValue
	m.portfolio.DailyPnL = 0
	m.portfolio.LastUpdated = time.Now()

	if err := m.store.UpdatePortfolio(ctx, m.portfolio); err != nil {
		return fmt.Errorf("update portfolio: %w", err)
	}

	m.logger.WithField("day_start_value", m.portfolio.DayStartValue).Info("Trading day rolled")
	return nil
}

// TakeSnapshot appends a point-in-time copy of the portfolio for history.
func (m *Manager) TakeSnapshot(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.portfolio == nil {
		return ErrNotInitialized
	}
	if err := m.store.SaveSnapshot(ctx, contracts.SnapshotOf(m.portfolio, time.Now())); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// refreshTotals recomputes the derived portfolio fields from cash and open
// positions. Caller holds the mutex.
func (m *Manager) refreshTotals() {
	p := m.portfolio
	p.TotalValue = p.CashBalance + p.PositionsValue()
	p.DailyPnL = p.TotalValue - p.DayStartValue
	p.TotalPnL = p.TotalValue - m.initialCash
	if p.TotalValue > p.PeakValue {
		p.PeakValue = p.TotalValue
	}
	p.LastUpdated = time.Now()
}
