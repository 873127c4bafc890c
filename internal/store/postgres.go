package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iklein99/swing-trading-agent-sub001/internal/contracts"
)

// Postgres implements the persistence port on pgx. Tables live in the
// trading schema; see migrations/001_trading.sql.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ contracts.Store = (*Postgres)(nil)

// NewPostgres creates a postgres-backed store.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// GetPortfolio retrieves a portfolio and its positions.
func (s *Postgres) GetPortfolio(ctx context.Context, id string) (*contracts.Portfolio, error) {
	query := `
		SELECT id, total_value, cash_balance, daily_pnl, total_pnl,
		       peak_value, day_start_value, last_updated
		FROM trading.portfolios
		WHERE id = $1
	`

	var p contracts.Portfolio
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.TotalValue, &p.CashBalance, &p.DailyPnL, &p.TotalPnL,
		&p.PeakValue, &p.DayStartValue, &p.LastUpdated,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, contracts.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio: %w", err)
	}

	positions, err := s.listPositions(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Positions = positions

	return &p, nil
}

// CreatePortfolio inserts a new portfolio row.
func (s *Postgres) CreatePortfolio(ctx context.Context, p *contracts.Portfolio) error {
	query := `
		INSERT INTO trading.portfolios (
			id, total_value, cash_balance, daily_pnl, total_pnl,
			peak_value, day_start_value, last_updated
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.pool.Exec(ctx, query,
		p.ID, p.TotalValue, p.CashBalance, p.DailyPnL, p.TotalPnL,
		p.PeakValue, p.DayStartValue, p.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("failed to create portfolio: %w", err)
	}
	return nil
}

// UpdatePortfolio updates the portfolio row (positions are written through
// CreatePosition/UpdatePosition).
func (s *Postgres) UpdatePortfolio(ctx context.Context, p *contracts.Portfolio) error {
	query := `
		UPDATE trading.portfolios
		SET total_value = $2, cash_balance = $3, daily_pnl = $4, total_pnl = $5,
		    peak_value = $6, day_start_value = $7, last_updated = $8
		WHERE id = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		p.ID, p.TotalValue, p.CashBalance, p.DailyPnL, p.TotalPnL,
		p.PeakValue, p.DayStartValue, p.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("failed to update portfolio: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return contracts.ErrNotFound
	}
	return nil
}

// CreatePosition inserts a position row.
func (s *Postgres) CreatePosition(ctx context.Context, pos *contracts.Position) error {
	if pos.ID == "" {
		pos.ID = fmt.Sprintf("pos_%s_%s", pos.Symbol, time.Now().Format("20060102_150405.000"))
	}

	targets, err := json.Marshal(pos.ProfitTargets)
	if err != nil {
		return fmt.Errorf("failed to marshal profit targets: %w", err)
	}

	query := `
		INSERT INTO trading.positions (
			id, portfolio_id, symbol, quantity, initial_quantity, entry_price,
			current_price, entry_date, stop_loss, profit_targets, targets_hit,
			unrealized_pnl, realized_pnl, sector, last_updated
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err = s.pool.Exec(ctx, query,
		pos.ID, pos.PortfolioID, pos.Symbol, pos.Quantity, pos.InitialQuantity,
		pos.EntryPrice, pos.CurrentPrice, pos.EntryDate, pos.StopLoss, targets,
		pos.TargetsHit, pos.UnrealizedPnL, pos.RealizedPnL, pos.Sector, pos.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("failed to create position: %w", err)
	}
	return nil
}

// UpdatePosition updates a position row.
func (s *Postgres) UpdatePosition(ctx context.Context, pos *contracts.Position) error {
	targets, err := json.Marshal(pos.ProfitTargets)
	if err != nil {
		return fmt.Errorf("failed to marshal profit targets: %w", err)
	}

	query := `
		UPDATE trading.positions
		SET quantity = $2, entry_price = $3, current_price = $4, stop_loss = $5,
		    profit_targets = $6, targets_hit = $7, unrealized_pnl = $8,
		    realized_pnl = $9, last_updated = $10
		WHERE id = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		pos.ID, pos.Quantity, pos.EntryPrice, pos.CurrentPrice, pos.StopLoss,
		targets, pos.TargetsHit, pos.UnrealizedPnL, pos.RealizedPnL, pos.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("failed to update position: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return contracts.ErrNotFound
	}
	return nil
}

// GetOpenPositions lists open positions for a portfolio ordered by symbol.
func (s *Postgres) GetOpenPositions(ctx context.Context, portfolioID string) ([]*contracts.Position, error) {
	query := `
		SELECT id, portfolio_id, symbol, quantity, initial_quantity, entry_price,
		       current_price, entry_date, stop_loss, profit_targets, targets_hit,
		       unrealized_pnl, realized_pnl, sector, last_updated
		FROM trading.positions
		WHERE portfolio_id = $1 AND quantity > 0
		ORDER BY symbol
	`

	rows, err := s.pool.Query(ctx, query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query open positions: %w", err)
	}
	defer rows.Close()

	return scanPositions(rows)
}

// listPositions fetches all positions for a portfolio, open and closed.
func (s *Postgres) listPositions(ctx context.Context, portfolioID string) ([]*contracts.Position, error) {
	query := `
		SELECT id, portfolio_id, symbol, quantity, initial_quantity, entry_price,
		       current_price, entry_date, stop_loss, profit_targets, targets_hit,
		       unrealized_pnl, realized_pnl, sector, last_updated
		FROM trading.positions
		WHERE portfolio_id = $1
		ORDER BY symbol
	`

	rows, err := s.pool.Query(ctx, query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	return scanPositions(rows)
}

func scanPositions(rows pgx.Rows) ([]*contracts.Position, error) {
	positions := make([]*contracts.Position, 0)
	for rows.Next() {
		var pos contracts.Position
		var targets []byte
		err := rows.Scan(
			&pos.ID, &pos.PortfolioID, &pos.Symbol, &pos.Quantity, &pos.InitialQuantity,
			&pos.EntryPrice, &pos.CurrentPrice, &pos.EntryDate, &pos.StopLoss, &targets,
			&pos.TargetsHit, &pos.UnrealizedPnL, &pos.RealizedPnL, &pos.Sector, &pos.LastUpdated,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		if len(targets) > 0 {
			if err := json.Unmarshal(targets, &pos.ProfitTargets); err != nil {
				return nil, fmt.Errorf("failed to unmarshal profit targets: %w", err)
			}
		}
		positions = append(positions, &pos)
	}
	return positions, rows.Err()
}

// CreateTrade appends a trade record.
func (s *Postgres) CreateTrade(ctx context.Context, t *contracts.Trade) error {
	if t.ID == "" {
		t.ID = fmt.Sprintf("trade_%s", time.Now().Format("20060102_150405.000000"))
	}

	query := `
		INSERT INTO trading.trades (
			id, portfolio_id, symbol, action, quantity, price, fees, status,
			signal_id, reasoning, realized_pnl, executed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := s.pool.Exec(ctx, query,
		t.ID, t.PortfolioID, t.Symbol, t.Action, t.Quantity, t.Price, t.Fees,
		t.Status, t.SignalID, t.Reasoning, t.RealizedPnL, t.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to create trade: %w", err)
	}
	return nil
}

// ListTrades returns all trades for a portfolio, oldest first.
func (s *Postgres) ListTrades(ctx context.Context, portfolioID string) ([]*contracts.Trade, error) {
	query := `
		SELECT id, portfolio_id, symbol, action, quantity, price, fees, status,
		       signal_id, reasoning, realized_pnl, executed_at
		FROM trading.trades
		WHERE portfolio_id = $1
		ORDER BY executed_at
	`

	rows, err := s.pool.Query(ctx, query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	trades := make([]*contracts.Trade, 0)
	for rows.Next() {
		var t contracts.Trade
		err := rows.Scan(
			&t.ID, &t.PortfolioID, &t.Symbol, &t.Action, &t.Quantity, &t.Price,
			&t.Fees, &t.Status, &t.SignalID, &t.Reasoning, &t.RealizedPnL, &t.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, &t)
	}
	return trades, rows.Err()
}

// SaveSnapshot appends a portfolio snapshot.
func (s *Postgres) SaveSnapshot(ctx context.Context, snap *contracts.PortfolioSnapshot) error {
	if snap.ID == "" {
		snap.ID = fmt.Sprintf("snap_%s", snap.CreatedAt.Format("20060102_150405.000"))
	}

	positions, err := json.Marshal(snap.Positions)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot positions: %w", err)
	}

	query := `
		INSERT INTO trading.portfolio_snapshots (
			id, portfolio_id, total_value, cash_balance, daily_pnl, total_pnl,
			positions, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = s.pool.Exec(ctx, query,
		snap.ID, snap.PortfolioID, snap.TotalValue, snap.CashBalance,
		snap.DailyPnL, snap.TotalPnL, positions, snap.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// GetLatestSnapshot returns the most recent snapshot.
func (s *Postgres) GetLatestSnapshot(ctx context.Context, portfolioID string) (*contracts.PortfolioSnapshot, error) {
	query := `
		SELECT id, portfolio_id, total_value, cash_balance, daily_pnl, total_pnl,
		       positions, created_at
		FROM trading.portfolio_snapshots
		WHERE portfolio_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	snap, err := scanSnapshot(s.pool.QueryRow(ctx, query, portfolioID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, contracts.ErrNotFound
	}
	return snap, err
}

// ListSnapshots returns snapshots at or after the cutoff, oldest first.
func (s *Postgres) ListSnapshots(ctx context.Context, portfolioID string, since time.Time) ([]*contracts.PortfolioSnapshot, error) {
	query := `
		SELECT id, portfolio_id, total_value, cash_balance, daily_pnl, total_pnl,
		       positions, created_at
		FROM trading.portfolio_snapshots
		WHERE portfolio_id = $1 AND created_at >= $2
		ORDER BY created_at
	`

	rows, err := s.pool.Query(ctx, query, portfolioID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := make([]*contracts.PortfolioSnapshot, 0)
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, rows.Err()
}

func scanSnapshot(row pgx.Row) (*contracts.PortfolioSnapshot, error) {
	var snap contracts.PortfolioSnapshot
	var positions []byte
	err := row.Scan(
		&snap.ID, &snap.PortfolioID, &snap.TotalValue, &snap.CashBalance,
		&snap.DailyPnL, &snap.TotalPnL, &positions, &snap.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(positions) > 0 {
		if err := json.Unmarshal(positions, &snap.Positions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal snapshot positions: %w", err)
		}
	}
	return &snap, nil
}
