package contracts

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by store reads when the requested row does not
// exist. Callers distinguish it from transport/database failures.
var ErrNotFound = errors.New("record not found")

// Store is the persistence port consumed by the portfolio manager and the
// orchestrator. All calls are request/response; failures propagate as
// errors, never silent no-ops. Implementations live in internal/store.
type Store interface {
	// Portfolio lifecycle.
	GetPortfolio(ctx context.Context, id string) (*Portfolio, error)
	CreatePortfolio(ctx context.Context, p *Portfolio) error
	UpdatePortfolio(ctx context.Context, p *Portfolio) error

	// Positions.
	CreatePosition(ctx context.Context, pos *Position) error
	UpdatePosition(ctx context.Context, pos *Position) error
	GetOpenPositions(ctx context.Context, portfolioID string) ([]*Position, error)

	// Trades (append-only audit trail).
	CreateTrade(ctx context.Context, t *Trade) error
	ListTrades(ctx context.Context, portfolioID string) ([]*Trade, error)

	// Snapshots (append-only history).
	SaveSnapshot(ctx context.Context, s *PortfolioSnapshot) error
	GetLatestSnapshot(ctx context.Context, portfolioID string) (*PortfolioSnapshot, error)
	ListSnapshots(ctx context.Context, portfolioID string, since time.Time) ([]*PortfolioSnapshot, error)
}
