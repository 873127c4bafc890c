package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/iklein99/swing-trading-agent-sub001/internal/contracts"
)

// Memory is an in-process implementation of the persistence port. It is the
// default backend for the simulator and the store used in tests. All values
// are deep-copied on the way in and out so callers never share state with
// the store.
type Memory struct {
	mu         sync.RWMutex
	portfolios map[string]*contracts.Portfolio
	positions  map[string]*contracts.Position // keyed by position ID
	trades     []*contracts.Trade
	snapshots  []*contracts.PortfolioSnapshot
	seq        int
}

var _ contracts.Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		portfolios: make(map[string]*contracts.Portfolio),
		positions:  make(map[string]*contracts.Position),
	}
}

// nextID generates a store-local sequential ID.
func (m *Memory) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%06d", prefix, m.seq)
}

// GetPortfolio retrieves a portfolio by ID.
func (m *Memory) GetPortfolio(ctx context.Context, id string) (*contracts.Portfolio, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.portfolios[id]
	if !ok {
		return nil, contracts.ErrNotFound
	}
	return p.Clone(), nil
}

// CreatePortfolio stores a new portfolio.
func (m *Memory) CreatePortfolio(ctx context.Context, p *contracts.Portfolio) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.portfolios[p.ID]; exists {
		return fmt.Errorf("portfolio %s already exists", p.ID)
	}
	m.portfolios[p.ID] = p.Clone()
	return nil
}

// UpdatePortfolio replaces a stored portfolio.
func (m *Memory) UpdatePortfolio(ctx context.Context, p *contracts.Portfolio) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.portfolios[p.ID]; !exists {
		return contracts.ErrNotFound
	}
	m.portfolios[p.ID] = p.Clone()
	return nil
}

// CreatePosition stores a new position, assigning an ID when missing.
func (m *Memory) CreatePosition(ctx context.Context, pos *contracts.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if pos.ID == "" {
		pos.ID = m.nextID("pos")
	}
	if _, exists := m.positions[pos.ID]; exists {
		return fmt.Errorf("position %s already exists", pos.ID)
	}
	m.positions[pos.ID] = pos.Clone()
	return nil
}

// UpdatePosition replaces a stored position.
func (m *Memory) UpdatePosition(ctx context.Context, pos *contracts.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.positions[pos.ID]; !exists {
		return contracts.ErrNotFound
	}
	m.positions[pos.ID] = pos.Clone()
	return nil
}

// GetOpenPositions lists positions with remaining quantity, ordered by
// symbol.
func (m *Memory) GetOpenPositions(ctx context.Context, portfolioID string) ([]*contracts.Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	open := make([]*contracts.Position, 0)
	for _, pos := range m.positions {
		if pos.PortfolioID == portfolioID && pos.IsOpen() {
			open = append(open, pos.Clone())
		}
	}
	sort.Slice(open, func(i, j int) bool { return open[i].Symbol < open[j].Symbol })
	return open, nil
}

// CreateTrade appends a trade record, assigning an ID when missing.
func (m *Memory) CreateTrade(ctx context.Context, t *contracts.Trade) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t.ID == "" {
		t.ID = m.nextID("trade")
	}
	cp := *t
	m.trades = append(m.trades, &cp)
	return nil
}

// ListTrades returns all trades for a portfolio in insertion order.
func (m *Memory) ListTrades(ctx context.Context, portfolioID string) ([]*contracts.Trade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*contracts.Trade, 0)
	for _, t := range m.trades {
		if t.PortfolioID == portfolioID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

// SaveSnapshot appends a portfolio snapshot, assigning an ID when missing.
func (m *Memory) SaveSnapshot(ctx context.Context, s *contracts.PortfolioSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s.ID == "" {
		s.ID = m.nextID("snap")
	}
	cp := *s
	cp.Positions = append([]contracts.PositionSnapshot(nil), s.Positions...)
	m.snapshots = append(m.snapshots, &cp)
	return nil
}

// GetLatestSnapshot returns the most recent snapshot for a portfolio.
func (m *Memory) GetLatestSnapshot(ctx context.Context, portfolioID string) (*contracts.PortfolioSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest *contracts.PortfolioSnapshot
	for _, s := range m.snapshots {
		if s.PortfolioID != portfolioID {
			continue
		}
		if latest == nil || s.CreatedAt.After(latest.CreatedAt) {
			latest = s
		}
	}
	if latest == nil {
		return nil, contracts.ErrNotFound
	}

	cp := *latest
	cp.Positions = append([]contracts.PositionSnapshot(nil), latest.Positions...)
	return &cp, nil
}

// ListSnapshots returns snapshots at or after the cutoff, oldest first.
func (m *Memory) ListSnapshots(ctx context.Context, portfolioID string, since time.Time) ([]*contracts.PortfolioSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*contracts.PortfolioSnapshot, 0)
	for _, s := range m.snapshots {
		if s.PortfolioID != portfolioID || s.CreatedAt.Before(since) {
			continue
		}
		cp := *s
		cp.Positions = append([]contracts.PositionSnapshot(nil), s.Positions...)
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
