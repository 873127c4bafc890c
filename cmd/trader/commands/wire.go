package commands

import (
	"context"
	"fmt"

	"github.com/iklein99/swing-trading-agent-sub001/internal/broker"
	"github.com/iklein99/swing-trading-agent-sub001/internal/contracts"
	"github.com/iklein99/swing-trading-agent-sub001/internal/engine"
	"github.com/iklein99/swing-trading-agent-sub001/internal/exit"
	"github.com/iklein99/swing-trading-agent-sub001/internal/market"
	"github.com/iklein99/swing-trading-agent-sub001/internal/portfolio"
	"github.com/iklein99/swing-trading-agent-sub001/internal/risk"
	"github.com/iklein99/swing-trading-agent-sub001/internal/signals"
	"github.com/iklein99/swing-trading-agent-sub001/internal/store"
	"github.com/iklein99/swing-trading-agent-sub001/pkg/config"
	"github.com/iklein99/swing-trading-agent-sub001/pkg/database"
	"github.com/iklein99/swing-trading-agent-sub001/pkg/logger"
	"github.com/iklein99/swing-trading-agent-sub001/pkg/redis"
)

// components bundles the wired trading engine for the CLI commands.
type components struct {
	store        contracts.Store
	manager      *portfolio.Manager
	orchestrator *engine.Orchestrator
	quotes       engine.QuoteSource

	closers []func()
}

// Close releases held connections, last-opened first.
func (c *components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// riskLimits maps the configured risk settings onto the contract type.
func riskLimits(cfg *config.Config) contracts.RiskLimits {
	return contracts.RiskLimits{
		MaxPositionPercentage:  cfg.Risk.MaxPositionPercentage,
		MaxSectorConcentration: cfg.Risk.MaxSectorConcentration,
		MaxRiskPerTrade:        cfg.Risk.MaxRiskPerTrade,
		MaxDailyLossPercentage: cfg.Risk.MaxDailyLossPercentage,
		MaxDrawdownPercentage:  cfg.Risk.MaxDrawdownPercentage,
		InitialCash:            cfg.Risk.InitialCash,
	}
}

// buildComponents wires the store, broker, market, and trading engine from
// configuration, and initializes the portfolio.
func buildComponents(ctx context.Context, cfg *config.Config, log *logger.Logger) (*components, error) {
	c := &components{}

	// 1. Storage backend.
	switch cfg.StoreBackend {
	case "postgres":
		db, err := database.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		c.closers = append(c.closers, db.Close)
		c.store = store.NewPostgres(db.Pool)
		log.Info("Using postgres store")
	default:
		c.store = store.NewMemory()
		log.Info("Using in-memory store")
	}

	// 2. Optional redis quote cache.
	redisClient, err := redis.New(cfg)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	c.closers = append(c.closers, func() { _ = redisClient.Close() })

	// 3. Market data: simulated walk, cached when redis is enabled.
	var quotes engine.QuoteSource = market.NewSimulatedSource(cfg.Market, log)
	if redisClient.Enabled() {
		quotes = market.NewCachedSource(quotes, redis.NewCache(redisClient, "trader"), log)
	}
	c.quotes = quotes

	// 4. Execution and portfolio.
	mockBroker := broker.NewMockBroker(cfg.Broker, cfg.Market.Seed, log)
	c.manager = portfolio.NewManager(c.store, risk.NewManager(), mockBroker, riskLimits(cfg), cfg.Risk.InitialCash, log)
	if err := c.manager.Initialize(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("initialize portfolio: %w", err)
	}

	// 5. Orchestrator over the configured signal file.
	source := signals.NewFileSource(cfg.SignalsFile)
	c.orchestrator = engine.NewOrchestrator(c.manager, exit.NewMonitor(log), source, quotes, log)

	return c, nil
}
