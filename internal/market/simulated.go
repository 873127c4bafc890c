package market

import (
	"context"
	"hash/fnv"
	"math/rand"
	"sync"
	"time"

	"github.com/iklein99/swing-trading-agent-sub001/internal/contracts"
	"github.com/iklein99/swing-trading-agent-sub001/pkg/config"
	"github.com/iklein99/swing-trading-agent-sub001/pkg/logger"
)

// SimulatedSource generates prices as a seeded random walk: each quote for
// a symbol moves off the previous one by the configured drift plus gaussian
// noise. A fixed seed makes the whole price history reproducible.
type SimulatedSource struct {
	mu     sync.Mutex
	rng    *rand.Rand
	cfg    config.MarketConfig
	prices map[string]float64
	logger *logger.Logger
}

// NewSimulatedSource creates a simulated quote source. Seed 0 seeds from
// the clock.
func NewSimulatedSource(cfg config.MarketConfig, log *logger.Logger) *SimulatedSource {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SimulatedSource{
		rng:    rand.New(rand.NewSource(seed)),
		cfg:    cfg,
		prices: make(map[string]float64),
		logger: log.Component("market_sim"),
	}
}

// Prime fixes a symbol's current price, overriding the derived starting
// price. Used to line the walk up with known entry prices.
func (s *SimulatedSource) Prime(symbol string, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if price > 0 {
		s.prices[symbol] = price
	}
}

// GetQuotes advances the walk one step for each requested symbol and
// returns the new prices.
func (s *SimulatedSource) GetQuotes(ctx context.Context, symbols []string) (map[string]*contracts.Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	quotes := make(map[string]*contracts.Quote, len(symbols))
	for _, symbol := range symbols {
		price := s.step(symbol)
		quotes[symbol] = &contracts.Quote{
			Symbol:    symbol,
			Price:     price,
			Timestamp: now,
		}
	}
	return quotes, nil
}

// step moves one symbol forward. Caller holds the mutex.
func (s *SimulatedSource) step(symbol string) float64 {
	last, ok := s.prices[symbol]
	if !ok {
		last = startingPrice(symbol)
	}

	move := s.cfg.DriftPercent/100 + s.cfg.VolatilityPct/100*s.rng.NormFloat64()
	price := last * (1 + move)
	if price < 0.01 {
		price = 0.01
	}

	s.prices[symbol] = price
	return price
}

// startingPrice derives a stable per-symbol starting price in the
// $20-$520 range so unprimed symbols do not all start at the same level.
func startingPrice(symbol string) float64 {
	h := fnv.New32a()
	h.Write([]byte(symbol))
	return 20 + float64(h.Sum32()%50000)/100
}
