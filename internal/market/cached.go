package market

import (
	"context"
	"time"

	"github.com/iklein99/swing-trading-agent-sub001/internal/contracts"
	"github.com/iklein99/swing-trading-agent-sub001/pkg/logger"
	"github.com/iklein99/swing-trading-agent-sub001/pkg/redis"
)

// quoteTTL bounds staleness between the cache and the underlying source.
const quoteTTL = 30 * time.Second

// CachedSource serves quotes from redis when a fresh entry exists and
// falls through to the underlying source otherwise. With redis disabled
// every lookup is a miss, so behavior degrades to the plain source.
type CachedSource struct {
	source QuoteSource
	cache  *redis.Cache
	logger *logger.Logger
}

// NewCachedSource wraps a quote source with a redis-backed cache.
func NewCachedSource(source QuoteSource, cache *redis.Cache, log *logger.Logger) *CachedSource {
	return &CachedSource{
		source: source,
		cache:  cache,
		logger: log.Component("market_cache"),
	}
}

// GetQuotes returns cached quotes where available and fetches the misses
// in one call to the underlying source.
func (c *CachedSource) GetQuotes(ctx context.Context, symbols []string) (map[string]*contracts.Quote, error) {
	quotes := make(map[string]*contracts.Quote, len(symbols))
	misses := make([]string, 0, len(symbols))

	for _, symbol := range symbols {
		var q contracts.Quote
		hit, err := c.cache.Get(ctx, "quote:"+symbol, &q)
		if err != nil {
			c.logger.WithError(err).WithField("symbol", symbol).Warn("Quote cache read failed")
		}
		if hit {
			quotes[symbol] = &q
			continue
		}
		misses = append(misses, symbol)
	}

	if len(misses) == 0 {
		return quotes, nil
	}

	fetched, err := c.source.GetQuotes(ctx, misses)
	if err != nil {
		return nil, err
	}

	for symbol, q := range fetched {
		quotes[symbol] = q
		if err := c.cache.Set(ctx, "quote:"+symbol, q, quoteTTL); err != nil {
			c.logger.WithError(err).WithField("symbol", symbol).Warn("Quote cache write failed")
		}
	}

	return quotes, nil
}
