package market

import (
	"context"

	"github.com/iklein99/swing-trading-agent-sub001/internal/contracts"
)

// QuoteSource supplies current prices for a set of symbols. Implementations
// must return a quote for every requested symbol or fail the whole call.
type QuoteSource interface {
	GetQuotes(ctx context.Context, symbols []string) (map[string]*contracts.Quote, error)
}
