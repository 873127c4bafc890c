package contracts

import (
	"fmt"
	"time"
)

// Action represents the direction of a trading signal or trade.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// IsValid checks if the action is one of the known directions.
func (a Action) IsValid() bool {
	return a == ActionBuy || a == ActionSell
}

// ProfitTarget is a single scale-out level attached to a position at entry.
// Targets are kept ordered ascending by price; ExitPercent is the share of
// the position's initial quantity to sell when the target is crossed.
type ProfitTarget struct {
	Price       float64 `json:"price"`
	ExitPercent float64 `json:"exit_percent"`
}

// TradingSignal is a recommendation produced by the upstream signal
// generator (or synthesized by the exit monitor). Immutable once received.
type TradingSignal struct {
	ID              string         `json:"id"`
	Symbol          string         `json:"symbol"`
	Action          Action         `json:"action"`
	Confidence      float64        `json:"confidence"` // 0.0 ~ 1.0
	RecommendedSize int            `json:"recommended_size"`
	EntryPrice      float64        `json:"entry_price"`
	StopLoss        float64        `json:"stop_loss"`
	ProfitTargets   []ProfitTarget `json:"profit_targets"`
	Sector          string         `json:"sector"`
	Reasoning       string         `json:"reasoning"`
	Timestamp       time.Time      `json:"timestamp"`
}

// ValidateShape checks the structural validity of a signal: non-empty
// symbol, known action, positive price and size. Risk-level validation
// (limits, balances) belongs to the risk manager.
func (s *TradingSignal) ValidateShape() error {
	if s.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if !s.Action.IsValid() {
		return fmt.Errorf("invalid action %q", s.Action)
	}
	if s.EntryPrice <= 0 {
		return fmt.Errorf("entry price must be positive")
	}
	if s.RecommendedSize <= 0 {
		return fmt.Errorf("recommended size must be positive")
	}
	return nil
}

// Quote is a {symbol, price} pair from the quote source.
type Quote struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}
