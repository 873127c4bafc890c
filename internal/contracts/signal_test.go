package contracts

import (
	"testing"
	"time"
)

func TestTradingSignal_ValidateShape(t *testing.T) {
	valid := TradingSignal{
		Symbol:          "AAPL",
		Action:          ActionBuy,
		RecommendedSize: 10,
		EntryPrice:      150,
		Timestamp:       time.Now(),
	}
	if err := valid.ValidateShape(); err != nil {
		t.Errorf("valid signal rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*TradingSignal)
	}{
		{"empty symbol", func(s *TradingSignal) { s.Symbol = "" }},
		{"bad action", func(s *TradingSignal) { s.Action = "HOLD" }},
		{"zero price", func(s *TradingSignal) { s.EntryPrice = 0 }},
		{"zero size", func(s *TradingSignal) { s.RecommendedSize = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := valid
			tc.mutate(&s)
			if err := s.ValidateShape(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestTradeResult_StatusConstants(t *testing.T) {
	if TradeStatusExecuted != "EXECUTED" || TradeStatusFailed != "FAILED" || TradeStatusPending != "PENDING" {
		t.Error("trade status constants changed; persisted rows depend on these values")
	}
}
