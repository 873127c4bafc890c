package signals

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iklein99/swing-trading-agent-sub001/internal/contracts"
)

func TestStaticSource_ServesOnce(t *testing.T) {
	src := NewStaticSource([]*contracts.TradingSignal{
		{Symbol: "AAPL", Action: contracts.ActionBuy},
	})

	ctx := context.Background()
	first, err := src.GetSignals(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := src.GetSignals(ctx)
	require.NoError(t, err)
	assert.Empty(t, second)
}

func TestFileSource_MissingFileIsEmpty(t *testing.T) {
	src := NewFileSource(filepath.Join(t.TempDir(), "absent.json"))

	signals, err := src.GetSignals(context.Background())
	require.NoError(t, err)
	assert.Empty(t, signals)
}

func TestFileSource_ReadsSignals(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signals.json")
	payload := `[
		{"id": "s1", "symbol": "AAPL", "action": "BUY", "confidence": 0.8,
		 "recommended_size": 10, "entry_price": 150.0, "stop_loss": 140.0,
		 "profit_targets": [{"price": 165.0, "exit_percent": 50.0}],
		 "sector": "technology"}
	]`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	src := NewFileSource(path)
	signals, err := src.GetSignals(context.Background())
	require.NoError(t, err)
	require.Len(t, signals, 1)

	sig := signals[0]
	assert.Equal(t, "AAPL", sig.Symbol)
	assert.Equal(t, contracts.ActionBuy, sig.Action)
	assert.Equal(t, 10, sig.RecommendedSize)
	require.Len(t, sig.ProfitTargets, 1)
	assert.Equal(t, 165.0, sig.ProfitTargets[0].Price)
	assert.NoError(t, sig.ValidateShape())
}

func TestFileSource_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signals.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewFileSource(path).GetSignals(context.Background())
	assert.Error(t, err)
}
