package signals

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/iklein99/swing-trading-agent-sub001/internal/contracts"
)

// Source produces the trading signals consumed by a cycle. Signal
// generation itself lives outside this system; implementations here adapt
// wherever the signals come from.
type Source interface {
	GetSignals(ctx context.Context) ([]*contracts.TradingSignal, error)
}

// StaticSource serves a fixed set of signals, once. Subsequent calls
// return nothing, so a scheduled cycle does not replay the same orders.
type StaticSource struct {
	mu      sync.Mutex
	signals []*contracts.TradingSignal
	served  bool
}

// NewStaticSource creates a one-shot source over the given signals.
func NewStaticSource(signals []*contracts.TradingSignal) *StaticSource {
	return &StaticSource{signals: signals}
}

// GetSignals returns the configured signals on the first call and an empty
// slice after that.
func (s *StaticSource) GetSignals(ctx context.Context) ([]*contracts.TradingSignal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.served {
		return nil, nil
	}
	s.served = true
	return s.signals, nil
}

// FileSource reads signals from a JSON file on every call. The file holds
// a JSON array of signals; a missing file means no signals, not an error,
// so the trading loop keeps running while the file is absent.
type FileSource struct {
	path string
}

// NewFileSource creates a source reading from path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// GetSignals loads and decodes the signal file.
func (f *FileSource) GetSignals(ctx context.Context) ([]*contracts.TradingSignal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read signal file: %w", err)
	}

	var out []*contracts.TradingSignal
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse signal file %s: %w", f.path, err)
	}
	return out, nil
}
