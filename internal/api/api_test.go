package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iklein99/swing-trading-agent-sub001/internal/api/handlers"
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
	"github.com/iklein99/swing-trading-agent-sub001/pkg/logger"
)

func newTestRouter(t *testing.T) (http.Handler, *portfolio.Manager) {
	t.Helper()
	ctx := context.Background()

	mem := store.NewMemory()
	brk := broker.NewMockBroker(config.BrokerConfig{FeePerTrade: 1.0}, 42, logger.Nop())
	manager := portfolio.NewManager(mem, risk.NewManager(), brk, contracts.DefaultRiskLimits(), 100000, logger.Nop())
	require.NoError(t, manager.Initialize(ctx))

	sim := market.NewSimulatedSource(config.MarketConfig{Seed: 7, VolatilityPct: 0.5}, logger.Nop())
	src := signals.NewStaticSource([]*contracts.TradingSignal{
		{
			ID:              "s1",
			Symbol:          "AAPL",
			Action:          contracts.ActionBuy,
			Confidence:      0.9,
			RecommendedSize: 50,
			EntryPrice:      150,
			StopLoss:        140,
			Sector:          "technology",
		},
	})
	orchestrator := engine.NewOrchestrator(manager, exit.NewMonitor(logger.Nop()), src, sim, logger.Nop())

	handler := handlers.NewTradingHandler(manager, orchestrator, mem, nil, logger.Nop())
	return NewRouter(handler, logger.Nop()), manager
}

func doRequest(t *testing.T, router http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestGetPortfolio(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/api/portfolio")
	require.Equal(t, http.StatusOK, rec.Code)

	var p contracts.Portfolio
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, portfolio.DefaultPortfolioID, p.ID)
	assert.Equal(t, 100000.0, p.CashBalance)
}

func TestCycleLifecycleOverHTTP(t *testing.T) {
	router, _ := newTestRouter(t)

	// No cycle yet.
	rec := doRequest(t, router, http.MethodGet, "/api/cycle/latest")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Trigger one.
	rec = doRequest(t, router, http.MethodPost, "/api/cycle/run")
	require.Equal(t, http.StatusOK, rec.Code)

	var result contracts.TradingCycleResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, contracts.CycleStateCompleted, result.State)
	assert.Equal(t, 1, result.TradesExecuted)

	// Latest now reports it.
	rec = doRequest(t, router, http.MethodGet, "/api/cycle/latest")
	require.Equal(t, http.StatusOK, rec.Code)

	// The position shows up.
	rec = doRequest(t, router, http.MethodGet, "/api/positions/AAPL")
	require.Equal(t, http.StatusOK, rec.Code)

	var pos contracts.Position
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pos))
	assert.Equal(t, 50, pos.Quantity)

	// And the trade trail has one executed entry.
	rec = doRequest(t, router, http.MethodGet, "/api/trades")
	require.Equal(t, http.StatusOK, rec.Code)

	var trades []*contracts.Trade
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &trades))
	require.Len(t, trades, 1)
	assert.Equal(t, contracts.TradeStatusExecuted, trades[0].Status)
}

func TestGetPositionNotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/api/positions/MSFT")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetSnapshotsValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/api/snapshots?days=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/snapshots?days=7")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetMetricsAndPerformance(t *testing.T) {
	router, manager := newTestRouter(t)

	_, err := manager.ExecuteTradeOrder(context.Background(), &contracts.TradingSignal{
		ID: "m1", Symbol: "XOM", Action: contracts.ActionBuy, Confidence: 0.7,
		RecommendedSize: 40, EntryPrice: 100, StopLoss: 90, Sector: "energy",
	})
	require.NoError(t, err)

	rec := doRequest(t, router, http.MethodGet, "/api/metrics")
	require.Equal(t, http.StatusOK, rec.Code)

	var metrics contracts.PortfolioMetrics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &metrics))
	assert.Equal(t, 1, metrics.PositionCount)
	assert.Equal(t, "XOM", metrics.LargestPosition.Symbol)

	rec = doRequest(t, router, http.MethodGet, "/api/performance")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats contracts.PerformanceStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalTrades)
}

func TestGetJobStatsWithoutScheduler(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/api/jobs")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "{}", rec.Body.String())
}
