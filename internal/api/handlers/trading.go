package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/iklein99/swing-trading-agent-sub001/internal/contracts"
	"github.com/iklein99/swing-trading-agent-sub001/internal/engine"
	"github.com/iklein99/swing-trading-agent-sub001/internal/portfolio"
	"github.com/iklein99/swing-trading-agent-sub001/internal/scheduler"
	"github.com/iklein99/swing-trading-agent-sub001/pkg/logger"
)

// TradingHandler serves the read-only trading state endpoints plus the
// manual cycle trigger.
type TradingHandler struct {
	manager      *portfolio.Manager
	orchestrator *engine.Orchestrator
	store        contracts.Store
	scheduler    *scheduler.Scheduler
	logger       *logger.Logger
}

// NewTradingHandler creates the trading handler. The scheduler is optional;
// without one the jobs endpoint reports no jobs.
func NewTradingHandler(
	manager *portfolio.Manager,
	orchestrator *engine.Orchestrator,
	store contracts.Store,
	sched *scheduler.Scheduler,
	log *logger.Logger,
) *TradingHandler {
	return &TradingHandler{
		manager:      manager,
		orchestrator: orchestrator,
		store:        store,
		scheduler:    sched,
		logger:       log.Component("trading_handler"),
	}
}

// GetPortfolio returns the full portfolio state.
// GET /api/portfolio
func (h *TradingHandler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	p, err := h.manager.GetPortfolio()
	if err != nil {
		h.logger.WithError(err).Error("Failed to get portfolio")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve portfolio")
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// GetPositions returns the open positions.
// GET /api/positions
func (h *TradingHandler) GetPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.manager.GetOpenPositions()
	if err != nil {
		h.logger.WithError(err).Error("Failed to get positions")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve positions")
		return
	}
	respondJSON(w, http.StatusOK, positions)
}

// GetPosition returns one open position by symbol.
// GET /api/positions/{symbol}
func (h *TradingHandler) GetPosition(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	pos, err := h.manager.GetPositionBySymbol(symbol)
	if errors.Is(err, contracts.ErrNotFound) {
		respondError(w, http.StatusNotFound, "No open position for "+symbol)
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to get position")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve position")
		return
	}
	respondJSON(w, http.StatusOK, pos)
}

// GetMetrics returns the derived portfolio metrics.
// GET /api/metrics
func (h *TradingHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.manager.GetMetrics()
	if err != nil {
		h.logger.WithError(err).Error("Failed to get metrics")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve metrics")
		return
	}
	respondJSON(w, http.StatusOK, metrics)
}

// GetPerformance returns win/loss statistics over the trade history.
// GET /api/performance
func (h *TradingHandler) GetPerformance(w http.ResponseWriter, r *http.Request) {
	stats, err := h.manager.GetPerformanceStats(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to get performance stats")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve performance stats")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// GetTrades returns the full trade audit trail, newest last.
// GET /api/trades
func (h *TradingHandler) GetTrades(w http.ResponseWriter, r *http.Request) {
	trades, err := h.store.ListTrades(r.Context(), portfolio.DefaultPortfolioID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list trades")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve trades")
		return
	}
	respondJSON(w, http.StatusOK, trades)
}

// GetSnapshots returns the snapshot history for the last N days (?days=7).
// GET /api/snapshots
func (h *TradingHandler) GetSnapshots(w http.ResponseWriter, r *http.Request) {
	days := 7
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = parsed
	}

	snapshots, err := h.manager.GetSnapshotHistory(r.Context(), days)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get snapshot history")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve snapshots")
		return
	}
	respondJSON(w, http.StatusOK, snapshots)
}

// GetLastCycle returns the result of the most recent trading cycle.
// GET /api/cycle/latest
func (h *TradingHandler) GetLastCycle(w http.ResponseWriter, r *http.Request) {
	result := h.orchestrator.LastResult()
	if result == nil {
		respondError(w, http.StatusNotFound, "No cycle has run yet")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// RunCycle triggers a trading cycle and returns its result. Responds 409
// when a cycle is already in flight.
// POST /api/cycle/run
func (h *TradingHandler) RunCycle(w http.ResponseWriter, r *http.Request) {
	result, err := h.orchestrator.RunCycle(r.Context())
	if errors.Is(err, engine.ErrCycleInFlight) {
		respondError(w, http.StatusConflict, "A trading cycle is already running")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Cycle trigger failed")
		respondError(w, http.StatusInternalServerError, "Failed to run cycle")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// GetJobStats returns scheduler job statistics.
// GET /api/jobs
func (h *TradingHandler) GetJobStats(w http.ResponseWriter, r *http.Request) {
	if h.scheduler == nil {
		respondJSON(w, http.StatusOK, map[string]scheduler.JobStats{})
		return
	}
	respondJSON(w, http.StatusOK, h.scheduler.GetJobStats())
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
