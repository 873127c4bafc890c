package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/iklein99/swing-trading-agent-sub001/internal/api/handlers"
	"github.com/iklein99/swing-trading-agent-sub001/pkg/logger"
)

// NewRouter configures the HTTP routes.
func NewRouter(trading *handlers.TradingHandler, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/portfolio", trading.GetPortfolio).Methods("GET")
	api.HandleFunc("/positions", trading.GetPositions).Methods("GET")
	api.HandleFunc("/positions/{symbol}", trading.GetPosition).Methods("GET")
	api.HandleFunc("/metrics", trading.GetMetrics).Methods("GET")
	api.HandleFunc("/performance", trading.GetPerformance).Methods("GET")
	api.HandleFunc("/trades", trading.GetTrades).Methods("GET")
	api.HandleFunc("/snapshots", trading.GetSnapshots).Methods("GET")
	api.HandleFunc("/cycle/latest", trading.GetLastCycle).Methods("GET")
	api.HandleFunc("/cycle/run", trading.RunCycle).Methods("POST")
	api.HandleFunc("/jobs", trading.GetJobStats).Methods("GET")

	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler reports server liveness.
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "swing-trading-agent",
	})
}

// loggingMiddleware logs HTTP requests.
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from handler panics.
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
