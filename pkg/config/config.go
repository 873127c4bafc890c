package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the trading simulator. Environment
// variables are read here and nowhere else.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Storage
	StoreBackend string // memory, postgres
	Database     DatabaseConfig
	Redis        RedisConfig

	// Simulation
	Broker      BrokerConfig
	Risk        RiskConfig
	Market      MarketConfig
	Schedules   ScheduleConfig
	SignalsFile string // JSON file polled for incoming signals

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL settings, used when StoreBackend=postgres.
type DatabaseConfig struct {
	URL             string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds the optional quote-cache settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Enabled  bool
}

// BrokerConfig holds the mock-broker simulation parameters.
type BrokerConfig struct {
	LatencyMs       int
	SlippagePercent float64
	FeePerTrade     float64
	FailureRate     float64 // 0.0 ~ 1.0
	OrdersPerSecond float64 // submission pacing
}

// RiskConfig holds the configured risk limits. Percentages are whole
// numbers (10 means 10%).
type RiskConfig struct {
	MaxPositionPercentage  float64
	MaxSectorConcentration float64
	MaxRiskPerTrade        float64
	MaxDailyLossPercentage float64
	MaxDrawdownPercentage  float64
	InitialCash            float64
}

// MarketConfig holds the simulated quote-source parameters.
type MarketConfig struct {
	Seed          int64   // 0 = time-seeded
	DriftPercent  float64 // per-tick expected move
	VolatilityPct float64 // per-tick random move bound
}

// ScheduleConfig holds cron expressions for the background jobs.
type ScheduleConfig struct {
	TradingCycle string
	PriceRefresh string
	DayRoll      string
}

// Load reads configuration from environment variables, after loading a .env
// file when one is present.
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8087"),
		Env:  getEnv("ENV", "development"),

		StoreBackend: getEnv("STORE_BACKEND", "memory"),
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Broker: BrokerConfig{
			LatencyMs:       getEnvAsInt("BROKER_LATENCY_MS", 100),
			SlippagePercent: getEnvAsFloat("BROKER_SLIPPAGE_PERCENT", 0.1),
			FeePerTrade:     getEnvAsFloat("BROKER_FEE_PER_TRADE", 1.0),
			FailureRate:     getEnvAsFloat("BROKER_FAILURE_RATE", 0.05),
			OrdersPerSecond: getEnvAsFloat("BROKER_ORDERS_PER_SECOND", 5),
		},
		Risk: RiskConfig{
			MaxPositionPercentage:  getEnvAsFloat("RISK_MAX_POSITION_PCT", 10),
			MaxSectorConcentration: getEnvAsFloat("RISK_MAX_SECTOR_PCT", 30),
			MaxRiskPerTrade:        getEnvAsFloat("RISK_MAX_PER_TRADE_PCT", 2),
			MaxDailyLossPercentage: getEnvAsFloat("RISK_MAX_DAILY_LOSS_PCT", 3),
			MaxDrawdownPercentage:  getEnvAsFloat("RISK_MAX_DRAWDOWN_PCT", 15),
			InitialCash:            getEnvAsFloat("PORTFOLIO_INITIAL_CASH", 100_000),
		},
		Market: MarketConfig{
			Seed:          int64(getEnvAsInt("MARKET_SEED", 0)),
			DriftPercent:  getEnvAsFloat("MARKET_DRIFT_PCT", 0.0),
			VolatilityPct: getEnvAsFloat("MARKET_VOLATILITY_PCT", 1.0),
		},
		Schedules: ScheduleConfig{
			TradingCycle: getEnv("SCHEDULE_TRADING_CYCLE", "0 0 * * * *"),
			PriceRefresh: getEnv("SCHEDULE_PRICE_REFRESH", "0 */5 * * * *"),
			DayRoll:      getEnv("SCHEDULE_DAY_ROLL", "0 0 0 * * *"),
		},
		SignalsFile: getEnv("SIGNALS_FILE", "signals.json"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks configuration consistency.
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.StoreBackend {
	case "memory":
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be memory or postgres")
	}

	if c.Broker.FailureRate < 0 || c.Broker.FailureRate > 1 {
		return fmt.Errorf("BROKER_FAILURE_RATE must be between 0 and 1")
	}
	if c.Broker.SlippagePercent < 0 {
		return fmt.Errorf("BROKER_SLIPPAGE_PERCENT must be >= 0")
	}
	if c.Risk.InitialCash <= 0 {
		return fmt.Errorf("PORTFOLIO_INITIAL_CASH must be positive")
	}

	return nil
}

// loadEnvFile tries to load .env from the usual locations.
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}
	return duration
}
