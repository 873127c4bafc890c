package contracts

// RiskLevel classifies how much of the configured headroom a sized trade
// consumes.
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "LOW"
	RiskLevelMedium RiskLevel = "MEDIUM"
	RiskLevelHigh   RiskLevel = "HIGH"
)

// RiskCheck is the result of one individual rule evaluation.
type RiskCheck struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message,omitempty"`
}

// RiskValidation is the ephemeral outcome of validating one signal against
// portfolio state and configured limits.
type RiskValidation struct {
	Approved     bool        `json:"approved"`
	AdjustedSize int         `json:"adjusted_size"`
	Reason       string      `json:"reason,omitempty"`
	RiskLevel    RiskLevel   `json:"risk_level"`
	Checks       []RiskCheck `json:"checks"`
}

// RiskLimits holds the configured sizing and circuit-breaker parameters.
// Percentages are expressed as whole numbers (10 means 10%).
type RiskLimits struct {
	MaxPositionPercentage  float64 `json:"max_position_percentage"`
	MaxSectorConcentration float64 `json:"max_sector_concentration"`
	MaxRiskPerTrade        float64 `json:"max_risk_per_trade"`
	MaxDailyLossPercentage float64 `json:"max_daily_loss_percentage"`
	MaxDrawdownPercentage  float64 `json:"max_drawdown_percentage"`
	InitialCash            float64 `json:"initial_cash"`
}

// DefaultRiskLimits returns the stock limit set for a simulated account.
func DefaultRiskLimits() RiskLimits {
	return RiskLimits{
		MaxPositionPercentage:  10.0,
		MaxSectorConcentration: 30.0,
		MaxRiskPerTrade:        2.0,
		MaxDailyLossPercentage: 3.0,
		MaxDrawdownPercentage:  15.0,
		InitialCash:            100_000,
	}
}
