package models

import (
	"time"

	"qdr/internal/engine"
)

// OptimizeRequest is the body of POST /optimize.
type OptimizeRequest struct {
	Tickers      []string `json:"tickers" validate:"required,min=1,dive,required"`
	RiskAversion float64  `json:"risk_aversion" default:"1.0" validate:"gt=0"`
	NumSlices    int      `json:"num_slices" default:"20" validate:"gte=1,lte=200"`
	Period       string   `json:"period" default:"1y" validate:"oneof=1mo 3mo 6mo 1y 2y 5y"`
	// Seed pins the annealer's randomness for reproducible runs; 0 leaves
	// it free-running.
	Seed int64 `json:"seed,omitempty"`
}

// SolutionStatus describes whether the annealer satisfied the budget
// constraint on its own or the decoder had to repair it.
const (
	StatusOptimal     = "optimal"
	StatusApproximate = "approximate"
)

// Metadata accompanies every optimization response.
type Metadata struct {
	Status           string `json:"status"`
	Algorithm        string `json:"algorithm"`
	TickersProcessed int    `json:"tickers_processed"`
	MissingTickers   string `json:"missing_tickers,omitempty"`
}

// PortfolioResponse is the terminal artifact of one optimization run.
type PortfolioResponse struct {
	Allocation    engine.Allocation  `json:"allocation"`
	Metrics       engine.Metrics     `json:"metrics"`
	Metadata      Metadata           `json:"metadata"`
	CurrentPrices map[string]float64 `json:"current_prices,omitempty"`
}

// RunRecord is one row of the optimization run history.
type RunRecord struct {
	Timestamp      time.Time `json:"timestamp"`
	Tickers        string    `json:"tickers"`
	RiskAversion   float64   `json:"risk_aversion"`
	NumSlices      int       `json:"num_slices"`
	ExpectedReturn float64   `json:"expected_return"`
	Volatility     float64   `json:"volatility"`
	SharpeRatio    float64   `json:"sharpe_ratio"`
	Energy         float64   `json:"energy"`
	Status         string    `json:"status"`
	DurationMS     int64     `json:"duration_ms"`
}

// RunsRequest is the query for GET /api/runs.
type RunsRequest struct {
	Limit int `query:"limit" json:"limit" default:"20" validate:"gte=1,lte=500"`
}
