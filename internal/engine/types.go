package engine

import (
	"time"

	"gonum.org/v1/gonum/mat"
)

// AssetUniverse is the ordered set of tickers that survived preprocessing.
// The order fixes the binary variable layout for one optimization run.
type AssetUniverse []string

// PricePoint is one observed closing price.
type PricePoint struct {
	Date  time.Time
	Close float64
}

// PriceTable maps a ticker to its time-ordered price history. Series may be
// of unequal length and alignment across tickers.
type PriceTable map[string][]PricePoint

// Inputs is the preprocessed form of a price table: per-asset expected
// periodic returns and their sample covariance, aligned by universe index.
type Inputs struct {
	Universe AssetUniverse
	// Mu holds the arithmetic mean periodic return per asset.
	Mu []float64
	// Cov is the sample covariance matrix (ddof=1) of the aligned returns.
	Cov *mat.SymDense
	// Observations is the number of aligned return observations.
	Observations int
}

// QUBO is a symmetric coefficient matrix over slice variables. The energy of
// a bitstring x is x'Qx, with linear terms folded into the diagonal (x²=x
// for binaries).
type QUBO struct {
	// N is the number of binary variables (assets × slices).
	N int
	// Slices is the discretization granularity the matrix was built with.
	Slices int
	Q      *mat.SymDense
}

// Solution is the annealer's winning assignment.
type Solution struct {
	Bits   []uint8
	Energy float64
}

// Allocation maps each asset in the universe to a normalized weight in
// [0,1]. Weights sum to 1; zero-weight assets are retained.
type Allocation map[string]float64

// Metrics describes the decoded portfolio in periodic-return terms.
// SharpeRatio is a simplified proxy (no risk-free rate subtraction).
type Metrics struct {
	Volatility     float64 `json:"volatility"`
	ExpectedReturn float64 `json:"expected_return"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
}
