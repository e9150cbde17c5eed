package engine

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// ComputeMetrics derives the portfolio's expected periodic return, its
// volatility sqrt(w'Cw), and their ratio from a decoded allocation. The
// ratio is a simplified Sharpe proxy — no risk-free rate is subtracted —
// and is defined as 0 when volatility is exactly 0 rather than NaN.
func ComputeMetrics(alloc Allocation, in *Inputs) Metrics {
	n := len(in.Universe)
	w := mat.NewVecDense(n, nil)
	for i, t := range in.Universe {
		w.SetVec(i, alloc[t])
	}

	var expected float64
	for i := 0; i < n; i++ {
		expected += w.AtVec(i) * in.Mu[i]
	}

	variance := mat.Inner(w, in.Cov, w)
	if variance < 0 {
		// numerical noise on a PSD matrix
		variance = 0
	}
	volatility := math.Sqrt(variance)

	sharpe := 0.0
	if volatility > 0 {
		sharpe = expected / volatility
	}

	return Metrics{
		Volatility:     volatility,
		ExpectedReturn: expected,
		SharpeRatio:    sharpe,
	}
}

// Annualize scales periodic metrics by the number of periods per year
// (daily data uses 252 trading days). periods <= 1 is a no-op.
func (m Metrics) Annualize(periods int) Metrics {
	if periods <= 1 {
		return m
	}
	p := float64(periods)
	out := Metrics{
		ExpectedReturn: m.ExpectedReturn * p,
		Volatility:     m.Volatility * math.Sqrt(p),
	}
	if out.Volatility > 0 {
		out.SharpeRatio = out.ExpectedReturn / out.Volatility
	}
	return out
}
