package engine

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestComputeMetricsKnownValues(t *testing.T) {
	cov := mat.NewSymDense(2, []float64{
		0.04, 0.00,
		0.00, 0.01,
	})
	in := &Inputs{
		Universe: AssetUniverse{"AAA", "BBB"},
		Mu:       []float64{0.02, 0.01},
		Cov:      cov,
	}
	m := ComputeMetrics(Allocation{"AAA": 0.5, "BBB": 0.5}, in)

	if math.Abs(m.ExpectedReturn-0.015) > 1e-12 {
		t.Fatalf("expected return 0.015, got %g", m.ExpectedReturn)
	}
	// w'Cw = 0.25·0.04 + 0.25·0.01 = 0.0125
	wantVol := math.Sqrt(0.0125)
	if math.Abs(m.Volatility-wantVol) > 1e-12 {
		t.Fatalf("expected vol %g, got %g", wantVol, m.Volatility)
	}
	if math.Abs(m.SharpeRatio-0.015/wantVol) > 1e-12 {
		t.Fatalf("unexpected sharpe %g", m.SharpeRatio)
	}
}

func TestComputeMetricsZeroVolatility(t *testing.T) {
	in := &Inputs{
		Universe: AssetUniverse{"AAA", "BBB"},
		Mu:       []float64{0.01, 0.01},
		Cov:      mat.NewSymDense(2, nil),
	}
	m := ComputeMetrics(Allocation{"AAA": 0.5, "BBB": 0.5}, in)
	if m.Volatility != 0 {
		t.Fatalf("expected zero vol, got %g", m.Volatility)
	}
	if m.SharpeRatio != 0 {
		t.Fatalf("expected sharpe 0 at zero vol, got %g", m.SharpeRatio)
	}
	if math.IsNaN(m.SharpeRatio) {
		t.Fatalf("sharpe must not be NaN")
	}
}

func TestAnnualize(t *testing.T) {
	m := Metrics{ExpectedReturn: 0.001, Volatility: 0.02, SharpeRatio: 0.05}
	a := m.Annualize(252)
	if math.Abs(a.ExpectedReturn-0.252) > 1e-12 {
		t.Fatalf("unexpected annual return %g", a.ExpectedReturn)
	}
	wantVol := 0.02 * math.Sqrt(252)
	if math.Abs(a.Volatility-wantVol) > 1e-12 {
		t.Fatalf("unexpected annual vol %g", a.Volatility)
	}
	if math.Abs(a.SharpeRatio-a.ExpectedReturn/a.Volatility) > 1e-12 {
		t.Fatalf("unexpected annual sharpe %g", a.SharpeRatio)
	}
}

func TestAnnualizeNoOp(t *testing.T) {
	m := Metrics{ExpectedReturn: 0.001, Volatility: 0.02, SharpeRatio: 0.05}
	if got := m.Annualize(1); got != m {
		t.Fatalf("expected no-op, got %+v", got)
	}
	if got := m.Annualize(0); got != m {
		t.Fatalf("expected no-op, got %+v", got)
	}
}

func TestRiskAversionTradesReturnForRisk(t *testing.T) {
	// Higher risk aversion must not produce a riskier portfolio on the
	// same inputs.
	cov := mat.NewSymDense(2, []float64{
		0.09, 0.00,
		0.00, 0.01,
	})
	in := &Inputs{
		Universe: AssetUniverse{"AAA", "BBB"},
		Mu:       []float64{0.03, 0.005},
		Cov:      cov,
	}
	const slices = 10

	solve := func(lambda float64) Metrics {
		q := BuildQUBO(in, lambda, slices, 10)
		sol, err := Anneal(q, AnnealConfig{Reads: 30, Sweeps: 400, Seed: 23})
		if err != nil {
			t.Fatalf("anneal: %v", err)
		}
		alloc, _, err := Decode(sol, in.Universe, slices)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		return ComputeMetrics(alloc, in)
	}

	relaxed := solve(0.1)
	strict := solve(25)
	if strict.Volatility > relaxed.Volatility+1e-9 {
		t.Fatalf("vol rose with risk aversion: %g -> %g", relaxed.Volatility, strict.Volatility)
	}
}
