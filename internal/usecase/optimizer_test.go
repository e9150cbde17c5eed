package usecase

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"qdr/internal/domain/models"
	"qdr/internal/engine"
)

type fakeProvider struct {
	table      engine.PriceTable
	err        error
	lastPeriod string
}

func (f *fakeProvider) History(ctx context.Context, tickers []string, period string) (engine.PriceTable, []string, error) {
	f.lastPeriod = period
	if f.err != nil {
		return nil, nil, f.err
	}
	var missing []string
	for _, t := range tickers {
		if _, ok := f.table[t]; !ok {
			missing = append(missing, t)
		}
	}
	return f.table, missing, nil
}

func (f *fakeProvider) Spot(ctx context.Context, ticker string) (float64, error) {
	return 0, errors.New("not implemented")
}

type memoryStore struct {
	inserted chan models.RunRecord
}

func (m *memoryStore) Insert(ctx context.Context, rec models.RunRecord) error {
	m.inserted <- rec
	return nil
}

func (m *memoryStore) Recent(ctx context.Context, limit int) ([]models.RunRecord, error) {
	return nil, nil
}

func prices(start float64, n int) []engine.PricePoint {
	base := time.Date(2025, 1, 1, 16, 0, 0, 0, time.UTC)
	out := make([]engine.PricePoint, n)
	v := start
	for i := 0; i < n; i++ {
		out[i] = engine.PricePoint{Date: base.AddDate(0, 0, i), Close: v}
		// alternate small moves so covariance is non-degenerate
		if i%2 == 0 {
			v *= 1.01
		} else {
			v *= 0.995
		}
	}
	return out
}

func testOptimizer(p *fakeProvider, runs RunStore) *PortfolioOptimizer {
	cfg := EngineConfig{
		MinObservations:      30,
		Anneal:               engine.AnnealConfig{Reads: 10, Sweeps: 100},
		AnnualizationPeriods: 252,
	}
	return NewPortfolioOptimizer(p, nil, runs, nil, nil, cfg)
}

func TestOptimizeReportsMissingTickers(t *testing.T) {
	p := &fakeProvider{table: engine.PriceTable{
		"AAA": prices(100, 60),
		"BBB": prices(50, 60),
	}}
	o := testOptimizer(p, nil)

	resp, err := o.Optimize(context.Background(), &models.OptimizeRequest{
		Tickers:      []string{"AAA", "NOPE", "BBB"},
		RiskAversion: 1,
		NumSlices:    8,
		Seed:         7,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Metadata.TickersProcessed != 2 {
		t.Fatalf("expected 2 processed, got %d", resp.Metadata.TickersProcessed)
	}
	if resp.Metadata.MissingTickers != "NOPE" {
		t.Fatalf("unexpected missing %q", resp.Metadata.MissingTickers)
	}
	if resp.Metadata.Algorithm != "Simulated Annealing (QUBO)" {
		t.Fatalf("unexpected algorithm %q", resp.Metadata.Algorithm)
	}
	if s := resp.Metadata.Status; s != models.StatusOptimal && s != models.StatusApproximate {
		t.Fatalf("unexpected status %q", s)
	}

	var sum float64
	for _, w := range resp.Allocation {
		sum += w
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Fatalf("weights sum to %g, want 1", sum)
	}
}

func TestOptimizeJoinsMissingTickers(t *testing.T) {
	p := &fakeProvider{table: engine.PriceTable{
		"AAA": prices(100, 60),
		"BBB": prices(50, 60),
	}}
	o := testOptimizer(p, nil)

	resp, err := o.Optimize(context.Background(), &models.OptimizeRequest{
		Tickers:      []string{"NOPE", "AAA", "NADA", "BBB"},
		RiskAversion: 1,
		NumSlices:    8,
		Seed:         7,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Metadata.MissingTickers != "NOPE, NADA" {
		t.Fatalf("unexpected missing %q", resp.Metadata.MissingTickers)
	}
}

func TestOptimizeUsesConfiguredDefaults(t *testing.T) {
	p := &fakeProvider{table: engine.PriceTable{
		"AAA": prices(100, 60),
		"BBB": prices(50, 60),
	}}
	store := &memoryStore{inserted: make(chan models.RunRecord, 1)}
	cfg := EngineConfig{
		MinObservations:      30,
		DefaultSlices:        6,
		DefaultPeriod:        "3mo",
		Anneal:               engine.AnnealConfig{Reads: 10, Sweeps: 100},
		AnnualizationPeriods: 252,
	}
	o := NewPortfolioOptimizer(p, nil, store, nil, nil, cfg)

	_, err := o.Optimize(context.Background(), &models.OptimizeRequest{
		Tickers:      []string{"AAA", "BBB"},
		RiskAversion: 1,
		Seed:         5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.lastPeriod != "3mo" {
		t.Fatalf("fetched period %q, want configured default 3mo", p.lastPeriod)
	}

	select {
	case rec := <-store.inserted:
		if rec.NumSlices != 6 {
			t.Fatalf("recorded %d slices, want configured default 6", rec.NumSlices)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("run record never inserted")
	}
}

func TestOptimizeSingleSurvivorFails(t *testing.T) {
	p := &fakeProvider{table: engine.PriceTable{
		"AAA": prices(100, 60),
		"BBB": prices(50, 5),
	}}
	o := testOptimizer(p, nil)

	_, err := o.Optimize(context.Background(), &models.OptimizeRequest{
		Tickers:      []string{"AAA", "BBB"},
		RiskAversion: 1,
	})
	var ide *engine.InsufficientDataError
	if !errors.As(err, &ide) {
		t.Fatalf("expected InsufficientDataError, got %v", err)
	}
}

func TestOptimizeFetchErrorPropagates(t *testing.T) {
	p := &fakeProvider{err: errors.New("upstream down")}
	o := testOptimizer(p, nil)

	_, err := o.Optimize(context.Background(), &models.OptimizeRequest{
		Tickers:      []string{"AAA", "BBB"},
		RiskAversion: 1,
	})
	if err == nil || !errors.Is(err, p.err) {
		t.Fatalf("expected wrapped fetch error, got %v", err)
	}
}

func TestOptimizeRecordsRun(t *testing.T) {
	p := &fakeProvider{table: engine.PriceTable{
		"AAA": prices(100, 60),
		"BBB": prices(50, 60),
	}}
	store := &memoryStore{inserted: make(chan models.RunRecord, 1)}
	o := testOptimizer(p, store)

	_, err := o.Optimize(context.Background(), &models.OptimizeRequest{
		Tickers:      []string{"AAA", "BBB"},
		RiskAversion: 1,
		NumSlices:    8,
		Seed:         3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case rec := <-store.inserted:
		if rec.Tickers != "AAA,BBB" {
			t.Fatalf("unexpected tickers %q", rec.Tickers)
		}
		if rec.Status == "" || rec.Timestamp.IsZero() {
			t.Fatalf("incomplete record %+v", rec)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("run record never inserted")
	}
}

func TestOptimizeReproducibleWithSeed(t *testing.T) {
	p := &fakeProvider{table: engine.PriceTable{
		"AAA": prices(100, 60),
		"BBB": prices(50, 60),
	}}
	o := testOptimizer(p, nil)

	req := &models.OptimizeRequest{
		Tickers:      []string{"AAA", "BBB"},
		RiskAversion: 1,
		NumSlices:    8,
		Seed:         99,
	}
	a, err := o.Optimize(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := o.Optimize(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for k := range a.Allocation {
		if a.Allocation[k] != b.Allocation[k] {
			t.Fatalf("allocations differ for %s: %g vs %g", k, a.Allocation[k], b.Allocation[k])
		}
	}
}

func TestRunsWithoutStore(t *testing.T) {
	o := testOptimizer(&fakeProvider{}, nil)
	runs, err := o.Runs(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if runs != nil {
		t.Fatalf("expected no runs, got %v", runs)
	}
}
