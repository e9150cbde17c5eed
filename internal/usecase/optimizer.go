package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"qdr/internal/domain/models"
	"qdr/internal/engine"
	"qdr/internal/marketdata"
	"qdr/pkg/metrics"

	xlogger "qdr/pkg/logger"
)

// algorithmName is reported in response metadata.
const algorithmName = "Simulated Annealing (QUBO)"

// spotTimeout bounds the best-effort realtime price lookups; they must not
// hold an otherwise finished optimization hostage.
const spotTimeout = 5 * time.Second

// RunStore persists completed optimization runs.
type RunStore interface {
	Insert(ctx context.Context, rec models.RunRecord) error
	Recent(ctx context.Context, limit int) ([]models.RunRecord, error)
}

// EngineConfig carries the engine tunables threaded from configuration.
// Every run is fully reproducible from these plus the request.
type EngineConfig struct {
	MinObservations      int
	PenaltyMultiplier    float64
	DefaultSlices        int
	DefaultPeriod        string
	Anneal               engine.AnnealConfig
	AnnualizationPeriods int
}

// PortfolioOptimizer drives one optimization request through the pipeline:
// fetch, preprocess, QUBO build, anneal, decode, metrics.
type PortfolioOptimizer struct {
	provider marketdata.Provider
	spots    *marketdata.SpotResolver
	runs     RunStore
	recorder *metrics.Recorder
	logger   *xlogger.Logger
	cfg      EngineConfig
}

// NewPortfolioOptimizer creates the optimization usecase. spots, runs, and
// recorder may each be nil to disable that concern.
func NewPortfolioOptimizer(
	provider marketdata.Provider,
	spots *marketdata.SpotResolver,
	runs RunStore,
	recorder *metrics.Recorder,
	logger *xlogger.Logger,
	cfg EngineConfig,
) *PortfolioOptimizer {
	return &PortfolioOptimizer{
		provider: provider,
		spots:    spots,
		runs:     runs,
		recorder: recorder,
		logger:   logger,
		cfg:      cfg,
	}
}

// Optimize runs the full pipeline for one request. Data-quality problems
// with single tickers are recovered by exclusion and reported in metadata;
// typed engine errors propagate so the transport layer can map them.
func (o *PortfolioOptimizer) Optimize(ctx context.Context, req *models.OptimizeRequest) (*models.PortfolioResponse, error) {
	start := time.Now()

	period := req.Period
	if period == "" {
		period = o.cfg.DefaultPeriod
	}
	if period == "" {
		period = marketdata.DefaultPeriod
	}
	numSlices := req.NumSlices
	if numSlices <= 0 {
		numSlices = o.cfg.DefaultSlices
	}
	if numSlices <= 0 {
		numSlices = engine.DefaultSlices
	}

	fetchStart := time.Now()
	prices, _, err := o.provider.History(ctx, req.Tickers, period)
	if err != nil {
		o.countOutcome("fetch_error")
		if o.recorder != nil {
			o.recorder.RecordFetchError("history")
		}
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	o.recordStage("fetch", fetchStart)

	stageStart := time.Now()
	in, dropped, err := engine.Preprocess(req.Tickers, prices, o.cfg.MinObservations)
	if err != nil {
		o.countOutcome("insufficient_data")
		return nil, err
	}
	o.recordStage("preprocess", stageStart)

	stageStart = time.Now()
	qubo := engine.BuildQUBO(in, req.RiskAversion, numSlices, o.cfg.PenaltyMultiplier)
	o.recordStage("build", stageStart)

	annealCfg := o.cfg.Anneal
	annealCfg.Seed = req.Seed

	stageStart = time.Now()
	sol, err := engine.Anneal(qubo, annealCfg)
	if err != nil {
		o.countOutcome("empty_problem")
		return nil, err
	}
	o.recordStage("anneal", stageStart)
	if o.recorder != nil {
		o.recorder.RecordSolution(sol.Energy, qubo.N)
	}

	alloc, rawSum, err := engine.Decode(sol, in.Universe, numSlices)
	if err != nil {
		o.countOutcome("degenerate")
		return nil, err
	}

	result := engine.ComputeMetrics(alloc, in).Annualize(o.cfg.AnnualizationPeriods)

	// The budget penalty is soft: the annealer may land within half a slice
	// of the full investment or the decoder may have had to renormalize.
	status := models.StatusApproximate
	if diff := rawSum - 1; diff < 0.5/float64(numSlices) && diff > -0.5/float64(numSlices) {
		status = models.StatusOptimal
	}

	resp := &models.PortfolioResponse{
		Allocation: alloc,
		Metrics:    result,
		Metadata: models.Metadata{
			Status:           status,
			Algorithm:        algorithmName,
			TickersProcessed: len(in.Universe),
			MissingTickers:   strings.Join(dropped, ", "),
		},
		CurrentPrices: o.currentPrices(ctx, in.Universe),
	}

	o.countOutcome(status)
	o.recordRun(req, resp, numSlices, sol.Energy, time.Since(start))

	if o.logger != nil {
		o.logger.Info("optimization complete",
			xlogger.Int("assets", len(in.Universe)),
			xlogger.Int("variables", qubo.N),
			xlogger.Float64("energy", sol.Energy),
			xlogger.String("status", status),
			xlogger.Duration("duration_ms", time.Since(start)),
		)
	}

	return resp, nil
}

// Runs lists recent optimization runs, newest first.
func (o *PortfolioOptimizer) Runs(ctx context.Context, limit int) ([]models.RunRecord, error) {
	if o.runs == nil {
		return nil, nil
	}
	return o.runs.Recent(ctx, limit)
}

// currentPrices resolves best-effort realtime prices for the universe.
// Failures drop the symbol from the map rather than failing the response.
func (o *PortfolioOptimizer) currentPrices(ctx context.Context, universe engine.AssetUniverse) map[string]float64 {
	if o.spots == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, spotTimeout)
	defer cancel()

	prices := make(map[string]float64, len(universe))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, t := range universe {
		wg.Add(1)
		go func(ticker string) {
			defer wg.Done()
			price, err := o.spots.Spot(ctx, ticker)
			if err != nil {
				if o.recorder != nil {
					o.recorder.RecordFetchError("spot")
				}
				return
			}
			mu.Lock()
			prices[ticker] = price
			mu.Unlock()
		}(t)
	}
	wg.Wait()

	if len(prices) == 0 {
		return nil
	}
	return prices
}

// recordRun persists the run asynchronously; history is best-effort and
// never fails the request.
func (o *PortfolioOptimizer) recordRun(req *models.OptimizeRequest, resp *models.PortfolioResponse, numSlices int, energy float64, took time.Duration) {
	if o.runs == nil {
		return
	}

	rec := models.RunRecord{
		Timestamp:      time.Now().UTC(),
		Tickers:        strings.Join(req.Tickers, ","),
		RiskAversion:   req.RiskAversion,
		NumSlices:      numSlices,
		ExpectedReturn: resp.Metrics.ExpectedReturn,
		Volatility:     resp.Metrics.Volatility,
		SharpeRatio:    resp.Metrics.SharpeRatio,
		Energy:         energy,
		Status:         resp.Metadata.Status,
		DurationMS:     took.Milliseconds(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := o.runs.Insert(ctx, rec); err != nil && o.logger != nil {
			o.logger.Warn("run history insert failed", xlogger.Error(err))
		}
	}()
}

func (o *PortfolioOptimizer) countOutcome(status string) {
	if o.recorder != nil {
		o.recorder.RecordOptimization(status)
	}
}

func (o *PortfolioOptimizer) recordStage(stage string, since time.Time) {
	if o.recorder != nil {
		o.recorder.RecordStage(stage, time.Since(since))
	}
}
