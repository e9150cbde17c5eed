package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder exposes the optimization engine's Prometheus metrics.
type Recorder struct {
	optimizations *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	bestEnergy    prometheus.Gauge
	problemSize   prometheus.Histogram
	fetchErrors   *prometheus.CounterVec
}

// New creates a Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		optimizations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qdr_optimizations_total",
				Help: "Completed optimization requests by outcome",
			},
			[]string{"status"},
		),
		stageDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "qdr_stage_duration_seconds",
				Help:    "Duration of each optimization pipeline stage",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		bestEnergy: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "qdr_last_best_energy",
				Help: "QUBO energy of the most recent winning bitstring",
			},
		),
		problemSize: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "qdr_problem_variables",
				Help:    "Binary variable count per solved problem",
				Buckets: []float64{20, 50, 100, 200, 500, 1000, 2000, 5000},
			},
		),
		fetchErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qdr_marketdata_errors_total",
				Help: "Market data fetch failures by source",
			},
			[]string{"source"},
		),
	}
}

// RecordOptimization counts a finished request by outcome label.
func (r *Recorder) RecordOptimization(status string) {
	r.optimizations.WithLabelValues(status).Inc()
}

// RecordStage observes one pipeline stage's duration.
func (r *Recorder) RecordStage(stage string, d time.Duration) {
	r.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordSolution tracks the winning energy and problem size.
func (r *Recorder) RecordSolution(energy float64, variables int) {
	r.bestEnergy.Set(energy)
	r.problemSize.Observe(float64(variables))
}

// RecordFetchError counts a market data failure.
func (r *Recorder) RecordFetchError(source string) {
	r.fetchErrors.WithLabelValues(source).Inc()
}
