package engine

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const (
	// DefaultMinObservations is the minimum price history length a ticker
	// needs to enter the universe.
	DefaultMinObservations = 30

	// minAlignedPrices is the floor for the common date index: 3 prices give
	// 2 returns, the least that sample covariance (ddof=1) can work with.
	minAlignedPrices = 3
)

const dayFormat = "2006-01-02"

// Preprocess turns a raw price table into aligned mean returns and a sample
// covariance matrix. Tickers with missing, short, or unalignable history are
// dropped and reported in the second return value, preserving the caller's
// original symbol order in both the universe and the drop list.
func Preprocess(tickers []string, table PriceTable, minObs int) (*Inputs, []string, error) {
	if minObs <= 0 {
		minObs = DefaultMinObservations
	}

	type series struct {
		ticker string
		byDay  map[string]float64
	}

	// Repeated symbols would alias the same variable block and break the
	// sum-to-1 guarantee downstream; the first occurrence wins.
	seen := make(map[string]bool, len(tickers))
	var kept []series
	var dropped []string
	for _, t := range tickers {
		if seen[t] {
			continue
		}
		seen[t] = true
		byDay := collapseByDay(table[t])
		if len(byDay) < minObs {
			dropped = append(dropped, t)
			continue
		}
		kept = append(kept, series{ticker: t, byDay: byDay})
	}

	// Align to the common date index. If the intersection is too thin, drop
	// the shortest series and retry: one sparse ticker should not starve the
	// rest of the universe.
	var days []string
	for len(kept) >= 2 {
		days = intersectDays(kept, func(s series) map[string]float64 { return s.byDay })
		if len(days) >= minAlignedPrices {
			break
		}
		shortest := 0
		for i := range kept {
			if len(kept[i].byDay) < len(kept[shortest].byDay) {
				shortest = i
			}
		}
		dropped = append(dropped, kept[shortest].ticker)
		kept = append(kept[:shortest], kept[shortest+1:]...)
	}

	if len(kept) < 2 || len(days) < minAlignedPrices {
		var survivors []string
		for _, s := range kept {
			survivors = append(survivors, s.ticker)
		}
		return nil, dropped, &InsufficientDataError{Kept: survivors, Dropped: dropped}
	}
	sort.Strings(days)

	// Periodic returns per asset over the aligned index.
	n := len(kept)
	obs := len(days) - 1
	rets := mat.NewDense(obs, n, nil)
	for j, s := range kept {
		prev := s.byDay[days[0]]
		for t := 1; t < len(days); t++ {
			cur := s.byDay[days[t]]
			rets.Set(t-1, j, cur/prev-1)
			prev = cur
		}
	}

	universe := make(AssetUniverse, n)
	mu := make([]float64, n)
	for j, s := range kept {
		universe[j] = s.ticker
		mu[j] = stat.Mean(mat.Col(nil, j, rets), nil)
	}

	cov := mat.NewSymDense(n, nil)
	stat.CovarianceMatrix(cov, rets, nil)

	// keep dropped in the caller's original order
	dropped = reorderBy(tickers, dropped)

	return &Inputs{Universe: universe, Mu: mu, Cov: cov, Observations: obs}, dropped, nil
}

// collapseByDay indexes a price series by calendar day, keeping the last
// positive observation per day and skipping unusable points.
func collapseByDay(series []PricePoint) map[string]float64 {
	byDay := make(map[string]float64, len(series))
	for _, p := range series {
		if p.Close <= 0 || math.IsNaN(p.Close) || math.IsInf(p.Close, 0) {
			continue
		}
		byDay[p.Date.UTC().Format(dayFormat)] = p.Close
	}
	return byDay
}

func intersectDays[T any](items []T, byDay func(T) map[string]float64) []string {
	if len(items) == 0 {
		return nil
	}
	var days []string
	for d := range byDay(items[0]) {
		common := true
		for _, it := range items[1:] {
			if _, ok := byDay(it)[d]; !ok {
				common = false
				break
			}
		}
		if common {
			days = append(days, d)
		}
	}
	return days
}

func reorderBy(order, subset []string) []string {
	in := make(map[string]bool, len(subset))
	for _, s := range subset {
		in[s] = true
	}
	var out []string
	for _, s := range order {
		if in[s] {
			out = append(out, s)
			in[s] = false
		}
	}
	return out
}
