package marketdata

import (
	"context"
	"fmt"
	"sync"
	"time"

	"qdr/internal/engine"
	xhttp "qdr/pkg/http"
	xlogger "qdr/pkg/logger"
)

const defaultYahooBaseURL = "https://query1.finance.yahoo.com"

// YahooClient fetches daily closing prices from the Yahoo Finance chart API.
type YahooClient struct {
	baseURL string
	client  *xhttp.Client
	logger  *xlogger.Logger
}

// NewYahooClient creates a Yahoo chart API client. baseURL is overridable
// for tests; empty uses the public endpoint.
func NewYahooClient(baseURL string, timeout time.Duration, logger *xlogger.Logger) *YahooClient {
	if baseURL == "" {
		baseURL = defaultYahooBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &YahooClient{
		baseURL: baseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
		logger:  logger,
	}
}

type yahooQuote struct {
	Close []float64 `json:"close"`
}

type yahooAdjClose struct {
	AdjClose []float64 `json:"adjclose"`
}

type yahooChartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote    []yahooQuote    `json:"quote"`
		AdjClose []yahooAdjClose `json:"adjclose"`
	} `json:"indicators"`
}

type yahooChartResp struct {
	Chart struct {
		Result []yahooChartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// History fetches daily closes for each ticker concurrently. Tickers whose
// chart comes back empty or erroring are collected into missing rather than
// failing the batch.
func (y *YahooClient) History(ctx context.Context, tickers []string, period string) (engine.PriceTable, []string, error) {
	if !ValidPeriod(period) {
		period = DefaultPeriod
	}

	table := make(engine.PriceTable, len(tickers))
	var missing []string
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, t := range tickers {
		wg.Add(1)
		go func(ticker string) {
			defer wg.Done()
			series, err := y.fetchSeries(ctx, ticker, period, "1d")
			mu.Lock()
			defer mu.Unlock()
			if err != nil || len(series) == 0 {
				if err != nil && y.logger != nil {
					y.logger.Warn("yahoo history fetch failed",
						xlogger.String("ticker", ticker), xlogger.Error(err))
				}
				missing = append(missing, ticker)
				return
			}
			table[ticker] = series
		}(t)
	}
	wg.Wait()

	// keep missing in the caller's order for stable metadata
	ordered := make([]string, 0, len(missing))
	for _, t := range tickers {
		for _, m := range missing {
			if m == t {
				ordered = append(ordered, t)
				break
			}
		}
	}
	return table, ordered, nil
}

// Spot returns the latest daily close for a ticker.
func (y *YahooClient) Spot(ctx context.Context, ticker string) (float64, error) {
	series, err := y.fetchSeries(ctx, ticker, "1mo", "1d")
	if err != nil {
		return 0, err
	}
	if len(series) == 0 {
		return 0, fmt.Errorf("yahoo: no recent close for %s", ticker)
	}
	return series[len(series)-1].Close, nil
}

func (y *YahooClient) fetchSeries(ctx context.Context, ticker, rng, interval string) ([]engine.PricePoint, error) {
	var resp yahooChartResp
	err := y.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    fmt.Sprintf("%s/v8/finance/chart/%s", y.baseURL, ticker),
		QueryParams: map[string][]string{
			"range":    {rng},
			"interval": {interval},
		},
		// Yahoo rejects the default Go user agent
		Headers: map[string]string{"User-Agent": "curl/8"},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("yahoo chart %s: %w", ticker, err)
	}

	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart %s: %s (%s)", ticker, resp.Chart.Error.Description, resp.Chart.Error.Code)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo chart %s: empty result", ticker)
	}

	res := resp.Chart.Result[0]
	closes := pickCloses(res.Indicators.AdjClose, res.Indicators.Quote)
	if len(res.Timestamp) == 0 || len(closes) == 0 {
		return nil, fmt.Errorf("yahoo chart %s: no bars", ticker)
	}

	series := make([]engine.PricePoint, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		if i >= len(closes) || closes[i] <= 0 {
			continue
		}
		series = append(series, engine.PricePoint{
			Date:  time.Unix(ts, 0).UTC(),
			Close: closes[i],
		})
	}
	return series, nil
}

// pickCloses prefers adjusted closes when present; they carry the dividend
// and split corrections the raw quote closes lack.
func pickCloses(adj []yahooAdjClose, quote []yahooQuote) []float64 {
	if len(adj) > 0 && len(adj[0].AdjClose) > 0 {
		return adj[0].AdjClose
	}
	if len(quote) > 0 {
		return quote[0].Close
	}
	return nil
}
