package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"qdr/internal/engine"
	"qdr/pkg/cache"
	xlogger "qdr/pkg/logger"
)

// DefaultHistoryTTL bounds how stale a cached price history may be. Daily
// bars only move once a session, so minutes of staleness are fine.
const DefaultHistoryTTL = 15 * time.Minute

// CachedProvider wraps a Provider with a per-ticker history cache. Each
// (ticker, period) series is cached independently so a request reusing some
// tickers only refetches the cold ones. A singleflight group collapses
// concurrent fetches of the same series.
type CachedProvider struct {
	under  Provider
	cache  cache.Service
	ttl    time.Duration
	group  singleflight.Group
	logger *xlogger.Logger
}

// NewCachedProvider decorates a provider with caching. A nil cache service
// degrades to pass-through with singleflight only.
func NewCachedProvider(under Provider, svc cache.Service, ttl time.Duration, logger *xlogger.Logger) *CachedProvider {
	if ttl <= 0 {
		ttl = DefaultHistoryTTL
	}
	return &CachedProvider{under: under, cache: svc, ttl: ttl, logger: logger}
}

func historyKey(ticker, period string) string {
	return fmt.Sprintf("history:%s:%s", period, ticker)
}

// History serves each ticker from cache when possible and fetches the rest
// through the underlying provider.
func (p *CachedProvider) History(ctx context.Context, tickers []string, period string) (engine.PriceTable, []string, error) {
	table := make(engine.PriceTable, len(tickers))
	var cold []string

	for _, t := range tickers {
		if series, ok := p.lookup(ctx, t, period); ok {
			table[t] = series
			continue
		}
		cold = append(cold, t)
	}

	// Cold tickers fetch in parallel; each flight is still keyed per
	// series so concurrent requests share in-progress fetches.
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
		isCold   = make(map[string]bool, len(cold))
	)
	for _, t := range cold {
		isCold[t] = true
		wg.Add(1)
		go func(t string) {
			defer wg.Done()
			series, err, _ := p.group.Do(historyKey(t, period), func() (interface{}, error) {
				fetched, fetchMissing, err := p.under.History(ctx, []string{t}, period)
				if err != nil {
					return nil, err
				}
				if len(fetchMissing) > 0 || len(fetched[t]) == 0 {
					return []engine.PricePoint(nil), nil
				}
				p.store(ctx, t, period, fetched[t])
				return fetched[t], nil
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			if pts := series.([]engine.PricePoint); len(pts) > 0 {
				table[t] = pts
			}
		}(t)
	}
	wg.Wait()
	if firstErr != nil {
		return nil, nil, firstErr
	}

	// Report missing in the caller's ticker order.
	var missing []string
	for _, t := range tickers {
		if isCold[t] && table[t] == nil {
			missing = append(missing, t)
			isCold[t] = false
		}
	}

	return table, missing, nil
}

// Spot is never cached; it passes straight through.
func (p *CachedProvider) Spot(ctx context.Context, ticker string) (float64, error) {
	return p.under.Spot(ctx, ticker)
}

func (p *CachedProvider) lookup(ctx context.Context, ticker, period string) ([]engine.PricePoint, bool) {
	if p.cache == nil {
		return nil, false
	}
	var raw string
	if err := p.cache.Get(ctx, historyKey(ticker, period), &raw); err != nil {
		return nil, false
	}
	var series []engine.PricePoint
	if err := json.Unmarshal([]byte(raw), &series); err != nil {
		return nil, false
	}
	return series, len(series) > 0
}

func (p *CachedProvider) store(ctx context.Context, ticker, period string, series []engine.PricePoint) {
	if p.cache == nil {
		return
	}
	raw, err := json.Marshal(series)
	if err != nil {
		return
	}
	if err := p.cache.Set(ctx, historyKey(ticker, period), string(raw), p.ttl); err != nil && p.logger != nil {
		p.logger.Warn("price cache store failed",
			xlogger.String("ticker", ticker), xlogger.Error(err))
	}
}
