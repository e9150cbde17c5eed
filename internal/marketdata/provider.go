package marketdata

import (
	"context"

	"qdr/internal/engine"
)

// Provider retrieves historical and realtime prices. History tolerates
// unavailable symbols: they are reported in the missing slice instead of
// failing the whole request.
type Provider interface {
	History(ctx context.Context, tickers []string, period string) (engine.PriceTable, []string, error)
	Spot(ctx context.Context, ticker string) (float64, error)
}

// Periods accepted by the history endpoint, matching Yahoo chart ranges.
var Periods = []string{"1mo", "3mo", "6mo", "1y", "2y", "5y"}

// DefaultPeriod is one year of daily closes.
const DefaultPeriod = "1y"

// ValidPeriod reports whether p is a supported history range.
func ValidPeriod(p string) bool {
	for _, v := range Periods {
		if v == p {
			return true
		}
	}
	return false
}
