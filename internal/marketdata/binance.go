package marketdata

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	xhttp "qdr/pkg/http"
)

const defaultBinanceBaseURL = "https://api.binance.com"

// BinanceClient fetches realtime spot prices from the Binance public API.
// Only crypto symbols in the Yahoo "XXX-USD" form are routable; BTC-USD
// maps to the BTCUSDT pair.
type BinanceClient struct {
	baseURL string
	client  *xhttp.Client
}

// NewBinanceClient creates a Binance spot price client.
func NewBinanceClient(baseURL string, timeout time.Duration) *BinanceClient {
	if baseURL == "" {
		baseURL = defaultBinanceBaseURL
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &BinanceClient{
		baseURL: baseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

// Routable reports whether the ticker can be served by Binance.
func (b *BinanceClient) Routable(ticker string) bool {
	return strings.HasSuffix(ticker, "-USD")
}

type binanceTickerResp struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// Spot returns the current pair price for a routable ticker.
func (b *BinanceClient) Spot(ctx context.Context, ticker string) (float64, error) {
	if !b.Routable(ticker) {
		return 0, fmt.Errorf("binance: %s is not a crypto pair", ticker)
	}
	symbol := strings.Replace(ticker, "-USD", "USDT", 1)

	var resp binanceTickerResp
	err := b.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         b.baseURL + "/api/v3/ticker/price",
		QueryParams: map[string][]string{"symbol": {symbol}},
	}, &resp)
	if err != nil {
		return 0, fmt.Errorf("binance ticker %s: %w", symbol, err)
	}

	price, err := strconv.ParseFloat(resp.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("binance ticker %s: bad price %q", symbol, resp.Price)
	}
	return price, nil
}

// SpotResolver picks the freshest available price source per ticker:
// Binance for crypto pairs, Yahoo's latest close as the fallback.
type SpotResolver struct {
	binance *BinanceClient
	yahoo   *YahooClient
}

// NewSpotResolver creates the hybrid realtime price source.
func NewSpotResolver(binance *BinanceClient, yahoo *YahooClient) *SpotResolver {
	return &SpotResolver{binance: binance, yahoo: yahoo}
}

// Spot returns the best-effort current price for a ticker.
func (r *SpotResolver) Spot(ctx context.Context, ticker string) (float64, error) {
	if r.binance != nil && r.binance.Routable(ticker) {
		if price, err := r.binance.Spot(ctx, ticker); err == nil {
			return price, nil
		}
	}
	return r.yahoo.Spot(ctx, ticker)
}
