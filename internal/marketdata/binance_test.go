package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestBinanceRoutable(t *testing.T) {
	b := NewBinanceClient("", time.Second)
	if !b.Routable("BTC-USD") {
		t.Fatalf("BTC-USD should be routable")
	}
	if b.Routable("AAPL") {
		t.Fatalf("AAPL should not be routable")
	}
}

func TestBinanceSpotMapsSymbol(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("symbol"); got != "BTCUSDT" {
			t.Errorf("expected BTCUSDT, got %q", got)
		}
		fmt.Fprint(w, `{"symbol":"BTCUSDT","price":"65000.10"}`)
	}))
	defer srv.Close()

	b := NewBinanceClient(srv.URL, time.Second)
	price, err := b.Spot(context.Background(), "BTC-USD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if price != 65000.10 {
		t.Fatalf("expected 65000.10, got %g", price)
	}
}

func TestBinanceSpotRejectsEquities(t *testing.T) {
	b := NewBinanceClient("", time.Second)
	if _, err := b.Spot(context.Background(), "AAPL"); err == nil {
		t.Fatalf("expected error for non-crypto ticker")
	}
}

func TestSpotResolverFallsBackToYahoo(t *testing.T) {
	// Binance target is unreachable; the resolver must hand crypto tickers
	// to Yahoo instead of failing.
	binanceSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer binanceSrv.Close()

	base := time.Now().UTC()
	yahooSrv := yahooTestServer(t, map[string]string{
		"BTC-USD": chartJSON([]int64{base.Unix()}, []float64{64000}, nil),
	})
	defer yahooSrv.Close()

	r := NewSpotResolver(
		NewBinanceClient(binanceSrv.URL, time.Second),
		NewYahooClient(yahooSrv.URL, time.Second, nil),
	)
	price, err := r.Spot(context.Background(), "BTC-USD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if price != 64000 {
		t.Fatalf("expected yahoo fallback price, got %g", price)
	}
}

func TestSpotResolverRoutesEquitiesToYahoo(t *testing.T) {
	base := time.Now().UTC()
	yahooSrv := yahooTestServer(t, map[string]string{
		"AAPL": chartJSON([]int64{base.Unix()}, []float64{230.5}, nil),
	})
	defer yahooSrv.Close()

	r := NewSpotResolver(
		NewBinanceClient("http://127.0.0.1:0", time.Second),
		NewYahooClient(yahooSrv.URL, time.Second, nil),
	)
	price, err := r.Spot(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if price != 230.5 {
		t.Fatalf("expected 230.5, got %g", price)
	}
}
