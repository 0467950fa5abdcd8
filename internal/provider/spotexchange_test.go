package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lumapay/ratefeed/internal/config"
	"github.com/lumapay/ratefeed/internal/connector"
	"github.com/lumapay/ratefeed/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testREST() *connector.REST {
	return connector.InitREST(&config.REST{ReqTimeoutSec: 5})
}

func TestSpotExchangeFetchRates(t *testing.T) {
	var gotSymbols string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSymbols = r.URL.Query().Get("symbols")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"symbol":"BTCUSDT","lastPrice":"43250.50","priceChangePercent":"-1.25","highPrice":"43900.00","lowPrice":"42800.00","volume":"18456.30"},
			{"symbol":"ETHBTC","lastPrice":"0.0521","priceChangePercent":"0.40","highPrice":"0.0530","lowPrice":"0.0515","volume":"9000.1"},
			{"symbol":"BTCEUR","lastPrice":"40100.00","priceChangePercent":"-1.10","highPrice":"40700.00","lowPrice":"39800.00","volume":"512.7"},
			{"symbol":"FOOBAR","lastPrice":"12.34","priceChangePercent":"1.00","highPrice":"13.00","lowPrice":"12.00","volume":"1.0"},
			{"symbol":"ETHUSDT","lastPrice":"0.00","priceChangePercent":"2.10","highPrice":"2300.00","lowPrice":"2200.00","volume":"50000.0"},
			{"symbol":"SOLUSDT","lastPrice":"not-a-number","priceChangePercent":"0.10","highPrice":"150.00","lowPrice":"140.00","volume":"100.0"}
		]`))
	}))
	defer srv.Close()

	p := &SpotExchange{rest: testREST(), baseURL: srv.URL + "/"}
	got, err := p.FetchRates(context.Background())
	require.NoError(t, err)

	// The upstream is asked for the whole watch list in one batch call.
	assert.Contains(t, gotSymbols, "BTCUSDT")
	assert.Contains(t, gotSymbols, "ETHUSDT")

	// Unmapped symbol skipped, zero and non-numeric prices dropped.
	require.Len(t, got, 3)
	byPair := map[string]storage.Rate{}
	for _, r := range got {
		byPair[r.Base+"/"+r.Quote] = r
	}

	// Stablecoin quote asset rewritten to USD, rate taken from the last
	// traded price field and not from the 24h change.
	btcUSD, ok := byPair["BTC/USD"]
	require.True(t, ok)
	assert.Equal(t, 43250.50, btcUSD.Price)
	assert.Equal(t, -1.25, btcUSD.Change24h)
	assert.Equal(t, 43900.00, btcUSD.High24h)
	assert.Equal(t, 42800.00, btcUSD.Low24h)
	assert.Equal(t, 18456.30, btcUSD.Volume24h)
	assert.False(t, btcUSD.Fallback)

	// Non stablecoin quote assets pass through unchanged.
	ethBTC, ok := byPair["ETH/BTC"]
	require.True(t, ok)
	assert.Equal(t, 0.0521, ethBTC.Price)

	btcEUR, ok := byPair["BTC/EUR"]
	require.True(t, ok)
	assert.Equal(t, 40100.00, btcEUR.Price)
}

func TestSpotExchangeFetchRatesUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "teapot", http.StatusTeapot)
	}))
	defer srv.Close()

	p := &SpotExchange{rest: testREST(), baseURL: srv.URL + "/"}
	got, err := p.FetchRates(context.Background())
	assert.Error(t, err)
	assert.Empty(t, got)
}

func TestSpotExchangeFetchRatesTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	p := &SpotExchange{rest: testREST(), baseURL: srv.URL + "/"}
	got, err := p.FetchRates(context.Background())
	assert.Error(t, err)
	assert.Empty(t, got)
}
