package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lumapay/ratefeed/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregatorFetchRates(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"ids":                 r.URL.Query().Get("ids"),
			"vs_currencies":       r.URL.Query().Get("vs_currencies"),
			"include_24hr_change": r.URL.Query().Get("include_24hr_change"),
			"include_24hr_vol":    r.URL.Query().Get("include_24hr_vol"),
			"include_market_cap":  r.URL.Query().Get("include_market_cap"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"bitcoin":{"usd":43250.5,"usd_24h_change":-1.25,"usd_24h_vol":28100000000,"usd_market_cap":846000000000,"eur":40100.0,"eur_24h_change":-1.10,"eur_24h_vol":26000000000,"eur_market_cap":784000000000},
			"ethereum":{"usd":2250.0,"usd_24h_change":2.10,"usd_24h_vol":12000000000,"usd_market_cap":270000000000,"eur":2086.0,"eur_24h_change":2.00,"eur_24h_vol":11000000000,"eur_market_cap":250000000000},
			"tether":{"usd":0.0,"eur":0.93},
			"an-unknown-coin":{"usd":1.0}
		}`))
	}))
	defer srv.Close()

	p := &Aggregator{rest: testREST(), baseURL: srv.URL + "/"}
	got, err := p.FetchRates(context.Background())
	require.NoError(t, err)

	// One batch call with every watched coin ID and both vs currencies.
	assert.Contains(t, gotQuery["ids"], "bitcoin")
	assert.Contains(t, gotQuery["ids"], "polkadot")
	assert.Equal(t, "usd,eur", gotQuery["vs_currencies"])
	assert.Equal(t, "true", gotQuery["include_24hr_change"])
	assert.Equal(t, "true", gotQuery["include_24hr_vol"])
	assert.Equal(t, "true", gotQuery["include_market_cap"])

	// Coins in the map but absent from the response are omitted, never an
	// error. Zero priced vs currencies are dropped, the rest of the coin's
	// records survive.
	byPairQuote := map[string]storage.Rate{}
	for _, r := range got {
		byPairQuote[r.Base+"/"+r.Quote] = r
	}
	require.Len(t, got, 5)

	btcUSD := byPairQuote["BTC/USD"]
	assert.Equal(t, 43250.5, btcUSD.Price)
	assert.Equal(t, -1.25, btcUSD.Change24h)
	assert.Equal(t, 2.81e10, btcUSD.Volume24h)
	assert.Equal(t, 8.46e11, btcUSD.MarketCap)

	btcEUR := byPairQuote["BTC/EUR"]
	assert.Equal(t, 40100.0, btcEUR.Price)
	assert.Equal(t, 7.84e11, btcEUR.MarketCap)

	// tether usd is zero and dropped, its eur record stays.
	_, hasUSDTUSD := byPairQuote["USDT/USD"]
	assert.False(t, hasUSDTUSD)
	usdtEUR := byPairQuote["USDT/EUR"]
	assert.Equal(t, 0.93, usdtEUR.Price)
}

func TestAggregatorFetchRatesUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := &Aggregator{rest: testREST(), baseURL: srv.URL + "/"}
	got, err := p.FetchRates(context.Background())
	assert.Error(t, err)
	assert.Empty(t, got)
}
