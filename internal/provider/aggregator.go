package provider

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/lumapay/ratefeed/internal/config"
	"github.com/lumapay/ratefeed/internal/connector"
	"github.com/lumapay/ratefeed/internal/storage"
	"github.com/pkg/errors"
)

// aggregatorCoins maps the aggregator slug coin IDs of the fixed
// watch list to canonical currency codes. Iteration goes over this table,
// not the response, so coins absent from a response are simply omitted.
// Immutable lookup data owned by this adapter.
var aggregatorCoins = map[string]string{
	"bitcoin":     "BTC",
	"ethereum":    "ETH",
	"tether":      "USDT",
	"binancecoin": "BNB",
	"solana":      "SOL",
	"ripple":      "XRP",
	"cardano":     "ADA",
	"dogecoin":    "DOGE",
	"polkadot":    "DOT",
	"avalanche-2": "AVAX",
}

// aggregatorVsCurrencies are the quote currencies requested per coin.
var aggregatorVsCurrencies = []string{"usd", "eur"}

// Aggregator is the crypto market data aggregator adapter. It requests one
// batch simple price call per cycle with 24h change, volume and market cap
// flags enabled.
type Aggregator struct {
	rest    *connector.REST
	baseURL string
}

// NewAggregator creates a new aggregator adapter.
func NewAggregator() *Aggregator {
	return &Aggregator{
		rest:    connector.GetREST(),
		baseURL: config.AggregatorRESTBaseURL,
	}
}

// Name returns the provider name.
func (a *Aggregator) Name() string {
	return "aggregator"
}

// Source returns the provider source tag.
func (a *Aggregator) Source() storage.Source {
	return storage.SourceAggregator
}

// FetchRates queries the aggregator for a batch simple price snapshot and
// transforms it to the common rate store format. The response is keyed by
// coin ID with flat per-vs-currency attributes, for example
// "usd", "usd_24h_change", "usd_24h_vol", "usd_market_cap".
func (a *Aggregator) FetchRates(ctx context.Context) ([]storage.Rate, error) {
	ids := make([]string, 0, len(aggregatorCoins))
	for id := range aggregatorCoins {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	req, err := a.rest.Request(ctx, a.baseURL+"simple/price")
	if err != nil {
		if !errors.Is(err, ctx.Err()) {
			logErrStack(err)
		}
		return nil, err
	}
	q := req.URL.Query()
	q.Add("ids", strings.Join(ids, ","))
	q.Add("vs_currencies", strings.Join(aggregatorVsCurrencies, ","))
	q.Add("include_24hr_change", "true")
	q.Add("include_24hr_vol", "true")
	q.Add("include_market_cap", "true")
	req.URL.RawQuery = q.Encode()

	resp, err := a.rest.Do(req)
	if err != nil {
		if !errors.Is(err, ctx.Err()) {
			logErrStack(err)
		}
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(fmt.Sprintf("aggregator simple price request : code %v, status %v", resp.StatusCode, resp.Status))
	}

	rr := map[string]map[string]float64{}
	if err = jsoniter.NewDecoder(resp.Body).Decode(&rr); err != nil {
		logErrStack(err)
		return nil, err
	}

	rates := make([]storage.Rate, 0, len(ids)*len(aggregatorVsCurrencies))
	for _, id := range ids {
		entry, ok := rr[id]
		if !ok {
			continue
		}
		symbol := aggregatorCoins[id]
		for _, vs := range aggregatorVsCurrencies {
			price := entry[vs]
			if !ValidRate(price) {
				continue
			}
			rates = append(rates, storage.Rate{
				Base:      symbol,
				Quote:     strings.ToUpper(vs),
				Price:     price,
				Change24h: entry[vs+"_24h_change"],
				Volume24h: entry[vs+"_24h_vol"],
				MarketCap: entry[vs+"_market_cap"],
			})
		}
	}
	return rates, nil
}
