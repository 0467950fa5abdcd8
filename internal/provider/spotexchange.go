package provider

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/lumapay/ratefeed/internal/config"
	"github.com/lumapay/ratefeed/internal/connector"
	"github.com/lumapay/ratefeed/internal/storage"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// spotMarkets maps the exchange ticker symbol of each watched trading pair
// to its base and quote asset. Symbols absent from this table are skipped,
// not errored. Immutable lookup data owned by this adapter.
var spotMarkets = map[string][2]string{
	"BTCUSDT":  {"BTC", "USDT"},
	"ETHUSDT":  {"ETH", "USDT"},
	"BNBUSDT":  {"BNB", "USDT"},
	"SOLUSDT":  {"SOL", "USDT"},
	"XRPUSDT":  {"XRP", "USDT"},
	"ADAUSDT":  {"ADA", "USDT"},
	"DOGEUSDT": {"DOGE", "USDT"},
	"DOTUSDT":  {"DOT", "USDT"},
	"ETHBTC":   {"ETH", "BTC"},
	"BTCEUR":   {"BTC", "EUR"},
}

// SpotExchange is the crypto spot exchange adapter. It requests one batch
// 24h ticker snapshot per cycle for the fixed watch list.
type SpotExchange struct {
	rest    *connector.REST
	baseURL string
}

// NewSpotExchange creates a new spot exchange adapter.
func NewSpotExchange() *SpotExchange {
	return &SpotExchange{
		rest:    connector.GetREST(),
		baseURL: config.SpotExchangeRESTBaseURL,
	}
}

// Name returns the provider name.
func (s *SpotExchange) Name() string {
	return "spot_exchange"
}

// Source returns the provider source tag.
func (s *SpotExchange) Source() storage.Source {
	return storage.SourceSpotExchange
}

// restTickerSpot is one entry of the exchange 24h ticker response.
// LastPrice is the documented last traded price field; PriceChangePercent is
// the 24h change and must never be used as the rate.
type restTickerSpot struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	PriceChangePercent string `json:"priceChangePercent"`
	HighPrice          string `json:"highPrice"`
	LowPrice           string `json:"lowPrice"`
	Volume             string `json:"volume"`
}

// FetchRates queries the exchange for a batch ticker snapshot and transforms
// it to the common rate store format.
func (s *SpotExchange) FetchRates(ctx context.Context) ([]storage.Rate, error) {
	symbols := make([]string, 0, len(spotMarkets))
	for symbol := range spotMarkets {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	req, err := s.rest.Request(ctx, s.baseURL+"ticker/24hr")
	if err != nil {
		if !errors.Is(err, ctx.Err()) {
			logErrStack(err)
		}
		return nil, err
	}
	q := req.URL.Query()
	q.Add("symbols", `["`+strings.Join(symbols, `","`)+`"]`)
	req.URL.RawQuery = q.Encode()

	resp, err := s.rest.Do(req)
	if err != nil {
		if !errors.Is(err, ctx.Err()) {
			logErrStack(err)
		}
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(fmt.Sprintf("spot exchange ticker request : code %v, status %v", resp.StatusCode, resp.Status))
	}

	rr := []restTickerSpot{}
	if err = jsoniter.NewDecoder(resp.Body).Decode(&rr); err != nil {
		logErrStack(err)
		return nil, err
	}

	rates := make([]storage.Rate, 0, len(rr))
	for i := range rr {
		r := rr[i]
		pair, ok := spotMarkets[r.Symbol]
		if !ok {
			continue
		}

		price, err := strconv.ParseFloat(r.LastPrice, 64)
		if err != nil || !ValidRate(price) {
			log.Debug().Str("provider", "spot_exchange").Str("symbol", r.Symbol).Str("last_price", r.LastPrice).Msg("dropping record with invalid price")
			continue
		}

		rate := storage.Rate{
			Base:  pair[0],
			Quote: NormalizeQuote(pair[1]),
			Price: price,
		}

		// Optional attributes, absent stays zero.
		if v, err := strconv.ParseFloat(r.PriceChangePercent, 64); err == nil {
			rate.Change24h = v
		}
		if v, err := strconv.ParseFloat(r.HighPrice, 64); err == nil {
			rate.High24h = v
		}
		if v, err := strconv.ParseFloat(r.LowPrice, 64); err == nil {
			rate.Low24h = v
		}
		if v, err := strconv.ParseFloat(r.Volume, 64); err == nil {
			rate.Volume24h = v
		}

		rates = append(rates, rate)
	}
	return rates, nil
}
