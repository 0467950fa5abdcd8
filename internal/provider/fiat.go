package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/lumapay/ratefeed/internal/config"
	"github.com/lumapay/ratefeed/internal/connector"
	"github.com/lumapay/ratefeed/internal/storage"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// fiatWatchList is the fixed currency watch list requested from the fiat
// provider. EUR is implicit as the upstream free tier base.
var fiatWatchList = []string{"USD", "GBP", "CAD", "AUD", "JPY", "CNY", "INR", "NGN"}

// fiatFallbackRates is the last known good table substituted when the
// upstream call fails or reports a business failure. Fiat rates move slowly
// enough that a stale fallback is safer than silence. Records carry the
// Fallback marker so downstream consumers can tell them from live data.
var fiatFallbackRates = []storage.Rate{
	{Base: "EUR", Quote: "USD", Price: 1.08, Fallback: true},
	{Base: "USD", Quote: "GBP", Price: 0.79, Fallback: true},
	{Base: "USD", Quote: "CAD", Price: 1.36, Fallback: true},
	{Base: "USD", Quote: "AUD", Price: 1.52, Fallback: true},
	{Base: "USD", Quote: "JPY", Price: 149.50, Fallback: true},
	{Base: "USD", Quote: "CNY", Price: 7.24, Fallback: true},
	{Base: "USD", Quote: "INR", Price: 83.10, Fallback: true},
	{Base: "USD", Quote: "NGN", Price: 1540.00, Fallback: true},
}

// Fiat is the fiat rate provider adapter. The upstream free tier only serves
// EUR quoted tables, so USD based rates are re-derived from the EUR table:
// the USD to C rate is rates[C] / rates["USD"], and the EUR/USD pair itself
// is emitted as received.
type Fiat struct {
	rest      *connector.REST
	baseURL   string
	accessKey string
}

// NewFiat creates a new fiat provider adapter.
func NewFiat(accessKey string) *Fiat {
	return &Fiat{
		rest:      connector.GetREST(),
		baseURL:   config.FiatProviderRESTBaseURL,
		accessKey: accessKey,
	}
}

// Name returns the provider name.
func (f *Fiat) Name() string {
	return "fiat_provider"
}

// Source returns the provider source tag.
func (f *Fiat) Source() storage.Source {
	return storage.SourceFiatProvider
}

// restRespFiat is the fiat provider latest rates response. Success false
// with an error block is a business failure inside a 200 response.
type restRespFiat struct {
	Success bool               `json:"success"`
	Base    string             `json:"base"`
	Rates   map[string]float64 `json:"rates"`
	Error   struct {
		Code int    `json:"code"`
		Type string `json:"type"`
	} `json:"error"`
}

// FetchRates queries the fiat provider for the EUR quoted rate table and
// re-derives USD based rates from it. Any upstream failure degrades to the
// static fallback table instead of an empty batch.
func (f *Fiat) FetchRates(ctx context.Context) ([]storage.Rate, error) {
	req, err := f.rest.Request(ctx, f.baseURL+"latest")
	if err != nil {
		if !errors.Is(err, ctx.Err()) {
			logErrStack(err)
		}
		return f.fallback("request build failed"), nil
	}
	q := req.URL.Query()
	q.Add("access_key", f.accessKey)
	q.Add("symbols", strings.Join(fiatWatchList, ","))
	req.URL.RawQuery = q.Encode()

	resp, err := f.rest.Do(req)
	if err != nil {
		if !errors.Is(err, ctx.Err()) {
			logErrStack(err)
		}
		return f.fallback("transport failure"), nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return f.fallback(fmt.Sprintf("status %v", resp.StatusCode)), nil
	}

	rr := restRespFiat{}
	if err = jsoniter.NewDecoder(resp.Body).Decode(&rr); err != nil {
		logErrStack(err)
		return f.fallback("decode failure"), nil
	}
	if !rr.Success {
		return f.fallback(fmt.Sprintf("business failure, code %v type %v", rr.Error.Code, rr.Error.Type)), nil
	}

	eurUSD := rr.Rates["USD"]
	if !ValidRate(eurUSD) {
		return f.fallback("missing or invalid EUR to USD rate"), nil
	}

	rates := make([]storage.Rate, 0, len(fiatWatchList))
	rates = append(rates, storage.Rate{Base: "EUR", Quote: "USD", Price: eurUSD})
	for _, c := range fiatWatchList {
		if c == "USD" {
			continue
		}
		eurQuoted := rr.Rates[c]
		if !ValidRate(eurQuoted) {
			continue
		}
		rates = append(rates, storage.Rate{Base: "USD", Quote: c, Price: eurQuoted / eurUSD})
	}
	return rates, nil
}

func (f *Fiat) fallback(reason string) []storage.Rate {
	log.Warn().Str("provider", "fiat_provider").Str("reason", reason).Msg("substituting last known good fallback rates")
	rates := make([]storage.Rate, len(fiatFallbackRates))
	copy(rates, fiatFallbackRates)
	return rates
}
