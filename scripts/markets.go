package main

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/lumapay/ratefeed/internal/config"
	"github.com/rs/zerolog/log"
)

// This function will query the crypto providers for their supported markets
// and coins and store them in a csv file. Users can look up to this csv file
// when extending the watch lists of the provider adapters.
// CSV file created at ./examples/markets.csv.
func main() {
	f, err := os.Create("./examples/markets.csv")
	if err != nil {
		log.Error().Err(err).Str("provider", "spot_exchange").Msg("csv file create")
		return
	}
	w := csv.NewWriter(f)
	defer w.Flush()
	defer f.Close()

	// Spot exchange.
	resp, err := http.Get(config.SpotExchangeRESTBaseURL + "exchangeInfo")
	if err != nil {
		log.Error().Err(err).Str("provider", "spot_exchange").Msg("provider request for markets")
		return
	}
	spotMarkets := spotResp{}
	if err = jsoniter.NewDecoder(resp.Body).Decode(&spotMarkets); err != nil {
		log.Error().Err(err).Str("provider", "spot_exchange").Msg("convert markets response")
		return
	}
	resp.Body.Close()
	for _, record := range spotMarkets.Result {
		if record.Status != "TRADING" {
			continue
		}
		if err = w.Write([]string{"spot_exchange", record.Name, record.Base, record.Quote}); err != nil {
			log.Error().Err(err).Str("provider", "spot_exchange").Msg("writing markets to csv")
			return
		}
	}

	// Aggregator.
	resp, err = http.Get(config.AggregatorRESTBaseURL + "coins/list")
	if err != nil {
		log.Error().Err(err).Str("provider", "aggregator").Msg("provider request for coins")
		return
	}
	aggregatorCoins := []aggregatorRespRes{}
	if err = jsoniter.NewDecoder(resp.Body).Decode(&aggregatorCoins); err != nil {
		log.Error().Err(err).Str("provider", "aggregator").Msg("convert coins response")
		return
	}
	resp.Body.Close()
	for _, record := range aggregatorCoins {
		if err = w.Write([]string{"aggregator", record.ID, record.Symbol, ""}); err != nil {
			log.Error().Err(err).Str("provider", "aggregator").Msg("writing coins to csv")
			return
		}
	}

	fmt.Println("CSV file generated successfully at ./examples/markets.csv")
}

type spotResp struct {
	Result []spotRespRes `json:"symbols"`
}
type spotRespRes struct {
	Name   string `json:"symbol"`
	Base   string `json:"baseAsset"`
	Quote  string `json:"quoteAsset"`
	Status string `json:"status"`
}

type aggregatorRespRes struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
}
