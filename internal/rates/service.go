package rates

import (
	"github.com/lumapay/ratefeed/internal/config"
	"github.com/lumapay/ratefeed/internal/storage"
	"github.com/pkg/errors"
)

// ErrRateNotFound is returned by Convert when neither a direct nor an
// inverse snapshot exists for the requested pair. This is a normal, expected
// outcome for unsupported pairs, not a system fault.
var ErrRateNotFound = errors.New("rate not found for pair")

// Conversion is the result of a currency conversion. It is computed on
// demand from the current snapshot set and never cached beyond the request.
type Conversion struct {
	Rate   float64
	Result float64
}

// TransferQuote is the fee adjusted total for a money transfer amount.
type TransferQuote struct {
	Fee   float64
	Total float64
}

// Service is the read side of the engine: conversion, fee computation and
// the query projections consumed by the platform's HTTP layer. All methods
// are safe to call concurrently with ingestion.
type Service struct {
	store      *storage.Memory
	feePercent float64
	minFloor   map[string]float64
}

// NewService creates a rates service over the in-memory store.
func NewService(store *storage.Memory, feeCfg *config.Fee) *Service {
	percent := feeCfg.Percent
	if percent <= 0 {
		percent = DefaultFeePercent
	}
	return &Service{
		store:      store,
		feePercent: percent,
		minFloor:   feeCfg.MinFloor,
	}
}

// LiveRates returns all live snapshots, optionally filtered by base currency.
// A stale dataset is not an error; staleness shows only in LastUpdated.
func (s *Service) LiveRates(base string) []storage.Snapshot {
	return s.store.Snapshots(base)
}

// Rate returns the single most recent snapshot for a pair across all
// sources. The second return is false when no source holds the pair.
func (s *Service) Rate(base, quote string) (storage.Snapshot, bool) {
	return s.store.Snapshot(base, quote)
}

// RateHistory returns up to limit history points for a pair and interval,
// most recent first.
func (s *Service) RateHistory(base, quote, interval string, limit int) []storage.HistoryPoint {
	return s.store.History(base, quote, interval, limit)
}

// TopCryptos returns up to limit USD quoted aggregator sourced snapshots
// ordered by market cap descending.
func (s *Service) TopCryptos(limit int) []storage.Snapshot {
	return s.store.TopByMarketCap(limit)
}

// Convert resolves a usable rate for (from, to) and converts amount with it.
// Resolution order: direct snapshot lookup across all sources with the most
// recently updated one winning, then the mathematical inverse of the swapped
// pair, then ErrRateNotFound.
func (s *Service) Convert(from, to string, amount float64) (Conversion, error) {
	if from == to {
		return Conversion{Rate: 1, Result: amount}, nil
	}
	if snapshot, ok := s.store.Snapshot(from, to); ok {
		return Conversion{Rate: snapshot.Price, Result: amount * snapshot.Price}, nil
	}
	if snapshot, ok := s.store.Snapshot(to, from); ok {
		rate := 1 / snapshot.Price
		return Conversion{Rate: rate, Result: amount * rate}, nil
	}
	return Conversion{}, errors.Wrapf(ErrRateNotFound, "%v to %v", from, to)
}

// TransferFee computes the money transfer fee for an amount in the given
// currency, applying the configured per-currency minimum floor.
func (s *Service) TransferFee(amount float64, currency string) float64 {
	floor, ok := s.minFloor[currency]
	if !ok {
		floor = DefaultMinFeeFloor
	}
	return FeeAmount(amount, s.feePercent, floor)
}

// Quote computes the fee and fee adjusted total for a money transfer amount.
func (s *Service) Quote(amount float64, currency string) TransferQuote {
	fee := s.TransferFee(amount, currency)
	return TransferQuote{Fee: fee, Total: amount + fee}
}
