package storage

import (
	"time"
)

// Source identifies the upstream provider a rate originated from.
type Source string

const (
	// SourceSpotExchange is the crypto spot exchange provider.
	SourceSpotExchange Source = "SPOT_EXCHANGE"
	// SourceAggregator is the crypto market data aggregator provider.
	SourceAggregator Source = "AGGREGATOR"
	// SourceFiatProvider is the fiat rate provider.
	SourceFiatProvider Source = "FIAT_PROVIDER"
)

// Rate represents final form of a rate record received from a provider,
// normalized and ready to store. Optional attributes hold zero when the
// provider payload did not carry them.
type Rate struct {
	Base      string
	Quote     string
	Price     float64
	Change24h float64
	High24h   float64
	Low24h    float64
	Volume24h float64
	MarketCap float64

	// Fallback marks a last known good rate substituted after an upstream
	// failure, so stale data stays distinguishable downstream.
	Fallback bool
}

// Snapshot represents the single current rate per (base, quote, source).
// It is created on first successful ingestion of that triple and replaced in
// place on every subsequent one, never deleted by the ingestion path.
type Snapshot struct {
	Base        string
	Quote       string
	Source      Source
	Price       float64
	Change24h   float64
	High24h     float64
	Low24h      float64
	Volume24h   float64
	MarketCap   float64
	Fallback    bool
	LastUpdated time.Time
}

// HistoryPoint represents one immutable timestamped sample of a rate,
// retained for charting and auditing. Interval tags the sampling granularity
// so chart queries can filter by resolution.
type HistoryPoint struct {
	Base      string
	Quote     string
	Price     float64
	High      float64
	Low       float64
	Volume    float64
	Interval  string
	Timestamp time.Time
}

// SnapshotOf builds the snapshot form of a normalized rate for a source.
func SnapshotOf(r Rate, source Source, at time.Time) Snapshot {
	return Snapshot{
		Base:        r.Base,
		Quote:       r.Quote,
		Source:      source,
		Price:       r.Price,
		Change24h:   r.Change24h,
		High24h:     r.High24h,
		Low24h:      r.Low24h,
		Volume24h:   r.Volume24h,
		MarketCap:   r.MarketCap,
		Fallback:    r.Fallback,
		LastUpdated: at,
	}
}

// HistoryPointOf builds the history point form of a normalized rate.
func HistoryPointOf(r Rate, interval string, at time.Time) HistoryPoint {
	return HistoryPoint{
		Base:      r.Base,
		Quote:     r.Quote,
		Price:     r.Price,
		High:      r.High24h,
		Low:       r.Low24h,
		Volume:    r.Volume24h,
		Interval:  interval,
		Timestamp: at,
	}
}
