package provider

import (
	"math"
)

// usdPeggedStablecoins lists quote assets rewritten to USD during
// normalization, so stablecoin denominated and fiat denominated rates stay
// comparable. Immutable lookup data, not runtime configuration.
var usdPeggedStablecoins = map[string]bool{
	"USDT": true,
	"USDC": true,
	"BUSD": true,
	"TUSD": true,
	"DAI":  true,
}

// ValidRate reports whether a rate value is finite and strictly positive.
// Records failing this are dropped before reaching the store, never persisted
// as zero or NaN.
func ValidRate(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	return v > 0
}

// NormalizeQuote rewrites a USD pegged stablecoin quote asset to USD.
// All other quote assets pass through unchanged.
func NormalizeQuote(asset string) string {
	if usdPeggedStablecoins[asset] {
		return "USD"
	}
	return asset
}
