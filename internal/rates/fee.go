package rates

// DefaultFeePercent is the money transfer fee fraction.
const DefaultFeePercent = 0.015

// DefaultMinFeeFloor is the minimum fee applied when no per-currency floor
// is configured. The same numeric floor currently applies to every currency;
// whether the floor should instead be currency equivalent is pending product
// clarification, so the value stays configurable per currency.
const DefaultMinFeeFloor = 5.0

// FeeAmount computes the money transfer fee for an amount: the configured
// percentage with a minimum floor. Deterministic and side effect free.
func FeeAmount(amount, percent, floor float64) float64 {
	fee := amount * percent
	if fee < floor {
		return floor
	}
	return fee
}
