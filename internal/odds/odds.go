// Package odds provides pure conversions between market odds representations
// and probabilities, plus edge and stake-sizing math. All functions are total:
// degenerate numeric input resolves to a documented default instead of an
// error, so a malformed market price never fails a request.
package odds

import "math"

// ImpliedProbability converts American odds to the win probability the price
// encodes, ignoring the bookmaker margin. Zero or non-finite odds return 0.5.
func ImpliedProbability(american float64) float64 {
	if american == 0 || math.IsNaN(american) || math.IsInf(american, 0) {
		return 0.5
	}
	if american > 0 {
		return 100.0 / (american + 100.0)
	}
	return -american / (-american + 100.0)
}

// AmericanFromProbability converts a probability to the nearest American odds.
// Probabilities outside (0,1) or non-finite return 0, the "no valid price"
// sentinel.
func AmericanFromProbability(prob float64) int {
	if math.IsNaN(prob) || math.IsInf(prob, 0) || prob <= 0 || prob >= 1 {
		return 0
	}
	if prob >= 0.5 {
		return int(math.Round(-100.0 * prob / (1.0 - prob)))
	}
	return int(math.Round(100.0 * (1.0 - prob) / prob))
}

// DecimalFromAmerican converts American odds to decimal odds. Zero or
// non-finite odds return 2.0, the even-money default.
func DecimalFromAmerican(american float64) float64 {
	if american == 0 || math.IsNaN(american) || math.IsInf(american, 0) {
		return 2.0
	}
	if american > 0 {
		return american/100.0 + 1.0
	}
	return 100.0/(-american) + 1.0
}

// AmericanFromDecimal converts decimal odds to the nearest American odds.
// Decimal odds at or below 1, or non-finite, return 0.
func AmericanFromDecimal(dec float64) int {
	if math.IsNaN(dec) || math.IsInf(dec, 0) || dec <= 1 {
		return 0
	}
	if dec >= 2 {
		return int(math.Round((dec - 1.0) * 100.0))
	}
	return int(math.Round(-100.0 / (dec - 1.0)))
}

// RemoveVig maps each price to its implied probability and normalizes so the
// fair probabilities sum to 1. A single-sided market is degenerate and always
// yields [1.0] regardless of the price. An empty slice returns nil.
func RemoveVig(american []float64) []float64 {
	if len(american) == 0 {
		return nil
	}

	implied := make([]float64, len(american))
	sum := 0.0
	for i, price := range american {
		implied[i] = ImpliedProbability(price)
		sum += implied[i]
	}

	fair := make([]float64, len(implied))
	for i, p := range implied {
		fair[i] = p / sum
	}
	return fair
}
