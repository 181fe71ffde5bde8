package odds

import "math"

// DefaultKellyFraction is the safety multiplier applied to the full Kelly
// recommendation (quarter Kelly).
const DefaultKellyFraction = 0.25

// EdgeResult holds the statistical edge figures for one prediction/price pair.
// Edge and ExpectedValue carry sign; negative values mean the market side is
// favored. KellyStake is a fraction of bankroll and is never negative.
type EdgeResult struct {
	Edge               float64 `json:"edge"`
	ExpectedValue      float64 `json:"expected_value"`
	KellyStake         float64 `json:"kelly_stake"`
	ImpliedProbability float64 `json:"implied_probability"`
	DecimalOdds        float64 `json:"decimal_odds"`
}

// ComputeEdge combines a model-estimated win probability with a market price
// in American odds. kellyFraction must be in (0,1]; anything else falls back
// to DefaultKellyFraction. A model probability outside (0,1) is treated as the
// uninformative 0.5, matching the conversion sentinels, so callers see a zero
// edge rather than an error.
func ComputeEdge(modelProb float64, marketOdds int, kellyFraction float64) EdgeResult {
	if math.IsNaN(modelProb) || math.IsInf(modelProb, 0) || modelProb <= 0 || modelProb >= 1 {
		modelProb = 0.5
	}
	if math.IsNaN(kellyFraction) || kellyFraction <= 0 || kellyFraction > 1 {
		kellyFraction = DefaultKellyFraction
	}

	implied := ImpliedProbability(float64(marketOdds))
	dec := DecimalFromAmerican(float64(marketOdds))

	result := EdgeResult{
		Edge:               modelProb - implied,
		ExpectedValue:      modelProb*dec - 1.0,
		ImpliedProbability: implied,
		DecimalOdds:        dec,
	}

	// Kelly: f = (bp - q) / b with b = decimal odds - 1, so the stake sign
	// always agrees with the EV sign. When the upstream conversion failed the
	// decimal odds collapse to 1 and b is zero; the stake must be 0, not NaN.
	b := dec - 1.0
	if b <= 0 {
		return result
	}

	fullKelly := (modelProb*b - (1.0 - modelProb)) / b
	stake := fullKelly * kellyFraction
	if stake < 0 {
		stake = 0
	}
	result.KellyStake = stake

	return result
}
