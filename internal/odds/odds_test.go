package odds

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImpliedProbability(t *testing.T) {
	tests := []struct {
		name     string
		american float64
		expected float64
	}{
		{name: "even money underdog", american: 100, expected: 0.5},
		{name: "standard juice favorite", american: -110, expected: 110.0 / 210.0},
		{name: "heavy favorite", american: -300, expected: 0.75},
		{name: "long shot", american: 300, expected: 0.25},
		{name: "zero odds sentinel", american: 0, expected: 0.5},
		{name: "NaN sentinel", american: math.NaN(), expected: 0.5},
		{name: "positive infinity sentinel", american: math.Inf(1), expected: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, ImpliedProbability(tt.american), 1e-12)
		})
	}
}

func TestImpliedProbabilityRange(t *testing.T) {
	for _, o := range []float64{-10000, -500, -101, -100, 100, 101, 250, 10000} {
		p := ImpliedProbability(o)
		assert.Greater(t, p, 0.0, "odds %v", o)
		assert.Less(t, p, 1.0, "odds %v", o)
	}
}

func TestAmericanFromProbability(t *testing.T) {
	tests := []struct {
		name     string
		prob     float64
		expected int
	}{
		{name: "coin flip is favorite by convention", prob: 0.5, expected: -100},
		{name: "three quarters", prob: 0.75, expected: -300},
		{name: "one quarter", prob: 0.25, expected: 300},
		{name: "zero probability sentinel", prob: 0, expected: 0},
		{name: "one probability sentinel", prob: 1, expected: 0},
		{name: "negative probability sentinel", prob: -0.2, expected: 0},
		{name: "NaN sentinel", prob: math.NaN(), expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AmericanFromProbability(tt.prob))
		})
	}
}

func TestDecimalFromAmerican(t *testing.T) {
	tests := []struct {
		name     string
		american float64
		expected float64
	}{
		{name: "plus 150", american: 150, expected: 2.5},
		{name: "minus 200", american: -200, expected: 1.5},
		{name: "even money", american: 100, expected: 2.0},
		{name: "zero odds default", american: 0, expected: 2.0},
		{name: "NaN default", american: math.NaN(), expected: 2.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, DecimalFromAmerican(tt.american), 1e-12)
		})
	}
}

func TestAmericanFromDecimal(t *testing.T) {
	tests := []struct {
		name     string
		dec      float64
		expected int
	}{
		{name: "two and a half", dec: 2.5, expected: 150},
		{name: "one and a half", dec: 1.5, expected: -200},
		{name: "exactly two", dec: 2.0, expected: 100},
		{name: "at one sentinel", dec: 1.0, expected: 0},
		{name: "below one sentinel", dec: 0.8, expected: 0},
		{name: "NaN sentinel", dec: math.NaN(), expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AmericanFromDecimal(tt.dec))
		})
	}
}

// Round-tripping American odds through decimal odds and back must stay within
// rounding tolerance of the original decimal price.
func TestDecimalRoundTripStability(t *testing.T) {
	for _, o := range []float64{-10000, -450, -110, -105, -100, 100, 105, 120, 250, 10000} {
		dec := DecimalFromAmerican(o)
		rt := DecimalFromAmerican(float64(AmericanFromDecimal(dec)))
		assert.InDelta(t, dec, rt, 0.01, "odds %v", o)
	}
}

// Converting odds to implied probability and back must land within one unit of
// American-odds granularity.
func TestProbabilityRoundTripGranularity(t *testing.T) {
	for _, o := range []float64{-500, -150, -110, -101, 101, 110, 150, 500} {
		back := AmericanFromProbability(ImpliedProbability(o))
		assert.InDelta(t, o, float64(back), 1.0, "odds %v", o)
	}
}

func TestRemoveVig(t *testing.T) {
	t.Run("standard two sided market", func(t *testing.T) {
		fair := RemoveVig([]float64{-110, -110})
		assert.Len(t, fair, 2)
		assert.InDelta(t, 0.5, fair[0], 1e-9)
		assert.InDelta(t, 0.5, fair[1], 1e-9)
		assert.InDelta(t, 1.0, fair[0]+fair[1], 1e-12)
	})

	t.Run("asymmetric market sums to one", func(t *testing.T) {
		fair := RemoveVig([]float64{-150, 130})
		sum := 0.0
		for _, p := range fair {
			sum += p
		}
		assert.InDelta(t, 1.0, sum, 1e-12)
		assert.Greater(t, fair[0], fair[1])
	})

	t.Run("single sided market is degenerate", func(t *testing.T) {
		fair := RemoveVig([]float64{-400})
		assert.Equal(t, []float64{1.0}, fair)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Nil(t, RemoveVig(nil))
	})
}
