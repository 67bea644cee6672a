package scoring

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"stockscan/internal/analysis"
	"stockscan/internal/models"
)

func TestDetectCrossover(t *testing.T) {
	cases := []struct {
		name                                   string
		shortNow, shortPrev, longNow, longPrev float64
		want                                   analysis.CrossoverType
	}{
		{"bullish cross", 102, 98, 100, 100, analysis.CrossoverBullish},
		{"bearish cross", 98, 102, 100, 100, analysis.CrossoverBearish},
		{"no cross above", 105, 104, 100, 100, analysis.CrossoverNone},
		{"no cross below", 95, 94, 100, 100, analysis.CrossoverNone},
		{"flat above falls back to bullish", 105, 105, 100, 100, analysis.CrossoverBullish},
		{"flat below falls back to bearish", 95, 95, 100, 100, analysis.CrossoverBearish},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DetectCrossover(tc.shortNow, tc.shortPrev, tc.longNow, tc.longPrev)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestMomentumScoreTable(t *testing.T) {
	cases := []struct {
		crossover analysis.CrossoverType
		hist      float64
		want      int
	}{
		{analysis.CrossoverBullish, 0.05, 95},
		{analysis.CrossoverBullish, 0.005, 75},
		{analysis.CrossoverBullish, -0.5, 55},
		{analysis.CrossoverBearish, -0.5, 15},
		{analysis.CrossoverBearish, 0.005, 25},
		{analysis.CrossoverBearish, 0.5, 40},
		{analysis.CrossoverNone, 0.05, 70},
		{analysis.CrossoverNone, -0.05, 30},
		{analysis.CrossoverNone, 0.01, 50},
	}
	for _, tc := range cases {
		got := MomentumScore(tc.crossover, tc.hist, models.Long)
		assert.Equal(t, tc.want, got, "crossover=%s hist=%.3f", tc.crossover, tc.hist)
	}
}

// A bullish crossover with a clearly positive histogram is the strongest
// long momentum signal, and its short mirror the weakest.
func TestMomentumScoreBullishBreakout(t *testing.T) {
	assert.Equal(t, 95, MomentumScore(analysis.CrossoverBullish, 0.05, models.Long))
	assert.Equal(t, 5, MomentumScore(analysis.CrossoverBullish, 0.05, models.Short))
}

func TestMomentumScoreMirror(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	crossoverGen := gen.OneConstOf(
		analysis.CrossoverBullish, analysis.CrossoverBearish, analysis.CrossoverNone)

	properties.Property("long + short = 100", prop.ForAll(
		func(crossover analysis.CrossoverType, hist float64) bool {
			long := MomentumScore(crossover, hist, models.Long)
			short := MomentumScore(crossover, hist, models.Short)
			return long+short == 100
		},
		crossoverGen,
		gen.Float64Range(-10, 10),
	))

	properties.TestingRun(t)
}

func TestRelativeStrengthKnownValues(t *testing.T) {
	// +3% vs +1%: diff 2, long 54, short 46, mirror sums to 100.
	long := RelativeStrengthScore(3, 1, models.Long)
	short := RelativeStrengthScore(3, 1, models.Short)
	assert.Equal(t, 54, long)
	assert.Equal(t, 46, short)
	assert.Equal(t, 100, long+short)
}

func TestRelativeStrengthClamping(t *testing.T) {
	assert.Equal(t, 100, RelativeStrengthScore(200, 0, models.Long))
	assert.Equal(t, 0, RelativeStrengthScore(200, 0, models.Short))
	assert.Equal(t, 0, RelativeStrengthScore(-200, 0, models.Long))
	assert.Equal(t, 100, RelativeStrengthScore(-200, 0, models.Short))
}

func TestRelativeStrengthMirror(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	// Within +/-12 percentage points of relative return neither side
	// clamps, so the mirror law must hold exactly.
	properties.Property("unclamped long + short = 100", prop.ForAll(
		func(instReturn, benchReturn float64) bool {
			long := RelativeStrengthScore(instReturn, benchReturn, models.Long)
			short := RelativeStrengthScore(instReturn, benchReturn, models.Short)
			return long+short == 100
		},
		gen.Float64Range(-6, 6),
		gen.Float64Range(-6, 6),
	))

	properties.TestingRun(t)
}

func TestVolatilityScoreRegimes(t *testing.T) {
	// Squeeze scores below a normal band regardless of position.
	squeeze := VolatilityScore(1.0, 0.5, models.Long)
	normal := VolatilityScore(4.0, 0.5, models.Long)
	blowout := VolatilityScore(20.0, 0.5, models.Long)
	assert.Less(t, squeeze, normal)
	assert.Less(t, blowout, squeeze)

	// Near the lower band a long gets a nudge up, a short a nudge down.
	nearLower := VolatilityScore(4.0, 0.1, models.Long)
	nearUpper := VolatilityScore(4.0, 0.9, models.Long)
	assert.Greater(t, nearLower, nearUpper)
	assert.Equal(t, VolatilityScore(4.0, 0.1, models.Long), VolatilityScore(4.0, 0.9, models.Short))
}

func TestScoreBoundedness(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	directionGen := gen.OneConstOf(models.Long, models.Short)

	properties.Property("every score within [1,100] for adversarial inputs", prop.ForAll(
		func(hist, width, pb, instRet, benchRet, adx float64, direction models.Direction) bool {
			scores := []int{
				MomentumScore(analysis.CrossoverNone, hist, direction),
				TrendScore(adx),
				VolatilityScore(width, pb, direction),
			}
			for _, s := range scores {
				if s < 1 || s > 100 {
					return false
				}
			}
			rs := RelativeStrengthScore(instRet, benchRet, direction)
			return rs >= 0 && rs <= 100
		},
		gen.Float64Range(-1e6, 1e6),
		gen.Float64Range(0, 1e6),
		gen.Float64Range(-10, 10),
		gen.Float64Range(-1e6, 1e6),
		gen.Float64Range(-1e6, 1e6),
		gen.Float64Range(-100, 1e4),
		directionGen,
	))

	properties.TestingRun(t)
}

func TestCompositeWeighting(t *testing.T) {
	scorer := NewScorer()
	scores := []analysis.DirectionalScore{
		{Kind: analysis.ScoreMomentum, Direction: models.Long, Value: 80},
		{Kind: analysis.ScoreTrend, Direction: models.Long, Value: 80},
		{Kind: analysis.ScoreVolatility, Direction: models.Long, Value: 80},
		{Kind: analysis.ScoreRelativeStrength, Direction: models.Long, Value: 80},
	}
	// Identical inputs blend to themselves under any weights.
	assert.Equal(t, 80, scorer.Composite(scores))
}

func TestCompositeEmptyScores(t *testing.T) {
	scorer := NewScorer()
	assert.Equal(t, 1, scorer.Composite(nil))
}

func TestCompositeBounded(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	scorer := NewScorer()
	properties.Property("composite within [1,100]", prop.ForAll(
		func(m, tr, v, rs int) bool {
			composite := scorer.Composite([]analysis.DirectionalScore{
				{Kind: analysis.ScoreMomentum, Value: m},
				{Kind: analysis.ScoreTrend, Value: tr},
				{Kind: analysis.ScoreVolatility, Value: v},
				{Kind: analysis.ScoreRelativeStrength, Value: rs},
			})
			return composite >= 1 && composite <= 100
		},
		gen.IntRange(1, 100),
		gen.IntRange(1, 100),
		gen.IntRange(1, 100),
		gen.IntRange(1, 100),
	))

	properties.TestingRun(t)
}

func TestReturnPercent(t *testing.T) {
	bars := []models.Bar{
		{Close: 100},
		{Close: 105},
		{Close: 110},
	}
	ret, err := ReturnPercent(bars)
	assert.NoError(t, err)
	assert.InDelta(t, 10.0, ret, 1e-9)

	_, err = ReturnPercent(bars[:1])
	assert.ErrorIs(t, err, ErrInsufficientReturnData)
}
