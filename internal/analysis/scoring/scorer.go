// Package scoring converts indicator readings into bounded 1-100
// directional scores. Every scorer is parameterized by trade direction and
// cadence-derived periods: there is one implementation, not one per
// timeframe or per long/short variant.
package scoring

import (
	"math"

	"stockscan/internal/analysis"
	"stockscan/internal/analysis/indicators"
	"stockscan/internal/models"
)

// Weights defines the weight of each directional score in the composite.
type Weights struct {
	Momentum   float64
	Trend      float64
	Volatility float64
	Relative   float64
}

// DefaultWeights returns the default score weights.
func DefaultWeights() Weights {
	return Weights{
		Momentum:   0.35,
		Trend:      0.25,
		Volatility: 0.15,
		Relative:   0.25,
	}
}

// Scorer combines the directional scores into a composite score.
type Scorer struct {
	weights Weights
}

// NewScorer creates a scorer with the default weights.
func NewScorer() *Scorer {
	return &Scorer{weights: DefaultWeights()}
}

// NewScorerWithWeights creates a scorer with custom weights.
func NewScorerWithWeights(weights Weights) *Scorer {
	return &Scorer{weights: weights}
}

// DetectCrossover classifies the state of the short/long moving-average
// pair from its current and previous values.
//
// When neither series moved between the two samples there is no delta to
// classify, so the rule degrades to current relative position: above means
// bullish, otherwise bearish. That keeps cold-start symbols scoreable, at
// the cost of a possible false signal on thinly traded names.
func DetectCrossover(shortNow, shortPrev, longNow, longPrev float64) analysis.CrossoverType {
	if shortNow == shortPrev && longNow == longPrev {
		if shortNow > longNow {
			return analysis.CrossoverBullish
		}
		return analysis.CrossoverBearish
	}

	if shortPrev < longPrev && shortNow > longNow {
		return analysis.CrossoverBullish
	}
	if shortPrev > longPrev && shortNow < longNow {
		return analysis.CrossoverBearish
	}
	return analysis.CrossoverNone
}

// macdNearZero is the histogram band treated as "no momentum either way"
// right after a crossover.
const macdNearZero = 0.01

// macdDriftBand is the wider band used when no crossover is in play.
const macdDriftBand = 0.02

// MomentumScore scores the crossover/MACD-histogram combination for one
// direction. Long scores come straight from the regime table; the short
// score is its mirror around 50.
func MomentumScore(crossover analysis.CrossoverType, macdHist float64, direction models.Direction) int {
	var long int
	switch crossover {
	case analysis.CrossoverBullish:
		switch {
		case math.Abs(macdHist) <= macdNearZero:
			long = 75
		case macdHist > 0:
			long = 95
		default:
			long = 55
		}
	case analysis.CrossoverBearish:
		switch {
		case math.Abs(macdHist) <= macdNearZero:
			long = 25
		case macdHist < 0:
			long = 15
		default:
			long = 40
		}
	default:
		switch {
		case macdHist > macdDriftBand:
			long = 70
		case macdHist < -macdDriftBand:
			long = 30
		default:
			long = 50
		}
	}

	if direction == models.Short {
		return clampScore(100 - long)
	}
	return clampScore(long)
}

// TrendScore scores trend strength from the ADX classification table.
// ADX measures strength without direction, so the score applies to both
// long and short setups.
func TrendScore(adx float64) int {
	_, score := indicators.ClassifyTrend(adx)
	return clampScore(score)
}

// VolatilityScore scores the Bollinger regime for one direction. Width
// picks the base: a squeeze or a blow-out both score poorly, a normal
// band scores best. Band position then nudges the score toward the side
// with room to run.
func VolatilityScore(widthPercent, percentB float64, direction models.Direction) int {
	var base int
	switch {
	case widthPercent < 2:
		base = 40 // squeeze: breakout pending, direction unknown
	case widthPercent <= 6:
		base = 70
	case widthPercent <= 12:
		base = 55
	default:
		base = 30 // blown-out bands
	}

	// Mirror band position for shorts so "near the favorable band" reads
	// the same way for both directions.
	pb := percentB
	if direction == models.Short {
		pb = 1 - percentB
	}
	switch {
	case pb <= 0.2:
		base += 10
	case pb >= 0.8:
		base -= 10
	}

	return clampScore(base)
}

// Composite blends the directional scores into one 1-100 value using the
// scorer's weights. Missing kinds simply drop out of the blend.
func (s *Scorer) Composite(scores []analysis.DirectionalScore) int {
	var total, totalWeight float64
	for _, score := range scores {
		w := s.weightFor(score.Kind)
		total += float64(score.Value) * w
		totalWeight += w
	}
	if totalWeight == 0 {
		return 1
	}
	return clampScore(int(math.Round(total / totalWeight)))
}

func (s *Scorer) weightFor(kind analysis.ScoreKind) float64 {
	switch kind {
	case analysis.ScoreMomentum:
		return s.weights.Momentum
	case analysis.ScoreTrend:
		return s.weights.Trend
	case analysis.ScoreVolatility:
		return s.weights.Volatility
	case analysis.ScoreRelativeStrength:
		return s.weights.Relative
	default:
		return 0
	}
}

// ScoreAll computes the four directional scores for a reading and returns
// them with their composite.
func (s *Scorer) ScoreAll(reading analysis.IndicatorReading, instReturnPct, benchReturnPct float64, direction models.Direction) ([]analysis.DirectionalScore, int) {
	scores := []analysis.DirectionalScore{
		{
			Kind:      analysis.ScoreMomentum,
			Direction: direction,
			Value:     MomentumScore(reading.Crossover, reading.MACDHist, direction),
		},
		{
			Kind:      analysis.ScoreTrend,
			Direction: direction,
			Value:     TrendScore(reading.ADX),
		},
		{
			Kind:      analysis.ScoreVolatility,
			Direction: direction,
			Value:     VolatilityScore(reading.Bollinger.WidthPercent, reading.Bollinger.PercentB, direction),
		},
		{
			Kind:      analysis.ScoreRelativeStrength,
			Direction: direction,
			Value:     RelativeStrengthScore(instReturnPct, benchReturnPct, direction),
		},
	}
	return scores, s.Composite(scores)
}

// clampScore restricts a score to [1,100].
func clampScore(score int) int {
	if score < 1 {
		return 1
	}
	if score > 100 {
		return 100
	}
	return score
}
