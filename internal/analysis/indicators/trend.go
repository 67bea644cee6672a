package indicators

import (
	"math"

	"stockscan/internal/models"
)

// DMIResult holds the directional-movement readings over the most recent
// period.
type DMIResult struct {
	PlusDI  float64
	MinusDI float64
	DX      float64
	// ADX is reported as the current DX. True ADX further smooths DX over
	// time; this approximation is deliberate — the downstream score tables
	// were tuned against it, so "fixing" it would shift every trend score.
	ADX float64
}

// DMI calculates the directional movement index family: +DM/-DM smoothed
// with a simple mean over the period, DI+/DI- against the ATR, and DX.
// Needs period+1 bars for the previous-bar comparisons.
func DMI(bars []models.Bar, period int) (*DMIResult, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if err := validateBars(bars); err != nil {
		return nil, err
	}
	if len(bars) < period+1 {
		return nil, ErrInsufficientData
	}

	n := len(bars)
	plusDM := make([]float64, 0, period)
	minusDM := make([]float64, 0, period)
	for i := n - period; i < n; i++ {
		upMove := bars[i].High - bars[i-1].High
		downMove := bars[i-1].Low - bars[i].Low

		var plus, minus float64
		if upMove > downMove && upMove > 0 {
			plus = upMove
		}
		if downMove > upMove && downMove > 0 {
			minus = downMove
		}
		plusDM = append(plusDM, plus)
		minusDM = append(minusDM, minus)
	}

	atr, err := ATR(bars, period)
	if err != nil {
		return nil, err
	}

	result := &DMIResult{}
	if atr != 0 {
		result.PlusDI = 100 * mean(plusDM) / atr
		result.MinusDI = 100 * mean(minusDM) / atr
	}

	diSum := result.PlusDI + result.MinusDI
	if diSum != 0 {
		result.DX = 100 * math.Abs(result.PlusDI-result.MinusDI) / diSum
	}
	result.ADX = result.DX

	return result, nil
}

// TrendStrength clamps an ADX value into [15,85] for use as a composite
// score input, so pathological extremes cannot dominate the blend.
func TrendStrength(adx float64) float64 {
	return clampFloat(adx, 15, 85)
}

// TrendLabel classifies trend strength from an ADX value.
type TrendLabel string

const (
	TrendNone       TrendLabel = "No Trend"
	TrendWeak       TrendLabel = "Weak"
	TrendStrong     TrendLabel = "Strong"
	TrendVeryStrong TrendLabel = "Very Strong"
	TrendExtreme    TrendLabel = "Extreme"
)

// ClassifyTrend maps an ADX value to its strength label and base score.
// Extreme readings score below Very Strong ones: a blown-out trend is
// likelier to be exhausting than continuing.
func ClassifyTrend(adx float64) (TrendLabel, int) {
	switch {
	case adx < 20:
		return TrendNone, 25
	case adx < 25:
		return TrendWeak, 45
	case adx <= 50:
		return TrendStrong, 85
	case adx <= 75:
		return TrendVeryStrong, 95
	default:
		return TrendExtreme, 75
	}
}
