package indicators

import (
	"stockscan/internal/models"
)

// BollingerResult holds the band readings over the most recent period.
type BollingerResult struct {
	Middle       float64
	Upper        float64
	Lower        float64
	WidthPercent float64 // (Upper-Lower)/Middle * 100
	PercentB     float64 // position of the last close in the envelope, clamped [0,1]
}

// Bollinger calculates mean +/- k population standard deviations over the
// last period closes.
func Bollinger(closes []float64, period int, k float64) (*BollingerResult, error) {
	if period <= 0 || k <= 0 {
		return nil, ErrInvalidPeriod
	}
	if err := validateValues(closes); err != nil {
		return nil, err
	}
	if len(closes) < period {
		return nil, ErrInsufficientData
	}

	window := closes[len(closes)-period:]
	m := mean(window)
	sd := stdDev(window)

	result := &BollingerResult{
		Middle: m,
		Upper:  m + k*sd,
		Lower:  m - k*sd,
	}

	if m != 0 {
		result.WidthPercent = (result.Upper - result.Lower) / m * 100
	}

	bandWidth := result.Upper - result.Lower
	if bandWidth != 0 {
		last := closes[len(closes)-1]
		result.PercentB = clampFloat((last-result.Lower)/bandWidth, 0, 1)
	} else {
		// Flat window: the close sits exactly on the mean.
		result.PercentB = 0.5
	}

	return result, nil
}

// ATR calculates the average true range as the simple mean of the most
// recent period true ranges. True range needs a previous close, so
// period+1 bars are required.
func ATR(bars []models.Bar, period int) (float64, error) {
	if period <= 0 {
		return 0, ErrInvalidPeriod
	}
	if err := validateBars(bars); err != nil {
		return 0, err
	}
	if len(bars) < period+1 {
		return 0, ErrInsufficientData
	}

	ranges := trueRanges(bars)
	return mean(ranges[len(ranges)-period:]), nil
}

// trueRanges computes the true range for every bar after the first.
func trueRanges(bars []models.Bar) []float64 {
	ranges := make([]float64, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		ranges[i-1] = trueRange(bars[i], bars[i-1])
	}
	return ranges
}
