package scoring

import (
	"errors"
	"math"

	"stockscan/internal/models"
)

// ErrInsufficientReturnData is returned when a return cannot be computed
// from the available bars.
var ErrInsufficientReturnData = errors.New("insufficient data for return calculation")

// ReturnPercent computes the percentage return across a bar series, first
// close to last close. Needs at least two bars and a non-zero starting
// close.
func ReturnPercent(bars []models.Bar) (float64, error) {
	if len(bars) < 2 {
		return 0, ErrInsufficientReturnData
	}
	first := bars[0].Close
	last := bars[len(bars)-1].Close
	if first == 0 {
		return 0, ErrInsufficientReturnData
	}
	return (last/first - 1) * 100, nil
}

// RelativeStrengthScore scores an instrument's interval return against the
// benchmark's. Each percentage point of outperformance moves the score two
// points off 50. The short score is derived from the rounded long score so
// that the two always sum to exactly 100 before clamping.
func RelativeStrengthScore(instReturnPct, benchReturnPct float64, direction models.Direction) int {
	diff := instReturnPct - benchReturnPct
	long := math.Round(50 + diff*2)

	score := long
	if direction == models.Short {
		score = 100 - long
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return int(score)
}
