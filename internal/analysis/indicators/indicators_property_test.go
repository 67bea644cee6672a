package indicators

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"stockscan/internal/models"
)

// barGen generates a valid bar with realistic OHLCV values satisfying the
// OHLC ordering invariant.
func barGen() gopter.Gen {
	return gen.Struct(reflect.TypeOf(models.Bar{}), map[string]gopter.Gen{
		"Open":   gen.Float64Range(10.0, 1000.0),
		"High":   gen.Float64Range(10.0, 1000.0),
		"Low":    gen.Float64Range(10.0, 1000.0),
		"Close":  gen.Float64Range(10.0, 1000.0),
		"Volume": gen.Int64Range(1000, 10000000),
	}).Map(func(b models.Bar) models.Bar {
		b.Symbol = "TEST"
		b.High = math.Max(b.High, math.Max(b.Open, b.Close))
		b.Low = math.Min(b.Low, math.Min(b.Open, b.Close))
		if b.High <= b.Low {
			b.High = b.Low + 1.0
		}
		return b
	})
}

// barSliceGen generates a dated, chronological slice of valid bars.
func barSliceGen(minLen, maxLen int) gopter.Gen {
	return gen.SliceOfN(maxLen, barGen()).Map(func(bars []models.Bar) []models.Bar {
		for len(bars) < minLen {
			bars = append(bars, bars[len(bars)-1])
		}
		base := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
		for i := range bars {
			bars[i].Date = base.AddDate(0, 0, i)
		}
		return bars
	})
}

func closesGen(minLen, maxLen int) gopter.Gen {
	return gen.SliceOfN(maxLen, gen.Float64Range(1.0, 1000.0)).Map(func(values []float64) []float64 {
		for len(values) < minLen {
			values = append(values, values[len(values)-1])
		}
		return values
	})
}

// Property: SMA and EMA both produce exactly len(values)-period+1 outputs
// when enough data exists, and the insufficient-data sentinel otherwise.
func TestMovingAverageLengthLaw(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("SMA output length is len-period+1", prop.ForAll(
		func(values []float64, period int) bool {
			result, err := SMA(values, period)
			if len(values) < period {
				return errors.Is(err, ErrInsufficientData)
			}
			return err == nil && len(result) == len(values)-period+1
		},
		closesGen(1, 120),
		gen.IntRange(1, 60),
	))

	properties.Property("EMA output length is len-period+1", prop.ForAll(
		func(values []float64, period int) bool {
			result, err := EMA(values, period)
			if len(values) < period {
				return errors.Is(err, ErrInsufficientData)
			}
			return err == nil && len(result) == len(values)-period+1
		},
		closesGen(1, 120),
		gen.IntRange(1, 60),
	))

	properties.TestingRun(t)
}

// Property: the histogram equals macdLine minus signalLine elementwise
// after alignment, and all three series are finite.
func TestMACDConsistency(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("histogram = macd - signal after alignment", prop.ForAll(
		func(closes []float64) bool {
			result, err := MACD(closes, 12, 26, 9)
			if err != nil {
				return errors.Is(err, ErrInsufficientData)
			}
			if len(result.Histogram) != len(result.Signal) {
				return false
			}
			offset := len(result.MACD) - len(result.Signal)
			for i := range result.Signal {
				expected := result.MACD[i+offset] - result.Signal[i]
				if math.Abs(result.Histogram[i]-expected) > 1e-9 {
					return false
				}
				if math.IsNaN(result.Histogram[i]) || math.IsInf(result.Histogram[i], 0) {
					return false
				}
			}
			return true
		},
		closesGen(40, 150),
	))

	properties.TestingRun(t)
}

// Property: band ordering lower <= middle <= upper always holds, and %b
// stays in [0,1].
func TestBollingerBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("band ordering and percentB bounds", prop.ForAll(
		func(closes []float64) bool {
			result, err := Bollinger(closes, 20, 2.0)
			if err != nil {
				return false
			}
			if result.Lower > result.Middle || result.Middle > result.Upper {
				return false
			}
			return result.PercentB >= 0 && result.PercentB <= 1
		},
		closesGen(20, 100),
	))

	properties.TestingRun(t)
}

// Property: ATR is non-negative and finite for any valid bar series.
func TestATRNonNegative(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("ATR >= 0", prop.ForAll(
		func(bars []models.Bar) bool {
			atr, err := ATR(bars, 14)
			if err != nil {
				return false
			}
			return atr >= 0 && !math.IsNaN(atr) && !math.IsInf(atr, 0)
		},
		barSliceGen(15, 80),
	))

	properties.TestingRun(t)
}

// Property: the DMI family stays within its mathematical bounds for any
// valid series: DI+/DI- >= 0 and DX within [0,100].
func TestDMIBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("DI and DX within bounds", prop.ForAll(
		func(bars []models.Bar) bool {
			result, err := DMI(bars, 14)
			if err != nil {
				return false
			}
			if result.PlusDI < 0 || result.MinusDI < 0 {
				return false
			}
			if result.DX < 0 || result.DX > 100+1e-9 {
				return false
			}
			return result.ADX == result.DX
		},
		barSliceGen(15, 80),
	))

	properties.TestingRun(t)
}

// Property: every indicator is deterministic — repeated calls on the same
// input produce identical output.
func TestIndicatorDeterminism(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("repeated calls are bit-identical", prop.ForAll(
		func(bars []models.Bar) bool {
			closes := make([]float64, len(bars))
			for i, b := range bars {
				closes[i] = b.Close
			}

			sma1, _ := SMA(closes, 10)
			sma2, _ := SMA(closes, 10)
			if !reflect.DeepEqual(sma1, sma2) {
				return false
			}

			atr1, _ := ATR(bars, 14)
			atr2, _ := ATR(bars, 14)
			if atr1 != atr2 {
				return false
			}

			dmi1, _ := DMI(bars, 14)
			dmi2, _ := DMI(bars, 14)
			return reflect.DeepEqual(dmi1, dmi2)
		},
		barSliceGen(30, 60),
	))

	properties.TestingRun(t)
}
