// Package indicators provides the moving-average, oscillator and
// trend-strength calculations the scoring engines consume. Every function
// is a pure function of its inputs: same series in, bit-identical values
// out. Insufficient history is reported through ErrInsufficientData, never
// as a zero that could be mistaken for a computed value.
package indicators

// SMA calculates the simple moving average over a sliding window.
// The result has len(values)-period+1 entries: output i covers
// values[i : i+period].
func SMA(values []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if err := validateValues(values); err != nil {
		return nil, err
	}
	if len(values) < period {
		return nil, ErrInsufficientData
	}

	result := make([]float64, 0, len(values)-period+1)
	windowSum := sum(values[:period])
	result = append(result, windowSum/float64(period))
	for i := period; i < len(values); i++ {
		windowSum += values[i] - values[i-period]
		result = append(result, windowSum/float64(period))
	}
	return result, nil
}

// EMA calculates the exponential moving average, seeded with the SMA of
// the first period values. Same length law as SMA: len(values)-period+1
// entries, the first being the seed.
func EMA(values []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if err := validateValues(values); err != nil {
		return nil, err
	}
	if len(values) < period {
		return nil, ErrInsufficientData
	}

	result := make([]float64, 0, len(values)-period+1)
	multiplier := 2.0 / float64(period+1)

	prev := mean(values[:period])
	result = append(result, prev)
	for i := period; i < len(values); i++ {
		prev = values[i]*multiplier + prev*(1-multiplier)
		result = append(result, prev)
	}
	return result, nil
}

// MACDResult holds the three aligned MACD series.
type MACDResult struct {
	// MACD is fast EMA minus slow EMA, starting at the slow EMA's first
	// defined index.
	MACD []float64
	// Signal is the EMA of the MACD line.
	Signal []float64
	// Histogram is MACD minus Signal, aligned on the signal line's start;
	// len(Histogram) == len(Signal).
	Histogram []float64
}

// MACD calculates moving average convergence-divergence with the given
// fast/slow/signal periods.
func MACD(closes []float64, fast, slow, signal int) (*MACDResult, error) {
	if fast <= 0 || slow <= 0 || signal <= 0 || fast >= slow {
		return nil, ErrInvalidPeriod
	}
	if err := validateValues(closes); err != nil {
		return nil, err
	}
	if len(closes) < slow {
		return nil, ErrInsufficientData
	}

	fastEMA, err := EMA(closes, fast)
	if err != nil {
		return nil, err
	}
	slowEMA, err := EMA(closes, slow)
	if err != nil {
		return nil, err
	}

	// The fast EMA starts slow-fast entries earlier; align on the slow start.
	offset := slow - fast
	macdLine := make([]float64, len(slowEMA))
	for i := range slowEMA {
		macdLine[i] = fastEMA[i+offset] - slowEMA[i]
	}

	signalLine, err := EMA(macdLine, signal)
	if err != nil {
		// MACD line shorter than the signal period: still insufficient.
		return nil, err
	}

	histogram := make([]float64, len(signalLine))
	for i := range signalLine {
		histogram[i] = macdLine[i+signal-1] - signalLine[i]
	}

	return &MACDResult{
		MACD:      macdLine,
		Signal:    signalLine,
		Histogram: histogram,
	}, nil
}
