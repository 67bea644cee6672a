package scan

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockscan/internal/analysis"
	"stockscan/internal/config"
	"stockscan/internal/marketdata"
	"stockscan/internal/models"
)

func testAnalysisConfig() config.AnalysisConfig {
	return config.AnalysisConfig{
		LookbackDays:     60,
		ATRPeriod:        14,
		ADXPeriod:        14,
		BollingerPeriod:  20,
		BollingerK:       2.0,
		LevelLookback:    50,
		MinRiskReward:    2.0,
		MinScore:         60,
		Benchmark:        "SPY",
		ReturnDays:       20,
		MomentumWeight:   0.35,
		TrendWeight:      0.25,
		VolatilityWeight: 0.15,
		RelativeWeight:   0.25,
	}
}

// trendingSeries builds n weekday bars ending at end with a gentle uptrend
// and a small oscillation so no indicator sees a flat series.
func trendingSeries(symbol string, end time.Time, n int, start, slope float64) []models.Bar {
	days := make([]time.Time, 0, n)
	day := end
	for len(days) < n {
		if day.Weekday() != time.Saturday && day.Weekday() != time.Sunday {
			days = append(days, day)
		}
		day = day.AddDate(0, 0, -1)
	}
	for i, j := 0, len(days)-1; i < j; i, j = i+1, j-1 {
		days[i], days[j] = days[j], days[i]
	}

	bars := make([]models.Bar, n)
	for i, d := range days {
		close := start + slope*float64(i) + math.Sin(float64(i)/3)*0.8
		bars[i] = models.Bar{
			Symbol: symbol,
			Date:   d,
			Open:   close - 0.2,
			High:   close + 1.0,
			Low:    close - 1.0,
			Close:  close,
			Volume: 1_000_000,
		}
	}
	return bars
}

type captureSink struct {
	asOf    time.Time
	cadence models.Cadence
	results []analysis.Result
	calls   int
}

func (c *captureSink) SaveResults(_ context.Context, asOf time.Time, cadence models.Cadence, results []analysis.Result) error {
	c.asOf = asOf
	c.cadence = cadence
	c.results = results
	c.calls++
	return nil
}

func newTestSource(asOf time.Time) *marketdata.MemorySource {
	source := marketdata.NewMemorySource()
	source.AddBars("AAPL", trendingSeries("AAPL", asOf, 70, 100, 0.3))
	source.AddBars("MSFT", trendingSeries("MSFT", asOf, 70, 400, -0.4))
	source.AddBars("NEWIPO", trendingSeries("NEWIPO", asOf, 5, 20, 0.1))
	source.AddBars("SPY", trendingSeries("SPY", asOf, 70, 500, 0.2))
	source.SetInstruments([]models.Instrument{
		{Symbol: "AAPL", Name: "Apple"},
		{Symbol: "MSFT", Name: "Microsoft"},
		{Symbol: "NEWIPO", Name: "Fresh Listing"},
	})
	return source
}

func TestScannerRun(t *testing.T) {
	asOf := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC) // a Friday
	source := newTestSource(asOf)
	sink := &captureSink{}

	analyzer := NewAnalyzer(testAnalysisConfig(), source, zerolog.Nop())
	scanner := NewScanner(analyzer, source, source, sink, 4, zerolog.Nop())

	results, err := scanner.Run(context.Background(), asOf, models.CadenceDaily, models.Long)
	require.NoError(t, err)
	require.Len(t, results, 3)

	bySymbol := make(map[string]analysis.Result, len(results))
	for _, r := range results {
		bySymbol[r.Symbol] = r
	}

	// The sparse listing is skipped, not failed.
	require.Contains(t, bySymbol, "NEWIPO")
	assert.True(t, bySymbol["NEWIPO"].Skipped)
	assert.NotEmpty(t, bySymbol["NEWIPO"].SkipReason)

	// The liquid symbols produce full results.
	for _, symbol := range []string{"AAPL", "MSFT"} {
		r := bySymbol[symbol]
		require.False(t, r.Skipped, "%s should analyze", symbol)
		assert.GreaterOrEqual(t, r.Composite, 1)
		assert.LessOrEqual(t, r.Composite, 100)
		assert.Len(t, r.Scores, 4)
		assert.Greater(t, r.Reading.ATR, 0.0)
		assert.Greater(t, r.RiskReward.Entry, 0.0)
		assert.Less(t, r.RiskReward.StopLoss, r.RiskReward.Entry)
	}

	// Results come back best composite first.
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Composite, results[i].Composite)
	}

	// The dated batch went to the sink once.
	assert.Equal(t, 1, sink.calls)
	assert.Equal(t, asOf, sink.asOf)
	assert.Equal(t, models.CadenceDaily, sink.cadence)
	assert.Len(t, sink.results, 3)
}

func TestScannerEmptyWatchlist(t *testing.T) {
	source := marketdata.NewMemorySource()
	analyzer := NewAnalyzer(testAnalysisConfig(), source, zerolog.Nop())
	scanner := NewScanner(analyzer, source, source, nil, 2, zerolog.Nop())

	results, err := scanner.Run(context.Background(), time.Now(), models.CadenceDaily, models.Long)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestScannerContextCancellation(t *testing.T) {
	asOf := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	source := newTestSource(asOf)
	analyzer := NewAnalyzer(testAnalysisConfig(), source, zerolog.Nop())
	scanner := NewScanner(analyzer, source, source, nil, 2, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := scanner.Run(ctx, asOf, models.CadenceDaily, models.Long)
	assert.Error(t, err)
}

// Determinism: the same index, symbol and date always produce the same
// result, because the approval decision depends on it.
func TestAnalyzeDeterministic(t *testing.T) {
	asOf := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	source := newTestSource(asOf)

	bars, err := source.AllBars(context.Background())
	require.NoError(t, err)
	index := marketdata.BuildIndex(bars, zerolog.Nop())

	analyzer := NewAnalyzer(testAnalysisConfig(), source, zerolog.Nop())
	first := analyzer.Analyze(context.Background(), index, "AAPL", asOf, models.CadenceDaily, models.Long)
	second := analyzer.Analyze(context.Background(), index, "AAPL", asOf, models.CadenceDaily, models.Long)

	assert.Equal(t, first, second)
}

// Long and short scores of the same reading mirror each other through the
// momentum and relative-strength components.
func TestAnalyzeDirectionParameterization(t *testing.T) {
	asOf := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	source := newTestSource(asOf)

	bars, err := source.AllBars(context.Background())
	require.NoError(t, err)
	index := marketdata.BuildIndex(bars, zerolog.Nop())

	analyzer := NewAnalyzer(testAnalysisConfig(), source, zerolog.Nop())
	long := analyzer.Analyze(context.Background(), index, "AAPL", asOf, models.CadenceDaily, models.Long)
	short := analyzer.Analyze(context.Background(), index, "AAPL", asOf, models.CadenceDaily, models.Short)

	require.False(t, long.Skipped)
	require.False(t, short.Skipped)
	assert.Equal(t, models.Long, long.Direction)
	assert.Equal(t, models.Short, short.Direction)

	// Same indicator reading either way; only the scores differ.
	assert.Equal(t, long.Reading, short.Reading)

	// A long stop sits below entry, a short stop above.
	assert.Less(t, long.RiskReward.StopLoss, long.RiskReward.Entry)
	assert.Greater(t, short.RiskReward.StopLoss, short.RiskReward.Entry)
}

func TestAnalyzeUnknownSymbolSkips(t *testing.T) {
	asOf := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	index := marketdata.BuildIndex(nil, zerolog.Nop())
	analyzer := NewAnalyzer(testAnalysisConfig(), nil, zerolog.Nop())

	result := analyzer.Analyze(context.Background(), index, "GHOST", asOf, models.CadenceDaily, models.Long)
	assert.True(t, result.Skipped)
}
