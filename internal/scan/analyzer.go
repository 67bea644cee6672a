// Package scan runs the full analysis pipeline over a watch-list: index
// the bar series, compute indicator readings, score them, detect levels
// and evaluate risk/reward, fanning the per-symbol work out over a worker
// pool.
package scan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"stockscan/internal/analysis"
	"stockscan/internal/analysis/indicators"
	"stockscan/internal/analysis/levels"
	"stockscan/internal/analysis/riskreward"
	"stockscan/internal/analysis/scoring"
	"stockscan/internal/config"
	"stockscan/internal/marketdata"
	"stockscan/internal/models"
)

// Analyzer computes the full per-symbol result from an index of bars. It
// holds no per-call state: every Analyze call is a pure function of the
// index contents and its parameters, so results are reproducible for a
// fixed (symbol, date, series) triple.
type Analyzer struct {
	cfg    config.AnalysisConfig
	scorer *scoring.Scorer
	rr     *riskreward.Engine
	quotes marketdata.QuoteSource
	logger zerolog.Logger
}

// NewAnalyzer creates an analyzer from the analysis configuration. The
// quote source may be nil; gap adjustment is then skipped.
func NewAnalyzer(cfg config.AnalysisConfig, quotes marketdata.QuoteSource, logger zerolog.Logger) *Analyzer {
	return &Analyzer{
		cfg: cfg,
		scorer: scoring.NewScorerWithWeights(scoring.Weights{
			Momentum:   cfg.MomentumWeight,
			Trend:      cfg.TrendWeight,
			Volatility: cfg.VolatilityWeight,
			Relative:   cfg.RelativeWeight,
		}),
		rr:     riskreward.NewEngineWithRatio(cfg.MinRiskReward),
		quotes: quotes,
		logger: logger,
	}
}

// Analyze runs the indicator, scoring, level and risk/reward engines for
// one symbol as of a date. Insufficient history is reported through a
// skipped result, never an error: data sparsity must not abort a batch.
func (a *Analyzer) Analyze(ctx context.Context, index *marketdata.Index, symbol string, asOf time.Time, cadence models.Cadence, direction models.Direction) analysis.Result {
	result := analysis.Result{
		Symbol:    symbol,
		Direction: direction,
		AsOfDate:  asOf,
	}

	periods := a.cfg.PeriodsFor(cadence)
	bars := index.Lookback(symbol, asOf, a.cfg.LookbackDays)
	if len(bars) < a.minBars(periods) {
		return a.skip(result, fmt.Sprintf("insufficient history: %d bars, need %d", len(bars), a.minBars(periods)))
	}

	reading, err := a.reading(symbol, asOf, bars, periods)
	if err != nil {
		if errors.Is(err, indicators.ErrInsufficientData) {
			return a.skip(result, "insufficient history for indicators")
		}
		return a.skip(result, fmt.Sprintf("indicator error: %v", err))
	}
	result.Reading = *reading

	label, _ := indicators.ClassifyTrend(reading.ADX)
	result.TrendLabel = string(label)

	instReturn, benchReturn := a.returns(index, symbol, asOf)
	result.Scores, result.Composite = a.scorer.ScoreAll(*reading, instReturn, benchReturn, direction)

	lastClose := bars[len(bars)-1].Close
	entry, gapped := riskreward.AdjustedEntry(ctx, a.quotes, symbol, asOf, lastClose)
	if gapped {
		a.logger.Debug().Str("symbol", symbol).
			Float64("close", lastClose).Float64("entry", entry).
			Msg("entry gap-adjusted from quote")
	}

	result.Levels = levels.Detect(bars, entry, a.cfg.LevelLookback)
	result.RiskReward = a.rr.Evaluate(entry, reading.ATR, result.Levels, direction)
	result.Setup = a.rr.BuildSetup(symbol, direction, result.RiskReward, result.Composite, a.cfg.MinScore)
	return result
}

// minBars is the history needed for every engine to produce a value: the
// long SMA needs one extra bar for the crossover's previous value, MACD
// needs slow+signal-1 closes, and ATR/ADX need period+1 bars.
func (a *Analyzer) minBars(p config.CadencePeriods) int {
	need := p.SMALong + 1
	if macd := p.MACDSlow + p.MACDSignal - 1; macd > need {
		need = macd
	}
	if atr := a.cfg.ATRPeriod + 1; atr > need {
		need = atr
	}
	if adx := a.cfg.ADXPeriod + 1; adx > need {
		need = adx
	}
	if a.cfg.BollingerPeriod > need {
		need = a.cfg.BollingerPeriod
	}
	return need
}

// reading computes the indicator snapshot for a bar window.
func (a *Analyzer) reading(symbol string, asOf time.Time, bars []models.Bar, p config.CadencePeriods) (*analysis.IndicatorReading, error) {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	smaShort, err := indicators.SMA(closes, p.SMAShort)
	if err != nil {
		return nil, err
	}
	smaLong, err := indicators.SMA(closes, p.SMALong)
	if err != nil {
		return nil, err
	}

	crossover := analysis.CrossoverNone
	if len(smaShort) >= 2 && len(smaLong) >= 2 {
		crossover = scoring.DetectCrossover(
			smaShort[len(smaShort)-1], smaShort[len(smaShort)-2],
			smaLong[len(smaLong)-1], smaLong[len(smaLong)-2],
		)
	}

	macd, err := indicators.MACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)
	if err != nil {
		return nil, err
	}

	dmi, err := indicators.DMI(bars, a.cfg.ADXPeriod)
	if err != nil {
		return nil, err
	}
	atr, err := indicators.ATR(bars, a.cfg.ATRPeriod)
	if err != nil {
		return nil, err
	}
	boll, err := indicators.Bollinger(closes, a.cfg.BollingerPeriod, a.cfg.BollingerK)
	if err != nil {
		return nil, err
	}

	return &analysis.IndicatorReading{
		Symbol:    symbol,
		AsOfDate:  asOf,
		SMAShort:  smaShort[len(smaShort)-1],
		SMALong:   smaLong[len(smaLong)-1],
		Crossover: crossover,
		MACDHist:  macd.Histogram[len(macd.Histogram)-1],
		ADX:       dmi.ADX,
		ATR:       atr,
		Bollinger: analysis.BollingerReading{
			WidthPercent: boll.WidthPercent,
			PercentB:     boll.PercentB,
		},
	}, nil
}

// returns computes the instrument and benchmark interval returns over the
// configured return window. Either falling short degrades to 0, which
// scores relative strength as neutral rather than skipping the symbol.
func (a *Analyzer) returns(index *marketdata.Index, symbol string, asOf time.Time) (instReturn, benchReturn float64) {
	window := a.cfg.ReturnDays
	if window < 2 {
		window = 2
	}
	if r, err := scoring.ReturnPercent(index.Lookback(symbol, asOf, window)); err == nil {
		instReturn = r
	}
	if a.cfg.Benchmark == "" {
		return instReturn, 0
	}
	if r, err := scoring.ReturnPercent(index.Lookback(a.cfg.Benchmark, asOf, window)); err == nil {
		benchReturn = r
	} else {
		a.logger.Debug().Str("benchmark", a.cfg.Benchmark).
			Msg("benchmark history unavailable, relative strength is neutral")
	}
	return instReturn, benchReturn
}

func (a *Analyzer) skip(result analysis.Result, reason string) analysis.Result {
	result.Skipped = true
	result.SkipReason = reason
	a.logger.Debug().Str("symbol", result.Symbol).Str("reason", reason).Msg("symbol skipped")
	return result
}
