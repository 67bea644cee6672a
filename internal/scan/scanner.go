package scan

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"stockscan/internal/analysis"
	"stockscan/internal/logging"
	"stockscan/internal/marketdata"
	"stockscan/internal/models"
)

// Sink receives a dated batch of results. The scanner only writes to it;
// reading results back is the host's business.
type Sink interface {
	SaveResults(ctx context.Context, asOf time.Time, cadence models.Cadence, results []analysis.Result) error
}

// Scanner fans the per-symbol analysis out over a fixed pool of workers.
// Each symbol's analysis is independent and reads an immutable index, so
// the only coordination is the work and result channels.
type Scanner struct {
	analyzer    *Analyzer
	bars        marketdata.BarSource
	instruments marketdata.InstrumentSource
	sink        Sink
	concurrency int
	logger      zerolog.Logger
}

// NewScanner creates a scanner. The sink may be nil, in which case results
// are only returned, not persisted.
func NewScanner(analyzer *Analyzer, bars marketdata.BarSource, instruments marketdata.InstrumentSource, sink Sink, concurrency int, logger zerolog.Logger) *Scanner {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Scanner{
		analyzer:    analyzer,
		bars:        bars,
		instruments: instruments,
		sink:        sink,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Run analyzes every instrument on the watch-list as of the given date and
// persists the batch. A symbol with sparse history comes back skipped, not
// failed; only infrastructure errors (sources, sink) abort the run.
func (s *Scanner) Run(ctx context.Context, asOf time.Time, cadence models.Cadence, direction models.Direction) ([]analysis.Result, error) {
	instruments, err := s.instruments.GetInstruments(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading watch-list: %w", err)
	}
	if len(instruments) == 0 {
		return nil, nil
	}

	symbols := make([]string, 0, len(instruments))
	for _, inst := range instruments {
		symbols = append(symbols, inst.Symbol)
	}

	index, err := s.buildIndex(ctx, symbols)
	if err != nil {
		return nil, err
	}

	results := s.analyzeAll(ctx, index, symbols, asOf, cadence, direction)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Composite != results[j].Composite {
			return results[i].Composite > results[j].Composite
		}
		return results[i].Symbol < results[j].Symbol
	})

	if s.sink != nil {
		if err := s.sink.SaveResults(ctx, asOf, cadence, results); err != nil {
			return nil, fmt.Errorf("persisting scan batch: %w", err)
		}
	}

	s.logSummary(results)
	return results, nil
}

// buildIndex fetches the series for every watch-list symbol plus the
// benchmark and indexes them. Relative strength needs the benchmark in the
// same index as the instruments.
func (s *Scanner) buildIndex(ctx context.Context, symbols []string) (*marketdata.Index, error) {
	wanted := symbols
	benchmark := s.analyzer.cfg.Benchmark
	if benchmark != "" && !contains(symbols, benchmark) {
		wanted = append(append([]string{}, symbols...), benchmark)
	}

	var series []models.Bar
	for _, symbol := range wanted {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bars, err := s.bars.GetSeries(ctx, symbol)
		if err != nil {
			// Missing series surfaces later as a skipped symbol; a missing
			// benchmark just neutralizes relative strength.
			s.logger.Warn().Err(err).Str("symbol", symbol).Msg("series unavailable")
			continue
		}
		series = append(series, bars...)
	}
	return marketdata.BuildIndex(series, s.logger), nil
}

func (s *Scanner) analyzeAll(ctx context.Context, index *marketdata.Index, symbols []string, asOf time.Time, cadence models.Cadence, direction models.Direction) []analysis.Result {
	work := make(chan string, len(symbols))
	out := make(chan analysis.Result, len(symbols))

	var wg sync.WaitGroup
	for i := 0; i < s.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range work {
				select {
				case <-ctx.Done():
					return
				default:
					out <- s.analyzer.Analyze(ctx, index, symbol, asOf, cadence, direction)
				}
			}
		}()
	}

	for _, symbol := range symbols {
		work <- symbol
	}
	close(work)
	wg.Wait()
	close(out)

	results := make([]analysis.Result, 0, len(symbols))
	for result := range out {
		results = append(results, result)
	}
	return results
}

func (s *Scanner) logSummary(results []analysis.Result) {
	var approved, skipped int
	for _, r := range results {
		if r.Skipped {
			skipped++
			logging.LogSkip(s.logger, r.Symbol, r.SkipReason)
			continue
		}
		if r.Setup.FinalApproval {
			approved++
		}
		logging.LogAnalysis(s.logger, r.Symbol, r.Composite, r.Setup.FinalApproval)
	}
	s.logger.Info().
		Int("symbols", len(results)).
		Int("approved", approved).
		Int("skipped", skipped).
		Msg("scan complete")
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
