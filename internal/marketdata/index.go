package marketdata

import (
	"time"

	"github.com/rs/zerolog"

	"stockscan/internal/models"
	"stockscan/pkg/utils"
)

// Index is an ephemeral symbol -> date -> bar lookup structure derived from
// a bulk series. It is a performance artifact, never a source of truth:
// rebuild it whenever the backing series changes, and treat it as read-only
// after construction.
type Index struct {
	bars map[string]map[string]models.Bar
}

// BuildIndex groups bars by symbol then by calendar day. Duplicate
// (symbol, date) pairs are a data-quality problem: the last write wins and
// the duplicate is logged rather than silently merged. Bars violating the
// OHLC ordering invariant are dropped at this boundary.
func BuildIndex(series []models.Bar, logger zerolog.Logger) *Index {
	ix := &Index{bars: make(map[string]map[string]models.Bar)}

	for _, bar := range series {
		if !bar.Valid() {
			logger.Warn().
				Str("symbol", bar.Symbol).
				Time("date", bar.Date).
				Msg("Dropping bar with invalid OHLC ordering")
			continue
		}
		key := utils.DateKey(bar.Date)
		bySymbol, ok := ix.bars[bar.Symbol]
		if !ok {
			bySymbol = make(map[string]models.Bar)
			ix.bars[bar.Symbol] = bySymbol
		}
		if _, dup := bySymbol[key]; dup {
			logger.Warn().
				Str("symbol", bar.Symbol).
				Str("date", key).
				Msg("Duplicate bar for symbol and date, last write wins")
		}
		bySymbol[key] = bar
	}

	return ix
}

// Bar returns the bar for a symbol on a calendar day.
func (ix *Index) Bar(symbol string, date time.Time) (models.Bar, bool) {
	bySymbol, ok := ix.bars[symbol]
	if !ok {
		return models.Bar{}, false
	}
	bar, ok := bySymbol[utils.DateKey(date)]
	return bar, ok
}

// Symbols returns the symbols present in the index.
func (ix *Index) Symbols() []string {
	symbols := make([]string, 0, len(ix.bars))
	for s := range ix.bars {
		symbols = append(symbols, s)
	}
	return symbols
}

// BarCount returns the number of indexed bars for a symbol.
func (ix *Index) BarCount(symbol string) int {
	return len(ix.bars[symbol])
}

// Lookback walks calendar days backward from end, skipping Saturdays and
// Sundays, and collects bars present in the index until tradingDays bars
// are found or twice that many calendar days have been examined. The
// result is ordered oldest to newest, ready for the oscillator engines.
//
// Sparse history yields fewer bars than requested, possibly zero. That is
// not an error: callers must length-check and treat a short window as
// "cannot compute, skip symbol".
func (ix *Index) Lookback(symbol string, end time.Time, tradingDays int) []models.Bar {
	if tradingDays <= 0 {
		return nil
	}

	bySymbol, ok := ix.bars[symbol]
	if !ok {
		return nil
	}

	collected := make([]models.Bar, 0, tradingDays)
	day := end
	for i := 0; i < 2*tradingDays && len(collected) < tradingDays; i++ {
		if utils.IsTradingDay(day) {
			if bar, ok := bySymbol[utils.DateKey(day)]; ok {
				collected = append(collected, bar)
			}
		}
		day = day.AddDate(0, 0, -1)
	}

	// Walked newest-first; flip to chronological order.
	for i, j := 0, len(collected)-1; i < j; i, j = i+1, j-1 {
		collected[i], collected[j] = collected[j], collected[i]
	}
	return collected
}
