// Package marketdata provides the bar-source abstraction and the derived
// symbol/date index the analysis engines read from.
package marketdata

import (
	"context"
	"time"

	"stockscan/internal/models"
)

// BarSource supplies bulk OHLC series keyed by symbol. Implementations own
// the series; the analysis core only reads it.
type BarSource interface {
	GetSeries(ctx context.Context, symbol string) ([]models.Bar, error)
}

// QuoteSource supplies single-point pre/post-market quote lookups, used by
// the risk/reward gap-adjustment flow.
type QuoteSource interface {
	GetQuoteAt(ctx context.Context, symbol string, at time.Time) (models.Quote, error)
}

// InstrumentSource supplies the read-only watch-list of instruments to scan.
type InstrumentSource interface {
	GetInstruments(ctx context.Context) ([]models.Instrument, error)
}
