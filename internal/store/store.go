// Package store provides data persistence interfaces and the SQLite
// implementation backing the bar, quote, watch-list, scan-result and
// journal data.
package store

import (
	"context"
	"time"

	"stockscan/internal/analysis"
	"stockscan/internal/models"
)

// DataStore defines the persistence surface of the application.
type DataStore interface {
	// Bars
	SaveBars(ctx context.Context, cadence models.Cadence, bars []models.Bar) error
	GetBars(ctx context.Context, symbol string, cadence models.Cadence, from, to time.Time) ([]models.Bar, error)

	// Quotes
	SaveQuote(ctx context.Context, quote models.Quote) error
	GetQuoteAt(ctx context.Context, symbol string, at time.Time) (models.Quote, error)

	// Watch-list
	AddFavorite(ctx context.Context, inst models.Instrument) error
	RemoveFavorite(ctx context.Context, symbol string) error
	GetInstruments(ctx context.Context) ([]models.Instrument, error)

	// Scan results
	SaveResults(ctx context.Context, asOf time.Time, cadence models.Cadence, results []analysis.Result) error
	GetResults(ctx context.Context, asOf time.Time, cadence models.Cadence) ([]analysis.Result, error)

	// Journal
	SaveJournalEntry(ctx context.Context, entry *models.JournalEntry) error
	GetJournal(ctx context.Context, filter JournalFilter) ([]models.JournalEntry, error)

	Close() error
}

// JournalFilter restricts a journal query.
type JournalFilter struct {
	Symbol    string
	StartDate time.Time
	EndDate   time.Time
	Limit     int
}
