package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockscan/internal/analysis"
	apperrors "stockscan/internal/errors"
	"stockscan/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBarsRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	monday := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)

	bars := []models.Bar{
		{Symbol: "AAPL", Date: monday, Open: 100, High: 102, Low: 99, Close: 101, Volume: 5000},
		{Symbol: "AAPL", Date: monday.AddDate(0, 0, 1), Open: 101, High: 103, Low: 100, Close: 102, Volume: 6000},
	}
	require.NoError(t, store.SaveBars(ctx, models.CadenceDaily, bars))

	got, err := store.GetBars(ctx, "AAPL", models.CadenceDaily, monday, monday.AddDate(0, 0, 5))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.InDelta(t, 101.0, got[0].Close, 1e-9)
	assert.True(t, got[1].Date.After(got[0].Date))

	// Different cadence is a different series.
	weekly, err := store.GetBars(ctx, "AAPL", models.CadenceWeekly, monday, monday.AddDate(0, 0, 5))
	require.NoError(t, err)
	assert.Empty(t, weekly)
}

func TestBarsUpsertLastWriteWins(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	monday := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)

	first := []models.Bar{{Symbol: "AAPL", Date: monday, Open: 100, High: 102, Low: 99, Close: 101, Volume: 5000}}
	require.NoError(t, store.SaveBars(ctx, models.CadenceDaily, first))

	revised := []models.Bar{{Symbol: "AAPL", Date: monday, Open: 100, High: 104, Low: 99, Close: 103, Volume: 7000}}
	require.NoError(t, store.SaveBars(ctx, models.CadenceDaily, revised))

	got, err := store.GetBars(ctx, "AAPL", models.CadenceDaily, monday, monday)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, 103.0, got[0].Close, 1e-9)
}

func TestSeriesSource(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	monday := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)

	bars := []models.Bar{
		{Symbol: "MSFT", Date: monday.AddDate(0, 0, 1), Open: 401, High: 403, Low: 400, Close: 402, Volume: 6000},
		{Symbol: "MSFT", Date: monday, Open: 400, High: 402, Low: 399, Close: 401, Volume: 5000},
	}
	require.NoError(t, store.SaveBars(ctx, models.CadenceDaily, bars))

	source := store.SeriesSource(models.CadenceDaily)
	series, err := source.GetSeries(ctx, "MSFT")
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.True(t, series[1].Date.After(series[0].Date), "series must be chronological")

	_, err = source.GetSeries(ctx, "UNKNOWN")
	assert.ErrorIs(t, err, apperrors.ErrDataNotFound)
}

func TestQuotes(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	at := time.Date(2026, 8, 28, 13, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveQuote(ctx, models.Quote{Symbol: "AAPL", Price: 230.5, Volume: 100, Timestamp: at.Add(-2 * time.Hour)}))
	require.NoError(t, store.SaveQuote(ctx, models.Quote{Symbol: "AAPL", Price: 231.0, Volume: 200, Timestamp: at.Add(-time.Hour)}))
	require.NoError(t, store.SaveQuote(ctx, models.Quote{Symbol: "AAPL", Price: 250.0, Volume: 300, Timestamp: at.Add(time.Hour)}))

	// Latest at or before the lookup time wins; later quotes are invisible.
	quote, err := store.GetQuoteAt(ctx, "AAPL", at)
	require.NoError(t, err)
	assert.InDelta(t, 231.0, quote.Price, 1e-9)

	_, err = store.GetQuoteAt(ctx, "MSFT", at)
	assert.ErrorIs(t, err, apperrors.ErrDataNotFound)
}

func TestFavorites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddFavorite(ctx, models.Instrument{Symbol: "AAPL", Name: "Apple", LastKnownPrice: 230}))
	require.NoError(t, store.AddFavorite(ctx, models.Instrument{Symbol: "MSFT", Name: "Microsoft"}))

	// Upsert replaces, never duplicates.
	require.NoError(t, store.AddFavorite(ctx, models.Instrument{Symbol: "AAPL", Name: "Apple Inc", LastKnownPrice: 231}))

	instruments, err := store.GetInstruments(ctx)
	require.NoError(t, err)
	require.Len(t, instruments, 2)
	assert.Equal(t, "AAPL", instruments[0].Symbol)
	assert.Equal(t, "Apple Inc", instruments[0].Name)

	require.NoError(t, store.RemoveFavorite(ctx, "MSFT"))
	instruments, err = store.GetInstruments(ctx)
	require.NoError(t, err)
	assert.Len(t, instruments, 1)

	assert.ErrorIs(t, store.RemoveFavorite(ctx, "GHOST"), apperrors.ErrSymbolNotFound)
}

func TestResultsRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	asOf := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

	results := []analysis.Result{
		{
			Symbol:    "AAPL",
			Direction: models.Long,
			AsOfDate:  asOf,
			Composite: 78,
			RiskReward: analysis.RiskRewardResult{
				Entry: 230, StopLoss: 224, Target: 245, Ratio: 2.5, Approved: true, Confidence: 75,
			},
			Setup: analysis.TradeSetup{Symbol: "AAPL", Direction: models.Long, CompositeScore: 78, FinalApproval: true},
		},
		{Symbol: "NEWIPO", Direction: models.Long, AsOfDate: asOf, Skipped: true, SkipReason: "insufficient history"},
	}
	require.NoError(t, store.SaveResults(ctx, asOf, models.CadenceDaily, results))

	got, err := store.GetResults(ctx, asOf, models.CadenceDaily)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Best composite first.
	assert.Equal(t, "AAPL", got[0].Symbol)
	assert.Equal(t, 78, got[0].Composite)
	assert.True(t, got[0].Setup.FinalApproval)
	assert.InDelta(t, 2.5, got[0].RiskReward.Ratio, 1e-9)
	assert.True(t, got[1].Skipped)

	// Re-saving the same batch replaces rather than duplicates.
	require.NoError(t, store.SaveResults(ctx, asOf, models.CadenceDaily, results))
	got, err = store.GetResults(ctx, asOf, models.CadenceDaily)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestJournal(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	day := time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)

	first := &models.JournalEntry{
		Symbol: "AAPL", Direction: models.Long, EntryDate: day,
		EntryPrice: 230, StopLoss: 224, Target: 245, Notes: "breakout",
	}
	require.NoError(t, store.SaveJournalEntry(ctx, first))
	assert.NotZero(t, first.ID)

	second := &models.JournalEntry{
		Symbol: "MSFT", Direction: models.Short, EntryDate: day.AddDate(0, 0, 1),
		EntryPrice: 410,
	}
	require.NoError(t, store.SaveJournalEntry(ctx, second))

	all, err := store.GetJournal(ctx, JournalFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "MSFT", all[0].Symbol) // newest first

	filtered, err := store.GetJournal(ctx, JournalFilter{Symbol: "AAPL"})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "breakout", filtered[0].Notes)
	assert.Equal(t, models.Long, filtered[0].Direction)

	limited, err := store.GetJournal(ctx, JournalFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
