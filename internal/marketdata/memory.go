package marketdata

import (
	"context"
	"sync"
	"time"

	"stockscan/internal/errors"
	"stockscan/internal/models"
	"stockscan/pkg/utils"
)

// MemorySource is an in-memory BarSource/QuoteSource/InstrumentSource,
// used for tests and for seeding a scan from already-fetched data.
type MemorySource struct {
	mu          sync.RWMutex
	series      map[string][]models.Bar
	quotes      map[string]map[string]models.Quote
	instruments []models.Instrument
}

// NewMemorySource creates an empty in-memory source.
func NewMemorySource() *MemorySource {
	return &MemorySource{
		series: make(map[string][]models.Bar),
		quotes: make(map[string]map[string]models.Quote),
	}
}

// AddBars appends bars to a symbol's series.
func (m *MemorySource) AddBars(symbol string, bars []models.Bar) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.series[symbol] = append(m.series[symbol], bars...)
}

// AddQuote records a single-point quote for a symbol and day.
func (m *MemorySource) AddQuote(quote models.Quote) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byDay, ok := m.quotes[quote.Symbol]
	if !ok {
		byDay = make(map[string]models.Quote)
		m.quotes[quote.Symbol] = byDay
	}
	byDay[utils.DateKey(quote.Timestamp)] = quote
}

// SetInstruments replaces the watch-list.
func (m *MemorySource) SetInstruments(instruments []models.Instrument) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.instruments = instruments
}

// GetSeries implements BarSource.
func (m *MemorySource) GetSeries(_ context.Context, symbol string) ([]models.Bar, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	bars, ok := m.series[symbol]
	if !ok {
		return nil, errors.ErrSymbolNotFound
	}
	out := make([]models.Bar, len(bars))
	copy(out, bars)
	return out, nil
}

// AllBars returns every bar across all symbols, for index construction.
func (m *MemorySource) AllBars(_ context.Context) ([]models.Bar, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var all []models.Bar
	for _, bars := range m.series {
		all = append(all, bars...)
	}
	return all, nil
}

// GetQuoteAt implements QuoteSource.
func (m *MemorySource) GetQuoteAt(_ context.Context, symbol string, at time.Time) (models.Quote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	byDay, ok := m.quotes[symbol]
	if !ok {
		return models.Quote{}, errors.ErrDataNotFound
	}
	quote, ok := byDay[utils.DateKey(at)]
	if !ok {
		return models.Quote{}, errors.ErrDataNotFound
	}
	return quote, nil
}

// GetInstruments implements InstrumentSource.
func (m *MemorySource) GetInstruments(_ context.Context) ([]models.Instrument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Instrument, len(m.instruments))
	copy(out, m.instruments)
	return out, nil
}
