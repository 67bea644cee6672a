package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"stockscan/internal/analysis"
	apperrors "stockscan/internal/errors"
	"stockscan/internal/marketdata"
	"stockscan/internal/models"
	"stockscan/pkg/utils"
)

// SQLiteStore implements DataStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath and bootstraps
// the schema.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS bars (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		cadence TEXT NOT NULL,
		date TEXT NOT NULL,
		open REAL NOT NULL,
		high REAL NOT NULL,
		low REAL NOT NULL,
		close REAL NOT NULL,
		volume INTEGER NOT NULL,
		adj_close REAL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(symbol, cadence, date)
	);
	CREATE INDEX IF NOT EXISTS idx_bars_symbol ON bars(symbol, cadence, date);

	CREATE TABLE IF NOT EXISTS quotes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		price REAL NOT NULL,
		volume INTEGER NOT NULL,
		ts DATETIME NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_quotes_symbol_ts ON quotes(symbol, ts);

	CREATE TABLE IF NOT EXISTS favorites (
		symbol TEXT PRIMARY KEY,
		name TEXT,
		last_price REAL DEFAULT 0,
		volume INTEGER DEFAULT 0,
		dollar_volume REAL DEFAULT 0,
		float REAL DEFAULT 0,
		spread REAL DEFAULT 0,
		market_cap REAL DEFAULT 0,
		added_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS scan_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		scan_date TEXT NOT NULL,
		cadence TEXT NOT NULL,
		symbol TEXT NOT NULL,
		direction TEXT NOT NULL,
		composite INTEGER NOT NULL,
		approved INTEGER NOT NULL,
		payload TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(scan_date, cadence, symbol, direction)
	);

	CREATE TABLE IF NOT EXISTS journal (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		direction TEXT NOT NULL,
		entry_date TEXT NOT NULL,
		entry_price REAL NOT NULL,
		stop_loss REAL DEFAULT 0,
		target REAL DEFAULT 0,
		exit_price REAL DEFAULT 0,
		notes TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveBars upserts a batch of bars in one transaction. Re-saving the same
// (symbol, cadence, date) replaces the row: last write wins, matching the
// index semantics.
func (s *SQLiteStore) SaveBars(ctx context.Context, cadence models.Cadence, bars []models.Bar) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Wrap(err, "beginning bar transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO bars (symbol, cadence, date, open, high, low, close, volume, adj_close)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol, cadence, date) DO UPDATE SET
			open=excluded.open, high=excluded.high, low=excluded.low,
			close=excluded.close, volume=excluded.volume, adj_close=excluded.adj_close`)
	if err != nil {
		return apperrors.Wrap(err, "preparing bar upsert")
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx, b.Symbol, string(cadence), utils.DateKey(b.Date),
			b.Open, b.High, b.Low, b.Close, b.Volume, b.AdjClose); err != nil {
			return apperrors.Wrapf(err, "saving bar %s %s", b.Symbol, utils.DateKey(b.Date))
		}
	}
	return tx.Commit()
}

// GetBars returns the bars for a symbol within [from, to], oldest first.
func (s *SQLiteStore) GetBars(ctx context.Context, symbol string, cadence models.Cadence, from, to time.Time) ([]models.Bar, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, date, open, high, low, close, volume, adj_close
		FROM bars
		WHERE symbol = ? AND cadence = ? AND date >= ? AND date <= ?
		ORDER BY date ASC`,
		symbol, string(cadence), utils.DateKey(from), utils.DateKey(to))
	if err != nil {
		return nil, apperrors.Wrap(err, "querying bars")
	}
	defer rows.Close()
	return scanBars(rows)
}

func scanBars(rows *sql.Rows) ([]models.Bar, error) {
	var bars []models.Bar
	for rows.Next() {
		var b models.Bar
		var dateKey string
		if err := rows.Scan(&b.Symbol, &dateKey, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.AdjClose); err != nil {
			return nil, apperrors.Wrap(err, "scanning bar row")
		}
		date, err := utils.ParseDateKey(dateKey)
		if err != nil {
			return nil, apperrors.Wrapf(err, "parsing bar date %q", dateKey)
		}
		b.Date = date
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// SaveQuote appends a quote observation.
func (s *SQLiteStore) SaveQuote(ctx context.Context, quote models.Quote) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO quotes (symbol, price, volume, ts) VALUES (?, ?, ?, ?)`,
		quote.Symbol, quote.Price, quote.Volume, quote.Timestamp.UTC())
	if err != nil {
		return apperrors.Wrap(err, "saving quote")
	}
	return nil
}

// GetQuoteAt returns the latest quote at or before the given time.
func (s *SQLiteStore) GetQuoteAt(ctx context.Context, symbol string, at time.Time) (models.Quote, error) {
	var q models.Quote
	err := s.db.QueryRowContext(ctx, `
		SELECT symbol, price, volume, ts FROM quotes
		WHERE symbol = ? AND ts <= ?
		ORDER BY ts DESC LIMIT 1`,
		symbol, at.UTC()).Scan(&q.Symbol, &q.Price, &q.Volume, &q.Timestamp)
	if err == sql.ErrNoRows {
		return models.Quote{}, apperrors.ErrDataNotFound
	}
	if err != nil {
		return models.Quote{}, apperrors.Wrap(err, "querying quote")
	}
	return q, nil
}

// AddFavorite upserts an instrument on the watch-list.
func (s *SQLiteStore) AddFavorite(ctx context.Context, inst models.Instrument) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO favorites (symbol, name, last_price, volume, dollar_volume, float, spread, market_cap)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET
			name=excluded.name, last_price=excluded.last_price, volume=excluded.volume,
			dollar_volume=excluded.dollar_volume, float=excluded.float,
			spread=excluded.spread, market_cap=excluded.market_cap`,
		inst.Symbol, inst.Name, inst.LastKnownPrice, inst.Volume,
		inst.DollarVolume, inst.Float, inst.Spread, inst.MarketCap)
	if err != nil {
		return apperrors.Wrapf(err, "adding favorite %s", inst.Symbol)
	}
	return nil
}

// RemoveFavorite deletes a symbol from the watch-list.
func (s *SQLiteStore) RemoveFavorite(ctx context.Context, symbol string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM favorites WHERE symbol = ?`, symbol)
	if err != nil {
		return apperrors.Wrapf(err, "removing favorite %s", symbol)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return apperrors.ErrSymbolNotFound
	}
	return nil
}

// GetInstruments returns the watch-list, alphabetical by symbol.
func (s *SQLiteStore) GetInstruments(ctx context.Context) ([]models.Instrument, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, name, last_price, volume, dollar_volume, float, spread, market_cap
		FROM favorites ORDER BY symbol ASC`)
	if err != nil {
		return nil, apperrors.Wrap(err, "querying favorites")
	}
	defer rows.Close()

	var instruments []models.Instrument
	for rows.Next() {
		var inst models.Instrument
		if err := rows.Scan(&inst.Symbol, &inst.Name, &inst.LastKnownPrice, &inst.Volume,
			&inst.DollarVolume, &inst.Float, &inst.Spread, &inst.MarketCap); err != nil {
			return nil, apperrors.Wrap(err, "scanning favorite row")
		}
		instruments = append(instruments, inst)
	}
	return instruments, rows.Err()
}

// SaveResults persists one dated scan batch. The full result is stored as
// a JSON payload; composite and approval are lifted into columns so the
// host can query top setups without unmarshaling every row.
func (s *SQLiteStore) SaveResults(ctx context.Context, asOf time.Time, cadence models.Cadence, results []analysis.Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Wrap(err, "beginning result transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO scan_results (scan_date, cadence, symbol, direction, composite, approved, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(scan_date, cadence, symbol, direction) DO UPDATE SET
			composite=excluded.composite, approved=excluded.approved, payload=excluded.payload`)
	if err != nil {
		return apperrors.Wrap(err, "preparing result upsert")
	}
	defer stmt.Close()

	dateKey := utils.DateKey(asOf)
	for _, r := range results {
		payload, err := json.Marshal(r)
		if err != nil {
			return apperrors.Wrapf(err, "marshaling result for %s", r.Symbol)
		}
		approved := 0
		if r.Setup.FinalApproval {
			approved = 1
		}
		if _, err := stmt.ExecContext(ctx, dateKey, string(cadence), r.Symbol,
			string(r.Direction), r.Composite, approved, string(payload)); err != nil {
			return apperrors.Wrapf(err, "saving result for %s", r.Symbol)
		}
	}
	return tx.Commit()
}

// GetResults returns the persisted batch for a scan date, best composite
// first.
func (s *SQLiteStore) GetResults(ctx context.Context, asOf time.Time, cadence models.Cadence) ([]analysis.Result, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT payload FROM scan_results
		WHERE scan_date = ? AND cadence = ?
		ORDER BY composite DESC, symbol ASC`,
		utils.DateKey(asOf), string(cadence))
	if err != nil {
		return nil, apperrors.Wrap(err, "querying results")
	}
	defer rows.Close()

	var results []analysis.Result
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, apperrors.Wrap(err, "scanning result row")
		}
		var r analysis.Result
		if err := json.Unmarshal([]byte(payload), &r); err != nil {
			return nil, apperrors.Wrap(err, "unmarshaling result payload")
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// SaveJournalEntry inserts a journal entry and backfills its ID.
func (s *SQLiteStore) SaveJournalEntry(ctx context.Context, entry *models.JournalEntry) error {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO journal (symbol, direction, entry_date, entry_price, stop_loss, target, exit_price, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.Symbol, string(entry.Direction), utils.DateKey(entry.EntryDate),
		entry.EntryPrice, entry.StopLoss, entry.Target, entry.ExitPrice, entry.Notes)
	if err != nil {
		return apperrors.Wrap(err, "saving journal entry")
	}
	if id, err := result.LastInsertId(); err == nil {
		entry.ID = id
	}
	return nil
}

// GetJournal returns journal entries matching the filter, newest first.
func (s *SQLiteStore) GetJournal(ctx context.Context, filter JournalFilter) ([]models.JournalEntry, error) {
	query := `
		SELECT id, symbol, direction, entry_date, entry_price, stop_loss, target, exit_price, notes, created_at
		FROM journal WHERE 1=1`
	var args []interface{}
	if filter.Symbol != "" {
		query += " AND symbol = ?"
		args = append(args, filter.Symbol)
	}
	if !filter.StartDate.IsZero() {
		query += " AND entry_date >= ?"
		args = append(args, utils.DateKey(filter.StartDate))
	}
	if !filter.EndDate.IsZero() {
		query += " AND entry_date <= ?"
		args = append(args, utils.DateKey(filter.EndDate))
	}
	query += " ORDER BY entry_date DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "querying journal")
	}
	defer rows.Close()

	var entries []models.JournalEntry
	for rows.Next() {
		var e models.JournalEntry
		var direction, dateKey string
		if err := rows.Scan(&e.ID, &e.Symbol, &direction, &dateKey, &e.EntryPrice,
			&e.StopLoss, &e.Target, &e.ExitPrice, &e.Notes, &e.CreatedAt); err != nil {
			return nil, apperrors.Wrap(err, "scanning journal row")
		}
		e.Direction = models.Direction(direction)
		date, err := utils.ParseDateKey(dateKey)
		if err != nil {
			return nil, apperrors.Wrapf(err, "parsing journal date %q", dateKey)
		}
		e.EntryDate = date
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SeriesSource adapts the store into a per-cadence bar source for the
// scanner.
func (s *SQLiteStore) SeriesSource(cadence models.Cadence) marketdata.BarSource {
	return &seriesSource{store: s, cadence: cadence}
}

type seriesSource struct {
	store   *SQLiteStore
	cadence models.Cadence
}

func (ss *seriesSource) GetSeries(ctx context.Context, symbol string) ([]models.Bar, error) {
	rows, err := ss.store.db.QueryContext(ctx, `
		SELECT symbol, date, open, high, low, close, volume, adj_close
		FROM bars
		WHERE symbol = ? AND cadence = ?
		ORDER BY date ASC`,
		symbol, string(ss.cadence))
	if err != nil {
		return nil, apperrors.Wrap(err, "querying series")
	}
	defer rows.Close()

	bars, err := scanBars(rows)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, apperrors.ErrDataNotFound
	}
	return bars, nil
}
