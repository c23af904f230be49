package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"github.com/udayand2004/StockSelectorOptimizer/internal/domain"
)

// Compile-time interface check.
var _ BarStore = (*SQLiteStore)(nil)

// SQLiteStore implements BarStore backed by a SQLite database. It suits
// small universes and test fixtures; the Parquet backend is preferred for
// bulk historical data.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS bars (
	symbol  TEXT    NOT NULL,
	date    INTEGER NOT NULL, -- Unix ms, UTC midnight
	open    REAL    NOT NULL,
	high    REAL    NOT NULL,
	low     REAL    NOT NULL,
	close   REAL    NOT NULL,
	volume  INTEGER NOT NULL,
	sector  TEXT    NOT NULL DEFAULT '',
	PRIMARY KEY (symbol, date)
);
CREATE INDEX IF NOT EXISTS idx_bars_symbol ON bars (symbol);
`

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, runs the
// schema migration, and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating bars schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// WriteBars inserts a batch of bars, replacing existing rows with the same
// (symbol, date) key. The batch is written in one transaction.
func (s *SQLiteStore) WriteBars(ctx context.Context, bars []domain.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO bars (symbol, date, open, high, low, close, volume, sector)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx,
			b.Symbol, b.Date.UnixMilli(), b.Open, b.High, b.Low, b.Close, b.Volume, b.Sector,
		); err != nil {
			return fmt.Errorf("inserting bar %s/%s: %w", b.Symbol, b.Date.Format("2006-01-02"), err)
		}
	}
	return tx.Commit()
}

// ReadBars returns the bars for symbol within [start, end] in date order.
func (s *SQLiteStore) ReadBars(ctx context.Context, symbol string, start, end time.Time) (domain.Series, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, date, open, high, low, close, volume, sector
		FROM bars
		WHERE symbol = ? AND date >= ? AND date <= ?
		ORDER BY date ASC`,
		symbol, start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return domain.Series{}, err
	}
	defer rows.Close()

	series := domain.Series{Symbol: symbol}
	for rows.Next() {
		var b domain.Bar
		var ms int64
		if err := rows.Scan(&b.Symbol, &ms, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.Sector); err != nil {
			return domain.Series{}, err
		}
		b.Date = time.UnixMilli(ms).UTC()
		series.Bars = append(series.Bars, b)
	}
	return series, rows.Err()
}

// ListSymbols returns all distinct symbols present in the bars table.
func (s *SQLiteStore) ListSymbols(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT symbol FROM bars ORDER BY symbol`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, err
		}
		symbols = append(symbols, sym)
	}
	return symbols, rows.Err()
}
