// Package store defines the storage interface for historical daily bars
// and provides Parquet and SQLite backed implementations. The store is the
// narrow boundary through which the simulation core sees market data.
package store

import (
	"context"
	"time"

	"github.com/udayand2004/StockSelectorOptimizer/internal/domain"
)

// BarStore persists and retrieves daily OHLCV bar history.
type BarStore interface {
	// WriteBars persists a batch of bars, merging with any existing data
	// for the same (symbol, date).
	WriteBars(ctx context.Context, bars []domain.Bar) error

	// ReadBars returns the bars for symbol within [start, end] in date
	// order. A symbol with no data in the range yields an empty series,
	// not an error.
	ReadBars(ctx context.Context, symbol string, start, end time.Time) (domain.Series, error)

	// ListSymbols returns all distinct symbols available in the store.
	ListSymbols(ctx context.Context) ([]string, error)
}
