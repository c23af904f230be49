package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/udayand2004/StockSelectorOptimizer/internal/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sampleBars() []domain.Bar {
	return []domain.Bar{
		{Symbol: "INFY", Date: date(2023, 12, 29), Open: 1540, High: 1555, Low: 1532, Close: 1550, Volume: 4200000, Sector: "Information Technology"},
		{Symbol: "INFY", Date: date(2024, 1, 1), Open: 1551, High: 1562, Low: 1548, Close: 1560, Volume: 3900000, Sector: "Information Technology"},
		{Symbol: "INFY", Date: date(2024, 1, 2), Open: 1561, High: 1580, Low: 1555, Close: 1575, Volume: 4100000, Sector: "Information Technology"},
	}
}

func TestParquetStorePath(t *testing.T) {
	ps := NewParquetStore("/data")

	bp := ps.barPath("infy", 2024)
	want := filepath.Join("/data", "daily", "INFY", "2024.parquet")
	if bp != want {
		t.Errorf("barPath mismatch:\n  got  %s\n  want %s", bp, want)
	}
}

// runBarStoreTests exercises the BarStore contract shared by both backends.
func runBarStoreTests(t *testing.T, bs BarStore) {
	t.Helper()
	ctx := context.Background()

	if err := bs.WriteBars(ctx, sampleBars()); err != nil {
		t.Fatalf("WriteBars returned error: %v", err)
	}

	// Full range spans a year boundary.
	series, err := bs.ReadBars(ctx, "INFY", date(2023, 12, 1), date(2024, 1, 31))
	if err != nil {
		t.Fatalf("ReadBars returned error: %v", err)
	}
	if series.Len() != 3 {
		t.Fatalf("ReadBars returned %d bars, want 3", series.Len())
	}
	if err := series.Validate(); err != nil {
		t.Errorf("returned series violates date ordering: %v", err)
	}
	if series.Bars[1].Close != 1560 {
		t.Errorf("second bar close = %f, want 1560", series.Bars[1].Close)
	}
	if series.Sector() != "Information Technology" {
		t.Errorf("series sector = %q, want Information Technology", series.Sector())
	}

	// Range filtering.
	partial, err := bs.ReadBars(ctx, "INFY", date(2024, 1, 2), date(2024, 1, 31))
	if err != nil {
		t.Fatalf("ReadBars returned error: %v", err)
	}
	if partial.Len() != 1 {
		t.Errorf("filtered ReadBars returned %d bars, want 1", partial.Len())
	}

	// Rewriting the same dates must not duplicate.
	if err := bs.WriteBars(ctx, sampleBars()); err != nil {
		t.Fatalf("second WriteBars returned error: %v", err)
	}
	again, _ := bs.ReadBars(ctx, "INFY", date(2023, 12, 1), date(2024, 1, 31))
	if again.Len() != 3 {
		t.Errorf("ReadBars after rewrite returned %d bars, want 3", again.Len())
	}

	// Unknown symbol yields an empty series, not an error.
	missing, err := bs.ReadBars(ctx, "NOSUCH", date(2024, 1, 1), date(2024, 1, 31))
	if err != nil {
		t.Fatalf("ReadBars for unknown symbol returned error: %v", err)
	}
	if !missing.Empty() {
		t.Errorf("ReadBars for unknown symbol returned %d bars, want 0", missing.Len())
	}

	symbols, err := bs.ListSymbols(ctx)
	if err != nil {
		t.Fatalf("ListSymbols returned error: %v", err)
	}
	if len(symbols) != 1 || symbols[0] != "INFY" {
		t.Errorf("ListSymbols = %v, want [INFY]", symbols)
	}
}

func TestParquetStore(t *testing.T) {
	runBarStoreTests(t, NewParquetStore(t.TempDir()))
}

func TestSQLiteStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "bars.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore returned error: %v", err)
	}
	defer s.Close()

	runBarStoreTests(t, s)
}
