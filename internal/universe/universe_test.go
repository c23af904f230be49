package universe

import (
	"errors"
	"testing"

	"github.com/udayand2004/StockSelectorOptimizer/internal/domain"
)

func TestGet(t *testing.T) {
	symbols, err := Get("NIFTY_50")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if len(symbols) != 50 {
		t.Errorf("NIFTY_50 has %d symbols, want 50", len(symbols))
	}
	if symbols[0] != "ADANIENT" {
		t.Errorf("first symbol = %q, want ADANIENT", symbols[0])
	}
}

func TestGetDeterministic(t *testing.T) {
	a, _ := Get("NIFTY_NEXT_50")
	b, _ := Get("NIFTY_NEXT_50")
	if len(a) != len(b) {
		t.Fatalf("lookup lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("lookup order differs at index %d: %q vs %q", i, a[i], b[i])
		}
	}
}

func TestGetReturnsCopy(t *testing.T) {
	a, _ := Get("NIFTY_50")
	a[0] = "MUTATED"
	b, _ := Get("NIFTY_50")
	if b[0] == "MUTATED" {
		t.Error("Get returned a shared slice; callers can corrupt the universe")
	}
}

func TestGetUnknown(t *testing.T) {
	_, err := Get("FTSE_100")
	if err == nil {
		t.Fatal("Get accepted unknown universe")
	}
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("error %v is not domain.ErrConfiguration", err)
	}
}
