// Package universe holds the static stock universes the strategy can run
// over. Lookups are deterministic: a universe is always returned in the
// same order.
package universe

import (
	"fmt"

	"github.com/udayand2004/StockSelectorOptimizer/internal/domain"
)

var universes = map[string][]string{
	"NIFTY_50": {
		"ADANIENT", "ADANIPORTS", "APOLLOHOSP", "ASIANPAINT", "AXISBANK", "BAJAJ-AUTO", "BAJFINANCE",
		"BAJAJFINSV", "BPCL", "BHARTIARTL", "BRITANNIA", "CIPLA", "COALINDIA", "DIVISLAB", "DRREDDY",
		"EICHERMOT", "GRASIM", "HCLTECH", "HDFCBANK", "HDFCLIFE", "HEROMOTOCO", "HINDALCO", "HINDUNILVR",
		"ICICIBANK", "ITC", "INDUSINDBK", "INFY", "JSWSTEEL", "KOTAKBANK", "LTIM", "LT", "M&M",
		"MARUTI", "NTPC", "NESTLEIND", "ONGC", "POWERGRID", "RELIANCE", "SBILIFE", "SBIN", "SUNPHARMA",
		"TCS", "TATACONSUM", "TATAMOTORS", "TATASTEEL", "TECHM", "TITAN", "UPL", "ULTRACEMCO", "WIPRO",
	},
	"NIFTY_NEXT_50": {
		"ACC", "ADANIENSOL", "ADANIGREEN", "AMBUJACEM", "DMART", "BAJAJHLDNG", "BANKBARODA", "BERGEPAINT", "BEL",
		"BOSCHLTD", "CHOLAFIN", "COLPAL", "DLF", "DABUR", "GAIL", "GODREJCP", "HAVELLS", "HAL", "ICICIGI",
		"ICICIPRULI", "IOC", "IGL", "INDIGO", "JSWENERGY", "LICI", "MARICO", "MOTHERSON", "MUTHOOTFIN",
		"NAUKRI", "PIDILITIND", "PEL", "PNB", "PGHH", "SIEMENS", "SBICARD", "SHREECEM", "SRF",
		"TATAPOWER", "TVSMOTOR", "TRENT", "VEDL", "VBL", "ZEEL", "ZOMATO",
	},
}

// Get returns the ordered symbol list for a named universe. Unknown names
// are a configuration error.
func Get(name string) ([]string, error) {
	symbols, ok := universes[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown universe %q", domain.ErrConfiguration, name)
	}
	out := make([]string, len(symbols))
	copy(out, symbols)
	return out, nil
}

// Names returns the available universe names in sorted order.
func Names() []string {
	return []string{"NIFTY_50", "NIFTY_NEXT_50"}
}
