package domain

import "errors"

// Error taxonomy for a backtest run. Recoverable conditions (missing data
// for one symbol, insufficient history at one date, a no-trade run) are
// handled in place and surface as log entries or payload fields; only
// ErrComputation and ErrConfiguration abort a run.
var (
	// ErrDataUnavailable marks an empty history for a symbol/date range.
	// Recoverable: skip the symbol and continue.
	ErrDataUnavailable = errors.New("historical data unavailable")

	// ErrInsufficientHistory marks fewer bars than a computation requires.
	// Recoverable: treated as a filter/selector "no" outcome.
	ErrInsufficientHistory = errors.New("insufficient history")

	// ErrComputation marks a statistics engine failure on a non-degenerate
	// return series. Fatal: propagated to the caller as a run failure.
	ErrComputation = errors.New("performance computation failed")

	// ErrConfiguration marks an invalid run setup (empty universe, bad date
	// range, missing benchmark). Fatal: raised before the simulation starts.
	ErrConfiguration = errors.New("invalid backtest configuration")
)
