// Package domain defines the core data types shared across the backtesting
// pipeline: price bars and series, feature rows, prediction sets, holdings,
// and the rebalance audit log.
package domain

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Bar is a single daily OHLCV bar for one symbol. Sector is metadata carried
// from the data source and may be empty when unknown.
type Bar struct {
	Symbol string
	Date   time.Time // trading session date, normalized to UTC midnight
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
	Sector string
}

// Series is an ordered daily bar history for one symbol. Dates are strictly
// increasing with no duplicates; Validate enforces the invariant.
type Series struct {
	Symbol string
	Bars   []Bar
}

// Len returns the number of bars in the series.
func (s Series) Len() int { return len(s.Bars) }

// Empty reports whether the series holds no bars.
func (s Series) Empty() bool { return len(s.Bars) == 0 }

// Validate checks the series invariant: dates strictly increasing, no
// duplicates.
func (s Series) Validate() error {
	for i := 1; i < len(s.Bars); i++ {
		if !s.Bars[i].Date.After(s.Bars[i-1].Date) {
			return fmt.Errorf("series %s: bar dates not strictly increasing at index %d (%s then %s)",
				s.Symbol, i, s.Bars[i-1].Date.Format("2006-01-02"), s.Bars[i].Date.Format("2006-01-02"))
		}
	}
	return nil
}

// Before returns the sub-series of bars dated strictly before t. The
// returned series shares the underlying bar slice and must not be mutated.
func (s Series) Before(t time.Time) Series {
	idx := sort.Search(len(s.Bars), func(i int) bool {
		return !s.Bars[i].Date.Before(t)
	})
	return Series{Symbol: s.Symbol, Bars: s.Bars[:idx]}
}

// Between returns the sub-series of bars with start <= date <= end.
func (s Series) Between(start, end time.Time) Series {
	lo := sort.Search(len(s.Bars), func(i int) bool {
		return !s.Bars[i].Date.Before(start)
	})
	hi := sort.Search(len(s.Bars), func(i int) bool {
		return s.Bars[i].Date.After(end)
	})
	return Series{Symbol: s.Symbol, Bars: s.Bars[lo:hi]}
}

// Closes returns the close prices in date order.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// LastClose returns the most recent close, or false when the series is empty.
func (s Series) LastClose() (float64, bool) {
	if len(s.Bars) == 0 {
		return 0, false
	}
	return s.Bars[len(s.Bars)-1].Close, true
}

// CloseAsOf returns the last close dated at or before t (a forward-fill
// lookup), or false when no bar exists at or before t.
func (s Series) CloseAsOf(t time.Time) (float64, bool) {
	idx := sort.Search(len(s.Bars), func(i int) bool {
		return s.Bars[i].Date.After(t)
	})
	if idx == 0 {
		return 0, false
	}
	return s.Bars[idx-1].Close, true
}

// Sector returns the first non-empty sector tag in the series, or "Unknown".
func (s Series) Sector() string {
	for _, b := range s.Bars {
		if b.Sector != "" {
			return b.Sector
		}
	}
	return "Unknown"
}

// FeatureNames lists the model feature columns in their fixed vector order.
// FeatureRow.Vector emits values in exactly this order.
func FeatureNames() []string {
	return []string{
		"MA_20", "MA_50", "ROC_20", "Volatility_20D", "RSI",
		"Relative_Strength", "Momentum_3M", "Momentum_6M", "Momentum_12M", "Sharpe_3M",
	}
}

// FeatureRow holds the computed features and forward-return label for one
// (symbol, date). Undefined values are NaN; Target is NaN for rows whose
// forward window extends past the end of the history.
type FeatureRow struct {
	Date         time.Time
	MA20         float64
	MA50         float64
	ROC20        float64
	Volatility20 float64
	RSI          float64
	RelStrength  float64
	Momentum3M   float64
	Momentum6M   float64
	Momentum12M  float64
	Sharpe3M     float64
	Target       float64
}

// Vector returns the feature values in FeatureNames order. The target is
// deliberately excluded: it is the label, never a model input.
func (r FeatureRow) Vector() []float64 {
	return []float64{
		r.MA20, r.MA50, r.ROC20, r.Volatility20, r.RSI,
		r.RelStrength, r.Momentum3M, r.Momentum6M, r.Momentum12M, r.Sharpe3M,
	}
}

// Complete reports whether every feature (not the target) is defined.
func (r FeatureRow) Complete() bool {
	for _, v := range r.Vector() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// HasTarget reports whether the forward-return label is defined.
func (r FeatureRow) HasTarget() bool {
	return !math.IsNaN(r.Target) && !math.IsInf(r.Target, 0)
}

// FeatureTable is the per-symbol feature matrix, one row per date in order.
type FeatureTable struct {
	Symbol string
	Rows   []FeatureRow
}

// Empty reports whether the table holds no rows.
func (t FeatureTable) Empty() bool { return len(t.Rows) == 0 }

// LatestComplete returns the most recent row whose features are all defined,
// or false when no such row exists.
func (t FeatureTable) LatestComplete() (FeatureRow, bool) {
	for i := len(t.Rows) - 1; i >= 0; i-- {
		if t.Rows[i].Complete() {
			return t.Rows[i], true
		}
	}
	return FeatureRow{}, false
}

// Prediction is a single symbol's predicted forward return.
type Prediction struct {
	Symbol string
	Value  float64
}

// PredictionSet holds the predictions produced at one rebalance date, in
// universe order so that downstream ranking is deterministic.
type PredictionSet struct {
	Date  time.Time
	Preds []Prediction
}

// Empty reports whether no symbol produced a prediction.
func (p PredictionSet) Empty() bool { return len(p.Preds) == 0 }

// Holdings maps symbol to portfolio weight at one rebalance date. Weights
// are non-negative and sum to ~1.0 when invested; an empty map means cash.
type Holdings map[string]float64

// TotalWeight returns the sum of all weights.
func (h Holdings) TotalWeight() float64 {
	var sum float64
	for _, w := range h {
		sum += w
	}
	return sum
}

// HoldingsPoint pairs a rebalance date with the holdings chosen at it.
type HoldingsPoint struct {
	Date    time.Time
	Weights Holdings
}

// HoldingsSeries is the rebalance-dated holdings history, dates strictly
// increasing.
type HoldingsSeries []HoldingsPoint

// Symbols returns the sorted set of symbols appearing with non-zero weight
// anywhere in the series.
func (hs HoldingsSeries) Symbols() []string {
	seen := make(map[string]struct{})
	for _, p := range hs {
		for sym, w := range p.Weights {
			if w > 0 {
				seen[sym] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for sym := range seen {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// TotalWeight returns the sum of all weights across the whole series. A
// value of ~0 identifies the no-trade degenerate run.
func (hs HoldingsSeries) TotalWeight() float64 {
	var sum float64
	for _, p := range hs {
		sum += p.Weights.TotalWeight()
	}
	return sum
}

// RebalanceAction is the action recorded for one rebalance date.
type RebalanceAction string

const (
	ActionHoldCash   RebalanceAction = "Hold Cash"
	ActionRebalanced RebalanceAction = "Rebalanced Portfolio"
)

// RebalanceLogEntry is one audit-log record. For hold-cash dates Reason
// explains why; for rebalanced dates Weights holds the chosen allocation.
type RebalanceLogEntry struct {
	Date    time.Time
	Action  RebalanceAction
	Reason  string
	Weights Holdings
}
