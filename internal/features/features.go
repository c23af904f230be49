// Package features computes the technical/momentum feature matrix and the
// forward-return label from raw bar history.
//
// Every feature value at date t is a function of bars dated at or before t
// only. The target is the single deliberately future-referencing column:
// the forward 22-session return, undefined for rows near the end of the
// history.
package features

import (
	"math"

	"github.com/udayand2004/StockSelectorOptimizer/internal/domain"
)

const (
	// MinBars is the minimum history length required to generate features;
	// the 12-month momentum lookback dictates it.
	MinBars = 252

	// TargetHorizon is the forward label window in trading sessions.
	TargetHorizon = 22

	maWindowShort  = 20
	maWindowLong   = 50
	rocWindow      = 20
	volWindow      = 20
	rsiWindow      = 14
	sharpeWindow   = 66
	momentumShort  = 66
	momentumMedium = 132
	momentumLong   = 252

	annualization = 252
)

var nan = math.NaN()

// Generate builds the feature table for one symbol. It requires at least
// MinBars bars of history and a benchmark series beginning no later than
// the history; otherwise it returns an empty table, which callers treat as
// "insufficient data, skip". The inputs are never mutated.
func Generate(history, benchmark domain.Series) domain.FeatureTable {
	table := domain.FeatureTable{Symbol: history.Symbol}
	if history.Len() < MinBars {
		return table
	}
	if benchmark.Empty() || benchmark.Bars[0].Date.After(history.Bars[0].Date) {
		return table
	}

	closes := history.Closes()
	n := len(closes)

	ma20 := rollingMean(closes, maWindowShort)
	ma50 := rollingMean(closes, maWindowLong)
	roc20 := pctChange(closes, rocWindow)
	vol20 := rollingStd(closes, volWindow)
	rsi := wilderRSI(closes, rsiWindow)
	mom3 := pctChange(closes, momentumShort)
	mom6 := pctChange(closes, momentumMedium)
	mom12 := pctChange(closes, momentumLong)
	sharpe := rollingSharpe(closes, sharpeWindow)

	table.Rows = make([]domain.FeatureRow, n)
	for i := 0; i < n; i++ {
		row := domain.FeatureRow{
			Date:         history.Bars[i].Date,
			MA20:         ma20[i],
			MA50:         ma50[i],
			ROC20:        roc20[i],
			Volatility20: vol20[i],
			RSI:          rsi[i],
			RelStrength:  nan,
			Momentum3M:   mom3[i],
			Momentum6M:   mom6[i],
			Momentum12M:  mom12[i],
			Sharpe3M:     sharpe[i],
			Target:       nan,
		}

		// Relative strength forward-fills the benchmark close onto the
		// stock's calendar; only benchmark bars dated <= t are visible.
		if bench, ok := benchmark.CloseAsOf(history.Bars[i].Date); ok && bench != 0 {
			row.RelStrength = closes[i] / bench
		}

		// Forward label, computed as a shift: undefined near the end.
		if i+TargetHorizon < n && closes[i] != 0 {
			row.Target = closes[i+TargetHorizon]/closes[i] - 1
		}

		table.Rows[i] = row
	}
	return table
}

// ---------------------------------------------------------------------------
// Rolling primitives
// ---------------------------------------------------------------------------

// rollingMean computes the trailing simple moving average; the first
// window-1 entries are NaN.
func rollingMean(xs []float64, window int) []float64 {
	out := nanSlice(len(xs))
	var sum float64
	for i, x := range xs {
		sum += x
		if i >= window {
			sum -= xs[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// rollingStd computes the trailing sample standard deviation (ddof=1).
func rollingStd(xs []float64, window int) []float64 {
	out := nanSlice(len(xs))
	for i := window - 1; i < len(xs); i++ {
		out[i] = sampleStd(xs[i-window+1 : i+1])
	}
	return out
}

// pctChange computes x[i]/x[i-lag] - 1; the first lag entries are NaN.
func pctChange(xs []float64, lag int) []float64 {
	out := nanSlice(len(xs))
	for i := lag; i < len(xs); i++ {
		if xs[i-lag] != 0 {
			out[i] = xs[i]/xs[i-lag] - 1
		}
	}
	return out
}

// wilderRSI computes the 14-day RSI using simple trailing means of gains
// and losses. A window with zero average loss yields RSI 50 rather than a
// NaN or an explosion toward 100.
func wilderRSI(closes []float64, window int) []float64 {
	n := len(closes)
	out := nanSlice(n)
	if n < 2 {
		return out
	}

	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 1; i < n; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	var gainSum, lossSum float64
	for i := 1; i < n; i++ {
		gainSum += gains[i]
		lossSum += losses[i]
		if i > window {
			gainSum -= gains[i-window]
			lossSum -= losses[i-window]
		}
		if i < window {
			continue
		}
		avgGain := gainSum / float64(window)
		avgLoss := lossSum / float64(window)
		if avgLoss == 0 {
			out[i] = 50
			continue
		}
		rs := avgGain / avgLoss
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

// rollingSharpe computes the trailing annualized mean/stdev ratio of daily
// returns. Zero-variance windows propagate NaN; downstream training drops
// NaN rows.
func rollingSharpe(closes []float64, window int) []float64 {
	n := len(closes)
	out := nanSlice(n)

	returns := make([]float64, n)
	returns[0] = nan
	for i := 1; i < n; i++ {
		if closes[i-1] != 0 {
			returns[i] = closes[i]/closes[i-1] - 1
		} else {
			returns[i] = nan
		}
	}

	for i := window; i < n; i++ {
		win := returns[i-window+1 : i+1]
		mean, ok := finiteMean(win)
		if !ok {
			continue
		}
		std := sampleStd(win)
		if std == 0 || math.IsNaN(std) {
			continue
		}
		out[i] = mean / std * math.Sqrt(annualization)
	}
	return out
}

// ---------------------------------------------------------------------------
// Small numeric helpers
// ---------------------------------------------------------------------------

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = nan
	}
	return out
}

func finiteMean(xs []float64) (float64, bool) {
	var sum float64
	for _, x := range xs {
		if math.IsNaN(x) {
			return 0, false
		}
		sum += x
	}
	if len(xs) == 0 {
		return 0, false
	}
	return sum / float64(len(xs)), true
}

func sampleStd(xs []float64) float64 {
	if len(xs) < 2 {
		return nan
	}
	mean, ok := finiteMean(xs)
	if !ok {
		return nan
	}
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}
