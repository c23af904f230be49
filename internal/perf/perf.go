// Package perf converts a simulated holdings series plus raw price history
// into daily net returns, comparative KPIs, and the chart-ready payload
// returned to callers. Aggregate is a pure function: the same inputs always
// produce the same payload.
package perf

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/udayand2004/StockSelectorOptimizer/internal/domain"
	"github.com/udayand2004/StockSelectorOptimizer/internal/util"
)

// TradingDaysPerYear annualizes daily statistics.
const TradingDaysPerYear = 252

// AggregateInput bundles everything the aggregator needs. Histories must
// contain every symbol appearing in Holdings plus nothing it depends on
// beyond closes; Benchmark is the index series.
type AggregateInput struct {
	Holdings     domain.HoldingsSeries
	Histories    map[string]domain.Series
	Benchmark    domain.Series
	Start        time.Time
	End          time.Time
	RiskFreeRate float64
	CostBps      float64
	Log          []domain.RebalanceLogEntry
}

// Aggregate computes the performance payload for one run. An all-zero
// holdings series is a legitimate no-trade outcome and yields a zero-KPI
// payload with explanatory text; a KPI computation failure on an invested
// run is returned as an error.
func Aggregate(in AggregateInput) (*Payload, error) {
	if len(in.Holdings) == 0 {
		return nil, fmt.Errorf("%w: empty holdings series", domain.ErrComputation)
	}

	calendar := util.BusinessDays(in.Start, in.End)
	if len(calendar) < 2 {
		return nil, fmt.Errorf("%w: calendar %s..%s has fewer than 2 business days",
			domain.ErrComputation,
			in.Start.Format("2006-01-02"), in.End.Format("2006-01-02"))
	}

	benchCurve, benchReturns := benchmarkTrack(in.Benchmark, calendar)

	if in.Holdings.TotalWeight() < 1e-9 {
		return degeneratePayload(in, calendar, benchCurve), nil
	}

	symbols := in.Holdings.Symbols()
	for _, sym := range symbols {
		if in.Histories[sym].Empty() {
			return nil, fmt.Errorf("%w: no historical data for held symbol %s",
				domain.ErrConfiguration, sym)
		}
	}
	closes := closeMatrix(symbols, in.Histories, calendar)
	weights := weightMatrix(symbols, in.Holdings, calendar)

	strat := make([]float64, len(calendar))
	for d := 1; d < len(calendar); d++ {
		var gross float64
		for si := range symbols {
			prev, cur := closes[si][d-1], closes[si][d]
			if weights[si][d-1] == 0 || math.IsNaN(prev) || math.IsNaN(cur) || prev == 0 {
				continue
			}
			gross += weights[si][d-1] * (cur/prev - 1)
		}
		strat[d] = gross - turnoverAt(symbols, weights, d)/2*in.CostBps/10000
	}
	// Entry cost on the first calendar day, if it is a rebalance day.
	strat[0] = -turnoverAt(symbols, weights, 0) / 2 * in.CostBps / 10000

	years := util.YearsBetween(in.Start, in.End)
	kpis, err := computeKPIs(strat, benchReturns, in.RiskFreeRate, years)
	if err != nil {
		return nil, err
	}

	equity := cumulate(strat)
	p := &Payload{
		KPIs:          kpis,
		Dates:         formatDates(calendar),
		EquityCurve:   equity,
		BenchCurve:    benchCurve,
		Drawdown:      drawdownSeries(equity),
		MonthlyTable:  periodTable(calendar, strat, "2006-01"),
		YearlyTable:   periodTable(calendar, strat, "2006"),
		WeightSeries:  weightSeries(symbols, weights, calendar),
		SectorSeries:  sectorSeries(symbols, in.Histories, weights, calendar),
		RebalanceLogs: formatLogs(in.Log),
	}
	return p, nil
}

// benchmarkTrack returns the benchmark cumulative curve and daily returns
// over the calendar, forward-filling missing sessions. Days before the
// first benchmark bar carry NaN returns so the inner join drops them.
func benchmarkTrack(benchmark domain.Series, calendar []time.Time) ([]float64, []float64) {
	curve := make([]float64, len(calendar))
	rets := make([]float64, len(calendar))
	var prev float64
	for d, day := range calendar {
		c, ok := benchmark.CloseAsOf(day)
		if !ok {
			curve[d] = 1
			rets[d] = math.NaN()
			continue
		}
		if prev == 0 {
			curve[d] = 1
			rets[d] = math.NaN()
		} else {
			rets[d] = c/prev - 1
			curve[d] = curve[d-1] * (1 + rets[d])
		}
		prev = c
	}
	return curve, rets
}

// closeMatrix builds the per-symbol close rows reindexed onto the calendar
// with forward-fill. Cells before a symbol's first bar are NaN.
func closeMatrix(symbols []string, histories map[string]domain.Series, calendar []time.Time) [][]float64 {
	m := make([][]float64, len(symbols))
	for si, sym := range symbols {
		row := make([]float64, len(calendar))
		s := histories[sym]
		for d, day := range calendar {
			if c, ok := s.CloseAsOf(day); ok {
				row[d] = c
			} else {
				row[d] = math.NaN()
			}
		}
		m[si] = row
	}
	return m
}

// weightMatrix forward-fills the rebalance-dated holdings onto the
// calendar. Days before the first rebalance hold zero weight.
func weightMatrix(symbols []string, holdings domain.HoldingsSeries, calendar []time.Time) [][]float64 {
	m := make([][]float64, len(symbols))
	for si := range symbols {
		m[si] = make([]float64, len(calendar))
	}
	next := 0
	var current domain.Holdings
	for d, day := range calendar {
		for next < len(holdings) && !holdings[next].Date.After(day) {
			current = holdings[next].Weights
			next++
		}
		for si, sym := range symbols {
			m[si][d] = current[sym]
		}
	}
	return m
}

// turnoverAt is the total absolute weight change on calendar day d.
func turnoverAt(symbols []string, weights [][]float64, d int) float64 {
	var sum float64
	for si := range symbols {
		prev := 0.0
		if d > 0 {
			prev = weights[si][d-1]
		}
		sum += math.Abs(weights[si][d] - prev)
	}
	return sum
}

func cumulate(returns []float64) []float64 {
	out := make([]float64, len(returns))
	eq := 1.0
	for i, r := range returns {
		eq *= 1 + r
		out[i] = eq
	}
	return out
}

func drawdownSeries(equity []float64) []float64 {
	out := make([]float64, len(equity))
	peak := math.Inf(-1)
	for i, v := range equity {
		if v > peak {
			peak = v
		}
		out[i] = v/peak - 1
	}
	return out
}

func formatDates(calendar []time.Time) []string {
	out := make([]string, len(calendar))
	for i, d := range calendar {
		out[i] = d.Format("2006-01-02")
	}
	return out
}

// periodTable compounds daily returns into per-period returns keyed by the
// given date layout ("2006-01" for months, "2006" for years), emitted in
// chronological order.
func periodTable(calendar []time.Time, returns []float64, layout string) []PeriodReturn {
	var keys []string
	byKey := make(map[string]float64)
	for i, day := range calendar {
		k := day.Format(layout)
		if _, ok := byKey[k]; !ok {
			keys = append(keys, k)
			byKey[k] = 1
		}
		byKey[k] *= 1 + returns[i]
	}
	sort.Strings(keys)
	out := make([]PeriodReturn, len(keys))
	for i, k := range keys {
		out[i] = PeriodReturn{Period: k, Return: byKey[k] - 1}
	}
	return out
}

func weightSeries(symbols []string, weights [][]float64, calendar []time.Time) map[string][]float64 {
	out := make(map[string][]float64, len(symbols))
	for si, sym := range symbols {
		out[sym] = append([]float64(nil), weights[si]...)
	}
	return out
}

// sectorSeries folds the per-symbol weights into per-sector exposure using
// the sector tag carried on the bars.
func sectorSeries(symbols []string, histories map[string]domain.Series, weights [][]float64, calendar []time.Time) map[string][]float64 {
	out := make(map[string][]float64)
	for si, sym := range symbols {
		sector := histories[sym].Sector()
		row, ok := out[sector]
		if !ok {
			row = make([]float64, len(calendar))
			out[sector] = row
		}
		for d := range row {
			row[d] += weights[si][d]
		}
	}
	return out
}

func formatLogs(log []domain.RebalanceLogEntry) []LogRecord {
	out := make([]LogRecord, len(log))
	for i, e := range log {
		rec := LogRecord{
			Date:   e.Date.Format("2006-01-02"),
			Action: string(e.Action),
			Reason: e.Reason,
		}
		if len(e.Weights) > 0 {
			rec.Weights = make(map[string]float64, len(e.Weights))
			for sym, w := range e.Weights {
				rec.Weights[sym] = round6(w)
			}
		}
		out[i] = rec
	}
	return out
}

func round6(v float64) float64 { return math.Round(v*1e6) / 1e6 }

// degeneratePayload is the no-trade outcome: flat strategy curve, real
// benchmark curve, zero KPIs, and an explanatory message.
func degeneratePayload(in AggregateInput, calendar []time.Time, benchCurve []float64) *Payload {
	flat := make([]float64, len(calendar))
	zero := make([]float64, len(calendar))
	for i := range flat {
		flat[i] = 1
	}
	return &Payload{
		Error:         "strategy never invested during the period; all KPIs are zero",
		KPIs:          KPIs{},
		Dates:         formatDates(calendar),
		EquityCurve:   flat,
		BenchCurve:    benchCurve,
		Drawdown:      zero,
		MonthlyTable:  []PeriodReturn{},
		YearlyTable:   []PeriodReturn{},
		WeightSeries:  map[string][]float64{},
		SectorSeries:  map[string][]float64{},
		RebalanceLogs: formatLogs(in.Log),
	}
}
