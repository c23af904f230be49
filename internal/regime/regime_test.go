package regime

import (
	"math"
	"testing"
	"time"

	"github.com/udayand2004/StockSelectorOptimizer/internal/domain"
)

func benchSeries(days int, close func(i int) float64) domain.Series {
	s := domain.Series{Symbol: "NSEI"}
	d := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < days; i++ {
		for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			d = d.AddDate(0, 0, 1)
		}
		s.Bars = append(s.Bars, domain.Bar{Symbol: "NSEI", Date: d, Close: close(i)})
		d = d.AddDate(0, 0, 1)
	}
	return s
}

func TestEvaluateRiskOn(t *testing.T) {
	// Rising benchmark: last close above the trailing average.
	s := benchSeries(250, func(i int) float64 { return 1000 + float64(i) })
	after := s.Bars[len(s.Bars)-1].Date.AddDate(0, 0, 1)

	d := Evaluate(s, after)
	if d.Status != RiskOn {
		t.Fatalf("status = %s, want %s", d.Status, RiskOn)
	}
	if !d.RiskOn() {
		t.Error("RiskOn() = false for a rising benchmark")
	}
	if d.Reason() != "" {
		t.Errorf("RiskOn decision has reason %q, want empty", d.Reason())
	}
	if d.Close <= d.MA {
		t.Errorf("close %f not above MA %f", d.Close, d.MA)
	}
}

func TestEvaluateDowntrend(t *testing.T) {
	// Rise for 200 sessions then collapse: last close below the average.
	s := benchSeries(250, func(i int) float64 {
		if i < 200 {
			return 1000 + float64(i)
		}
		return 500
	})
	after := s.Bars[len(s.Bars)-1].Date.AddDate(0, 0, 1)

	d := Evaluate(s, after)
	if d.Status != Downtrend {
		t.Fatalf("status = %s, want %s", d.Status, Downtrend)
	}
	if d.RiskOn() {
		t.Error("RiskOn() = true for a collapsed benchmark")
	}
	if d.Reason() == "" {
		t.Error("Downtrend decision has no reason")
	}
}

func TestEvaluateInsufficientHistory(t *testing.T) {
	s := benchSeries(Window-1, func(i int) float64 { return 1000 })
	after := s.Bars[len(s.Bars)-1].Date.AddDate(0, 0, 1)

	d := Evaluate(s, after)
	if d.Status != InsufficientHistory {
		t.Fatalf("status = %s, want %s", d.Status, InsufficientHistory)
	}
	if d.RiskOn() {
		t.Error("RiskOn() = true with too little history")
	}
}

func TestEvaluateBadData(t *testing.T) {
	s := benchSeries(250, func(i int) float64 {
		if i == 240 {
			return math.NaN()
		}
		return 1000
	})
	after := s.Bars[len(s.Bars)-1].Date.AddDate(0, 0, 1)

	d := Evaluate(s, after)
	if d.Status != BadData {
		t.Fatalf("status = %s, want %s", d.Status, BadData)
	}
}

func TestEvaluateStrictlyBefore(t *testing.T) {
	// A huge bar dated exactly at the rebalance date must not be seen.
	s := benchSeries(250, func(i int) float64 {
		if i < 200 {
			return 1000 + float64(i)
		}
		return 500
	})
	at := s.Bars[len(s.Bars)-1].Date

	withSpike := s
	withSpike.Bars = append(append([]domain.Bar(nil), s.Bars[:len(s.Bars)-1]...),
		domain.Bar{Symbol: "NSEI", Date: at, Close: 1e9})

	got := Evaluate(withSpike, at)
	want := Evaluate(domain.Series{Symbol: "NSEI", Bars: s.Bars[:len(s.Bars)-1]}, at)
	if got.Status != want.Status || got.Close != want.Close || got.MA != want.MA {
		t.Errorf("bar dated at t leaked into the decision: got %+v, want %+v", got, want)
	}
}
