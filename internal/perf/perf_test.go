package perf

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/udayand2004/StockSelectorOptimizer/internal/domain"
)

func growthSeries(symbol string, start time.Time, days int, base, dailyRet float64) domain.Series {
	s := domain.Series{Symbol: symbol}
	d := start
	price := base
	for i := 0; i < days; i++ {
		for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			d = d.AddDate(0, 0, 1)
		}
		s.Bars = append(s.Bars, domain.Bar{Symbol: symbol, Date: d, Close: price, Sector: "Test"})
		price *= 1 + dailyRet
		d = d.AddDate(0, 0, 1)
	}
	return s
}

func testInput() AggregateInput {
	histStart := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	return AggregateInput{
		Histories: map[string]domain.Series{
			"AAA": growthSeries("AAA", histStart, 90, 100, 0.001),
			"BBB": growthSeries("BBB", histStart, 90, 50, 0.002),
		},
		Benchmark:    growthSeries("NSEI", histStart, 90, 1000, 0.0005),
		Start:        time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		End:          time.Date(2024, 7, 31, 0, 0, 0, 0, time.UTC),
		RiskFreeRate: 0.06,
		CostBps:      15,
	}
}

func TestAggregateDegenerateRun(t *testing.T) {
	in := testInput()
	in.Holdings = domain.HoldingsSeries{
		{Date: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), Weights: domain.Holdings{}},
		{Date: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), Weights: domain.Holdings{}},
	}

	p, err := Aggregate(in)
	if err != nil {
		t.Fatalf("Aggregate on all-cash run: %v", err)
	}
	if p.Error == "" {
		t.Error("degenerate payload has no explanatory text")
	}
	if p.KPIs != (KPIs{}) {
		t.Errorf("degenerate KPIs = %+v, want all zero", p.KPIs)
	}
	for i, v := range p.EquityCurve {
		if v != 1 {
			t.Fatalf("degenerate equity curve at %d = %f, want flat 1.0", i, v)
		}
	}
	// The benchmark curve is still the real one.
	if p.BenchCurve[len(p.BenchCurve)-1] <= 1 {
		t.Error("benchmark curve flat in degenerate payload")
	}
}

func TestAggregateRejectsHeldSymbolWithoutHistory(t *testing.T) {
	in := testInput()
	in.Holdings = domain.HoldingsSeries{
		{Date: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
			Weights: domain.Holdings{"BBB": 0.5, "GHOST": 0.5}},
	}

	_, err := Aggregate(in)
	if err == nil {
		t.Fatal("Aggregate priced a holdings symbol with no history as cash")
	}
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("error %v is not domain.ErrConfiguration", err)
	}
}

func TestAggregateTransactionCost(t *testing.T) {
	in := testInput()
	in.Holdings = domain.HoldingsSeries{
		{Date: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), Weights: domain.Holdings{"AAA": 1}},
		{Date: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), Weights: domain.Holdings{"AAA": 0.5, "BBB": 0.5}},
	}

	p, err := Aggregate(in)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	// Entry on the first day costs (1.0 / 2) * 15bps.
	wantEntry := 1 - 0.5*15.0/10000
	if math.Abs(p.EquityCurve[0]-wantEntry) > 1e-12 {
		t.Errorf("entry-day equity = %.8f, want %.8f", p.EquityCurve[0], wantEntry)
	}

	// On the second rebalance day turnover is |0.5-1| + |0.5-0| = 1.0,
	// so the day's return is AAA's return minus 0.5 * 15bps.
	var d2 int
	for i, ds := range p.Dates {
		if ds == "2024-07-01" {
			d2 = i
			break
		}
	}
	if d2 == 0 {
		t.Fatal("2024-07-01 missing from calendar")
	}
	got := p.EquityCurve[d2]/p.EquityCurve[d2-1] - 1
	want := 0.001 - 0.5*15.0/10000
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("rebalance-day net return = %.8f, want %.8f", got, want)
	}

	// Days with unchanged holdings carry no cost.
	got = p.EquityCurve[d2+1]/p.EquityCurve[d2] - 1
	want = 0.5*0.001 + 0.5*0.002
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("hold-day net return = %.8f, want %.8f", got, want)
	}
}

func TestAggregateIdempotent(t *testing.T) {
	in := testInput()
	in.Holdings = domain.HoldingsSeries{
		{Date: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), Weights: domain.Holdings{"AAA": 0.6, "BBB": 0.4}},
	}

	p1, err := Aggregate(in)
	if err != nil {
		t.Fatalf("first Aggregate: %v", err)
	}
	p2, err := Aggregate(in)
	if err != nil {
		t.Fatalf("second Aggregate: %v", err)
	}
	if p1.KPIs != p2.KPIs {
		t.Errorf("KPIs differ across identical runs:\n%+v\n%+v", p1.KPIs, p2.KPIs)
	}
	if !reflect.DeepEqual(p1.EquityCurve, p2.EquityCurve) {
		t.Error("equity curves differ across identical runs")
	}
}

func TestAggregateMonotoneCalendar(t *testing.T) {
	in := testInput()
	in.Holdings = domain.HoldingsSeries{
		{Date: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), Weights: domain.Holdings{"AAA": 1}},
	}
	p, err := Aggregate(in)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	prev := ""
	for _, ds := range p.Dates {
		if ds <= prev {
			t.Fatalf("calendar not strictly increasing: %s after %s", ds, prev)
		}
		prev = ds
	}
	if len(p.Dates) != len(p.EquityCurve) || len(p.Dates) != len(p.Drawdown) {
		t.Error("series lengths disagree with the calendar")
	}
}

func TestAggregateZeroVarianceFatal(t *testing.T) {
	in := testInput()
	in.Histories["FLAT"] = growthSeries("FLAT", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), 90, 100, 0)
	in.Holdings = domain.HoldingsSeries{
		{Date: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), Weights: domain.Holdings{"FLAT": 1}},
	}

	_, err := Aggregate(in)
	if !errors.Is(err, domain.ErrComputation) {
		t.Fatalf("flat invested run error = %v, want ErrComputation", err)
	}
}

func TestAggregateKPIDirections(t *testing.T) {
	in := testInput()
	in.CostBps = 0
	in.Holdings = domain.HoldingsSeries{
		{Date: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), Weights: domain.Holdings{"BBB": 1}},
	}
	p, err := Aggregate(in)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if p.KPIs.CAGR <= 0 || p.KPIs.TotalReturn <= 0 {
		t.Errorf("steady 0.2%%/day strategy has CAGR %f, total %f", p.KPIs.CAGR, p.KPIs.TotalReturn)
	}
	if p.KPIs.MaxDrawdown > 0 {
		t.Errorf("max drawdown = %f, want <= 0", p.KPIs.MaxDrawdown)
	}
	if len(p.MonthlyTable) != 2 {
		t.Errorf("monthly table has %d rows, want 2 (June, July)", len(p.MonthlyTable))
	}
	if len(p.YearlyTable) != 1 {
		t.Errorf("yearly table has %d rows, want 1", len(p.YearlyTable))
	}
	if _, ok := p.SectorSeries["Test"]; !ok {
		t.Error("sector exposure missing Test sector")
	}
}

func TestPayloadJSONSafe(t *testing.T) {
	in := testInput()
	in.Holdings = domain.HoldingsSeries{
		{Date: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), Weights: domain.Holdings{"AAA": 0.5, "BBB": 0.5}},
	}
	in.Log = []domain.RebalanceLogEntry{
		{Date: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), Action: domain.ActionRebalanced,
			Weights: domain.Holdings{"AAA": 0.5, "BBB": 0.5}},
	}
	p, err := Aggregate(in)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if _, err := json.Marshal(p); err != nil {
		t.Fatalf("payload not JSON-representable: %v", err)
	}
}
