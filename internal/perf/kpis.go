package perf

import (
	"fmt"
	"math"
	"sort"

	"github.com/udayand2004/StockSelectorOptimizer/internal/domain"
)

// KPIs are the headline statistics for one run. All values are finite so
// the struct serializes cleanly to JSON.
type KPIs struct {
	CAGR        float64 `json:"cagr"`
	Sharpe      float64 `json:"sharpe_ratio"`
	Sortino     float64 `json:"sortino_ratio"`
	MaxDrawdown float64 `json:"max_drawdown"`
	Calmar      float64 `json:"calmar_ratio"`
	Beta        float64 `json:"beta"`
	VaR95       float64 `json:"var_95"`
	CVaR95      float64 `json:"cvar_95"`
	TotalReturn float64 `json:"total_return"`
}

// computeKPIs derives the statistics from the daily strategy returns,
// inner-joined with the benchmark returns (days where the benchmark is
// undefined are dropped from both series). A zero-variance strategy series
// here is a computation failure, not a degenerate run: the degenerate path
// is handled before this is called.
func computeKPIs(strat, bench []float64, riskFreeRate, years float64) (KPIs, error) {
	var s, b []float64
	for i := range strat {
		if math.IsNaN(bench[i]) || math.IsNaN(strat[i]) {
			continue
		}
		s = append(s, strat[i])
		b = append(b, bench[i])
	}
	if len(s) < 2 {
		return KPIs{}, fmt.Errorf("%w: %d joined return observations, need at least 2",
			domain.ErrComputation, len(s))
	}

	mean := meanOf(s)
	std := stdOf(s, mean)
	if std == 0 {
		return KPIs{}, fmt.Errorf("%w: strategy return series has zero variance over %d observations",
			domain.ErrComputation, len(s))
	}

	equity := 1.0
	for _, r := range s {
		equity *= 1 + r
	}
	if years <= 0 {
		return KPIs{}, fmt.Errorf("%w: non-positive period length %f years", domain.ErrComputation, years)
	}
	cagr := math.Pow(equity, 1/years) - 1

	rfDaily := math.Pow(1+riskFreeRate, 1.0/TradingDaysPerYear) - 1
	sharpe := (mean - rfDaily) / std * math.Sqrt(TradingDaysPerYear)

	var downside []float64
	for _, r := range s {
		if r < rfDaily {
			d := r - rfDaily
			downside = append(downside, d*d)
		}
	}
	sortino := 0.0
	if len(downside) > 0 {
		dd := math.Sqrt(meanOf(downside))
		if dd > 0 {
			sortino = (mean - rfDaily) / dd * math.Sqrt(TradingDaysPerYear)
		}
	}

	maxDD := maxDrawdown(s)
	calmar := 0.0
	if maxDD < 0 {
		calmar = cagr / -maxDD
	}

	beta := 0.0
	bMean := meanOf(b)
	var cov, bVar float64
	for i := range s {
		cov += (s[i] - mean) * (b[i] - bMean)
		bVar += (b[i] - bMean) * (b[i] - bMean)
	}
	if bVar > 0 {
		beta = cov / bVar
	}

	v95, cv95 := valueAtRisk(s, 0.95)

	return KPIs{
		CAGR:        cagr,
		Sharpe:      sharpe,
		Sortino:     sortino,
		MaxDrawdown: maxDD,
		Calmar:      calmar,
		Beta:        beta,
		VaR95:       v95,
		CVaR95:      cv95,
		TotalReturn: equity - 1,
	}, nil
}

func meanOf(xs []float64) float64 {
	var sum float64
	for _, v := range xs {
		sum += v
	}
	return sum / float64(len(xs))
}

func stdOf(xs []float64, mean float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var ss float64
	for _, v := range xs {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

func maxDrawdown(returns []float64) float64 {
	equity, peak, worst := 1.0, 1.0, 0.0
	for _, r := range returns {
		equity *= 1 + r
		if equity > peak {
			peak = equity
		}
		if dd := equity/peak - 1; dd < worst {
			worst = dd
		}
	}
	return worst
}

// valueAtRisk returns the historical VaR and CVaR at the given confidence
// level, both as (typically negative) daily returns.
func valueAtRisk(returns []float64, confidence float64) (float64, float64) {
	sorted := append([]float64(nil), returns...)
	sort.Float64s(sorted)

	idx := int(math.Floor((1 - confidence) * float64(len(sorted))))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	v := sorted[idx]

	var tail float64
	count := 0
	for _, r := range sorted {
		if r <= v {
			tail += r
			count++
		}
	}
	if count == 0 {
		return v, v
	}
	return v, tail / float64(count)
}
