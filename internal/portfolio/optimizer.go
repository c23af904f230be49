package portfolio

import (
	"math"
	"sort"
	"time"

	"github.com/udayand2004/StockSelectorOptimizer/internal/domain"
)

const (
	// Lookback bounds the daily-return sample used for the mean and
	// covariance estimates, in trading sessions.
	Lookback = 252

	// WeightFloor is the threshold below which an optimized weight is
	// zeroed before renormalization.
	WeightFloor = 0.001

	gradientSteps = 500
	stepSize      = 0.05
)

// Optimizer produces maximum-Sharpe portfolio weights over a set of price
// histories, subject to long-only box constraints.
type Optimizer struct {
	// MaxWeight caps any single position. When the cap makes a fully
	// invested portfolio infeasible for the candidate count, the
	// effective cap is raised to 1/n.
	MaxWeight float64
	// RiskFreeRate is the annual risk-free rate used in the Sharpe
	// objective.
	RiskFreeRate float64
}

// Optimize returns weights over the given symbols, in [0, cap] and summing
// to 1.0. Histories are aligned on their common dates; a degenerate
// covariance (too few overlapping sessions, or no variance) falls back to
// equal weights rather than failing. Weights below WeightFloor are zeroed
// and the rest renormalized.
func (o Optimizer) Optimize(symbols []string, histories map[string]domain.Series) domain.Holdings {
	n := len(symbols)
	if n == 0 {
		return domain.Holdings{}
	}
	limit := o.MaxWeight
	if limit <= 0 || limit > 1 {
		limit = 1
	}
	if limit < 1/float64(n) {
		limit = 1 / float64(n)
	}
	if n == 1 {
		return domain.Holdings{symbols[0]: 1}
	}

	returns := alignedReturns(symbols, histories)
	w := equalWeights(symbols)
	if len(returns) < 2 {
		return finalize(symbols, weightsOf(symbols, w), limit)
	}

	mean, cov := meanCov(returns, n)
	if degenerate(cov) {
		return finalize(symbols, weightsOf(symbols, w), limit)
	}

	rfDaily := math.Pow(1+o.RiskFreeRate, 1/252.0) - 1
	vec := weightsOf(symbols, w)
	for step := 0; step < gradientSteps; step++ {
		g, ok := sharpeGradient(vec, mean, cov, rfDaily)
		if !ok {
			return finalize(symbols, weightsOf(symbols, equalWeights(symbols)), limit)
		}
		for i := range vec {
			vec[i] += stepSize * g[i]
		}
		projectCappedSimplex(vec, limit)
	}
	return finalize(symbols, vec, limit)
}

func equalWeights(symbols []string) domain.Holdings {
	w := make(domain.Holdings, len(symbols))
	for _, s := range symbols {
		w[s] = 1 / float64(len(symbols))
	}
	return w
}

func weightsOf(symbols []string, h domain.Holdings) []float64 {
	out := make([]float64, len(symbols))
	for i, s := range symbols {
		out[i] = h[s]
	}
	return out
}

// alignedReturns computes the daily return matrix over the dates shared by
// every symbol, most recent Lookback sessions only. Row = session, column
// = symbol in input order.
func alignedReturns(symbols []string, histories map[string]domain.Series) [][]float64 {
	perSymbol := make([]map[time.Time]float64, len(symbols))
	for i, sym := range symbols {
		s := histories[sym]
		rets := make(map[time.Time]float64, s.Len())
		for j := 1; j < s.Len(); j++ {
			prev := s.Bars[j-1].Close
			if prev != 0 {
				rets[s.Bars[j].Date] = s.Bars[j].Close/prev - 1
			}
		}
		perSymbol[i] = rets
	}

	var dates []time.Time
	for d := range perSymbol[0] {
		shared := true
		for _, rets := range perSymbol[1:] {
			if _, ok := rets[d]; !ok {
				shared = false
				break
			}
		}
		if shared {
			dates = append(dates, d)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	if len(dates) > Lookback {
		dates = dates[len(dates)-Lookback:]
	}

	out := make([][]float64, len(dates))
	for r, d := range dates {
		row := make([]float64, len(symbols))
		for c := range symbols {
			row[c] = perSymbol[c][d]
		}
		out[r] = row
	}
	return out
}

func meanCov(returns [][]float64, n int) ([]float64, [][]float64) {
	t := len(returns)
	mean := make([]float64, n)
	for _, row := range returns {
		for j, v := range row {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= float64(t)
	}

	cov := make([][]float64, n)
	for j := range cov {
		cov[j] = make([]float64, n)
	}
	for _, row := range returns {
		for j := 0; j < n; j++ {
			for k := j; k < n; k++ {
				cov[j][k] += (row[j] - mean[j]) * (row[k] - mean[k])
			}
		}
	}
	for j := 0; j < n; j++ {
		for k := j; k < n; k++ {
			cov[j][k] /= float64(t - 1)
			cov[k][j] = cov[j][k]
		}
	}
	return mean, cov
}

func degenerate(cov [][]float64) bool {
	for j := range cov {
		v := cov[j][j]
		if math.IsNaN(v) || v <= 0 {
			return true
		}
	}
	return false
}

// sharpeGradient returns the gradient of (mean·w − rf) / sqrt(wᵀΣw).
func sharpeGradient(w, mean []float64, cov [][]float64, rf float64) ([]float64, bool) {
	n := len(w)
	sw := make([]float64, n)
	var variance, excess float64
	for j := 0; j < n; j++ {
		for k := 0; k < n; k++ {
			sw[j] += cov[j][k] * w[k]
		}
		variance += w[j] * sw[j]
		excess += mean[j] * w[j]
	}
	excess -= rf
	if variance <= 0 || math.IsNaN(variance) {
		return nil, false
	}
	vol := math.Sqrt(variance)

	g := make([]float64, n)
	for j := 0; j < n; j++ {
		g[j] = mean[j]/vol - excess*sw[j]/(vol*variance)
	}
	return g, true
}

// projectCappedSimplex projects w in place onto {w : Σw = 1, 0 ≤ wᵢ ≤ cap}
// by bisection on the shift parameter.
func projectCappedSimplex(w []float64, limit float64) {
	lo, hi := -1.0, 1.0
	for _, v := range w {
		if v-limit < lo {
			lo = v - limit
		}
		if v > hi {
			hi = v
		}
	}
	sum := func(shift float64) float64 {
		var s float64
		for _, v := range w {
			s += math.Min(limit, math.Max(0, v-shift))
		}
		return s
	}
	for i := 0; i < 100; i++ {
		mid := (lo + hi) / 2
		if sum(mid) > 1 {
			lo = mid
		} else {
			hi = mid
		}
	}
	shift := (lo + hi) / 2
	for i, v := range w {
		w[i] = math.Min(limit, math.Max(0, v-shift))
	}
}

// finalize zeroes dust positions, renormalizes, and re-projects so the
// result respects both the sum and the cap.
func finalize(symbols []string, vec []float64, limit float64) domain.Holdings {
	var sum float64
	for i, v := range vec {
		if v < WeightFloor {
			vec[i] = 0
			continue
		}
		sum += v
	}
	if sum == 0 {
		vec = weightsOf(symbols, equalWeights(symbols))
		sum = 1
	}
	for i := range vec {
		vec[i] /= sum
	}
	projectCappedSimplex(vec, limit)

	out := make(domain.Holdings, len(symbols))
	for i, s := range symbols {
		if vec[i] > 0 {
			out[s] = vec[i]
		}
	}
	return out
}
