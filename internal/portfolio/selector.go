// Package portfolio turns model predictions into portfolio weights: a
// top-N selection over positive predicted returns followed by a
// maximum-Sharpe weight optimization with box constraints.
package portfolio

import (
	"sort"

	"github.com/udayand2004/StockSelectorOptimizer/internal/domain"
)

// SelectTop ranks predictions by descending value and returns the symbols
// of the best n with strictly positive predicted returns. Ties keep the
// incoming (universe) order, so the result is deterministic.
func SelectTop(set domain.PredictionSet, n int) []string {
	positive := make([]domain.Prediction, 0, len(set.Preds))
	for _, p := range set.Preds {
		if p.Value > 0 {
			positive = append(positive, p)
		}
	}
	sort.SliceStable(positive, func(i, j int) bool {
		return positive[i].Value > positive[j].Value
	})
	if len(positive) > n {
		positive = positive[:n]
	}
	out := make([]string, len(positive))
	for i, p := range positive {
		out[i] = p.Symbol
	}
	return out
}
