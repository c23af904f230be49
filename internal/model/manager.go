package model

import (
	"log/slog"
	"time"

	"github.com/udayand2004/StockSelectorOptimizer/internal/domain"
	"github.com/udayand2004/StockSelectorOptimizer/internal/features"
	"github.com/udayand2004/StockSelectorOptimizer/internal/history"
)

// Manager owns the regressor across the walk-forward run and decides when
// to retrain it. A model is retrained when none exists yet or when the last
// successful fit is older than RetrainAfter.
type Manager struct {
	reg          Regressor
	log          *slog.Logger
	trainYears   int
	retrainAfter time.Duration
	minBars      int

	lastFit time.Time
}

// NewManager wires a regressor with the retrain policy. trainYears is the
// pooled training window; retrainAfterDays is the staleness limit in
// calendar days; minBars is the per-symbol history floor for scoring.
func NewManager(reg Regressor, log *slog.Logger, trainYears, retrainAfterDays, minBars int) *Manager {
	return &Manager{
		reg:          reg,
		log:          log,
		trainYears:   trainYears,
		retrainAfter: time.Duration(retrainAfterDays) * 24 * time.Hour,
		minBars:      minBars,
	}
}

// Trained reports whether a usable model exists.
func (m *Manager) Trained() bool { return m.reg.Trained() }

// MaybeRetrain refits the model at rebalance date t when it is missing or
// stale. The training pool is every complete, labeled feature row across
// the universe whose date falls inside the trailing window, computed from
// bars strictly before t. An empty pool keeps the prior model.
func (m *Manager) MaybeRetrain(cache *history.Cache, t time.Time) {
	if m.reg.Trained() && t.Sub(m.lastFit) <= m.retrainAfter {
		return
	}

	windowStart := t.AddDate(-m.trainYears, 0, 0)
	bench := cache.Benchmark().Before(t)

	var x [][]float64
	var y []float64
	for _, sym := range cache.Symbols() {
		hist, ok := cache.Get(sym)
		if !ok {
			continue
		}
		table := features.Generate(hist.Before(t), bench)
		for _, row := range table.Rows {
			if row.Date.Before(windowStart) || !row.Complete() || !row.HasTarget() {
				continue
			}
			x = append(x, row.Vector())
			y = append(y, row.Target)
		}
	}

	if len(x) == 0 {
		m.log.Warn("training pool empty, keeping prior model",
			"date", t.Format("2006-01-02"), "trained", m.reg.Trained())
		return
	}

	if err := m.reg.Fit(x, y); err != nil {
		m.log.Warn("model fit failed, keeping prior model",
			"date", t.Format("2006-01-02"), "samples", len(x), "error", err)
		return
	}
	m.lastFit = t
	m.log.Info("model retrained",
		"date", t.Format("2006-01-02"), "samples", len(x), "window_years", m.trainYears)
}

// PredictAt scores every universe symbol at rebalance date t using its
// latest complete feature row from bars strictly before t. Symbols with
// too little history or no complete row are skipped. Order follows the
// universe so downstream ranking is deterministic.
func (m *Manager) PredictAt(cache *history.Cache, t time.Time) domain.PredictionSet {
	set := domain.PredictionSet{Date: t}
	if !m.reg.Trained() {
		return set
	}

	bench := cache.Benchmark().Before(t)
	for _, sym := range cache.Symbols() {
		hist, ok := cache.Get(sym)
		if !ok {
			continue
		}
		prior := hist.Before(t)
		if prior.Len() < m.minBars {
			continue
		}
		row, ok := features.Generate(prior, bench).LatestComplete()
		if !ok {
			continue
		}
		set.Preds = append(set.Preds, domain.Prediction{
			Symbol: sym,
			Value:  m.reg.Predict(row.Vector()),
		})
	}
	return set
}
