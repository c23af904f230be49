// Package engine runs the walk-forward simulation: it iterates the monthly
// rebalance calendar, applies the regime filter, retrains and queries the
// prediction model, and accumulates the holdings series and rebalance log
// that the performance aggregator consumes.
package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/udayand2004/StockSelectorOptimizer/internal/domain"
	"github.com/udayand2004/StockSelectorOptimizer/internal/history"
	"github.com/udayand2004/StockSelectorOptimizer/internal/model"
	"github.com/udayand2004/StockSelectorOptimizer/internal/portfolio"
	"github.com/udayand2004/StockSelectorOptimizer/internal/regime"
	"github.com/udayand2004/StockSelectorOptimizer/internal/util"
)

// Params are the simulation inputs. They are decoupled from the config
// layer so runs can be constructed programmatically.
type Params struct {
	Start        time.Time
	End          time.Time
	TopN         int
	MinPositions int
	MaxWeight    float64
	RiskFreeRate float64

	TrainWindowYears int
	RetrainAfterDays int
	MinHistoryBars   int
}

// Result is one simulation's output: the rebalance-dated holdings and the
// per-date audit log, tagged with a unique run ID.
type Result struct {
	RunID    string
	Holdings domain.HoldingsSeries
	Log      []domain.RebalanceLogEntry
}

// Engine orchestrates one walk-forward run over a populated history cache.
type Engine struct {
	log      *slog.Logger
	progress history.Progress
}

// New creates an Engine. progress may be nil.
func New(log *slog.Logger, progress history.Progress) *Engine {
	return &Engine{log: log, progress: progress}
}

// Run simulates the strategy over the monthly rebalance calendar inside
// [params.Start, params.End]. A failure at any single rebalance date is
// converted into a hold-cash log entry; only an empty calendar is an error.
func (e *Engine) Run(cache *history.Cache, params Params) (Result, error) {
	dates := util.MonthStarts(params.Start, params.End)
	if len(dates) == 0 {
		return Result{}, fmt.Errorf("%w: no rebalance dates in %s..%s",
			domain.ErrConfiguration,
			params.Start.Format("2006-01-02"), params.End.Format("2006-01-02"))
	}

	res := Result{RunID: uuid.NewString()}
	mgr := model.NewManager(model.NewRidge(), e.log,
		params.TrainWindowYears, params.RetrainAfterDays, params.MinHistoryBars)
	opt := portfolio.Optimizer{
		MaxWeight:    params.MaxWeight,
		RiskFreeRate: params.RiskFreeRate,
	}

	e.log.Info("walk-forward run starting",
		"run_id", res.RunID, "rebalances", len(dates), "symbols", len(cache.Symbols()))

	for i, t := range dates {
		e.progress.Send("Rebalance %d/%d: %s", i+1, len(dates), t.Format("2006-01-02"))

		entry := e.step(cache, mgr, opt, params, t)
		res.Log = append(res.Log, entry)
		res.Holdings = append(res.Holdings, domain.HoldingsPoint{Date: t, Weights: entry.Weights})

		e.log.Debug("rebalance processed",
			"date", t.Format("2006-01-02"), "action", entry.Action, "reason", entry.Reason)
	}

	e.log.Info("walk-forward run finished",
		"run_id", res.RunID, "invested_weight", res.Holdings.TotalWeight())
	return res, nil
}

// step processes one rebalance date. A panic inside the date's pipeline is
// recovered into a hold-cash entry so one bad date cannot abort the run.
func (e *Engine) step(cache *history.Cache, mgr *model.Manager, opt portfolio.Optimizer,
	params Params, t time.Time) (entry domain.RebalanceLogEntry) {

	entry = domain.RebalanceLogEntry{Date: t, Action: domain.ActionHoldCash, Weights: domain.Holdings{}}
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("rebalance date failed", "date", t.Format("2006-01-02"), "panic", r)
			entry = domain.RebalanceLogEntry{
				Date:    t,
				Action:  domain.ActionHoldCash,
				Reason:  fmt.Sprintf("error: %v", r),
				Weights: domain.Holdings{},
			}
		}
	}()

	mgr.MaybeRetrain(cache, t)

	decision := regime.Evaluate(cache.Benchmark(), t)
	if !decision.RiskOn() {
		entry.Reason = decision.Reason()
		return entry
	}

	if !mgr.Trained() {
		entry.Reason = "model not trained"
		return entry
	}

	preds := mgr.PredictAt(cache, t)
	if preds.Empty() {
		entry.Reason = "no predictions"
		return entry
	}

	selected := portfolio.SelectTop(preds, params.TopN)
	if len(selected) == 0 {
		entry.Reason = "no positive predictions"
		return entry
	}
	if len(selected) < params.MinPositions {
		entry.Reason = fmt.Sprintf("insufficient candidates (%d of %d required)",
			len(selected), params.MinPositions)
		return entry
	}

	histories := make(map[string]domain.Series, len(selected))
	for _, sym := range selected {
		h, _ := cache.Get(sym)
		histories[sym] = h.Before(t)
	}
	weights := opt.Optimize(selected, histories)
	if len(weights) < params.MinPositions {
		entry.Reason = fmt.Sprintf("insufficient candidates (%d of %d required)",
			len(weights), params.MinPositions)
		return entry
	}

	entry.Action = domain.ActionRebalanced
	entry.Weights = weights
	return entry
}

// RunFixed simulates a buy-and-hold custom portfolio: the given weights are
// applied at every rebalance date, so turnover after the initial entry is
// zero. Weights are normalized to sum to 1.
func (e *Engine) RunFixed(weights domain.Holdings, params Params) (Result, error) {
	dates := util.MonthStarts(params.Start, params.End)
	if len(dates) == 0 {
		return Result{}, fmt.Errorf("%w: no rebalance dates in %s..%s",
			domain.ErrConfiguration,
			params.Start.Format("2006-01-02"), params.End.Format("2006-01-02"))
	}
	total := weights.TotalWeight()
	if total <= 0 {
		return Result{}, fmt.Errorf("%w: custom portfolio weights sum to %f",
			domain.ErrConfiguration, total)
	}

	norm := make(domain.Holdings, len(weights))
	for sym, w := range weights {
		norm[sym] = w / total
	}

	res := Result{RunID: uuid.NewString()}
	for _, t := range dates {
		res.Log = append(res.Log, domain.RebalanceLogEntry{
			Date:    t,
			Action:  domain.ActionRebalanced,
			Weights: norm,
		})
		res.Holdings = append(res.Holdings, domain.HoldingsPoint{Date: t, Weights: norm})
	}
	return res, nil
}
