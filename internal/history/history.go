// Package history loads raw bar histories for a backtest run into an
// explicit per-run cache. The cache is populated once before the simulation
// starts and is read-only afterwards; it is owned by the run, never shared
// across runs.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/udayand2004/StockSelectorOptimizer/internal/domain"
	"github.com/udayand2004/StockSelectorOptimizer/internal/store"
	"github.com/udayand2004/StockSelectorOptimizer/internal/util"
)

// Progress receives human-readable status messages during long-running
// work. It is fire-and-forget: the loader never depends on the sink
// observing a message. A nil Progress is valid and discards everything.
type Progress func(message string)

func (p Progress) Send(format string, args ...any) {
	if p != nil {
		p(fmt.Sprintf(format, args...))
	}
}

// Cache holds the raw histories for one run: one full fetched series per
// symbol plus the benchmark. Populated once by Load, read-only thereafter.
type Cache struct {
	symbols   []string // symbols with data, in universe order
	bySymbol  map[string]domain.Series
	benchmark domain.Series
}

// Symbols returns the symbols that have data, in universe order.
func (c *Cache) Symbols() []string { return c.symbols }

// Get returns the cached series for a symbol.
func (c *Cache) Get(symbol string) (domain.Series, bool) {
	s, ok := c.bySymbol[symbol]
	return s, ok
}

// Benchmark returns the cached benchmark series.
func (c *Cache) Benchmark() domain.Series { return c.benchmark }

// Histories returns the symbol-to-series map. The map and its series must
// be treated as read-only.
func (c *Cache) Histories() map[string]domain.Series { return c.bySymbol }

// NewCache assembles a cache directly from already-fetched series, in the
// given order. Empty series are skipped.
func NewCache(benchmark domain.Series, series ...domain.Series) *Cache {
	c := &Cache{
		bySymbol:  make(map[string]domain.Series, len(series)),
		benchmark: benchmark,
	}
	for _, s := range series {
		if s.Empty() {
			continue
		}
		c.symbols = append(c.symbols, s.Symbol)
		c.bySymbol[s.Symbol] = s
	}
	return c
}

// Loader reads bar histories from a BarStore into per-run caches.
type Loader struct {
	store    store.BarStore
	log      *slog.Logger
	progress Progress
	workers  int
}

// NewLoader creates a Loader. workers bounds the parallelism of the
// warm-up fetch; values below 1 are treated as 1.
func NewLoader(bs store.BarStore, log *slog.Logger, progress Progress, workers int) *Loader {
	if workers < 1 {
		workers = 1
	}
	return &Loader{store: bs, log: log, progress: progress, workers: workers}
}

// Load fetches the full history for every universe symbol and for the
// benchmark over [start, end]. Symbols with no data (or a persistent fetch
// failure) are skipped; a run cannot proceed without benchmark data, so a
// missing benchmark is a configuration error.
func (l *Loader) Load(ctx context.Context, symbols []string, benchmark string, start, end time.Time) (*Cache, error) {
	l.progress.Send("Loading historical data for %d symbols...", len(symbols))

	loaded := make([]domain.Series, len(symbols))
	var mu sync.Mutex
	skipped := 0

	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, l.workers)

	for i, sym := range symbols {
		i, sym := i, sym
		g.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()

			series, err := l.fetch(gctx, sym, start, end)
			if err != nil || series.Empty() {
				// Per-symbol data problems never abort the run.
				mu.Lock()
				skipped++
				mu.Unlock()
				if err != nil {
					l.log.Warn("skipping symbol", "symbol", sym, "error", err)
				} else {
					l.log.Debug("no data for symbol", "symbol", sym)
				}
				return nil
			}
			loaded[i] = series
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	// Workers count cancelled fetches as skips; report the cancellation itself.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cache := &Cache{bySymbol: make(map[string]domain.Series, len(symbols))}
	for _, series := range loaded {
		if series.Empty() {
			continue
		}
		cache.symbols = append(cache.symbols, series.Symbol)
		cache.bySymbol[series.Symbol] = series
	}
	l.progress.Send("Loaded %d of %d symbols (%d skipped).", len(cache.symbols), len(symbols), skipped)

	bench, err := l.fetch(ctx, benchmark, start, end)
	if err != nil || bench.Empty() {
		return nil, fmt.Errorf("%w: no benchmark data for %q in [%s, %s]",
			domain.ErrConfiguration, benchmark,
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	cache.benchmark = bench

	return cache, nil
}

// fetch reads one symbol's bars with retries for transient store failures
// and validates the series ordering invariant.
func (l *Loader) fetch(ctx context.Context, symbol string, start, end time.Time) (domain.Series, error) {
	var series domain.Series
	err := util.Retry(ctx, 3, 100*time.Millisecond, func() error {
		var rerr error
		series, rerr = l.store.ReadBars(ctx, symbol, start, end)
		return rerr
	})
	if err != nil {
		return domain.Series{}, fmt.Errorf("%w: %s: %v", domain.ErrDataUnavailable, symbol, err)
	}
	if err := series.Validate(); err != nil {
		return domain.Series{}, fmt.Errorf("%w: %s: %v", domain.ErrDataUnavailable, symbol, err)
	}
	return series, nil
}
