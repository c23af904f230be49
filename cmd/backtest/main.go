package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/udayand2004/StockSelectorOptimizer/internal/config"
	"github.com/udayand2004/StockSelectorOptimizer/internal/console"
	"github.com/udayand2004/StockSelectorOptimizer/internal/domain"
	"github.com/udayand2004/StockSelectorOptimizer/internal/engine"
	"github.com/udayand2004/StockSelectorOptimizer/internal/history"
	"github.com/udayand2004/StockSelectorOptimizer/internal/perf"
	"github.com/udayand2004/StockSelectorOptimizer/internal/store"
	"github.com/udayand2004/StockSelectorOptimizer/internal/universe"
	"github.com/udayand2004/StockSelectorOptimizer/internal/util"
)

func main() {
	cfgDefault := "config/backtest.yaml"
	if p := os.Getenv("STOCKSEL_CONFIG"); p != "" {
		cfgDefault = p
	}

	var (
		cfgPath = flag.String("config", cfgDefault, "path to YAML config")
		outPath = flag.String("out", "", "write the result payload to this file instead of stdout")
		useTUI  = flag.Bool("console", false, "render progress in an interactive terminal UI")
		custom  = flag.String("custom", "", "skip the strategy and backtest fixed weights, e.g. RELIANCE=0.6,TCS=0.4")
	)
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Backtest.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level)
	util.SetDefault(logger)

	bs, closeStore, err := openStore(cfg)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer closeStore()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	run := func(send func(string)) error {
		payload, err := runBacktest(ctx, cfg, bs, *custom, send)
		if err != nil {
			return err
		}
		return writePayload(payload, *outPath)
	}

	if *useTUI {
		title := fmt.Sprintf("Backtest %s %s..%s",
			cfg.Backtest.Universe, cfg.Backtest.StartDate, cfg.Backtest.EndDate)
		err = console.Run(title, run)
	} else {
		err = run(func(line string) { fmt.Fprintln(os.Stderr, line) })
	}
	if err != nil {
		log.Fatalf("backtest failed: %v", err)
	}
}

func openStore(cfg *config.Config) (store.BarStore, func(), error) {
	switch cfg.Storage.Backend {
	case "sqlite":
		s, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	case "parquet":
		return store.NewParquetStore(cfg.Storage.DataDir), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown storage backend %q",
			domain.ErrConfiguration, cfg.Storage.Backend)
	}
}

func runBacktest(ctx context.Context, cfg *config.Config, bs store.BarStore,
	custom string, send func(string)) (*perf.Payload, error) {

	logger := util.NewLogger(cfg.Logging.Level)
	bt := cfg.Backtest

	start, end, err := bt.DateRange()
	if err != nil {
		return nil, err
	}

	// A fixed-weight run prices its own symbols, not the configured universe.
	var weights domain.Holdings
	var symbols []string
	if custom != "" {
		if weights, err = parseWeights(custom); err != nil {
			return nil, err
		}
		for sym := range weights {
			symbols = append(symbols, sym)
		}
		sort.Strings(symbols)
	} else if symbols, err = universe.Get(bt.Universe); err != nil {
		return nil, err
	}

	loader := history.NewLoader(bs, logger, history.Progress(send), bt.LoadWorkers)
	// Histories reach back far enough to train the first model.
	histStart := start.AddDate(-bt.TrainWindowYears-1, 0, 0)
	cache, err := loader.Load(ctx, symbols, bt.Benchmark, histStart, end)
	if err != nil {
		return nil, err
	}
	for sym := range weights {
		if _, ok := cache.Get(sym); !ok {
			return nil, fmt.Errorf("%w: no historical data for custom symbol %s in [%s, %s]",
				domain.ErrConfiguration, sym, bt.StartDate, bt.EndDate)
		}
	}

	params := engine.Params{
		Start:            start,
		End:              end,
		TopN:             bt.TopN,
		MinPositions:     bt.MinPositions,
		MaxWeight:        bt.MaxWeight,
		RiskFreeRate:     bt.RiskFreeRate,
		TrainWindowYears: bt.TrainWindowYears,
		RetrainAfterDays: bt.RetrainAfterDays,
		MinHistoryBars:   bt.MinHistoryBars,
	}

	eng := engine.New(logger, history.Progress(send))
	var res engine.Result
	if custom != "" {
		res, err = eng.RunFixed(weights, params)
	} else {
		res, err = eng.Run(cache, params)
	}
	if err != nil {
		return nil, err
	}

	send("Computing performance statistics...")
	payload, err := perf.Aggregate(perf.AggregateInput{
		Holdings:     res.Holdings,
		Histories:    cache.Histories(),
		Benchmark:    cache.Benchmark(),
		Start:        start,
		End:          end,
		RiskFreeRate: bt.RiskFreeRate,
		CostBps:      bt.TransactionBps,
		Log:          res.Log,
	})
	if err != nil {
		return nil, err
	}
	payload.RunID = res.RunID
	return payload, nil
}

// parseWeights reads "SYM=0.6,SYM2=0.4" into holdings.
func parseWeights(s string) (domain.Holdings, error) {
	out := domain.Holdings{}
	for _, part := range strings.Split(s, ",") {
		sym, val, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return nil, fmt.Errorf("%w: malformed weight %q", domain.ErrConfiguration, part)
		}
		w, err := strconv.ParseFloat(val, 64)
		if err != nil || w < 0 {
			return nil, fmt.Errorf("%w: invalid weight %q for %s", domain.ErrConfiguration, val, sym)
		}
		out[strings.ToUpper(sym)] = w
	}
	return out, nil
}

func writePayload(p *perf.Payload, path string) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	if path == "" {
		_, err = os.Stdout.Write(append(data, '\n'))
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
