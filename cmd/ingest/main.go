package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/udayand2004/StockSelectorOptimizer/internal/config"
	"github.com/udayand2004/StockSelectorOptimizer/internal/domain"
	"github.com/udayand2004/StockSelectorOptimizer/internal/store"
	"github.com/udayand2004/StockSelectorOptimizer/internal/util"
)

// ingest imports daily OHLCV history from CSV files into the bar store.
// Each file holds one symbol, named SYMBOL.csv, with a header row of
// Date,Open,High,Low,Close,Volume and dates formatted YYYY-MM-DD.
func main() {
	cfgDefault := "config/backtest.yaml"
	if p := os.Getenv("STOCKSEL_CONFIG"); p != "" {
		cfgDefault = p
	}

	var (
		cfgPath = flag.String("config", cfgDefault, "path to YAML config")
		sector  = flag.String("sector", "", "sector tag applied to all imported bars")
	)
	flag.Parse()

	if flag.NArg() == 0 {
		log.Fatal("usage: ingest [-config path] [-sector name] file.csv [file.csv ...]")
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level)
	util.SetDefault(logger)

	var bs store.BarStore
	switch cfg.Storage.Backend {
	case "sqlite":
		s, serr := store.NewSQLiteStore(cfg.Storage.SQLitePath)
		if serr != nil {
			log.Fatalf("failed to open store: %v", serr)
		}
		defer s.Close()
		bs = s
	case "parquet":
		bs = store.NewParquetStore(cfg.Storage.DataDir)
	default:
		log.Fatalf("unknown storage backend %q", cfg.Storage.Backend)
	}

	ctx := context.Background()
	for _, path := range flag.Args() {
		symbol := strings.ToUpper(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
		bars, err := readCSV(path, symbol, *sector)
		if err != nil {
			log.Fatalf("%s: %v", path, err)
		}
		if err := bs.WriteBars(ctx, bars); err != nil {
			log.Fatalf("%s: write failed: %v", path, err)
		}
		fmt.Printf("imported %d bars for %s\n", len(bars), symbol)
	}
}

func readCSV(path, symbol, sector string) ([]domain.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, want := range []string{"date", "open", "high", "low", "close", "volume"} {
		if _, ok := col[want]; !ok {
			return nil, fmt.Errorf("missing column %q", want)
		}
	}

	var bars []domain.Bar
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		date, err := time.Parse("2006-01-02", rec[col["date"]])
		if err != nil {
			return nil, fmt.Errorf("line %d: bad date %q", line, rec[col["date"]])
		}
		fields := make(map[string]float64, 4)
		for _, name := range []string{"open", "high", "low", "close"} {
			v, err := strconv.ParseFloat(rec[col[name]], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad %s %q", line, name, rec[col[name]])
			}
			fields[name] = v
		}
		volume, err := strconv.ParseFloat(rec[col["volume"]], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad volume %q", line, rec[col["volume"]])
		}

		bars = append(bars, domain.Bar{
			Symbol: symbol,
			Date:   util.Midnight(date),
			Open:   fields["open"],
			High:   fields["high"],
			Low:    fields["low"],
			Close:  fields["close"],
			Volume: int64(volume),
			Sector: sector,
		})
	}
	return bars, nil
}
