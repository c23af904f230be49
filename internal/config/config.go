// Package config loads the backtester configuration from YAML with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/udayand2004/StockSelectorOptimizer/internal/domain"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the backtester.
type Config struct {
	Storage  Storage        `yaml:"storage"`
	Logging  Logging        `yaml:"logging"`
	Backtest BacktestConfig `yaml:"backtest"`
}

// Storage holds paths and backend selection for historical bar data.
type Storage struct {
	Backend    string `yaml:"backend"` // "parquet" or "sqlite"
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// BacktestConfig defines one walk-forward backtest run.
type BacktestConfig struct {
	Universe         string  `yaml:"universe"`
	Benchmark        string  `yaml:"benchmark"`
	StartDate        string  `yaml:"start_date"` // YYYY-MM-DD
	EndDate          string  `yaml:"end_date"`   // YYYY-MM-DD
	TopN             int     `yaml:"top_n"`
	RiskFreeRate     float64 `yaml:"risk_free_rate"`
	TransactionBps   float64 `yaml:"transaction_cost_bps"`
	MaxWeight        float64 `yaml:"max_weight"`
	MinPositions     int     `yaml:"min_positions"`
	TrainWindowYears int     `yaml:"train_window_years"`
	RetrainAfterDays int     `yaml:"retrain_after_days"`
	MinHistoryBars   int     `yaml:"min_history_bars"`
	LoadWorkers      int     `yaml:"load_workers"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, applies environment variable overrides, and fills defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// applyDefaults fills zero-valued optional fields with strategy defaults.
func applyDefaults(cfg *Config) {
	bt := &cfg.Backtest
	if bt.Benchmark == "" {
		bt.Benchmark = "NSEI"
	}
	if bt.TopN == 0 {
		bt.TopN = 10
	}
	if bt.TransactionBps == 0 {
		bt.TransactionBps = 15
	}
	if bt.MaxWeight == 0 {
		bt.MaxWeight = 0.25
	}
	if bt.MinPositions == 0 {
		bt.MinPositions = 2
	}
	if bt.TrainWindowYears == 0 {
		bt.TrainWindowYears = 3
	}
	if bt.RetrainAfterDays == 0 {
		bt.RetrainAfterDays = 365
	}
	if bt.MinHistoryBars == 0 {
		bt.MinHistoryBars = 252
	}
	if bt.LoadWorkers == 0 {
		bt.LoadWorkers = 8
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "parquet"
	}
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

// DateRange parses and validates the configured start and end dates.
func (b BacktestConfig) DateRange() (start, end time.Time, err error) {
	start, err = time.Parse("2006-01-02", b.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: bad start_date %q: %v",
			domain.ErrConfiguration, b.StartDate, err)
	}
	end, err = time.Parse("2006-01-02", b.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: bad end_date %q: %v",
			domain.ErrConfiguration, b.EndDate, err)
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end_date %s not after start_date %s",
			domain.ErrConfiguration, b.EndDate, b.StartDate)
	}
	return start, end, nil
}

// Validate checks the pre-run constraints that must fail fast.
func (b BacktestConfig) Validate() error {
	if b.Universe == "" {
		return fmt.Errorf("%w: universe not set", domain.ErrConfiguration)
	}
	if _, _, err := b.DateRange(); err != nil {
		return err
	}
	if b.TopN < 1 {
		return fmt.Errorf("%w: top_n must be positive, got %d", domain.ErrConfiguration, b.TopN)
	}
	if b.MaxWeight <= 0 || b.MaxWeight > 1 {
		return fmt.Errorf("%w: max_weight must be in (0, 1], got %f", domain.ErrConfiguration, b.MaxWeight)
	}
	if b.MinPositions < 2 {
		return fmt.Errorf("%w: min_positions must be at least 2, got %d", domain.ErrConfiguration, b.MinPositions)
	}
	return nil
}
