package perf

// Payload is the run output handed across the process boundary. It holds
// only plain values so it marshals to JSON without loss; the Error field
// is set for legitimate degenerate runs and empty otherwise.
type Payload struct {
	RunID string `json:"run_id,omitempty"`
	Error string `json:"error,omitempty"`

	KPIs KPIs `json:"kpis"`

	Dates       []string  `json:"dates"`
	EquityCurve []float64 `json:"equity_curve"`
	BenchCurve  []float64 `json:"benchmark_curve"`
	Drawdown    []float64 `json:"drawdown"`

	MonthlyTable []PeriodReturn `json:"monthly_returns"`
	YearlyTable  []PeriodReturn `json:"yearly_returns"`

	WeightSeries map[string][]float64 `json:"weight_history"`
	SectorSeries map[string][]float64 `json:"sector_history"`

	RebalanceLogs []LogRecord `json:"logs"`
}

// PeriodReturn is one row of a compounded monthly or yearly return table.
type PeriodReturn struct {
	Period string  `json:"period"`
	Return float64 `json:"return"`
}

// LogRecord is the JSON form of one rebalance log entry.
type LogRecord struct {
	Date    string             `json:"date"`
	Action  string             `json:"action"`
	Reason  string             `json:"reason,omitempty"`
	Weights map[string]float64 `json:"weights,omitempty"`
}
