// Package regime implements the market-wide risk filter: a 200-session
// moving average of the benchmark index decides whether new equity exposure
// is allowed at a rebalance date.
package regime

import (
	"math"
	"time"

	"github.com/udayand2004/StockSelectorOptimizer/internal/domain"
)

// Window is the benchmark moving-average lookback in trading sessions.
const Window = 200

// Status classifies the benchmark state at one rebalance date.
type Status string

const (
	// RiskOn means the benchmark closed at or above its moving average.
	RiskOn Status = "risk_on"
	// Downtrend means the benchmark closed below its moving average.
	Downtrend Status = "downtrend"
	// InsufficientHistory means fewer than Window benchmark bars precede
	// the rebalance date.
	InsufficientHistory Status = "insufficient_history"
	// BadData means the benchmark window contained non-finite closes.
	BadData Status = "bad_data"
)

// Decision is the filter outcome for one rebalance date. Close and MA are
// zero unless Status is RiskOn or Downtrend.
type Decision struct {
	Date   time.Time
	Status Status
	Close  float64
	MA     float64
}

// RiskOn reports whether equity exposure is allowed. Every non-RiskOn
// status holds cash; Status carries the reason for the audit log.
func (d Decision) RiskOn() bool { return d.Status == RiskOn }

// Reason returns the hold-cash explanation recorded in the rebalance log.
func (d Decision) Reason() string {
	switch d.Status {
	case Downtrend:
		return "regime filter: benchmark below 200-session average"
	case InsufficientHistory:
		return "regime filter: insufficient benchmark history"
	case BadData:
		return "regime filter: benchmark data invalid"
	default:
		return ""
	}
}

// Evaluate applies the filter at date t using only benchmark bars dated
// strictly before t. The comparison uses the last close in that window
// against the mean of its final Window closes.
func Evaluate(benchmark domain.Series, t time.Time) Decision {
	prior := benchmark.Before(t)
	if prior.Len() < Window {
		return Decision{Date: t, Status: InsufficientHistory}
	}

	closes := prior.Closes()
	closes = closes[len(closes)-Window:]

	var sum float64
	for _, c := range closes {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return Decision{Date: t, Status: BadData}
		}
		sum += c
	}
	ma := sum / Window
	last := closes[Window-1]

	status := RiskOn
	if last < ma {
		status = Downtrend
	}
	return Decision{Date: t, Status: status, Close: last, MA: ma}
}
