package util

import "time"

// Date builds a UTC-midnight date, the canonical form for session dates
// throughout the engine.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Midnight truncates t to UTC midnight.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// IsBusinessDay reports whether t falls on a weekday. Exchange holidays are
// not modelled; the bar data itself determines which sessions traded.
func IsBusinessDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// BusinessDays returns every weekday in [start, end] as UTC-midnight dates,
// in increasing order.
func BusinessDays(start, end time.Time) []time.Time {
	var days []time.Time
	for d := Midnight(start); !d.After(Midnight(end)); d = d.AddDate(0, 0, 1) {
		if IsBusinessDay(d) {
			days = append(days, d)
		}
	}
	return days
}

// MonthStarts returns the first business day of each month in [start, end],
// the rebalance schedule of the strategy. A month whose first business day
// falls before start is excluded.
func MonthStarts(start, end time.Time) []time.Time {
	start = Midnight(start)
	end = Midnight(end)

	var dates []time.Time
	first := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	for m := first; !m.After(end); m = m.AddDate(0, 1, 0) {
		d := m
		for !IsBusinessDay(d) {
			d = d.AddDate(0, 0, 1)
		}
		if d.Before(start) || d.After(end) {
			continue
		}
		dates = append(dates, d)
	}
	return dates
}

// YearsBetween returns the calendar-year span between two dates as a
// fraction, used for annualizing growth rates.
func YearsBetween(start, end time.Time) float64 {
	return end.Sub(start).Hours() / 24 / 365.25
}
