package utils

import (
	"time"
)

// IsTradingDay reports whether the date falls on a weekday. Exchange
// holidays are not modeled; the lookback walk compensates with its
// iteration cap.
func IsTradingDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// PrevTradingDay returns the closest weekday strictly before t.
func PrevTradingDay(t time.Time) time.Time {
	d := t.AddDate(0, 0, -1)
	for !IsTradingDay(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// DateKey normalizes a timestamp to a calendar-day key in UTC,
// the granularity at which bars are indexed.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// ParseDateKey parses a calendar-day key produced by DateKey.
func ParseDateKey(key string) (time.Time, error) {
	return time.Parse("2006-01-02", key)
}
