package common

import (
	"strings"
	"time"
)

// IsComment reports whether a data-file line is a header or comment line,
// i.e. starts with any of the given prefixes after trimming whitespace.
func IsComment(line string, prefixes ...string) bool {
	trimmed := strings.TrimSpace(line)
	for _, p := range prefixes {
		if strings.HasPrefix(trimmed, p) {
			return true
		}
	}
	return false
}

// DecimalYear converts a calendar date to a fractional year, the common time
// axis across dataset families. day 0 means "mid month" for monthly series.
func DecimalYear(year, month, day int) float64 {
	if day == 0 {
		day = 15
	}
	t := time.Date(year, time.Month(month), day, 12, 0, 0, 0, time.UTC)
	daysInYear := float64(time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC).YearDay())
	return float64(year) + (float64(t.YearDay())-0.5)/daysInYear
}

// IsMissing reports whether a parsed value matches any of the sentinel
// values scientific data files use for missing measurements (e.g. -99.99).
func IsMissing(v float64, sentinels ...float64) bool {
	for _, s := range sentinels {
		if v == s {
			return true
		}
	}
	return false
}
