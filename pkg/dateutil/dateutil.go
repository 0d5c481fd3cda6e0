package dateutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FinancialYearStartMonth is the month the Indian financial year begins
const FinancialYearStartMonth = time.April

// FinancialYear returns the financial year containing date, formatted "2025-26".
// The year runs April 1 to March 31.
func FinancialYear(date time.Time) string {
	start := date.Year()
	if date.Month() < FinancialYearStartMonth {
		start--
	}
	return fmt.Sprintf("%d-%02d", start, (start+1)%100)
}

// ParseFinancialYear converts "2025-26" into its first and last instants (UTC)
func ParseFinancialYear(fy string) (time.Time, time.Time, error) {
	parts := strings.SplitN(strings.TrimSpace(fy), "-", 2)
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid financial year format: %q (expected YYYY-YY)", fy)
	}
	startYear, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start year in financial year %q", fy)
	}
	endSuffix, err := strconv.Atoi(parts[1])
	if err != nil || endSuffix != (startYear+1)%100 {
		return time.Time{}, time.Time{}, fmt.Errorf("financial year %q must span consecutive years", fy)
	}

	start := time.Date(startYear, FinancialYearStartMonth, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0).Add(-time.Nanosecond)
	return start, end, nil
}

// FreshnessCutoff returns the oldest timestamp still considered fresh at now
func FreshnessCutoff(now time.Time, window time.Duration) time.Time {
	return now.Add(-window)
}

// IsFresh reports whether ts is no older than window at now
func IsFresh(ts, now time.Time, window time.Duration) bool {
	return !ts.Before(FreshnessCutoff(now, window))
}

// dateLayouts are the statement date formats ParseDate accepts, tried in order
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
	"02 Jan 2006",
	"Jan 2, 2006",
}

// ParseDate parses a bank-statement date. Day-first layouts are assumed for
// numeric dates, as Indian statements print them.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
