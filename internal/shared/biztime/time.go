// Package biztime provides UTC time utilities.
// All storage, tokens, and plan-expiry arithmetic use UTC; implicit Local
// timezone is prohibited.
package biztime

import "time"

// NowUTC returns current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// DateStamp formats t as a compact UTC calendar date (YYYYMMDD).
// Used for customer identifier allocation.
func DateStamp(t time.Time) string {
	return t.UTC().Format("20060102")
}

// AddDays returns t plus the given number of calendar days, in UTC.
// Calendar arithmetic (AddDate) is used rather than duration arithmetic so
// that a 30-day plan expires on the same wall-clock time 30 days later,
// across DST-free UTC.
func AddDays(t time.Time, days int) time.Time {
	return t.UTC().AddDate(0, 0, days)
}
