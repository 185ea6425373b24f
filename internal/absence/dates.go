package absence

import "time"

// Date truncates a time to midnight UTC on the same calendar date. All
// calculator arithmetic assumes inputs normalized through this.
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AddYears shifts a date by n calendar years, clamping the day to the last
// day of the target month when it would overflow (29 Feb minus one year is
// 28 Feb, not 1 Mar).
func AddYears(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	y += n
	if last := daysInMonth(y, m); d > last {
		d = last
	}
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysInMonth(year int, month time.Month) int {
	// Day zero of the following month
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// daysBetween returns the number of days from a to b. Both must be
// midnight-UTC dates; negative when b is before a.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

// FormatUK renders a date the way the rest of the product displays dates:
// weekday plus day/month/year.
func FormatUK(t time.Time) string {
	return t.Format("Monday 02/01/2006")
}
