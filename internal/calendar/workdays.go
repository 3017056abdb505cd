package calendar

import (
	"time"
)

// Holidays returns the fixed public holidays around the advent season for
// the given year, keyed by YYYY-MM-DD.
func Holidays(year int) map[string]string {
	holidays := make(map[string]string)

	holidays[formatDate(year, 1, 1)] = "New Year's Day"
	holidays[formatDate(year, 12, 25)] = "Christmas Day"
	holidays[formatDate(year, 12, 26)] = "Boxing Day"

	return holidays
}

// WorkingDays returns n consecutive working days starting at start
// (inclusive), skipping weekends and the holidays of each year touched.
func WorkingDays(start time.Time, n int) []time.Time {
	days := make([]time.Time, 0, n)
	cur := DateOf(start)
	cache := map[int]map[string]string{}

	for len(days) < n {
		hol, ok := cache[cur.Year()]
		if !ok {
			hol = Holidays(cur.Year())
			cache[cur.Year()] = hol
		}
		_, isHoliday := hol[formatDateFromTime(cur)]
		if cur.Weekday() != time.Saturday && cur.Weekday() != time.Sunday && !isHoliday {
			days = append(days, cur)
		}
		cur = cur.AddDate(0, 0, 1)
	}
	return days
}

// DateOf truncates t to its civil date, expressed as midnight UTC. Two
// instants on the same calendar day in t's location map to the same value.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// formatDate formats a date as YYYY-MM-DD
func formatDate(year, month, day int) string {
	return time.Date(year, time.Month(month), day, 12, 0, 0, 0, time.UTC).Format(DateLayout)
}

// formatDateFromTime formats a time.Time as YYYY-MM-DD
func formatDateFromTime(t time.Time) string {
	return t.Format(DateLayout)
}
