package models

import (
	"time"

	"github.com/go-faster/errors"
)

// DateLayout is the calendar-day format used on the wire.
const DateLayout = "2006-01-02"

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD string.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "invalid date %q", s)
	}
	return t, nil
}

// FormatDay renders the calendar day of t.
func FormatDay(t time.Time) string {
	return t.Format(DateLayout)
}

// DayRange converts an inclusive [start, end] pair of calendar days into a
// half-open [from, to) instant range covering both days entirely.
func DayRange(start, end time.Time) (from, to time.Time) {
	return Day(start), Day(end).AddDate(0, 0, 1)
}
