package utils

import "time"

// DateLayout is the calendar-date format used for every date key.
const DateLayout = "2006-01-02"

// Taipei is the fixed UTC+8 zone all calendar dates are computed in.
var Taipei = time.FixedZone("UTC+8", 8*60*60)

// Clock supplies the current instant. Tests substitute a fixed clock.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns T; Advance moves it forward.
type FixedClock struct {
	T time.Time
}

func (c *FixedClock) Now() time.Time { return c.T }

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) { c.T = c.T.Add(d) }

// DateOf returns the UTC+8 calendar date of t as YYYY-MM-DD.
func DateOf(t time.Time) string {
	return t.In(Taipei).Format(DateLayout)
}

// Today returns the UTC+8 calendar date for the clock's current instant.
func Today(c Clock) string {
	return DateOf(c.Now())
}

// DaysBetween returns the absolute number of calendar days between two
// YYYY-MM-DD dates. ok is false if either date does not parse.
func DaysBetween(a, b string) (days int, ok bool) {
	ta, err := time.ParseInLocation(DateLayout, a, Taipei)
	if err != nil {
		return 0, false
	}
	tb, err := time.ParseInLocation(DateLayout, b, Taipei)
	if err != nil {
		return 0, false
	}
	d := tb.Sub(ta)
	if d < 0 {
		d = -d
	}
	return int(d.Hours() / 24), true
}

// AddDays shifts a YYYY-MM-DD date by n calendar days.
func AddDays(date string, n int) string {
	t, err := time.ParseInLocation(DateLayout, date, Taipei)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, n).Format(DateLayout)
}

// HourOf returns the UTC+8 hour of day of t.
func HourOf(t time.Time) int {
	return t.In(Taipei).Hour()
}
