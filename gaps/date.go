package gaps

import (
	"fmt"
	"time"
)

// Date is a calendar date in the instrument's local zone. Trading days
// are keyed and compared by Date, never by instant, so day arithmetic
// is immune to DST-shortened days.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf reads the calendar date off a local time.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// String formats the date as YYYYMMDD, the key used by the front end.
func (d Date) String() string {
	return fmt.Sprintf("%04d%02d%02d", d.Year, d.Month, d.Day)
}

func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

// DaysSince returns the calendar-day distance from o to d.
func (d Date) DaysSince(o Date) int {
	a := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
	b := time.Date(o.Year, o.Month, o.Day, 0, 0, 0, 0, time.UTC)
	return int(a.Sub(b) / (24 * time.Hour))
}
