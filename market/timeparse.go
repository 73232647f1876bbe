package market

import (
	"strings"
	"time"
)

// Raw feeds stamp records with month-first dates in either 2- or
// 4-digit year form. The 4-digit layout must be tried first: the
// 2-digit layout would otherwise consume "20" of "2014" as the year.
var dateLayouts = []string{"1/2/2006", "1/2/06"}

var timeLayouts = []string{"15:04:05", "15:04"}

// ParseLocal parses a (date, time) string pair as a wall-clock reading
// in loc and returns the corresponding UTC instant.
//
// Wall-clock readings that do not map to exactly one instant are
// rejected: times inside a spring-forward skipped hour do not exist,
// and times inside a fall-back repeated hour exist twice. Both come
// back ok=false and the caller drops the record.
func ParseLocal(dateStr, timeStr string, loc *time.Location) (time.Time, bool) {
	d, ok := parseFirst(dateLayouts, strings.TrimSpace(dateStr))
	if !ok {
		return time.Time{}, false
	}
	tm, ok := parseFirst(timeLayouts, strings.TrimSpace(timeStr))
	if !ok {
		return time.Time{}, false
	}

	year, month, day := d.Date()
	hour, minute, sec := tm.Clock()

	t := time.Date(year, month, day, hour, minute, sec, 0, loc)

	// A nonexistent wall clock gets normalized forward by time.Date
	// (02:30 becomes 03:30 on a spring-forward day), so any drift from
	// the requested components means the reading never happened.
	if !sameWallClock(t, year, month, day, hour, minute) {
		return time.Time{}, false
	}

	// A repeated wall clock has a twin instant one hour away showing
	// the same local reading.
	if sameWallClock(t.Add(-time.Hour), year, month, day, hour, minute) ||
		sameWallClock(t.Add(time.Hour), year, month, day, hour, minute) {
		return time.Time{}, false
	}

	return t.UTC(), true
}

func parseFirst(layouts []string, s string) (time.Time, bool) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func sameWallClock(t time.Time, year int, month time.Month, day, hour, minute int) bool {
	y, m, d := t.Date()
	return y == year && m == month && d == day &&
		t.Hour() == hour && t.Minute() == minute
}
