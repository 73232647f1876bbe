package market

import "time"

// FilterSession keeps the bars that fall inside the regular session
// window on a weekday, judged on the instrument's local clock. The
// session end is exclusive: a bar stamped exactly at the end minute is
// dropped. Input ordering is preserved.
func FilterSession(bars []Bar, loc *time.Location, start, end SessionTime) []Bar {
	startMin := start.Minutes()
	endMin := end.Minutes()

	out := make([]Bar, 0, len(bars))
	for _, b := range bars {
		lt := b.Time.In(loc)
		if wd := lt.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		m := lt.Hour()*60 + lt.Minute()
		if m >= startMin && m < endMin {
			out = append(out, b)
		}
	}
	return out
}
