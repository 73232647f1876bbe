package market

import "time"

// FiveMinute is the base output resolution of the pipeline.
const FiveMinute = 5 * time.Minute

// Aggregate resamples time-ordered bars into fixed buckets aligned to
// the top of the hour (:00, :05, :10, ... for a 5-minute width). Each
// bucket takes the first bar's open, the max high, the min low and the
// last bar's close. Buckets with no contributing bars are omitted —
// never synthesized or forward-filled.
func Aggregate(bars []Bar, width time.Duration) []Bar {
	if len(bars) == 0 {
		return nil
	}

	out := make([]Bar, 0, len(bars)/2+1)
	var cur Bar
	open := false

	for _, b := range bars {
		bucket := b.Time.Truncate(width)
		if open && bucket.Equal(cur.Time) {
			if b.High > cur.High {
				cur.High = b.High
			}
			if b.Low < cur.Low {
				cur.Low = b.Low
			}
			cur.Close = b.Close
			continue
		}
		if open {
			out = append(out, cur)
		}
		cur = Bar{Time: bucket, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close}
		open = true
	}
	out = append(out, cur)
	return out
}
