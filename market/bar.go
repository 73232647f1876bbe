package market

import "time"

// Bar is a single OHLC bar at any resolution. Time is the bar's open
// in UTC.
type Bar struct {
	Time  time.Time
	Open  float64
	High  float64
	Low   float64
	Close float64
}
