package gaps

import (
	"math"

	"github.com/rustyeddy/ohlcprep/market"
)

// Gap and bar direction labels, as consumed by the charting front end.
const (
	GapUp        = "GAP UP"
	GapDown      = "GAP DOWN"
	Flat         = "FLAT"
	NotAvailable = "N/A"

	Up   = "UP"
	Down = "DOWN"
)

// classifyGapSize buckets an absolute gap percentage. Boundary values
// land in the upper bucket (0.1 classifies as "0.1%-0.25%").
func classifyGapSize(gapPct float64) string {
	abs := math.Abs(gapPct)
	switch {
	case abs < 0.1:
		return "0-0.1%"
	case abs < 0.25:
		return "0.1%-0.25%"
	case abs < 0.5:
		return "0.25%-0.5%"
	case abs < 1.0:
		return "0.5%-1.0%"
	default:
		return "1.0%+"
	}
}

func barDirection(b market.Bar) string {
	switch {
	case b.Close > b.Open:
		return Up
	case b.Close < b.Open:
		return Down
	default:
		return Flat
	}
}

// bodyRatioClass buckets body size relative to the bar's full range:
// "<25%" is doji-like, ">75%" marubozu-like. A bar with no range at
// all counts as the smallest body.
func bodyRatioClass(b market.Bar) string {
	rng := b.High - b.Low
	if rng <= 0 {
		return "<25%"
	}
	ratio := math.Abs(b.Close-b.Open) / rng * 100
	switch {
	case ratio < 25:
		return "<25%"
	case ratio < 50:
		return "25-50%"
	case ratio < 75:
		return "50-75%"
	default:
		return ">75%"
	}
}
