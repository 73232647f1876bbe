package gaps

import (
	"sort"
	"time"

	"github.com/rustyeddy/ohlcprep/market"
)

// Minimum viable day: at least 10 session-filtered minute bars going
// into aggregation and at least 5 five-minute bars coming out. Days
// below either threshold are skipped entirely and leave the carry
// state untouched.
const (
	minRawBars = 10
	minAggBars = 5
)

// maxCarryDays caps how far apart two emitted days may be for gap
// classification: weekends and short holiday runs pass, anything
// longer makes the comparison stale.
const maxCarryDays = 5

// PrevDayStats is the carry state threaded between consecutive emitted
// days. Close is the session close (see AnalyzeDay), not necessarily
// the literal last bar's close.
type PrevDayStats struct {
	Date  Date
	Close float64
	High  float64
	Low   float64
}

// DayRecord is one trading day as served to the front end.
type DayRecord struct {
	Date         Date
	Prev         *PrevDayStats // nil only on the first emitted day
	GapDirection string
	GapSizeClass string
	// Nil when no usable prior day exists (first day, or carry older
	// than maxCarryDays).
	OpenAbovePrevHigh *bool
	CloseBelowPrevLow *bool

	Bars          []market.Bar // five-minute bars, time-ordered
	BarDirections []string     // parallel to Bars
	BodyRatios    []string     // parallel to Bars
}

// Segmenter groups normalized bars into local trading days and folds
// them, in date order, into DayRecords. The carry state survives
// across Process calls so a chunked producer (one call per fetched
// year) still gaps correctly across chunk boundaries.
type Segmenter struct {
	spec  market.InstrumentSpec
	loc   *time.Location
	carry *PrevDayStats
}

// NewSegmenter builds a segmenter for one instrument, with no carry.
func NewSegmenter(spec market.InstrumentSpec) (*Segmenter, error) {
	loc, err := spec.Location()
	if err != nil {
		return nil, err
	}
	return &Segmenter{spec: spec, loc: loc}, nil
}

// Carry exposes the current carry state. Nil until a day is emitted.
func (s *Segmenter) Carry() *PrevDayStats { return s.carry }

// Process folds a batch of bars into day records. Bars are grouped by
// local calendar date, session-filtered, aggregated to five-minute
// bars, and analyzed in date order. Days below the minimum-viable
// thresholds are dropped as if they never existed.
func (s *Segmenter) Process(bars []market.Bar) []DayRecord {
	byDay := make(map[Date][]market.Bar)
	for _, b := range bars {
		d := DateOf(b.Time.In(s.loc))
		byDay[d] = append(byDay[d], b)
	}

	days := make([]Date, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	var out []DayRecord
	for _, day := range days {
		filtered := market.FilterSession(byDay[day], s.loc, s.spec.SessionStart, s.spec.SessionEnd)
		if len(filtered) < minRawBars {
			continue
		}
		fiveMin := market.Aggregate(filtered, market.FiveMinute)
		if len(fiveMin) < minAggBars {
			continue
		}

		rec, next := s.AnalyzeDay(s.carry, day, fiveMin)
		s.carry = &next
		out = append(out, rec)
	}
	return out
}

// AnalyzeDay is the pure per-day fold: given the carry state from the
// previously emitted day and one day's five-minute bars, it produces
// the day's record and the next carry state. It never mutates carry.
//
// The carry close is anchored to the last bar of the final completed
// session hour (local hour == sessionEndHour-1) rather than the
// literal last bar, which keeps next-day gap math stable when a day
// ends early or carries a boundary bar. When no bar lands in that
// hour the literal day close is used.
//
// When the carry is older than maxCarryDays the gap fields go to N/A
// but prevClose/prevHigh/prevLow still report the stale carry values.
func (s *Segmenter) AnalyzeDay(carry *PrevDayStats, day Date, fiveMin []market.Bar) (DayRecord, PrevDayStats) {
	dayOpen := fiveMin[0].Open
	dayClose := fiveMin[len(fiveMin)-1].Close
	dayHigh := fiveMin[0].High
	dayLow := fiveMin[0].Low
	for _, b := range fiveMin[1:] {
		if b.High > dayHigh {
			dayHigh = b.High
		}
		if b.Low < dayLow {
			dayLow = b.Low
		}
	}

	sessionClose := dayClose
	for _, b := range fiveMin {
		if b.Time.In(s.loc).Hour() == s.spec.SessionEnd.Hour-1 {
			sessionClose = b.Close
		}
	}

	rec := DayRecord{
		Date:         day,
		Prev:         carry,
		GapDirection: NotAvailable,
		GapSizeClass: NotAvailable,
		Bars:         fiveMin,
	}

	if carry != nil && day.DaysSince(carry.Date) <= maxCarryDays {
		gapPct := (dayOpen - carry.Close) / carry.Close * 100
		switch {
		case dayOpen > carry.Close:
			rec.GapDirection = GapUp
		case dayOpen < carry.Close:
			rec.GapDirection = GapDown
		default:
			rec.GapDirection = Flat
		}
		rec.GapSizeClass = classifyGapSize(gapPct)

		openAbove := dayOpen > carry.High
		closeBelow := dayClose < carry.Low
		rec.OpenAbovePrevHigh = &openAbove
		rec.CloseBelowPrevLow = &closeBelow
	}

	rec.BarDirections = make([]string, len(fiveMin))
	rec.BodyRatios = make([]string, len(fiveMin))
	for i, b := range fiveMin {
		rec.BarDirections[i] = barDirection(b)
		rec.BodyRatios[i] = bodyRatioClass(b)
	}

	return rec, PrevDayStats{Date: day, Close: sessionClose, High: dayHigh, Low: dayLow}
}
