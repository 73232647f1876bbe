package prep

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/mailru/easyjson"
	"github.com/mailru/easyjson/jwriter"

	"github.com/rustyeddy/ohlcprep/gaps"
)

// Metadata describes one pipeline run.
type Metadata struct {
	Generated        string // ISO-8601
	RunID            string // ULID
	BaseFrequency    string
	Sources          []string
	TotalSources     int
	TotalTradingDays int
}

// SourceDocument is one instrument's trading-day series.
type SourceDocument struct {
	Name         string
	Timezone     string
	TradingHours string // "HH:MM-HH:MM"
	TradingDays  []gaps.DayRecord
}

// Document is the complete output artifact.
type Document struct {
	Metadata Metadata
	Sources  []SourceDocument
}

// The document is large (every 5-minute bar of every trading day of
// every source) and consumed by a browser, so it is streamed through
// an easyjson writer with no extraneous whitespace and bars packed as
// fixed-order [tsMillis, open, high, low, close] tuples. The encoders
// are written by hand: no generator emits the tuple form.

// Marshal renders the document compactly.
func Marshal(d *Document) ([]byte, error) {
	return easyjson.Marshal(d)
}

// WriteFile renders the document and writes it to path, creating
// parent directories as needed. This is the only fatal failure point
// of a run.
func WriteFile(d *Document, path string) error {
	data, err := Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// MarshalEasyJSON implements easyjson.Marshaler.
func (d *Document) MarshalEasyJSON(w *jwriter.Writer) {
	w.RawString(`{"metadata":`)
	d.Metadata.MarshalEasyJSON(w)
	w.RawString(`,"sources":[`)
	for i := range d.Sources {
		if i > 0 {
			w.RawByte(',')
		}
		d.Sources[i].MarshalEasyJSON(w)
	}
	w.RawString(`]}`)
}

// MarshalEasyJSON implements easyjson.Marshaler.
func (m Metadata) MarshalEasyJSON(w *jwriter.Writer) {
	w.RawString(`{"generated":`)
	w.String(m.Generated)
	w.RawString(`,"runId":`)
	w.String(m.RunID)
	w.RawString(`,"baseFrequency":`)
	w.String(m.BaseFrequency)
	w.RawString(`,"sources":`)
	writeStrings(w, m.Sources)
	w.RawString(`,"totalSources":`)
	w.Int(m.TotalSources)
	w.RawString(`,"totalTradingDays":`)
	w.Int(m.TotalTradingDays)
	w.RawByte('}')
}

// MarshalEasyJSON implements easyjson.Marshaler.
func (s SourceDocument) MarshalEasyJSON(w *jwriter.Writer) {
	w.RawString(`{"name":`)
	w.String(s.Name)
	w.RawString(`,"timezone":`)
	w.String(s.Timezone)
	w.RawString(`,"tradingHours":`)
	w.String(s.TradingHours)
	w.RawString(`,"tradingDays":[`)
	for i := range s.TradingDays {
		if i > 0 {
			w.RawByte(',')
		}
		writeDayRecord(w, &s.TradingDays[i])
	}
	w.RawString(`]}`)
}

// writeDayRecord encodes one trading day. Prices are rounded to 2
// decimals here and nowhere earlier: gap math upstream runs on the
// unrounded values.
func writeDayRecord(w *jwriter.Writer, d *gaps.DayRecord) {
	w.RawString(`{"date":`)
	w.String(d.Date.String())

	w.RawString(`,"prevClose":`)
	if d.Prev == nil {
		w.RawString("null")
	} else {
		w.Float64(round2(d.Prev.Close))
	}
	w.RawString(`,"prevHigh":`)
	if d.Prev == nil {
		w.RawString("null")
	} else {
		w.Float64(round2(d.Prev.High))
	}
	w.RawString(`,"prevLow":`)
	if d.Prev == nil {
		w.RawString("null")
	} else {
		w.Float64(round2(d.Prev.Low))
	}

	w.RawString(`,"gapDirection":`)
	w.String(d.GapDirection)
	w.RawString(`,"gapSizeClass":`)
	w.String(d.GapSizeClass)

	w.RawString(`,"openAbovePrevHigh":`)
	writeNullableBool(w, d.OpenAbovePrevHigh)
	w.RawString(`,"closeBelowPrevLow":`)
	writeNullableBool(w, d.CloseBelowPrevLow)

	w.RawString(`,"bars":[`)
	for i, b := range d.Bars {
		if i > 0 {
			w.RawByte(',')
		}
		w.RawByte('[')
		w.Int64(b.Time.UnixMilli())
		w.RawByte(',')
		w.Float64(round2(b.Open))
		w.RawByte(',')
		w.Float64(round2(b.High))
		w.RawByte(',')
		w.Float64(round2(b.Low))
		w.RawByte(',')
		w.Float64(round2(b.Close))
		w.RawByte(']')
	}
	w.RawByte(']')

	w.RawString(`,"barDirections":`)
	writeStrings(w, d.BarDirections)
	w.RawString(`,"bodyRatios":`)
	writeStrings(w, d.BodyRatios)
	w.RawByte('}')
}

func writeStrings(w *jwriter.Writer, ss []string) {
	w.RawByte('[')
	for i, s := range ss {
		if i > 0 {
			w.RawByte(',')
		}
		w.String(s)
	}
	w.RawByte(']')
}

func writeNullableBool(w *jwriter.Writer, b *bool) {
	if b == nil {
		w.RawString("null")
		return
	}
	w.Bool(*b)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
