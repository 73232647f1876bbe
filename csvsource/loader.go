// Package csvsource loads raw minute bars from delimited files, e.g.
// the per-contract "DAX FUTURES*.csv" exports. Files carry Date, Time,
// Open, High, Low, Close columns with month-first dates.
package csvsource

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/ohlcprep/market"
)

// Record pairs a bar with the contract file it was loaded from. The
// contract name is carried as metadata only and never enters any
// computation.
type Record struct {
	market.Bar
	Contract string
}

// Load reads every file in dir matching pattern (a filepath.Glob
// pattern such as "DAX FUTURES*.csv"), concatenates the records and
// sorts them by time. Rows whose date/time cannot be parsed — or whose
// wall clock is ambiguous or nonexistent in loc — are dropped
// silently. A directory with no matching files yields an empty, non-
// error result; the caller decides how loudly to complain.
func Load(dir, pattern string, loc *time.Location) ([]Record, error) {
	files, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	sort.Strings(files)

	var records []Record
	for _, file := range files {
		recs, err := loadFile(file, loc)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", file, err)
		}
		records = append(records, recs...)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Time.Before(records[j].Time)
	})
	return records, nil
}

// Bars strips the contract metadata.
func Bars(records []Record) []market.Bar {
	bars := make([]market.Bar, len(records))
	for i, r := range records {
		bars[i] = r.Bar
	}
	return bars
}

func loadFile(path string, loc *time.Location) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	contract := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var records []Record
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed line; drop it like any other bad record.
			continue
		}
		if len(row) <= cols.max() {
			continue
		}

		t, ok := market.ParseLocal(row[cols.date], row[cols.time], loc)
		if !ok {
			continue
		}
		open, err1 := strconv.ParseFloat(strings.TrimSpace(row[cols.open]), 64)
		high, err2 := strconv.ParseFloat(strings.TrimSpace(row[cols.high]), 64)
		low, err3 := strconv.ParseFloat(strings.TrimSpace(row[cols.low]), 64)
		cls, err4 := strconv.ParseFloat(strings.TrimSpace(row[cols.close]), 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			continue
		}

		records = append(records, Record{
			Bar:      market.Bar{Time: t, Open: open, High: high, Low: low, Close: cls},
			Contract: contract,
		})
	}
	return records, nil
}

type columns struct {
	date, time, open, high, low, close int
}

func (c columns) max() int {
	m := c.date
	for _, v := range []int{c.time, c.open, c.high, c.low, c.close} {
		if v > m {
			m = v
		}
	}
	return m
}

func columnIndex(header []string) (columns, error) {
	idx := map[string]int{}
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}

	cols := columns{date: -1, time: -1, open: -1, high: -1, low: -1, close: -1}
	lookup := map[string]*int{
		"date": &cols.date, "time": &cols.time,
		"open": &cols.open, "high": &cols.high,
		"low": &cols.low, "close": &cols.close,
	}
	for name, dst := range lookup {
		i, ok := idx[name]
		if !ok {
			return cols, fmt.Errorf("missing column %q", name)
		}
		*dst = i
	}
	return cols, nil
}
