package prep

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/ohlcprep/config"
	"github.com/rustyeddy/ohlcprep/gaps"
	"github.com/rustyeddy/ohlcprep/market"
)

type fakeFetcher struct {
	barsByYear map[int][]market.Bar
	failYears  map[int]bool
	calls      []int
}

func (f *fakeFetcher) FetchBars(ctx context.Context, code string, from, to time.Time, resolution time.Duration) ([]market.Bar, error) {
	year := from.Year()
	f.calls = append(f.calls, year)
	if f.failYears[year] {
		return nil, errors.New("datafeed unavailable")
	}
	return f.barsByYear[year], nil
}

// sessionDay builds 25 session minute bars for one day, opening at
// base — enough for five 5-minute buckets.
func sessionDay(t *testing.T, year int, month time.Month, day int, base float64) []market.Bar {
	t.Helper()
	loc, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)

	bars := make([]market.Bar, 0, 25)
	for i := 0; i < 25; i++ {
		o := base + float64(i)*0.1
		bars = append(bars, market.Bar{
			Time: time.Date(year, month, day, 8, i, 0, 0, loc).UTC(),
			Open: o, High: o + 0.2, Low: o - 0.2, Close: o + 0.05,
		})
	}
	return bars
}

func fetchedConfig(startDate, endDate string) *config.Config {
	return &config.Config{
		OutputFile: "out.json",
		StartDate:  startDate,
		EndDate:    endDate,
		Fetched: []config.FetchedSourceConfig{{
			Name: "DAX",
			Code: "deuidxeur",
			InstrumentConfig: config.InstrumentConfig{
				Timezone:  "Europe/London",
				StartHour: 8,
				EndHour:   17,
			},
		}},
	}
}

func TestRun_CarryThreadsAcrossYearChunks(t *testing.T) {
	fetcher := &fakeFetcher{
		barsByYear: map[int][]market.Bar{
			2023: sessionDay(t, 2023, time.December, 29, 100), // Friday
			2024: sessionDay(t, 2024, time.January, 2, 105),   // Tuesday
		},
	}

	orch := NewOrchestrator(fetchedConfig("2023-01-01", "2024-12-31"), fetcher)
	doc, err := orch.Run(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, []int{2023, 2024}, fetcher.calls, "one chunk per year, in order")

	require.Len(t, doc.Sources, 1)
	days := doc.Sources[0].TradingDays
	require.Len(t, days, 2)

	// The January day gaps against the December day even though they
	// arrived in different chunks.
	require.NotNil(t, days[1].Prev)
	assert.Equal(t, gaps.Date{Year: 2023, Month: 12, Day: 29}, days[1].Prev.Date)
	assert.Equal(t, gaps.GapUp, days[1].GapDirection)

	assert.Equal(t, 1, doc.Metadata.TotalSources)
	assert.Equal(t, 2, doc.Metadata.TotalTradingDays)
	assert.Equal(t, []string{"DAX"}, doc.Metadata.Sources)
	assert.Equal(t, "5min", doc.Metadata.BaseFrequency)
	assert.NotEmpty(t, doc.Metadata.Generated)
	assert.NotEmpty(t, doc.Metadata.RunID)
}

func TestRun_FailedYearSkippedWithoutResettingCarry(t *testing.T) {
	fetcher := &fakeFetcher{
		barsByYear: map[int][]market.Bar{
			2022: sessionDay(t, 2022, time.December, 30, 100), // Friday
			2024: sessionDay(t, 2024, time.January, 2, 105),
		},
		failYears: map[int]bool{2023: true},
	}

	orch := NewOrchestrator(fetchedConfig("2022-01-01", "2024-12-31"), fetcher)
	doc, err := orch.Run(context.Background(), false)
	require.NoError(t, err, "a failed year must not abort the run")

	assert.Equal(t, []int{2022, 2023, 2024}, fetcher.calls)

	require.Len(t, doc.Sources, 1)
	days := doc.Sources[0].TradingDays
	require.Len(t, days, 2)

	// The pre-failure carry survives: far too stale to classify, but
	// still reported as the previous-day values.
	last := days[1]
	require.NotNil(t, last.Prev)
	assert.Equal(t, gaps.Date{Year: 2022, Month: 12, Day: 30}, last.Prev.Date)
	assert.Equal(t, gaps.NotAvailable, last.GapDirection)
	assert.Nil(t, last.OpenAbovePrevHigh)
}

func TestRun_CSVOnly(t *testing.T) {
	dir := t.TempDir()
	var rows string
	for i := 0; i < 25; i++ {
		rows += fmt.Sprintf("1/15/2024,08:%02d,%.1f,%.1f,%.1f,%.1f\n",
			i, 100+float64(i)*0.1, 100.3+float64(i)*0.1, 99.8+float64(i)*0.1, 100.1+float64(i)*0.1)
	}
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "DAX FUTURES 2024.csv"),
		[]byte("Date,Time,Open,High,Low,Close\n"+rows), 0o644))

	cfg := fetchedConfig("2024-01-01", "2024-12-31")
	cfg.CSV = &config.CSVSourceConfig{
		Name:    "DAX Futures",
		Dir:     dir,
		Pattern: "DAX FUTURES*.csv",
		InstrumentConfig: config.InstrumentConfig{
			Timezone:  "Europe/London",
			StartHour: 8,
			EndHour:   17,
		},
	}

	fetcher := &fakeFetcher{}
	orch := NewOrchestrator(cfg, fetcher)
	doc, err := orch.Run(context.Background(), true)
	require.NoError(t, err)

	assert.Empty(t, fetcher.calls, "csv-only mode must not fetch")
	require.Len(t, doc.Sources, 1)
	assert.Equal(t, "DAX Futures", doc.Sources[0].Name)
	assert.Equal(t, "08:00-17:00", doc.Sources[0].TradingHours)
	assert.Len(t, doc.Sources[0].TradingDays, 1)
}

func TestRun_MissingCSVDirIsNotFatal(t *testing.T) {
	cfg := fetchedConfig("2024-01-01", "2024-12-31")
	cfg.CSV = &config.CSVSourceConfig{
		Name:    "DAX Futures",
		Dir:     "/nonexistent/data",
		Pattern: "DAX FUTURES*.csv",
		InstrumentConfig: config.InstrumentConfig{
			Timezone:  "Europe/London",
			StartHour: 8,
			EndHour:   17,
		},
	}

	fetcher := &fakeFetcher{
		barsByYear: map[int][]market.Bar{
			2024: sessionDay(t, 2024, time.January, 2, 105),
		},
	}
	doc, err := NewOrchestrator(cfg, fetcher).Run(context.Background(), false)
	require.NoError(t, err)

	// The empty CSV source is skipped; the fetched source still lands.
	require.Len(t, doc.Sources, 1)
	assert.Equal(t, "DAX", doc.Sources[0].Name)
}
