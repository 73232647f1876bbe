// Package prep assembles the final multi-source dataset: it drives
// each configured source through the normalization/segmentation
// pipeline and renders the compact JSON document the charting front
// end loads.
package prep

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/phuslu/log"

	"github.com/rustyeddy/ohlcprep/config"
	"github.com/rustyeddy/ohlcprep/csvsource"
	"github.com/rustyeddy/ohlcprep/gaps"
	"github.com/rustyeddy/ohlcprep/market"
)

// Fetcher yields raw bars for an instrument code over [from, to) at
// the given resolution. An empty result is a valid answer.
type Fetcher interface {
	FetchBars(ctx context.Context, code string, from, to time.Time, resolution time.Duration) ([]market.Bar, error)
}

// Orchestrator runs the batch transform. Sources are processed fully
// one after another; carry state never crosses a source boundary.
type Orchestrator struct {
	cfg     *config.Config
	fetcher Fetcher
}

func NewOrchestrator(cfg *config.Config, fetcher Fetcher) *Orchestrator {
	return &Orchestrator{cfg: cfg, fetcher: fetcher}
}

// Run executes the pipeline and assembles the output document. With
// csvOnly set, fetched sources are skipped and the document carries
// the file-backed source alone. Source-level failures are logged and
// skipped; Run itself fails only on invalid configuration.
func (o *Orchestrator) Run(ctx context.Context, csvOnly bool) (*Document, error) {
	start, end, err := o.cfg.Range()
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Metadata: Metadata{
			Generated:     time.Now().Format(time.RFC3339),
			RunID:         ulid.Make().String(),
			BaseFrequency: "5min",
			Sources:       []string{},
		},
	}

	if o.cfg.CSV != nil {
		src, err := o.runCSVSource(o.cfg.CSV)
		if err != nil {
			log.Error().Err(err).Str("source", o.cfg.CSV.Name).Msg("csv source failed, skipping")
		} else if src != nil {
			doc.addSource(src)
		}
	}

	if !csvOnly {
		for _, fc := range o.cfg.Fetched {
			src, err := o.runFetchedSource(ctx, fc, start, end)
			if err != nil {
				log.Error().Err(err).Str("source", fc.Name).Msg("fetched source failed, skipping")
				continue
			}
			if src != nil {
				doc.addSource(src)
			}
		}
	}

	return doc, nil
}

func (d *Document) addSource(src *SourceDocument) {
	d.Sources = append(d.Sources, *src)
	d.Metadata.Sources = append(d.Metadata.Sources, src.Name)
	d.Metadata.TotalSources = len(d.Sources)
	d.Metadata.TotalTradingDays += len(src.TradingDays)
	log.Info().
		Str("source", src.Name).
		Str("timezone", src.Timezone).
		Int("days", len(src.TradingDays)).
		Msg("source processed")
}

// runCSVSource loads every matching contract file, concatenates and
// time-sorts the records, and runs the pipeline once over the whole
// series. The per-file contract tag stays metadata only.
func (o *Orchestrator) runCSVSource(cc *config.CSVSourceConfig) (*SourceDocument, error) {
	spec := cc.Spec(cc.Name, "")
	loc, err := spec.Location()
	if err != nil {
		return nil, err
	}

	records, err := csvsource.Load(cc.Dir, cc.Pattern, loc)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		log.Warn().Str("dir", cc.Dir).Str("pattern", cc.Pattern).Msg("no csv files found")
		return nil, nil
	}
	log.Info().Str("source", cc.Name).Int("records", len(records)).Msg("csv records loaded")

	seg, err := gaps.NewSegmenter(spec)
	if err != nil {
		return nil, err
	}
	days := seg.Process(csvsource.Bars(records))
	if len(days) == 0 {
		return nil, nil
	}

	return &SourceDocument{
		Name:         spec.Name,
		Timezone:     spec.Timezone,
		TradingHours: spec.TradingHours(),
		TradingDays:  days,
	}, nil
}

// runFetchedSource pulls the date range one calendar year at a time to
// bound peak memory, threading the segmenter's carry state across year
// boundaries so a Dec 31 day gaps correctly against the following
// Jan's first day. A failed year is logged and skipped; the carry
// state from before the failure stays in place for later years.
func (o *Orchestrator) runFetchedSource(ctx context.Context, fc config.FetchedSourceConfig, start, end time.Time) (*SourceDocument, error) {
	spec := fc.Spec(fc.Name, fc.Code)
	seg, err := gaps.NewSegmenter(spec)
	if err != nil {
		return nil, err
	}

	endExcl := end.AddDate(0, 0, 1)

	var days []gaps.DayRecord
	for year := start.Year(); year <= end.Year(); year++ {
		from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		if from.Before(start) {
			from = start
		}
		to := time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC)
		if to.After(endExcl) {
			to = endExcl
		}

		bars, err := o.fetcher.FetchBars(ctx, fc.Code, from, to, time.Minute)
		if err != nil {
			log.Warn().Err(err).Str("source", fc.Name).Int("year", year).Msg("fetch failed, skipping year")
			continue
		}
		if len(bars) == 0 {
			log.Info().Str("source", fc.Name).Int("year", year).Msg("no data for year")
			continue
		}

		yearDays := seg.Process(bars)
		days = append(days, yearDays...)
		log.Info().Str("source", fc.Name).Int("year", year).
			Int("bars", len(bars)).Int("days", len(yearDays)).Msg("year processed")
	}

	if len(days) == 0 {
		return nil, nil
	}
	return &SourceDocument{
		Name:         spec.Name,
		Timezone:     spec.Timezone,
		TradingHours: spec.TradingHours(),
		TradingDays:  days,
	}, nil
}
