// Package config holds the typed pipeline configuration: which
// sources to process, where their clocks live, and when their regular
// sessions run. Unknown timezones and inverted session windows are
// rejected at startup, before any data is touched.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/ohlcprep/market"
)

var validate = validator.New()

// InstrumentConfig carries the timezone and session window of one
// source. The session end is exclusive.
type InstrumentConfig struct {
	Timezone    string `yaml:"timezone" validate:"required,timezone"`
	StartHour   int    `yaml:"start_hour" validate:"min=0,max=23"`
	StartMinute int    `yaml:"start_minute" validate:"min=0,max=59"`
	EndHour     int    `yaml:"end_hour" validate:"min=0,max=23"`
	EndMinute   int    `yaml:"end_minute" validate:"min=0,max=59"`
}

// Spec converts the config record into the domain instrument spec.
func (ic InstrumentConfig) Spec(name, code string) market.InstrumentSpec {
	return market.InstrumentSpec{
		Name:         name,
		Code:         code,
		Timezone:     ic.Timezone,
		SessionStart: market.SessionTime{Hour: ic.StartHour, Minute: ic.StartMinute},
		SessionEnd:   market.SessionTime{Hour: ic.EndHour, Minute: ic.EndMinute},
	}
}

func (ic InstrumentConfig) sessionValid() bool {
	start := ic.StartHour*60 + ic.StartMinute
	end := ic.EndHour*60 + ic.EndMinute
	return end > start
}

// CSVSourceConfig describes the file-backed source.
type CSVSourceConfig struct {
	Name             string `yaml:"name" validate:"required"`
	Dir              string `yaml:"dir" validate:"required"`
	Pattern          string `yaml:"pattern" validate:"required"`
	InstrumentConfig `yaml:",inline"`
}

// FetchedSourceConfig describes a source pulled from the datafeed.
type FetchedSourceConfig struct {
	Name             string `yaml:"name" validate:"required"`
	Code             string `yaml:"code" validate:"required"`
	InstrumentConfig `yaml:",inline"`
}

// Config is the complete pipeline configuration.
type Config struct {
	OutputFile string `yaml:"output_file" validate:"required"`
	StartDate  string `yaml:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate    string `yaml:"end_date" validate:"required,datetime=2006-01-02"`

	CSV     *CSVSourceConfig      `yaml:"csv_source"`
	Fetched []FetchedSourceConfig `yaml:"fetched_sources" validate:"dive"`
}

// LoadFromFile loads and validates a YAML configuration file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks struct tags plus the domain rules the tags cannot
// express: session windows must not be inverted or empty, and the date
// range must be ordered.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	start, end, err := c.Range()
	if err != nil {
		return err
	}
	if end.Before(start) {
		return fmt.Errorf("end_date %s before start_date %s", c.EndDate, c.StartDate)
	}

	if c.CSV != nil && !c.CSV.sessionValid() {
		return fmt.Errorf("csv_source %s: session end must be after start", c.CSV.Name)
	}
	for _, f := range c.Fetched {
		if !f.sessionValid() {
			return fmt.Errorf("fetched_sources %s: session end must be after start", f.Name)
		}
	}
	return nil
}

// Range parses the configured date range. Both dates are inclusive.
func (c *Config) Range() (start, end time.Time, err error) {
	start, err = time.Parse("2006-01-02", c.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse start_date: %w", err)
	}
	end, err = time.Parse("2006-01-02", c.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse end_date: %w", err)
	}
	return start, end, nil
}

// Default mirrors the production instrument table: US index CFDs on
// the New York clock, European ones on the London clock, and the DAX
// futures contract files as the CSV source.
func Default() *Config {
	newYork := InstrumentConfig{
		Timezone:  "America/New_York",
		StartHour: 9, StartMinute: 30,
		EndHour: 16, EndMinute: 0,
	}
	london := InstrumentConfig{
		Timezone:  "Europe/London",
		StartHour: 8, StartMinute: 0,
		EndHour: 16, EndMinute: 30,
	}

	return &Config{
		OutputFile: "data/ohlc_data.json",
		StartDate:  "2020-01-01",
		EndDate:    "2025-12-31",
		CSV: &CSVSourceConfig{
			Name:    "DAX Futures",
			Dir:     "../data",
			Pattern: "DAX FUTURES*.csv",
			InstrumentConfig: InstrumentConfig{
				Timezone:  "Europe/London",
				StartHour: 8, StartMinute: 0,
				EndHour: 17, EndMinute: 0,
			},
		},
		Fetched: []FetchedSourceConfig{
			{Name: "DOW", Code: "usa30idxusd", InstrumentConfig: newYork},
			{Name: "Nasdaq", Code: "usatechidxusd", InstrumentConfig: newYork},
			{Name: "SP500", Code: "usa500idxusd", InstrumentConfig: newYork},
			{Name: "DAX", Code: "deuidxeur", InstrumentConfig: london},
			{Name: "FTSE", Code: "gbridxgbp", InstrumentConfig: london},
		},
	}
}
