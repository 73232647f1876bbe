package market

import (
	"fmt"
	"time"
)

// SessionTime is a wall-clock time within an instrument's zone.
type SessionTime struct {
	Hour   int
	Minute int
}

// Minutes returns the time as minutes past local midnight.
func (s SessionTime) Minutes() int {
	return s.Hour*60 + s.Minute
}

func (s SessionTime) String() string {
	return fmt.Sprintf("%02d:%02d", s.Hour, s.Minute)
}

// InstrumentSpec describes one data source: where its clock lives and
// when its regular session runs. SessionEnd is exclusive.
type InstrumentSpec struct {
	Name         string // display name, e.g. "DAX Futures"
	Code         string // upstream instrument code, e.g. "deuidxeur"
	Timezone     string // IANA zone, e.g. "Europe/London"
	SessionStart SessionTime
	SessionEnd   SessionTime
}

// Location resolves the instrument's timezone.
func (is InstrumentSpec) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(is.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", is.Timezone, err)
	}
	return loc, nil
}

// TradingHours formats the session window as "HH:MM-HH:MM".
func (is InstrumentSpec) TradingHours() string {
	return is.SessionStart.String() + "-" + is.SessionEnd.String()
}
