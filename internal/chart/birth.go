// Package chart assembles engine outputs into the plain records handed to the
// rendering layer: natal charts, transits, season lookups and pillars.
package chart

import (
	"math"
	"strings"

	"astroref/internal/civil"
	"astroref/internal/errs"
)

// BirthData is the civil birth form. A nil Hour means the time is unknown,
// which is a valid state and not an error. Nil coordinates are taken from
// the resolved city, never from a zero value.
type BirthData struct {
	Year      int      `json:"year" yaml:"year"`
	Month     int      `json:"month" yaml:"month"`
	Day       int      `json:"day" yaml:"day"`
	Hour      *int     `json:"hour,omitempty" yaml:"hour,omitempty"`
	Minute    *int     `json:"minute,omitempty" yaml:"minute,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty" yaml:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty" yaml:"longitude,omitempty"`
	City      string   `json:"city" yaml:"city"`
}

// TimeKnown reports whether a birth hour was supplied.
func (b BirthData) TimeKnown() bool { return b.Hour != nil }

// Validate rejects missing or out-of-range fields.
func (b BirthData) Validate() error {
	const op = "chart.validate"
	if b.Year < 1 || b.Year > 9999 {
		return errs.Invalid(op, "year", "year %d out of range 1..9999", b.Year)
	}
	if err := civil.ValidateDate(b.Year, b.Month, b.Day); err != nil {
		return err
	}
	if b.Hour != nil && (*b.Hour < 0 || *b.Hour > 23) {
		return errs.Invalid(op, "hour", "hour %d out of range 0..23", *b.Hour)
	}
	if b.Minute != nil {
		if b.Hour == nil {
			return errs.Invalid(op, "minute", "minute given without hour")
		}
		if *b.Minute < 0 || *b.Minute > 59 {
			return errs.Invalid(op, "minute", "minute %d out of range 0..59", *b.Minute)
		}
	}
	if b.Latitude != nil && !inRange(*b.Latitude, 90) {
		return errs.Invalid(op, "latitude", "latitude %.4f out of range -90..90", *b.Latitude)
	}
	if b.Longitude != nil && !inRange(*b.Longitude, 180) {
		return errs.Invalid(op, "longitude", "longitude %.4f out of range -180..180", *b.Longitude)
	}
	if strings.TrimSpace(b.City) == "" {
		return errs.Invalid(op, "city", "city label is required")
	}
	return nil
}

func inRange(v, limit float64) bool {
	return !math.IsNaN(v) && v >= -limit && v <= limit
}

// locate fills missing coordinates from the resolved location.
func (b BirthData) locate(loc civil.Location) BirthData {
	if b.Latitude == nil {
		lat := loc.Latitude
		b.Latitude = &lat
	}
	if b.Longitude == nil {
		lon := loc.Longitude
		b.Longitude = &lon
	}
	return b
}

func invalidHour(hour int) error {
	return errs.Invalid("chart.pillars", "hour", "hour %d out of range 0..23", hour)
}

// clock returns the local hour and minute used for the chart instant. An
// unknown time is charted at local noon.
func (b BirthData) clock() (int, int) {
	if b.Hour == nil {
		return 12, 0
	}
	minute := 0
	if b.Minute != nil {
		minute = *b.Minute
	}
	return *b.Hour, minute
}
