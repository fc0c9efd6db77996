// Package frame converts ecliptic longitudes between the tropical and sidereal zodiacs.
package frame

import (
	"strings"
	"time"

	"astroref/internal/angle"
)

// Frame names an ecliptic reference frame.
type Frame string

const (
	// Tropical is anchored to the March equinox.
	Tropical Frame = "tropical"
	// Sidereal is anchored to the fixed stars.
	Sidereal Frame = "sidereal"
)

// Model is a linear precession approximation. The offset grows with the year
// and is not bounded; it is not a physical constant.
type Model struct {
	Name            string  `json:"name" yaml:"name"`
	ReferenceYear   float64 `json:"reference_year" yaml:"reference_year"`
	ReferenceOffset float64 `json:"reference_offset" yaml:"reference_offset"`
	AnnualDrift     float64 `json:"annual_drift" yaml:"annual_drift"`
}

// precession rate of 50.29 arcseconds per year, in degrees
const meanPrecession = 50.29 / 3600.0

var (
	Lahiri       = Model{Name: "lahiri", ReferenceYear: 2000, ReferenceOffset: 23.853, AnnualDrift: meanPrecession}
	FaganBradley = Model{Name: "fagan_bradley", ReferenceYear: 2000, ReferenceOffset: 24.736, AnnualDrift: meanPrecession}
	Raman        = Model{Name: "raman", ReferenceYear: 2000, ReferenceOffset: 22.410, AnnualDrift: meanPrecession}
	Krishnamurti = Model{Name: "krishnamurti", ReferenceYear: 2000, ReferenceOffset: 23.760, AnnualDrift: meanPrecession}

	// Default is the documented fallback when a caller names no model.
	Default = Lahiri
)

var builtin = map[string]Model{
	Lahiri.Name:       Lahiri,
	FaganBradley.Name: FaganBradley,
	Raman.Name:        Raman,
	Krishnamurti.Name: Krishnamurti,
}

// Lookup returns the built-in model registered under name.
func Lookup(name string) (Model, bool) {
	m, ok := builtin[canonical(name)]
	return m, ok
}

// Select returns the named model, falling back to Default for unknown or empty names.
func Select(name string) Model {
	if m, ok := Lookup(name); ok {
		return m
	}
	return Default
}

// Names lists the built-in model identifiers.
func Names() []string {
	return []string{Lahiri.Name, FaganBradley.Name, Raman.Name, Krishnamurti.Name}
}

func canonical(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.NewReplacer("-", "_", " ", "_").Replace(name)
	switch name {
	case "fagan", "fagan_allen", "fb":
		return FaganBradley.Name
	case "kp":
		return Krishnamurti.Name
	}
	return name
}

// FractionalYear approximates the calendar position of t as
// year + (month-1)/12 + (day-1)/365.25 on its UTC civil date. It is not solar-day exact.
func FractionalYear(t time.Time) float64 {
	u := t.UTC()
	return float64(u.Year()) + float64(u.Month()-1)/12 + float64(u.Day()-1)/365.25
}

// AyanamsaAt evaluates the model's offset at instant t.
func AyanamsaAt(t time.Time, m Model) float64 {
	return m.ReferenceOffset + (FractionalYear(t)-m.ReferenceYear)*m.AnnualDrift
}

// ToSidereal shifts a tropical longitude into the sidereal frame.
func ToSidereal(tropical float64, t time.Time, m Model) float64 {
	return angle.Normalize(tropical - AyanamsaAt(t, m))
}

// ToTropical shifts a sidereal longitude back into the tropical frame.
func ToTropical(sidereal float64, t time.Time, m Model) float64 {
	return angle.Normalize(sidereal + AyanamsaAt(t, m))
}

// Convert moves lon from one frame to another; identical frames only normalize.
func Convert(lon float64, from, to Frame, t time.Time, m Model) float64 {
	switch {
	case from == to:
		return angle.Normalize(lon)
	case to == Sidereal:
		return ToSidereal(lon, t, m)
	default:
		return ToTropical(lon, t, m)
	}
}
