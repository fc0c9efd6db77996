package frame

import (
	"math"
	"time"

	"astroref/internal/angle"
)

const (
	j2000        = 2451545.0
	unixEpochJD  = 2440587.5
	secondsOfDay = 86400.0
)

// JulianDay converts t to a Julian day number.
func JulianDay(t time.Time) float64 {
	return float64(t.UTC().UnixNano())/1e9/secondsOfDay + unixEpochJD
}

// SiderealTime returns the local mean sidereal time at east longitude lon, in degrees.
func SiderealTime(t time.Time, lon float64) float64 {
	d := JulianDay(t) - j2000
	gmst := 280.46061837 + 360.98564736629*d
	return angle.Normalize(gmst + lon)
}

// Obliquity is the mean obliquity of the ecliptic at t.
func Obliquity(t time.Time) float64 {
	centuries := (JulianDay(t) - j2000) / 36525
	return 23.4392911 - 0.0130042*centuries
}

// Ascendant returns the tropical longitude rising on the eastern horizon for an
// observer at (lat, lon). ok is false inside the polar circles, where the
// ascendant is not well defined.
func Ascendant(t time.Time, lat, lon float64) (float64, bool) {
	eps := Obliquity(t)
	if math.Abs(lat) >= 90-eps {
		return 0, false
	}
	return ascendantFromRAMC(SiderealTime(t, lon), lat, eps), true
}

func ascendantFromRAMC(ramc, lat, eps float64) float64 {
	theta := ramc * math.Pi / 180
	phi := lat * math.Pi / 180
	e := eps * math.Pi / 180
	asc := math.Atan2(math.Cos(theta), -(math.Sin(theta)*math.Cos(e) + math.Tan(phi)*math.Sin(e)))
	return angle.Normalize(asc * 180 / math.Pi)
}
