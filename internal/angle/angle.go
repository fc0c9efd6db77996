// Package angle holds the circular arithmetic every ecliptic computation builds on.
package angle

import "math"

// FullCircle is the span of the ecliptic in degrees.
const FullCircle = 360.0

// Normalize reduces any real angle into [0, 360).
func Normalize(deg float64) float64 {
	r := math.Mod(deg, FullCircle)
	if r < 0 {
		r += FullCircle
	}
	// tiny negatives round up to exactly 360 after the shift
	if r >= FullCircle {
		r -= FullCircle
	}
	return r
}

// Separation returns the shorter arc between a and b, in [0, 180].
func Separation(a, b float64) float64 {
	d := math.Abs(Normalize(a) - Normalize(b))
	if d > FullCircle/2 {
		d = FullCircle - d
	}
	return d
}
