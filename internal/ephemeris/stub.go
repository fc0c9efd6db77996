package ephemeris

import (
	"context"
	"fmt"
	"time"

	"astroref/internal/angle"
	"astroref/internal/body"
)

// meanElement is a mean longitude at J2000 and its daily motion, in degrees.
type meanElement struct {
	l0   float64
	rate float64
}

// Geocentric mean longitudes; the outer bodies ignore retrograde loops.
var meanElements = map[body.ID]meanElement{
	body.Sun:     {280.460, 0.9856474},
	body.Moon:    {218.316, 13.176396},
	body.Mercury: {252.251, 4.0923344},
	body.Venus:   {181.980, 1.6021302},
	body.Mars:    {355.433, 0.5240208},
	body.Jupiter: {34.351, 0.0830853},
	body.Saturn:  {50.077, 0.0334442},
	body.Uranus:  {314.055, 0.0117331},
	body.Neptune: {304.349, 0.0059810},
	body.Pluto:   {238.929, 0.0039700},
}

var j2000 = time.Date(2000, time.January, 1, 12, 0, 0, 0, time.UTC)

// Stub is a deterministic provider built from mean motions. It is not an
// ephemeris: it exists so the engine can run offline and in tests.
type Stub struct {
	center Center
}

// NewStub returns a stub provider for the given center.
func NewStub(center Center) *Stub { return &Stub{center: center} }

// Name identifies the provider in logs and metrics.
func (s *Stub) Name() string { return ProviderStub }

// Longitude returns the mean longitude of id at instant at.
func (s *Stub) Longitude(ctx context.Context, id body.ID, at time.Time) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	el, ok := meanElements[id]
	if !ok {
		return 0, fmt.Errorf("stub has no elements for %q", id)
	}
	if s.center == Heliocentric {
		switch id {
		case body.Moon:
			return 0, fmt.Errorf("moon has no heliocentric longitude")
		case body.Sun:
			// Earth as seen from the Sun
			el.l0 += 180
		}
	}
	days := at.UTC().Sub(j2000).Hours() / 24
	return angle.Normalize(el.l0 + el.rate*days), nil
}
