// Package zodiac resolves ecliptic longitudes into signs and degrees within a sign.
package zodiac

import (
	"fmt"
	"math"

	"astroref/internal/angle"
)

// SignSpan is the width of one sign in degrees.
const SignSpan = 30.0

// Sign indexes the twelve signs starting at Aries.
type Sign int

const (
	Aries Sign = iota
	Taurus
	Gemini
	Cancer
	Leo
	Virgo
	Libra
	Scorpio
	Sagittarius
	Capricorn
	Aquarius
	Pisces
)

// SignCount is the number of signs in the zodiac.
const SignCount = 12

var signNames = [SignCount]string{
	"Aries", "Taurus", "Gemini", "Cancer", "Leo", "Virgo",
	"Libra", "Scorpio", "Sagittarius", "Capricorn", "Aquarius", "Pisces",
}

// Element is the classical triplicity of a sign.
type Element string

const (
	Fire  Element = "fire"
	Earth Element = "earth"
	Air   Element = "air"
	Water Element = "water"
)

// Modality is the quadruplicity of a sign.
type Modality string

const (
	Cardinal Modality = "cardinal"
	Fixed    Modality = "fixed"
	Mutable  Modality = "mutable"
)

var (
	elements   = [4]Element{Fire, Earth, Air, Water}
	modalities = [3]Modality{Cardinal, Fixed, Mutable}
)

func (s Sign) index() int {
	return ((int(s) % SignCount) + SignCount) % SignCount
}

// String returns the sign's English name.
func (s Sign) String() string { return signNames[s.index()] }

// Element reports the sign's element; signs cycle fire, earth, air, water.
func (s Sign) Element() Element { return elements[s.index()%4] }

// Modality reports the sign's modality; signs cycle cardinal, fixed, mutable.
func (s Sign) Modality() Modality { return modalities[s.index()%3] }

// StartLongitude is the tropical longitude of the sign's 0°.
func (s Sign) StartLongitude() float64 { return float64(s.index()) * SignSpan }

// Names returns the fixed ordered sign names.
func Names() []string {
	out := make([]string, SignCount)
	copy(out, signNames[:])
	return out
}

// Position is a longitude expressed as a sign and the exact degree within it.
type Position struct {
	Sign   Sign    `json:"sign"`
	Degree float64 `json:"degree"`
}

// Resolve maps any longitude onto its sign and degree-in-sign.
func Resolve(lon float64) Position {
	n := angle.Normalize(lon)
	sign := int(math.Floor(n/SignSpan)) % SignCount
	deg := math.Mod(n, SignSpan)
	return Position{Sign: Sign(sign), Degree: deg}
}

// WholeDegree truncates the degree so a position never displays in the next sign.
func (p Position) WholeDegree() int { return int(math.Floor(p.Degree)) }

// Minutes returns the truncated arc minutes past WholeDegree.
func (p Position) Minutes() int {
	return int(math.Floor((p.Degree - math.Floor(p.Degree)) * 60))
}

// Longitude reconstructs the tropical-style absolute longitude of the position.
func (p Position) Longitude() float64 { return p.Sign.StartLongitude() + p.Degree }

func (p Position) String() string {
	return fmt.Sprintf("%s %d°%02d'", p.Sign, p.WholeDegree(), p.Minutes())
}
