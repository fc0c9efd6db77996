// Package aspect detects angular aspects between two sets of placed bodies.
//
// Each pair contributes at most one match: definitions are scanned in the
// order given and the first one whose orb admits the separation wins, even
// when a later definition would be closer. Displays downstream rely on which
// single aspect a pair reports, so the scan order is part of the contract.
package aspect

import (
	"math"
	"sort"

	"astroref/internal/angle"
	"astroref/internal/body"
)

// Definition is a named target angle with its orb tolerance.
type Definition struct {
	Name  string  `json:"name" yaml:"name"`
	Angle float64 `json:"angle" yaml:"angle"`
	Orb   float64 `json:"orb" yaml:"orb"`
}

const (
	Conjunction = "conjunction"
	Sextile     = "sextile"
	Square      = "square"
	Trine       = "trine"
	Opposition  = "opposition"
)

// DefaultDefinitions returns the major aspects in priority order.
func DefaultDefinitions() []Definition {
	return []Definition{
		{Name: Conjunction, Angle: 0, Orb: 8},
		{Name: Sextile, Angle: 60, Orb: 6},
		{Name: Square, Angle: 90, Orb: 8},
		{Name: Trine, Angle: 120, Orb: 8},
		{Name: Opposition, Angle: 180, Orb: 8},
	}
}

// Match is one detected aspect between two bodies.
type Match struct {
	BodyA      body.ID `json:"body_a"`
	BodyB      body.ID `json:"body_b"`
	Aspect     string  `json:"aspect"`
	Separation float64 `json:"separation"`
	Orb        float64 `json:"orb"`
}

// Find compares every body of a against every body of b. When a and b share
// the same backing array a body is never compared with itself. Copies are
// separate charts: the same body in both is a real pair (a transit Sun on the
// natal Sun). Use FindWithin for aspects inside one chart.
func Find(a, b []body.Placement, defs []Definition) []Match {
	self := sameSet(a, b)
	var out []Match
	for i, pa := range a {
		for j, pb := range b {
			if self && i == j {
				continue
			}
			if m, ok := match(pa, pb, defs); ok {
				out = append(out, m)
			}
		}
	}
	return out
}

// FindWithin reports aspects inside one set, each unordered pair once.
func FindWithin(set []body.Placement, defs []Definition) []Match {
	var out []Match
	for i := range set {
		for j := i + 1; j < len(set); j++ {
			if m, ok := match(set[i], set[j], defs); ok {
				out = append(out, m)
			}
		}
	}
	return out
}

func match(a, b body.Placement, defs []Definition) (Match, bool) {
	sep := angle.Separation(a.Longitude, b.Longitude)
	for _, d := range defs {
		dev := math.Abs(sep - d.Angle)
		if dev <= d.Orb {
			return Match{BodyA: a.ID, BodyB: b.ID, Aspect: d.Name, Separation: sep, Orb: dev}, true
		}
	}
	return Match{}, false
}

func sameSet(a, b []body.Placement) bool {
	return len(a) > 0 && len(a) == len(b) && &a[0] == &b[0]
}

var significance = map[string]int{
	Conjunction: 0,
	Opposition:  1,
	Square:      2,
	Trine:       3,
	Sextile:     4,
}

// SortByOrb orders matches tightest first.
func SortByOrb(ms []Match) {
	sort.SliceStable(ms, func(i, j int) bool { return ms[i].Orb < ms[j].Orb })
}

// SortBySignificance orders matches by a fixed aspect ranking, then by orb.
// Aspects outside the major five rank after them.
func SortBySignificance(ms []Match) {
	sort.SliceStable(ms, func(i, j int) bool {
		ri, rj := rankOf(ms[i].Aspect), rankOf(ms[j].Aspect)
		if ri != rj {
			return ri < rj
		}
		return ms[i].Orb < ms[j].Orb
	})
}

func rankOf(name string) int {
	if r, ok := significance[name]; ok {
		return r
	}
	return len(significance)
}
