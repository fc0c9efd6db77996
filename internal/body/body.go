// Package body standardizes payloads shared between the ephemeris layer and the engine.
package body

import (
	"sort"
	"strings"
	"time"
)

// ID identifies a celestial body.
type ID string

const (
	Sun     ID = "sun"
	Moon    ID = "moon"
	Mercury ID = "mercury"
	Venus   ID = "venus"
	Mars    ID = "mars"
	Jupiter ID = "jupiter"
	Saturn  ID = "saturn"
	Uranus  ID = "uranus"
	Neptune ID = "neptune"
	Pluto   ID = "pluto"
)

// Classical lists bodies in traditional order.
var Classical = []ID{Sun, Moon, Mercury, Venus, Mars, Jupiter, Saturn, Uranus, Neptune, Pluto}

var rank = func() map[ID]int {
	m := make(map[ID]int, len(Classical))
	for i, id := range Classical {
		m[id] = i
	}
	return m
}()

// Parse normalizes a user supplied body name. Unknown names are returned as-is
// and reported with ok == false.
func Parse(name string) (ID, bool) {
	id := ID(strings.ToLower(strings.TrimSpace(name)))
	_, ok := rank[id]
	return id, ok
}

// Placement is a body at an ecliptic longitude.
type Placement struct {
	ID        ID      `json:"id"`
	Longitude float64 `json:"longitude"`
}

// Reading is one longitude observation delivered by an ephemeris provider.
type Reading struct {
	Body      ID        `json:"body"`
	Longitude float64   `json:"longitude"`
	Ts        time.Time `json:"ts"`
}

// Sort orders placements by traditional body order, unknown bodies last by name.
func Sort(ps []Placement) {
	sort.SliceStable(ps, func(i, j int) bool {
		ri, iok := rank[ps[i].ID]
		rj, jok := rank[ps[j].ID]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		default:
			return ps[i].ID < ps[j].ID
		}
	})
}

// FromMap flattens a longitude map into sorted placements.
func FromMap(m map[ID]float64) []Placement {
	out := make([]Placement, 0, len(m))
	for id, lon := range m {
		out = append(out, Placement{ID: id, Longitude: lon})
	}
	Sort(out)
	return out
}
