package chart

import (
	"astroref/internal/angle"
	"astroref/internal/body"
	"astroref/internal/sexagenary"
	"astroref/internal/zodiac"
)

// Placement is a longitude with its resolved sign, ready for display.
type Placement struct {
	Longitude float64 `json:"longitude"`
	Sign      string  `json:"sign"`
	Degree    float64 `json:"degree"`
	Display   string  `json:"display"`
}

func place(lon float64) Placement {
	n := angle.Normalize(lon)
	pos := zodiac.Resolve(n)
	return Placement{
		Longitude: n,
		Sign:      pos.Sign.String(),
		Degree:    pos.Degree,
		Display:   pos.String(),
	}
}

// BodyPosition is one body in both frames.
type BodyPosition struct {
	Body     body.ID   `json:"body"`
	Tropical Placement `json:"tropical"`
	Sidereal Placement `json:"sidereal"`
}

func positions(ps []body.Placement, toSidereal func(float64) float64) []BodyPosition {
	out := make([]BodyPosition, 0, len(ps))
	for _, p := range ps {
		out = append(out, BodyPosition{
			Body:     p.ID,
			Tropical: place(p.Longitude),
			Sidereal: place(toSidereal(p.Longitude)),
		})
	}
	return out
}

// PillarView is a sexagenary pillar with its names spelled out.
type PillarView struct {
	Stem       string `json:"stem"`
	Branch     string `json:"branch"`
	Element    string `json:"element"`
	Polarity   string `json:"polarity"`
	Animal     string `json:"animal"`
	CycleIndex int    `json:"cycle_index"`
}

func viewPillar(p sexagenary.Pillar) PillarView {
	return PillarView{
		Stem:       p.StemName(),
		Branch:     p.BranchName(),
		Element:    string(p.Element),
		Polarity:   string(p.Polarity),
		Animal:     p.Animal.String(),
		CycleIndex: p.CycleIndex(),
	}
}

func animalNames(as []sexagenary.Animal) []string {
	out := make([]string, len(as))
	for i, a := range as {
		out[i] = a.String()
	}
	return out
}
