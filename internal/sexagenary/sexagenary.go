// Package sexagenary computes Chinese sexagenary pillars from civil dates.
//
// Stems, branches and animals are flat tables indexed by small integers.
// Month pillars follow Gregorian months shifted so the Tiger month falls on
// February; this approximates the solar terms rather than computing them.
package sexagenary

import (
	"astroref/internal/errs"
)

// Animal indexes the twelve earthly-branch animals starting at Rat.
type Animal int

const (
	Rat Animal = iota
	Ox
	Tiger
	Rabbit
	Dragon
	Snake
	Horse
	Goat
	Monkey
	Rooster
	Dog
	Pig
)

var animalNames = [12]string{
	"Rat", "Ox", "Tiger", "Rabbit", "Dragon", "Snake",
	"Horse", "Goat", "Monkey", "Rooster", "Dog", "Pig",
}

func (a Animal) String() string { return animalNames[mod(int(a), 12)] }

// Element is one of the five phases.
type Element string

const (
	Wood  Element = "wood"
	Fire  Element = "fire"
	Earth Element = "earth"
	Metal Element = "metal"
	Water Element = "water"
)

// Polarity is the yin/yang of a stem.
type Polarity string

const (
	Yang Polarity = "yang"
	Yin  Polarity = "yin"
)

type stem struct {
	name     string
	element  Element
	polarity Polarity
}

var stems = [10]stem{
	{"Jia", Wood, Yang},
	{"Yi", Wood, Yin},
	{"Bing", Fire, Yang},
	{"Ding", Fire, Yin},
	{"Wu", Earth, Yang},
	{"Ji", Earth, Yin},
	{"Geng", Metal, Yang},
	{"Xin", Metal, Yin},
	{"Ren", Water, Yang},
	{"Gui", Water, Yin},
}

var branchNames = [12]string{
	"Zi", "Chou", "Yin", "Mao", "Chen", "Si",
	"Wu", "Wei", "Shen", "You", "Xu", "Hai",
}

// Pillar is a stem/branch pair with its derived attributes.
type Pillar struct {
	Stem     int      `json:"stem"`
	Branch   int      `json:"branch"`
	Element  Element  `json:"element"`
	Polarity Polarity `json:"polarity"`
	Animal   Animal   `json:"animal"`
}

func newPillar(stemIdx, branchIdx int) Pillar {
	s := stems[stemIdx]
	return Pillar{
		Stem:     stemIdx,
		Branch:   branchIdx,
		Element:  s.element,
		Polarity: s.polarity,
		Animal:   Animal(branchIdx),
	}
}

// StemName returns the romanized heavenly stem.
func (p Pillar) StemName() string { return stems[p.Stem].name }

// BranchName returns the romanized earthly branch.
func (p Pillar) BranchName() string { return branchNames[p.Branch] }

// CycleIndex is the pillar's position 0..59 within the sexagenary cycle.
func (p Pillar) CycleIndex() int {
	// the unique k in [0,60) with k%10 == stem and k%12 == branch
	return mod(6*p.Stem-5*p.Branch, 60)
}

func (p Pillar) String() string {
	return p.StemName() + " " + p.BranchName() + " (" + string(p.Polarity) + " " + string(p.Element) + " " + p.Animal.String() + ")"
}

// YearPillar returns the pillar of a Gregorian year. 1984 is Jia Zi.
func YearPillar(year int) Pillar {
	return newPillar(mod(year-4, 10), mod(year-4, 12))
}

// MonthAnimal returns the branch animal of the solar month roughly covering a
// Gregorian month: February is Tiger, January is Ox, December is Rat.
func MonthAnimal(month int) (Animal, error) {
	if month < 1 || month > 12 {
		return 0, errs.Invalid("sexagenary.month_animal", "month", "month %d out of range 1..12", month)
	}
	return Animal(month % 12), nil
}

// MonthPillar returns the month pillar by the five-tigers rule. January is
// the twelfth month of the cycle year that began the previous February, so
// its stem derives from year-1.
func MonthPillar(year, month int) (Pillar, error) {
	animal, err := MonthAnimal(month)
	if err != nil {
		return Pillar{}, err
	}
	cycleYear := year
	if month == 1 {
		cycleYear--
	}
	ordinal := mod(month-2, 12) // Tiger month is ordinal 0
	firstStem := mod(YearPillar(cycleYear).Stem%5*2+2, 10)
	return newPillar(mod(firstStem+ordinal, 10), int(animal)), nil
}

// HourAnimal returns the shichen animal for an hour of day 0..23. A nil hour
// means the birth time is unknown and yields ok == false, never a guess.
func HourAnimal(hour *int) (Animal, bool) {
	if hour == nil || *hour < 0 || *hour > 23 {
		return 0, false
	}
	return Animal(((*hour + 1) % 24) / 2), true
}

var mostCompatible = [12][3]Animal{
	Rat:     {Dragon, Monkey, Ox},
	Ox:      {Snake, Rooster, Rat},
	Tiger:   {Horse, Dog, Pig},
	Rabbit:  {Goat, Pig, Dog},
	Dragon:  {Rat, Monkey, Rooster},
	Snake:   {Ox, Rooster, Monkey},
	Horse:   {Tiger, Dog, Goat},
	Goat:    {Rabbit, Pig, Horse},
	Monkey:  {Rat, Dragon, Snake},
	Rooster: {Ox, Snake, Dragon},
	Dog:     {Tiger, Horse, Rabbit},
	Pig:     {Rabbit, Goat, Tiger},
}

var clashes = [12]Animal{
	Rat:     Horse,
	Ox:      Goat,
	Tiger:   Monkey,
	Rabbit:  Rooster,
	Dragon:  Dog,
	Snake:   Pig,
	Horse:   Rat,
	Goat:    Ox,
	Monkey:  Tiger,
	Rooster: Rabbit,
	Dog:     Dragon,
	Pig:     Snake,
}

// MostCompatible returns the two trine partners followed by the secret friend.
func MostCompatible(a Animal) [3]Animal { return mostCompatible[mod(int(a), 12)] }

// ClashesWith returns the directly opposed animal.
func ClashesWith(a Animal) Animal { return clashes[mod(int(a), 12)] }

func mod(a, n int) int { return ((a % n) + n) % n }
