package chart

import (
	"time"

	"astroref/internal/civil"
	"astroref/internal/seasonal"
	"astroref/internal/sexagenary"
)

// SeasonReport places a civil date on the sun-sign and year-wheel calendars.
// Sign and Stage are absent when no range covers the date.
type SeasonReport struct {
	Date       string     `json:"date"`
	DayOfYear  int        `json:"day_of_year"`
	Sign       *string    `json:"sign,omitempty"`
	Element    string     `json:"element,omitempty"`
	Stage      *string    `json:"stage,omitempty"`
	YearPillar PillarView `json:"year_pillar"`
}

// Season evaluates the calendars at now. The caller supplies now; nothing
// here reads the wall clock.
func (e *Engine) Season(now time.Time) SeasonReport {
	report := SeasonReport{
		Date:       now.Format("2006-01-02"),
		DayOfYear:  seasonal.DayOf(now),
		YearPillar: viewPillar(sexagenary.YearPillar(now.Year())),
	}
	if sign, ok := seasonal.SignOn(now); ok {
		name := sign.String()
		report.Sign = &name
		report.Element = string(sign.Element())
	}
	if idx, ok := seasonal.StageOn(now, seasonal.Stages); ok {
		name := seasonal.Stages[idx].Name
		report.Stage = &name
	}
	return report
}

// PillarReport is the year, month and optional hour of a civil date.
type PillarReport struct {
	Year           int        `json:"year"`
	Month          int        `json:"month"`
	YearPillar     PillarView `json:"year_pillar"`
	MonthPillar    PillarView `json:"month_pillar"`
	MonthAnimal    string     `json:"month_animal"`
	HourAnimal     *string    `json:"hour_animal,omitempty"`
	MostCompatible []string   `json:"most_compatible"`
	ClashesWith    string     `json:"clashes_with"`
}

// Pillars computes the sexagenary pillars. A nil hour leaves HourAnimal absent;
// an hour outside 0..23 is an input error.
func Pillars(year, month int, hour *int) (PillarReport, error) {
	monthPillar, err := sexagenary.MonthPillar(year, month)
	if err != nil {
		return PillarReport{}, err
	}
	if hour != nil && (*hour < 0 || *hour > 23) {
		return PillarReport{}, invalidHour(*hour)
	}
	yearPillar := sexagenary.YearPillar(year)
	compat := sexagenary.MostCompatible(yearPillar.Animal)
	report := PillarReport{
		Year:           year,
		Month:          month,
		YearPillar:     viewPillar(yearPillar),
		MonthPillar:    viewPillar(monthPillar),
		MonthAnimal:    monthPillar.Animal.String(),
		MostCompatible: animalNames(compat[:]),
		ClashesWith:    sexagenary.ClashesWith(yearPillar.Animal).String(),
	}
	if a, ok := sexagenary.HourAnimal(hour); ok {
		name := a.String()
		report.HourAnimal = &name
	}
	return report, nil
}

// OffsetReport is the UTC offset of a registered city on a civil date.
type OffsetReport struct {
	City        string         `json:"city"`
	Date        string         `json:"date"`
	Kind        civil.RuleKind `json:"kind"`
	OffsetHours float64        `json:"offset_hours"`
	DST         bool           `json:"dst"`
}

// Offset resolves city through the registry and evaluates its rule.
func (e *Engine) Offset(city string, year, month, day int) (OffsetReport, error) {
	loc, err := e.registry.Lookup(city)
	if err != nil {
		return OffsetReport{}, err
	}
	offset, err := civil.ResolveOffset(loc.Rule, year, month, day)
	if err != nil {
		return OffsetReport{}, err
	}
	return OffsetReport{
		City:        loc.Label,
		Date:        time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC).Format("2006-01-02"),
		Kind:        loc.Rule.Kind,
		OffsetHours: offset,
		DST:         civil.IsDST(loc.Rule, year, month, day),
	}, nil
}
