package chart

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"astroref/internal/aspect"
	"astroref/internal/body"
	"astroref/internal/config"
	"astroref/internal/ephemeris"
	"astroref/internal/errs"
	"astroref/internal/frame"
)

type fixedProvider struct {
	lons map[body.ID]float64
	err  error
	at   time.Time
}

func (f *fixedProvider) Name() string { return "fixed" }

func (f *fixedProvider) Longitude(_ context.Context, id body.ID, at time.Time) (float64, error) {
	f.at = at
	if f.err != nil {
		return 0, f.err
	}
	lon, ok := f.lons[id]
	if !ok {
		return 0, errors.New("no reading")
	}
	return lon, nil
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func newTestEngine(p ephemeris.Provider, ids ...body.ID) *Engine {
	return NewEngine(nil, p, WithBodies(ids), WithModel(frame.Lahiri))
}

func TestValidateBirthData(t *testing.T) {
	base := BirthData{Year: 1990, Month: 6, Day: 15, City: "London"}
	if err := base.Validate(); err != nil {
		t.Fatalf("expected valid birth data, got %v", err)
	}
	bad := []BirthData{
		{Year: 1990, Month: 13, Day: 1, City: "London"},
		{Year: 1990, Month: 2, Day: 30, City: "London"},
		{Year: 0, Month: 1, Day: 1, City: "London"},
		{Year: 1990, Month: 6, Day: 15, Hour: intPtr(24), City: "London"},
		{Year: 1990, Month: 6, Day: 15, Minute: intPtr(5), City: "London"},
		{Year: 1990, Month: 6, Day: 15, Hour: intPtr(3), Minute: intPtr(60), City: "London"},
		{Year: 1990, Month: 6, Day: 15, Latitude: floatPtr(91), City: "London"},
		{Year: 1990, Month: 6, Day: 15, Longitude: floatPtr(-181), City: "London"},
		{Year: 1990, Month: 6, Day: 15, City: "  "},
	}
	for _, b := range bad {
		if err := b.Validate(); !errs.IsKind(err, errs.KindInvalidInput) {
			t.Fatalf("expected invalid input for %+v, got %v", b, err)
		}
	}
}

func TestNatalWithKnownTime(t *testing.T) {
	p := &fixedProvider{lons: map[body.ID]float64{body.Sun: 15, body.Moon: 105}}
	engine := newTestEngine(p, body.Sun, body.Moon)
	b := BirthData{Year: 1990, Month: 6, Day: 15, Hour: intPtr(14), Minute: intPtr(30), Latitude: floatPtr(40.7128), Longitude: floatPtr(-74.006), City: "new york"}

	report, err := engine.Natal(context.Background(), b)
	if err != nil {
		t.Fatalf("Natal error: %v", err)
	}
	wantInstant := time.Date(1990, time.June, 15, 18, 30, 0, 0, time.UTC)
	if !report.Instant.Equal(wantInstant) || !p.at.Equal(wantInstant) {
		t.Fatalf("expected instant %v, got %v (provider %v)", wantInstant, report.Instant, p.at)
	}
	if report.OffsetHours != -4 || !report.TimeKnown || report.Location.Label != "New York" {
		t.Fatalf("unexpected civil fields %+v", report)
	}
	if !report.PositionsAvailable || len(report.Positions) != 2 {
		t.Fatalf("expected two positions, got %+v", report.Positions)
	}
	sun := report.Positions[0]
	if sun.Body != body.Sun || sun.Tropical.Sign != "Aries" || sun.Tropical.Display != "Aries 15°00'" {
		t.Fatalf("unexpected sun %+v", sun)
	}
	if sun.Sidereal.Sign != "Pisces" {
		t.Fatalf("expected sidereal sun in Pisces, got %+v", sun.Sidereal)
	}
	if len(report.Aspects) != 1 || report.Aspects[0].Aspect != aspect.Square || report.Aspects[0].Orb != 0 {
		t.Fatalf("expected one exact square, got %+v", report.Aspects)
	}
	if report.Ascendant == nil {
		t.Fatalf("expected ascendant for known time at mid latitude")
	}
	if report.HourAnimal == nil || *report.HourAnimal != "Goat" {
		t.Fatalf("expected Goat hour, got %v", report.HourAnimal)
	}
	if report.YearPillar.Animal != "Horse" || report.YearPillar.Stem != "Geng" || report.ClashesWith != "Rat" {
		t.Fatalf("unexpected year pillar %+v clash %s", report.YearPillar, report.ClashesWith)
	}
	if len(report.MostCompatible) != 3 || report.MostCompatible[0] != "Tiger" {
		t.Fatalf("unexpected compatibility %v", report.MostCompatible)
	}
}

func TestNatalTakesMissingCoordinatesFromCity(t *testing.T) {
	engine := newTestEngine(&fixedProvider{lons: map[body.ID]float64{body.Sun: 40}}, body.Sun)
	b := BirthData{Year: 1990, Month: 5, Day: 10, Hour: intPtr(8), City: "Tokyo"}

	report, err := engine.Natal(context.Background(), b)
	if err != nil {
		t.Fatalf("Natal error: %v", err)
	}
	if report.Birth.Latitude == nil || *report.Birth.Latitude != 35.6762 ||
		report.Birth.Longitude == nil || *report.Birth.Longitude != 139.6503 {
		t.Fatalf("expected Tokyo coordinates, got %v %v", report.Birth.Latitude, report.Birth.Longitude)
	}
	want, ok := frame.Ascendant(report.Instant, 35.6762, 139.6503)
	if !ok || report.Ascendant == nil || math.Abs(report.Ascendant.Tropical.Longitude-want) > 1e-9 {
		t.Fatalf("expected ascendant for Tokyo %.4f, got %+v", want, report.Ascendant)
	}

	// An explicit coordinate wins over the city's.
	b.Latitude = floatPtr(-33.9)
	report, err = engine.Natal(context.Background(), b)
	if err != nil {
		t.Fatalf("Natal error: %v", err)
	}
	if *report.Birth.Latitude != -33.9 || *report.Birth.Longitude != 139.6503 {
		t.Fatalf("unexpected coordinates %v %v", *report.Birth.Latitude, *report.Birth.Longitude)
	}
}

func TestNatalUnknownTimeUsesNoonAndOmitsTimeOutputs(t *testing.T) {
	p := &fixedProvider{lons: map[body.ID]float64{body.Sun: 84}}
	engine := newTestEngine(p, body.Sun)
	b := BirthData{Year: 2001, Month: 1, Day: 10, Latitude: floatPtr(51.5), City: "London"}

	report, err := engine.Natal(context.Background(), b)
	if err != nil {
		t.Fatalf("Natal error: %v", err)
	}
	if report.TimeKnown || report.Ascendant != nil || report.HourAnimal != nil {
		t.Fatalf("unknown time must not produce time-dependent outputs: %+v", report)
	}
	if !report.Instant.Equal(time.Date(2001, time.January, 10, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected local noon, got %v", report.Instant)
	}
	// January belongs to the previous cycle year for the month pillar.
	if report.MonthPillar.Animal != "Ox" {
		t.Fatalf("expected Ox month, got %+v", report.MonthPillar)
	}
}

func TestNatalProviderFailureMarksPositionsAbsent(t *testing.T) {
	p := &fixedProvider{err: errors.New("upstream down")}
	engine := newTestEngine(p, body.Sun)
	report, err := engine.Natal(context.Background(), BirthData{Year: 1985, Month: 3, Day: 3, Hour: intPtr(8), City: "Tokyo"})
	if err != nil {
		t.Fatalf("provider failure must not fail the chart: %v", err)
	}
	if report.PositionsAvailable || report.Positions != nil || report.Aspects != nil || report.Ascendant != nil {
		t.Fatalf("expected absent positions, got %+v", report)
	}
	if report.YearPillar.Animal != "Ox" {
		t.Fatalf("civil outputs should still be present, got %+v", report.YearPillar)
	}

	_, err = engine.Transits(report, ephemeris.Snapshot{})
	if !errs.IsKind(err, errs.KindUnavailable) {
		t.Fatalf("expected unavailable transits, got %v", err)
	}
}

func TestNatalInputErrors(t *testing.T) {
	engine := newTestEngine(ephemeris.NewStub(ephemeris.Geocentric))
	_, err := engine.Natal(context.Background(), BirthData{Year: 1990, Month: 6, Day: 15, City: "Atlantis"})
	if !errs.IsKind(err, errs.KindUnknownLocation) {
		t.Fatalf("expected unknown location, got %v", err)
	}
	_, err = engine.Natal(context.Background(), BirthData{Year: 1990, Month: 6, Day: 31, City: "London"})
	if !errs.IsKind(err, errs.KindInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestNatalWithoutProvider(t *testing.T) {
	engine := NewEngine(nil, nil)
	report, err := engine.Natal(context.Background(), BirthData{Year: 1990, Month: 6, Day: 15, City: "London"})
	if err != nil || report.PositionsAvailable {
		t.Fatalf("expected absent positions without provider, got %+v err=%v", report, err)
	}
}

func TestTransitSquareEndToEnd(t *testing.T) {
	p := &fixedProvider{lons: map[body.ID]float64{body.Sun: 15}}
	engine := newTestEngine(p, body.Sun)
	natal, err := engine.Natal(context.Background(), BirthData{Year: 1990, Month: 4, Day: 5, Hour: intPtr(9), City: "Phoenix"})
	if err != nil {
		t.Fatalf("Natal error: %v", err)
	}
	snap := ephemeris.Snapshot{
		ID:         "snap",
		Provider:   "fixed",
		TakenAt:    time.Date(2024, time.June, 25, 0, 0, 0, 0, time.UTC),
		Longitudes: map[body.ID]float64{body.Sun: 105},
	}
	report, err := engine.Transits(natal, snap)
	if err != nil {
		t.Fatalf("Transits error: %v", err)
	}
	if len(report.Aspects) != 1 {
		t.Fatalf("expected exactly one match, got %+v", report.Aspects)
	}
	m := report.Aspects[0]
	if m.Aspect != aspect.Square || m.BodyA != body.Sun || m.BodyB != body.Sun || m.Orb != 0 || m.Separation != 90 {
		t.Fatalf("unexpected match %+v", m)
	}
	if report.Sky.Positions[0].Tropical.Display != "Cancer 15°00'" {
		t.Fatalf("unexpected transit display %+v", report.Sky.Positions[0])
	}
}

func TestCompareIsOrderedBySignificance(t *testing.T) {
	natal := []body.Placement{{ID: body.Sun, Longitude: 0}, {ID: body.Moon, Longitude: 100}}
	transit := []body.Placement{{ID: body.Mars, Longitude: 62}, {ID: body.Venus, Longitude: 181}}
	matches := Compare(natal, transit, aspect.DefaultDefinitions())
	if len(matches) < 2 {
		t.Fatalf("expected at least two matches, got %+v", matches)
	}
	if matches[0].Aspect != aspect.Opposition {
		t.Fatalf("expected opposition first, got %+v", matches)
	}
}

func TestSeason(t *testing.T) {
	engine := NewEngine(nil, nil)
	report := engine.Season(time.Date(2024, time.December, 25, 9, 0, 0, 0, time.UTC))
	if report.DayOfYear != 359 || report.Date != "2024-12-25" {
		t.Fatalf("unexpected day %+v", report)
	}
	if report.Sign == nil || *report.Sign != "Capricorn" || report.Element != "earth" {
		t.Fatalf("expected Capricorn, got %+v", report)
	}
	if report.Stage == nil || *report.Stage != "Yule" {
		t.Fatalf("expected Yule, got %+v", report.Stage)
	}
	if report.YearPillar.Animal != "Dragon" {
		t.Fatalf("expected Dragon year, got %+v", report.YearPillar)
	}
}

func TestPillars(t *testing.T) {
	report, err := Pillars(2024, 2, intPtr(23))
	if err != nil {
		t.Fatalf("Pillars error: %v", err)
	}
	if report.YearPillar.Stem != "Jia" || report.YearPillar.Branch != "Chen" {
		t.Fatalf("unexpected year pillar %+v", report.YearPillar)
	}
	if report.MonthPillar.Stem != "Bing" || report.MonthAnimal != "Tiger" {
		t.Fatalf("unexpected month pillar %+v", report.MonthPillar)
	}
	if report.HourAnimal == nil || *report.HourAnimal != "Rat" {
		t.Fatalf("expected Rat hour, got %v", report.HourAnimal)
	}

	report, err = Pillars(2024, 2, nil)
	if err != nil || report.HourAnimal != nil {
		t.Fatalf("nil hour should be absent, got %+v err=%v", report, err)
	}
	if _, err := Pillars(2024, 0, nil); !errs.IsKind(err, errs.KindInvalidInput) {
		t.Fatalf("expected invalid month, got %v", err)
	}
	if _, err := Pillars(2024, 5, intPtr(24)); !errs.IsKind(err, errs.KindInvalidInput) {
		t.Fatalf("expected invalid hour, got %v", err)
	}
}

func TestOffset(t *testing.T) {
	engine := NewEngine(nil, nil)
	cases := []struct {
		city       string
		month, day int
		want       float64
		dst        bool
	}{
		{"new york", 7, 4, -4, true},
		{"New York", 1, 15, -5, false},
		{"Phoenix", 7, 4, -7, false},
		{"Sydney", 1, 15, 11, true},
	}
	for _, c := range cases {
		report, err := engine.Offset(c.city, 2024, c.month, c.day)
		if err != nil {
			t.Fatalf("Offset(%s) error: %v", c.city, err)
		}
		if math.Abs(report.OffsetHours-c.want) > 1e-9 || report.DST != c.dst {
			t.Fatalf("Offset(%s, %d-%d) = %+v, want %v dst=%v", c.city, c.month, c.day, report, c.want, c.dst)
		}
	}
	if _, err := engine.Offset("Gotham", 2024, 1, 1); !errs.IsKind(err, errs.KindUnknownLocation) {
		t.Fatalf("expected unknown location, got %v", err)
	}
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Ephemeris.Bodies = []string{"sun", "mars"}
	cfg.Frame.Ayanamsa = "raman"
	cfg.LocationsPath = "../civil/testdata/locations.yaml"

	engine, provider, err := FromConfig(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("FromConfig error: %v", err)
	}
	if provider == nil || provider.Name() != ephemeris.ProviderStub {
		t.Fatalf("expected stub provider, got %v", provider)
	}
	if engine.Model().Name != frame.Raman.Name || len(engine.Bodies()) != 2 {
		t.Fatalf("unexpected engine model=%s bodies=%v", engine.Model().Name, engine.Bodies())
	}
	if _, err := engine.Registry().Lookup("Reykjavik"); err != nil {
		t.Fatalf("expected overlay location: %v", err)
	}

	cfg.Ephemeris.Provider = "stream"
	_, provider, err = FromConfig(cfg, zerolog.Nop())
	if err != nil || provider != nil {
		t.Fatalf("stream config should have no pull provider, got %v err=%v", provider, err)
	}

	cfg.Ephemeris.Provider = "stub"
	cfg.Ephemeris.Bodies = []string{"vulcan"}
	if _, _, err := FromConfig(cfg, zerolog.Nop()); !errs.IsKind(err, errs.KindInvalidInput) {
		t.Fatalf("expected invalid body error, got %v", err)
	}
}
