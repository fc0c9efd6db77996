package chart

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"astroref/internal/aspect"
	"astroref/internal/body"
	"astroref/internal/civil"
	"astroref/internal/ephemeris"
	"astroref/internal/errs"
	"astroref/internal/frame"
	"astroref/internal/metrics"
	"astroref/internal/sexagenary"
)

// Engine assembles reports from the pure engine packages. It holds no
// mutable state of its own and is safe for concurrent use.
type Engine struct {
	model    frame.Model
	defs     []aspect.Definition
	registry *civil.Registry
	provider ephemeris.Provider
	bodies   []body.ID
	log      zerolog.Logger
}

// Option configures Engine construction parameters.
type Option func(*Engine)

// WithModel selects the ayanamsa model for sidereal positions.
func WithModel(m frame.Model) Option {
	return func(e *Engine) { e.model = m }
}

// WithDefinitions replaces the aspect definitions, kept in the given priority order.
func WithDefinitions(defs []aspect.Definition) Option {
	return func(e *Engine) {
		if len(defs) > 0 {
			e.defs = append([]aspect.Definition(nil), defs...)
		}
	}
}

// WithBodies limits the bodies queried for natal charts.
func WithBodies(ids []body.ID) Option {
	return func(e *Engine) {
		if len(ids) > 0 {
			e.bodies = append([]body.ID(nil), ids...)
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// NewEngine builds an engine over the location registry and ephemeris provider.
// A nil provider leaves natal positions permanently unavailable.
func NewEngine(registry *civil.Registry, provider ephemeris.Provider, opts ...Option) *Engine {
	if registry == nil {
		registry = civil.NewRegistry()
	}
	e := &Engine{
		model:    frame.Default,
		defs:     aspect.DefaultDefinitions(),
		registry: registry,
		provider: provider,
		bodies:   append([]body.ID(nil), body.Classical...),
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Model returns the configured ayanamsa model.
func (e *Engine) Model() frame.Model { return e.model }

// Registry exposes the location registry.
func (e *Engine) Registry() *civil.Registry { return e.registry }

// NatalReport is a birth chart. When PositionsAvailable is false the
// positions, aspects and ascendant are absent rather than zero.
type NatalReport struct {
	Birth              BirthData        `json:"birth"`
	Location           civil.Location   `json:"location"`
	Instant            time.Time        `json:"instant"`
	OffsetHours        float64          `json:"offset_hours"`
	TimeKnown          bool             `json:"time_known"`
	Ayanamsa           string           `json:"ayanamsa"`
	AyanamsaDegrees    float64          `json:"ayanamsa_degrees"`
	PositionsAvailable bool             `json:"positions_available"`
	Positions          []BodyPosition   `json:"positions,omitempty"`
	Aspects            []aspect.Match   `json:"aspects,omitempty"`
	Ascendant          *BodyPosition    `json:"ascendant,omitempty"`
	YearPillar         PillarView       `json:"year_pillar"`
	MonthPillar        PillarView       `json:"month_pillar"`
	HourAnimal         *string          `json:"hour_animal,omitempty"`
	MostCompatible     []string         `json:"most_compatible"`
	ClashesWith        string           `json:"clashes_with"`
	placements         []body.Placement // tropical, for transit comparison
}

// Placements returns the natal tropical longitudes.
func (r NatalReport) Placements() []body.Placement {
	return append([]body.Placement(nil), r.placements...)
}

// Natal validates the birth data and assembles the chart. Input errors are
// returned; an unavailable ephemeris only marks positions absent.
func (e *Engine) Natal(ctx context.Context, b BirthData) (NatalReport, error) {
	if err := b.Validate(); err != nil {
		return NatalReport{}, err
	}
	loc, err := e.registry.Lookup(b.City)
	if err != nil {
		return NatalReport{}, err
	}
	b = b.locate(loc)
	offset, err := civil.ResolveOffset(loc.Rule, b.Year, b.Month, b.Day)
	if err != nil {
		return NatalReport{}, err
	}
	hour, minute := b.clock()
	instant, err := civil.ToUTC(loc.Rule, b.Year, b.Month, b.Day, hour, minute)
	if err != nil {
		return NatalReport{}, err
	}

	report := NatalReport{
		Birth:           b,
		Location:        loc,
		Instant:         instant,
		OffsetHours:     offset,
		TimeKnown:       b.TimeKnown(),
		Ayanamsa:        e.model.Name,
		AyanamsaDegrees: frame.AyanamsaAt(instant, e.model),
	}
	e.fillPillars(&report, b)

	placements, err := e.fetch(ctx, instant)
	if err != nil {
		e.log.Warn().Err(err).Str("city", loc.Label).Msg("natal positions unavailable")
		return report, nil
	}
	toSidereal := func(lon float64) float64 { return frame.ToSidereal(lon, instant, e.model) }
	report.PositionsAvailable = true
	report.placements = placements
	report.Positions = positions(placements, toSidereal)
	report.Aspects = aspect.FindWithin(placements, e.defs)
	aspect.SortBySignificance(report.Aspects)

	if b.TimeKnown() {
		if asc, ok := frame.Ascendant(instant, *b.Latitude, *b.Longitude); ok {
			report.Ascendant = &BodyPosition{
				Body:     "ascendant",
				Tropical: place(asc),
				Sidereal: place(toSidereal(asc)),
			}
		}
	}
	return report, nil
}

func (e *Engine) fillPillars(r *NatalReport, b BirthData) {
	year := sexagenary.YearPillar(b.Year)
	r.YearPillar = viewPillar(year)
	if month, err := sexagenary.MonthPillar(b.Year, b.Month); err == nil {
		r.MonthPillar = viewPillar(month)
	}
	if a, ok := sexagenary.HourAnimal(b.Hour); ok {
		name := a.String()
		r.HourAnimal = &name
	}
	compat := sexagenary.MostCompatible(year.Animal)
	r.MostCompatible = animalNames(compat[:])
	r.ClashesWith = sexagenary.ClashesWith(year.Animal).String()
}

func (e *Engine) fetch(ctx context.Context, at time.Time) ([]body.Placement, error) {
	if e.provider == nil {
		return nil, errs.ErrUnavailable
	}
	snap, err := ephemeris.Fetch(ctx, e.provider, e.bodies, at)
	if err != nil {
		return nil, err
	}
	return snap.Placements(), nil
}

// SkyReport is the current sky from a cached snapshot.
type SkyReport struct {
	SnapshotID string         `json:"snapshot_id"`
	Provider   string         `json:"provider"`
	TakenAt    time.Time      `json:"taken_at"`
	Ayanamsa   string         `json:"ayanamsa"`
	Positions  []BodyPosition `json:"positions"`
	Aspects    []aspect.Match `json:"aspects"`
}

// Sky resolves a snapshot into positions and the aspects among its bodies.
func (e *Engine) Sky(snap ephemeris.Snapshot) SkyReport {
	placements := snap.Placements()
	toSidereal := func(lon float64) float64 { return frame.ToSidereal(lon, snap.TakenAt, e.model) }
	matches := aspect.FindWithin(placements, e.defs)
	aspect.SortBySignificance(matches)
	return SkyReport{
		SnapshotID: snap.ID,
		Provider:   snap.Provider,
		TakenAt:    snap.TakenAt,
		Ayanamsa:   e.model.Name,
		Positions:  positions(placements, toSidereal),
		Aspects:    matches,
	}
}

// TransitReport compares a natal chart with a sky snapshot. BodyA is always
// the natal body and BodyB the transiting one.
type TransitReport struct {
	Sky     SkyReport      `json:"sky"`
	Aspects []aspect.Match `json:"aspects"`
}

// Transits matches natal placements against snap. Natal charts without
// positions cannot be compared and yield an unavailable error.
func (e *Engine) Transits(natal NatalReport, snap ephemeris.Snapshot) (TransitReport, error) {
	if !natal.PositionsAvailable {
		return TransitReport{}, errs.Unavailable("chart.transits", errs.ErrUnavailable)
	}
	matches := Compare(natal.placements, snap.Placements(), e.defs)
	for _, m := range matches {
		metrics.AspectMatchesTotal.WithLabelValues(m.Aspect).Inc()
	}
	return TransitReport{Sky: e.Sky(snap), Aspects: matches}, nil
}

// Compare finds cross aspects between natal and transit placements, ordered
// by significance. The two sets are always treated as separate charts.
func Compare(natal, transit []body.Placement, defs []aspect.Definition) []aspect.Match {
	matches := aspect.Find(natal, transit, defs)
	aspect.SortBySignificance(matches)
	return matches
}
