package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"astroref/internal/aspect"
	"astroref/internal/chart"
)

type printer struct {
	w io.Writer
}

func (p *printer) f(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}

func render(w io.Writer, format string, payload any, pretty func(*printer)) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	}
	pretty(&printer{w: w})
	return nil
}

func (p *printer) natal(r chart.NatalReport) {
	p.f("Natal chart: %s, %04d-%02d-%02d\n", r.Location.Label, r.Birth.Year, r.Birth.Month, r.Birth.Day)
	p.f("Instant: %s (UTC%+.1f)\n", r.Instant.Format(time.RFC3339), r.OffsetHours)
	if !r.TimeKnown {
		p.f("Birth time unknown: charted at local noon, no ascendant or hour animal\n")
	}
	p.f("Ayanamsa: %s %.4f°\n\n", r.Ayanamsa, r.AyanamsaDegrees)

	if !r.PositionsAvailable {
		p.f("Positions: unavailable\n")
	} else {
		p.positions(r.Positions)
		if r.Ascendant != nil {
			p.f("  %-10s %-18s %s\n", "ascendant", r.Ascendant.Tropical.Display, r.Ascendant.Sidereal.Display)
		}
		p.f("\n")
		p.aspects("Aspects", r.Aspects)
	}

	p.f("\nYear pillar:  %s\n", pillarLine(r.YearPillar))
	p.f("Month pillar: %s\n", pillarLine(r.MonthPillar))
	if r.HourAnimal != nil {
		p.f("Hour animal:  %s\n", *r.HourAnimal)
	}
	p.f("Compatible: %s; clashes with %s\n", strings.Join(r.MostCompatible, ", "), r.ClashesWith)
}

func (p *printer) sky(r chart.SkyReport) {
	p.f("Sky at %s (%s)\n\n", r.TakenAt.Format(time.RFC3339), r.Provider)
	p.positions(r.Positions)
	p.f("\n")
	p.aspects("Aspects", r.Aspects)
}

func (p *printer) transits(r chart.TransitReport) {
	p.sky(r.Sky)
	p.f("\n")
	p.aspects("Transits to natal", r.Aspects)
}

func (p *printer) positions(ps []chart.BodyPosition) {
	p.f("  %-10s %-18s %s\n", "body", "tropical", "sidereal")
	for _, bp := range ps {
		p.f("  %-10s %-18s %s\n", bp.Body, bp.Tropical.Display, bp.Sidereal.Display)
	}
}

func (p *printer) aspects(title string, ms []aspect.Match) {
	if len(ms) == 0 {
		p.f("%s: none\n", title)
		return
	}
	p.f("%s:\n", title)
	for _, m := range ms {
		p.f("  %-8s %-11s %-8s orb %.2f°\n", m.BodyA, m.Aspect, m.BodyB, m.Orb)
	}
}

func (p *printer) season(r chart.SeasonReport) {
	p.f("Date: %s (day %d)\n", r.Date, r.DayOfYear)
	if r.Sign != nil {
		p.f("Sun sign season: %s (%s)\n", *r.Sign, r.Element)
	} else {
		p.f("Sun sign season: none\n")
	}
	if r.Stage != nil {
		p.f("Year wheel: %s\n", *r.Stage)
	}
	p.f("Year pillar: %s\n", pillarLine(r.YearPillar))
}

func (p *printer) pillars(r chart.PillarReport) {
	p.f("Year pillar:  %s\n", pillarLine(r.YearPillar))
	p.f("Month pillar: %s\n", pillarLine(r.MonthPillar))
	if r.HourAnimal != nil {
		p.f("Hour animal:  %s\n", *r.HourAnimal)
	} else {
		p.f("Hour animal:  unknown\n")
	}
	p.f("Compatible: %s; clashes with %s\n", strings.Join(r.MostCompatible, ", "), r.ClashesWith)
}

func (p *printer) offset(r chart.OffsetReport) {
	dst := "standard"
	if r.DST {
		dst = "daylight"
	}
	p.f("%s on %s: UTC%+g (%s, %s rule)\n", r.City, r.Date, r.OffsetHours, dst, r.Kind)
}

func pillarLine(v chart.PillarView) string {
	return fmt.Sprintf("%s %s (%s %s %s)", v.Stem, v.Branch, v.Polarity, v.Element, v.Animal)
}
