package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"astroref/internal/chart"
	"astroref/internal/ephemeris"
	"astroref/internal/errs"
)

type birthFlags struct {
	date  string
	clock string
	city  string
	lat   float64
	lon   float64
}

func (f *birthFlags) bind(c *cobra.Command) {
	c.Flags().StringVarP(&f.date, "date", "d", "", "Birth date YYYY-MM-DD (required)")
	c.Flags().StringVarP(&f.clock, "time", "t", "", "Local birth time HH:MM (optional; omit when unknown)")
	c.Flags().StringVar(&f.city, "city", "", "City label from the location registry (required)")
	c.Flags().Float64Var(&f.lat, "lat", 0, "Latitude in degrees (defaults to the city's)")
	c.Flags().Float64Var(&f.lon, "lon", 0, "Longitude in degrees east (defaults to the city's)")
	_ = c.MarkFlagRequired("date")
	_ = c.MarkFlagRequired("city")
}

func (f *birthFlags) birth(c *cobra.Command) (chart.BirthData, error) {
	d, err := parseDate(f.date)
	if err != nil {
		return chart.BirthData{}, err
	}
	b := chart.BirthData{
		Year:  d.Year(),
		Month: int(d.Month()),
		Day:   d.Day(),
		City:  f.city,
	}
	if c.Flags().Changed("lat") {
		lat := f.lat
		b.Latitude = &lat
	}
	if c.Flags().Changed("lon") {
		lon := f.lon
		b.Longitude = &lon
	}
	if f.clock != "" {
		tm, err := time.Parse("15:04", strings.TrimSpace(f.clock))
		if err != nil {
			return chart.BirthData{}, errs.Invalid("cli.birth", "time", "time %q must be HH:MM", f.clock)
		}
		hour, minute := tm.Hour(), tm.Minute()
		b.Hour, b.Minute = &hour, &minute
	}
	return b, nil
}

func natalCmd(a *app) *cobra.Command {
	var bf birthFlags

	c := &cobra.Command{
		Use:   "natal",
		Short: "Compute a natal chart from civil birth data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := bf.birth(cmd)
			if err != nil {
				return err
			}
			report, err := a.engine.Natal(cmd.Context(), b)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), a.format, report, func(p *printer) { p.natal(report) })
		},
	}
	bf.bind(c)
	return c
}

func transitsCmd(a *app) *cobra.Command {
	var bf birthFlags
	var at string

	c := &cobra.Command{
		Use:   "transits",
		Short: "Compare a natal chart with the sky at an instant",
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := bf.birth(cmd)
			if err != nil {
				return err
			}
			natal, err := a.engine.Natal(cmd.Context(), b)
			if err != nil {
				return err
			}
			snap, err := a.fetchSky(cmd, at)
			if err != nil {
				return err
			}
			report, err := a.engine.Transits(natal, snap)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), a.format, report, func(p *printer) { p.transits(report) })
		},
	}
	bf.bind(c)
	c.Flags().StringVar(&at, "at", "", "Transit instant RFC3339 (defaults to now)")
	return c
}

func skyCmd(a *app) *cobra.Command {
	var at string

	c := &cobra.Command{
		Use:   "sky",
		Short: "Show body positions and aspects at an instant",
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := a.fetchSky(cmd, at)
			if err != nil {
				return err
			}
			report := a.engine.Sky(snap)
			return render(cmd.OutOrStdout(), a.format, report, func(p *printer) { p.sky(report) })
		},
	}
	c.Flags().StringVar(&at, "at", "", "Instant RFC3339 (defaults to now)")
	return c
}

func (a *app) fetchSky(cmd *cobra.Command, at string) (ephemeris.Snapshot, error) {
	if a.provider == nil {
		return ephemeris.Snapshot{}, fmt.Errorf("provider %q cannot be queried on demand; use stub or http", a.cfg.Ephemeris.Provider)
	}
	instant := a.now()
	if at != "" {
		t, err := time.Parse(time.RFC3339, at)
		if err != nil {
			return ephemeris.Snapshot{}, errs.Invalid("cli.sky", "at", "instant %q must be RFC3339", at)
		}
		instant = t
	}
	return ephemeris.Fetch(cmd.Context(), a.provider, a.engine.Bodies(), instant)
}

func seasonCmd(a *app) *cobra.Command {
	var date string

	c := &cobra.Command{
		Use:   "season",
		Short: "Show the sun-sign season and year-wheel stage of a date",
		RunE: func(cmd *cobra.Command, _ []string) error {
			at := a.now()
			if date != "" {
				d, err := parseDate(date)
				if err != nil {
					return err
				}
				at = d
			}
			report := a.engine.Season(at)
			return render(cmd.OutOrStdout(), a.format, report, func(p *printer) { p.season(report) })
		},
	}
	c.Flags().StringVarP(&date, "date", "d", "", "Date YYYY-MM-DD (defaults to today)")
	return c
}

func pillarCmd(a *app) *cobra.Command {
	var year, month, hour int

	c := &cobra.Command{
		Use:   "pillar",
		Short: "Compute sexagenary year, month and hour pillars",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var h *int
			if cmd.Flags().Changed("hour") {
				h = &hour
			}
			report, err := chart.Pillars(year, month, h)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), a.format, report, func(p *printer) { p.pillars(report) })
		},
	}
	c.Flags().IntVar(&year, "year", 0, "Gregorian year (required)")
	c.Flags().IntVar(&month, "month", 0, "Gregorian month 1..12 (required)")
	c.Flags().IntVar(&hour, "hour", 0, "Hour of day 0..23 (optional; omit when unknown)")
	_ = c.MarkFlagRequired("year")
	_ = c.MarkFlagRequired("month")
	return c
}

func offsetCmd(a *app) *cobra.Command {
	var city, date string

	c := &cobra.Command{
		Use:   "offset",
		Short: "Resolve a city's UTC offset on a date",
		RunE: func(cmd *cobra.Command, _ []string) error {
			at := a.now()
			if date != "" {
				d, err := parseDate(date)
				if err != nil {
					return err
				}
				at = d
			}
			report, err := a.engine.Offset(city, at.Year(), int(at.Month()), at.Day())
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), a.format, report, func(p *printer) { p.offset(report) })
		},
	}
	c.Flags().StringVar(&city, "city", "", "City label (required)")
	c.Flags().StringVarP(&date, "date", "d", "", "Date YYYY-MM-DD (defaults to today)")
	_ = c.MarkFlagRequired("city")
	return c
}

func parseDate(raw string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, errs.Invalid("cli.parse_date", "date", "date %q must be a valid YYYY-MM-DD", raw)
	}
	return d, nil
}
