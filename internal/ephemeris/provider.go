// Package ephemeris hosts the connectors that supply "current sky" longitudes
// and the single-slot cache the engine reads them from.
package ephemeris

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"astroref/internal/body"
	"astroref/internal/config"
	"astroref/internal/errs"
)

const (
	// ProviderStub computes deterministic mean longitudes (useful for tests/offline work).
	ProviderStub = "stub"
	// ProviderHTTP queries a JSON ephemeris service per body.
	ProviderHTTP = "http"
	// ProviderStream consumes pushed snapshots over a websocket.
	ProviderStream = "stream"
)

// Center selects geocentric or heliocentric longitudes.
type Center string

const (
	Geocentric   Center = "geocentric"
	Heliocentric Center = "heliocentric"
)

// ParseCenter defaults to geocentric for empty or unknown values.
func ParseCenter(s string) Center {
	if strings.EqualFold(strings.TrimSpace(s), string(Heliocentric)) {
		return Heliocentric
	}
	return Geocentric
}

// Provider returns tropical ecliptic longitudes. A failure is reported as an
// error, never as a default longitude.
type Provider interface {
	Name() string
	Longitude(ctx context.Context, id body.ID, at time.Time) (float64, error)
}

// Build returns a pull provider matching the configured name. Stream feeds
// push into a Cache and are built with NewStream instead.
func Build(cfg config.Ephemeris, log zerolog.Logger) (Provider, error) {
	center := ParseCenter(cfg.Center)
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderStub:
		return NewStub(center), nil
	case ProviderHTTP:
		if cfg.BaseURL == "" {
			return nil, errs.Invalid("ephemeris.build", "base_url", "http provider requires base_url")
		}
		return NewHTTPProvider(cfg.BaseURL, log,
			WithCenter(center),
			WithLongitudePath(cfg.LongitudePath),
			WithTimeout(cfg.Timeout()),
		), nil
	default:
		return nil, errs.Invalid("ephemeris.build", "provider", "unknown pull provider %q", cfg.Provider)
	}
}

// ParseBodies converts configured names to body IDs, defaulting to the
// classical set. The Moon has no heliocentric longitude: it is left out of the
// default set for that center and rejected when listed explicitly.
func ParseBodies(names []string, center Center) ([]body.ID, error) {
	const op = "ephemeris.parse_bodies"
	if len(names) == 0 {
		out := make([]body.ID, 0, len(body.Classical))
		for _, id := range body.Classical {
			if center == Heliocentric && id == body.Moon {
				continue
			}
			out = append(out, id)
		}
		return out, nil
	}
	out := make([]body.ID, 0, len(names))
	for _, raw := range names {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		id, ok := body.Parse(raw)
		if !ok {
			return nil, errs.Invalid(op, "bodies", "unknown body %q", raw)
		}
		if center == Heliocentric && id == body.Moon {
			return nil, errs.Invalid(op, "bodies", "moon has no heliocentric longitude")
		}
		out = append(out, id)
	}
	return out, nil
}

// Fetch queries every body at instant at. Any failed body makes the whole
// snapshot unavailable so a partial sky is never presented as complete.
func Fetch(ctx context.Context, p Provider, ids []body.ID, at time.Time) (Snapshot, error) {
	lons := make(map[body.ID]float64, len(ids))
	for _, id := range ids {
		lon, err := p.Longitude(ctx, id, at)
		if err != nil {
			if ctx.Err() != nil {
				return Snapshot{}, errs.Unavailable("ephemeris.fetch", ctx.Err())
			}
			return Snapshot{}, errs.Unavailable("ephemeris.fetch", fmt.Errorf("%s: %w", id, err))
		}
		if math.IsNaN(lon) || math.IsInf(lon, 0) {
			return Snapshot{}, errs.Unavailable("ephemeris.fetch", fmt.Errorf("%s: non-finite longitude", id))
		}
		lons[id] = lon
	}
	return Snapshot{
		ID:         uuid.New().String(),
		Provider:   p.Name(),
		TakenAt:    at.UTC(),
		Longitudes: lons,
	}, nil
}
