package chart

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"astroref/internal/body"
	"astroref/internal/civil"
	"astroref/internal/config"
	"astroref/internal/ephemeris"
)

// FromConfig builds an engine and its pull provider from cfg. A stream
// configuration has no pull provider: the returned provider is nil and natal
// positions read as unavailable.
func FromConfig(cfg *config.Config, log zerolog.Logger) (*Engine, ephemeris.Provider, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	registry := civil.NewRegistry()
	if cfg.LocationsPath != "" {
		if err := registry.LoadFile(cfg.LocationsPath); err != nil {
			return nil, nil, fmt.Errorf("load locations: %w", err)
		}
	}
	bodies, err := ephemeris.ParseBodies(cfg.Ephemeris.Bodies, ephemeris.ParseCenter(cfg.Ephemeris.Center))
	if err != nil {
		return nil, nil, err
	}

	var provider ephemeris.Provider
	if !strings.EqualFold(strings.TrimSpace(cfg.Ephemeris.Provider), ephemeris.ProviderStream) {
		provider, err = ephemeris.Build(cfg.Ephemeris, log)
		if err != nil {
			return nil, nil, err
		}
	}

	engine := NewEngine(registry, provider,
		WithModel(cfg.Frame.Model()),
		WithDefinitions(cfg.AspectDefinitions()),
		WithBodies(bodies),
		WithLogger(log),
	)
	return engine, provider, nil
}

// Bodies returns the bodies queried for charts.
func (e *Engine) Bodies() []body.ID {
	return append([]body.ID(nil), e.bodies...)
}
