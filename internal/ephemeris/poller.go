package ephemeris

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"astroref/internal/body"
	"astroref/internal/metrics"
)

// Poller refreshes the cache from a pull provider on a fixed cadence.
// A failed poll leaves the previous snapshot in place to age out; it never
// retries inside a tick.
type Poller struct {
	provider Provider
	cache    *Cache
	bodies   []body.ID
	interval time.Duration
	timeout  time.Duration
	log      zerolog.Logger
}

// NewPoller builds a poller; non-positive durations fall back to one minute and ten seconds.
func NewPoller(p Provider, cache *Cache, bodies []body.ID, interval, timeout time.Duration, log zerolog.Logger) *Poller {
	if interval <= 0 {
		interval = time.Minute
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Poller{
		provider: p,
		cache:    cache,
		bodies:   append([]body.ID(nil), bodies...),
		interval: interval,
		timeout:  timeout,
		log:      log,
	}
}

// Run polls immediately and then on every tick until the context is canceled.
func (p *Poller) Run(ctx context.Context) error {
	if err := p.Poll(ctx, time.Now()); err != nil && !errors.Is(err, context.Canceled) {
		p.log.Warn().Err(err).Msg("initial ephemeris poll failed")
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ts := <-ticker.C:
			if err := p.Poll(ctx, ts); err != nil && !errors.Is(err, context.Canceled) {
				p.log.Warn().Err(err).Msg("ephemeris poll failed")
			}
		}
	}
}

// Poll fetches one snapshot for instant at and stores it on success.
func (p *Poller) Poll(ctx context.Context, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	snap, err := Fetch(ctx, p.provider, p.bodies, at)
	if err != nil {
		metrics.EphemerisFetchesTotal.WithLabelValues(p.provider.Name(), "error").Inc()
		return err
	}
	p.cache.Store(snap)
	metrics.EphemerisFetchesTotal.WithLabelValues(p.provider.Name(), "ok").Inc()
	for id := range snap.Longitudes {
		metrics.ReadingsTotal.WithLabelValues(string(id)).Inc()
	}
	p.log.Debug().Str("snapshot", snap.ID).Int("bodies", len(snap.Longitudes)).Msg("sky snapshot stored")
	return nil
}
