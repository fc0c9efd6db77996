package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"astroref/internal/api"
	"astroref/internal/chart"
	"astroref/internal/config"
	"astroref/internal/ephemeris"
	"astroref/internal/metrics"
	"astroref/internal/util"
)

const defaultConfigPath = "internal/config/config.yaml"

func main() {
	log := util.NewLogger("info")

	cfg, err := loadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	log = util.NewLogger(cfg.App.LogLevel)

	if cfg.App.MetricsAddr != "" && cfg.App.MetricsAddr != cfg.App.HTTPAddr {
		_ = metrics.Serve(cfg.App.MetricsAddr)
		log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")
	}

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	engine, provider, err := chart.FromConfig(cfg, util.Component(log, "chart"))
	if err != nil {
		log.Fatal().Err(err).Msg("build engine")
	}
	cache := ephemeris.NewCache(cfg.Ephemeris.StaleAfter())

	go func() {
		if err := runFeed(ctx, cfg, provider, engine, cache, log); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("ephemeris feed stopped")
			cancel()
		}
	}()
	go watchSeason(ctx, engine, log)

	handler := api.NewHandler(engine, cache, util.Component(log, "api"), time.Now)
	srv := api.NewServer(cfg.App, handler)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server stopped")
			cancel()
		}
	}()
	log.Info().
		Str("addr", cfg.App.HTTPAddr).
		Str("provider", cfg.Ephemeris.Provider).
		Str("ayanamsa", engine.Model().Name).
		Msg("skywatch started")

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
}

func loadConfig() (*config.Config, error) {
	path := defaultConfigPath
	if p := os.Getenv("ASTROREF_CONFIG"); p != "" {
		path = p
	}
	cfg, err := config.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg, err = config.Default(), nil
	}
	if err != nil {
		return nil, err
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runFeed keeps the cache warm from either the push stream or the poller.
func runFeed(ctx context.Context, cfg *config.Config, provider ephemeris.Provider, engine *chart.Engine, cache *ephemeris.Cache, log zerolog.Logger) error {
	if provider == nil {
		stream := ephemeris.NewStream(cfg.Ephemeris.StreamURL, cache, util.Component(log, "stream"))
		return stream.Run(ctx)
	}
	poller := ephemeris.NewPoller(provider, cache, engine.Bodies(), cfg.Ephemeris.PollInterval(), cfg.Ephemeris.Timeout(), util.Component(log, "poller"))
	return poller.Run(ctx)
}

// watchSeason logs the season once at start and again whenever the
// sun-sign season or year-wheel stage changes, checking hourly.
func watchSeason(ctx context.Context, engine *chart.Engine, log zerolog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	var last string
	check := func(now time.Time) {
		report := engine.Season(now)
		key := ""
		if report.Sign != nil {
			key += *report.Sign
		}
		key += "/"
		if report.Stage != nil {
			key += *report.Stage
		}
		if key == last {
			return
		}
		last = key
		ev := log.Info().Str("date", report.Date)
		if report.Sign != nil {
			ev = ev.Str("sign", *report.Sign)
		}
		if report.Stage != nil {
			ev = ev.Str("stage", *report.Stage)
		}
		ev.Msg("season")
	}

	check(time.Now())
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			check(now)
		}
	}
}
