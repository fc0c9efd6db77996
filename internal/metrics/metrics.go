package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	EphemerisFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ephemeris_fetches_total", Help: "Ephemeris snapshot fetches by provider and outcome"},
		[]string{"provider", "outcome"},
	)
	ReadingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ephemeris_readings_total", Help: "Body longitudes ingested"},
		[]string{"body"},
	)
	SnapshotAgeSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "ephemeris_snapshot_age_seconds", Help: "Age of the cached sky snapshot at last read"},
	)
	AspectMatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "aspect_matches_total", Help: "Aspect matches reported to callers"},
		[]string{"aspect"},
	)
)

func init() {
	prometheus.MustRegister(EphemerisFetchesTotal, ReadingsTotal, SnapshotAgeSeconds, AspectMatchesTotal)
}

// Handler exposes the default registry for mounting on an existing router.
func Handler() http.Handler { return promhttp.Handler() }

// Serve starts a standalone metrics listener in the background.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
