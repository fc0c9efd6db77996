package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"astroref/internal/body"
	"astroref/internal/chart"
	"astroref/internal/ephemeris"
)

var fixedNow = time.Date(2024, time.June, 25, 12, 0, 0, 0, time.UTC)

func newTestRouter(t *testing.T, cache *ephemeris.Cache) http.Handler {
	t.Helper()
	engine := chart.NewEngine(nil, ephemeris.NewStub(ephemeris.Geocentric), chart.WithBodies([]body.ID{body.Sun, body.Moon}))
	h := NewHandler(engine, cache, zerolog.Nop(), func() time.Time { return fixedNow })
	return NewRouter(nil, h)
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
}

func TestSkyUnavailableWithoutSnapshot(t *testing.T) {
	router := newTestRouter(t, ephemeris.NewCache(time.Minute))
	rec := do(t, router, http.MethodGet, "/api/v1/sky", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	var body map[string]string
	decode(t, rec, &body)
	if body["kind"] != "unavailable" {
		t.Fatalf("expected unavailable kind, got %v", body)
	}
}

func TestSkyStaleIsUnavailable(t *testing.T) {
	cache := ephemeris.NewCache(time.Minute)
	cache.Store(ephemeris.Snapshot{ID: "old", TakenAt: fixedNow.Add(-time.Hour), Longitudes: map[body.ID]float64{body.Sun: 94}})
	rec := do(t, newTestRouter(t, cache), http.MethodGet, "/api/v1/sky", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected stale sky to be 503, got %d", rec.Code)
	}
}

func TestSkyReturnsSnapshot(t *testing.T) {
	cache := ephemeris.NewCache(time.Minute)
	cache.Store(ephemeris.Snapshot{ID: "now", Provider: "stub", TakenAt: fixedNow, Longitudes: map[body.ID]float64{body.Sun: 94, body.Moon: 274}})
	rec := do(t, newTestRouter(t, cache), http.MethodGet, "/api/v1/sky", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var report chart.SkyReport
	decode(t, rec, &report)
	if report.SnapshotID != "now" || len(report.Positions) != 2 {
		t.Fatalf("unexpected sky %+v", report)
	}
	if report.Positions[0].Tropical.Sign != "Cancer" {
		t.Fatalf("expected sun in Cancer, got %+v", report.Positions[0])
	}
	if len(report.Aspects) != 1 || report.Aspects[0].Aspect != "opposition" {
		t.Fatalf("expected sun-moon opposition, got %+v", report.Aspects)
	}
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestRouter(t, ephemeris.NewCache(0)), http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]interface{}
	decode(t, rec, &body)
	if body["status"] != "ok" || body["sky_available"] != false {
		t.Fatalf("unexpected health %v", body)
	}
}

func TestSeasonEndpoint(t *testing.T) {
	router := newTestRouter(t, ephemeris.NewCache(0))
	rec := do(t, router, http.MethodGet, "/api/v1/season?date=2025-01-05", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var report chart.SeasonReport
	decode(t, rec, &report)
	if report.Sign == nil || *report.Sign != "Capricorn" || report.Stage == nil || *report.Stage != "Yule" {
		t.Fatalf("unexpected season %+v", report)
	}

	rec = do(t, router, http.MethodGet, "/api/v1/season", "")
	decode(t, rec, &report)
	if report.Date != "2024-06-25" || report.Sign == nil || *report.Sign != "Cancer" {
		t.Fatalf("expected injected now, got %+v", report)
	}

	rec = do(t, router, http.MethodGet, "/api/v1/season?date=June", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad date, got %d", rec.Code)
	}
}

func TestPillarEndpoint(t *testing.T) {
	router := newTestRouter(t, ephemeris.NewCache(0))
	rec := do(t, router, http.MethodGet, "/api/v1/pillar?year=1984&month=3&hour=12", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var report chart.PillarReport
	decode(t, rec, &report)
	if report.YearPillar.Stem != "Jia" || report.YearPillar.Animal != "Rat" {
		t.Fatalf("unexpected year pillar %+v", report.YearPillar)
	}
	if report.HourAnimal == nil || *report.HourAnimal != "Horse" {
		t.Fatalf("expected Horse hour, got %v", report.HourAnimal)
	}

	for _, target := range []string{
		"/api/v1/pillar?month=3",
		"/api/v1/pillar?year=1984&month=13",
		"/api/v1/pillar?year=1984&month=3&hour=noon",
	} {
		if rec := do(t, router, http.MethodGet, target, ""); rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, rec.Code)
		}
	}
}

func TestOffsetEndpoint(t *testing.T) {
	router := newTestRouter(t, ephemeris.NewCache(0))
	rec := do(t, router, http.MethodGet, "/api/v1/offset?city=London&date=2024-07-01", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var report chart.OffsetReport
	decode(t, rec, &report)
	if report.OffsetHours != 1 || !report.DST {
		t.Fatalf("unexpected offset %+v", report)
	}

	rec = do(t, router, http.MethodGet, "/api/v1/offset?city=Atlantis", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown city, got %d", rec.Code)
	}
	var body map[string]string
	decode(t, rec, &body)
	if body["kind"] != "unknown_location" || body["field"] != "city" {
		t.Fatalf("unexpected error body %v", body)
	}
}

func TestNatalEndpoint(t *testing.T) {
	router := newTestRouter(t, ephemeris.NewCache(0))
	rec := do(t, router, http.MethodPost, "/api/v1/natal", `{"year":1990,"month":6,"day":15,"hour":14,"minute":30,"latitude":40.7,"longitude":-74,"city":"New York"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var report chart.NatalReport
	decode(t, rec, &report)
	if !report.PositionsAvailable || len(report.Positions) != 2 || report.Ascendant == nil {
		t.Fatalf("unexpected natal %+v", report)
	}

	rec = do(t, router, http.MethodPost, "/api/v1/natal", `{"year":1990,"month":5,"day":10,"hour":8,"city":"Tokyo"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 without coordinates, got %d: %s", rec.Code, rec.Body.String())
	}
	report = chart.NatalReport{}
	decode(t, rec, &report)
	if report.Birth.Latitude == nil || *report.Birth.Latitude != report.Location.Latitude ||
		report.Birth.Longitude == nil || *report.Birth.Longitude != report.Location.Longitude ||
		report.Location.Label != "Tokyo" {
		t.Fatalf("expected coordinates from Tokyo, got %+v", report.Birth)
	}

	rec = do(t, router, http.MethodPost, "/api/v1/natal", `{"year":1990,"month":5,"day":10,"latitude":95,"city":"Tokyo"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for latitude out of range, got %d", rec.Code)
	}

	rec = do(t, router, http.MethodPost, "/api/v1/natal", `{"year":1990,"month":2,"day":30,"latitude":0,"longitude":0,"city":"London"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid date, got %d", rec.Code)
	}
	rec = do(t, router, http.MethodPost, "/api/v1/natal", `{"year":1990,"planet":"x"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", rec.Code)
	}
}

func TestTransitsEndpoint(t *testing.T) {
	cache := ephemeris.NewCache(time.Minute)
	router := newTestRouter(t, cache)
	birth := `{"year":1990,"month":6,"day":15,"latitude":40.7,"longitude":-74,"city":"New York"}`

	if rec := do(t, router, http.MethodPost, "/api/v1/transits", birth); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without sky, got %d", rec.Code)
	}

	cache.Store(ephemeris.Snapshot{ID: "now", TakenAt: fixedNow, Longitudes: map[body.ID]float64{body.Sun: 94, body.Moon: 274}})
	rec := do(t, router, http.MethodPost, "/api/v1/transits", birth)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var report chart.TransitReport
	decode(t, rec, &report)
	if report.Sky.SnapshotID != "now" {
		t.Fatalf("unexpected transit report %+v", report)
	}
}

func TestLocationsAndMetrics(t *testing.T) {
	router := newTestRouter(t, ephemeris.NewCache(0))
	rec := do(t, router, http.MethodGet, "/api/v1/locations", "")
	var labels []string
	decode(t, rec, &labels)
	if len(labels) == 0 || labels[0] != "Athens" {
		t.Fatalf("unexpected labels %v", labels)
	}
	rec = do(t, router, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ephemeris_snapshot_age_seconds") {
		t.Fatalf("expected prometheus exposition, got %d", rec.Code)
	}
}
