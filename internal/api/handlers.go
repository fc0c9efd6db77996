package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"astroref/internal/chart"
	"astroref/internal/ephemeris"
	"astroref/internal/errs"
)

// Handler serves engine reports. now is injected so every request
// evaluates against an explicit instant.
type Handler struct {
	engine *chart.Engine
	cache  *ephemeris.Cache
	log    zerolog.Logger
	now    func() time.Time
}

// NewHandler creates a handler over engine and the sky cache. A nil now uses time.Now.
func NewHandler(engine *chart.Engine, cache *ephemeris.Cache, log zerolog.Logger, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	return &Handler{engine: engine, cache: cache, log: log, now: now}
}

// Health reports liveness and whether a current sky is cached.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	_, err := h.cache.Current(h.now())
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":        "ok",
		"sky_available": err == nil,
	})
}

// GetSky returns the cached sky, or 503 when it is absent or stale.
func (h *Handler) GetSky(w http.ResponseWriter, r *http.Request) {
	snap, err := h.cache.Current(h.now())
	if err != nil {
		h.respondWithErr(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, h.engine.Sky(snap))
}

// GetSeason returns the sun-sign and year-wheel stage for ?date=YYYY-MM-DD, default today.
func (h *Handler) GetSeason(w http.ResponseWriter, r *http.Request) {
	at := h.now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		d, err := parseDate(raw)
		if err != nil {
			h.respondWithErr(w, err)
			return
		}
		at = d
	}
	respondWithJSON(w, http.StatusOK, h.engine.Season(at))
}

// GetPillar returns pillars for ?year=&month=[&hour=].
func (h *Handler) GetPillar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year, err := requiredInt(q.Get("year"), "year")
	if err != nil {
		h.respondWithErr(w, err)
		return
	}
	month, err := requiredInt(q.Get("month"), "month")
	if err != nil {
		h.respondWithErr(w, err)
		return
	}
	var hour *int
	if raw := q.Get("hour"); raw != "" {
		v, err := requiredInt(raw, "hour")
		if err != nil {
			h.respondWithErr(w, err)
			return
		}
		hour = &v
	}
	report, err := chart.Pillars(year, month, hour)
	if err != nil {
		h.respondWithErr(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, report)
}

// GetOffset returns the UTC offset for ?city=&date=YYYY-MM-DD, default today.
func (h *Handler) GetOffset(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	at := h.now()
	if raw := q.Get("date"); raw != "" {
		d, err := parseDate(raw)
		if err != nil {
			h.respondWithErr(w, err)
			return
		}
		at = d
	}
	report, err := h.engine.Offset(q.Get("city"), at.Year(), int(at.Month()), at.Day())
	if err != nil {
		h.respondWithErr(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, report)
}

// ListLocations returns the registered city labels.
func (h *Handler) ListLocations(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.engine.Registry().Labels())
}

// PostNatal computes a natal chart from a JSON birth form.
func (h *Handler) PostNatal(w http.ResponseWriter, r *http.Request) {
	birth, err := decodeBirth(w, r)
	if err != nil {
		h.respondWithErr(w, err)
		return
	}
	report, err := h.engine.Natal(r.Context(), birth)
	if err != nil {
		h.respondWithErr(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, report)
}

// PostTransits compares a natal chart with the cached sky.
func (h *Handler) PostTransits(w http.ResponseWriter, r *http.Request) {
	birth, err := decodeBirth(w, r)
	if err != nil {
		h.respondWithErr(w, err)
		return
	}
	natal, err := h.engine.Natal(r.Context(), birth)
	if err != nil {
		h.respondWithErr(w, err)
		return
	}
	snap, err := h.cache.Current(h.now())
	if err != nil {
		h.respondWithErr(w, err)
		return
	}
	report, err := h.engine.Transits(natal, snap)
	if err != nil {
		h.respondWithErr(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, report)
}

func decodeBirth(w http.ResponseWriter, r *http.Request) (chart.BirthData, error) {
	var birth chart.BirthData
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&birth); err != nil {
		return chart.BirthData{}, errs.Invalid("api.decode_birth", "body", "invalid birth data: %v", err)
	}
	return birth, nil
}

func parseDate(raw string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, errs.Invalid("api.parse_date", "date", "date %q must be YYYY-MM-DD", raw)
	}
	return d, nil
}

func requiredInt(raw, field string) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, errs.Invalid("api.parse_int", field, "%s is required", field)
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, errs.Invalid("api.parse_int", field, "%s must be an integer", field)
	}
	return v, nil
}

func statusFor(err error) int {
	switch {
	case errs.IsKind(err, errs.KindInvalidInput):
		return http.StatusBadRequest
	case errs.IsKind(err, errs.KindUnknownLocation):
		return http.StatusNotFound
	case errs.IsKind(err, errs.KindUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) respondWithErr(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code >= 500 {
		h.log.Warn().Err(err).Int("status", code).Msg("request failed")
	}
	var opErr *errs.OpError
	if errors.As(err, &opErr) {
		respondWithError(w, code, string(opErr.Kind), opErr.Field, err)
		return
	}
	respondWithError(w, code, "internal", "", err)
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Failed to marshal response"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, kind, field string, err error) {
	response := map[string]string{"error": err.Error(), "kind": kind}
	if field != "" {
		response["field"] = field
	}
	respondWithJSON(w, code, response)
}
