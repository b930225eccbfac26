package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/neexbeast/golden-hour/internal/fault"
	"github.com/neexbeast/golden-hour/internal/forecast"
	"github.com/neexbeast/golden-hour/internal/metrics"
	"github.com/neexbeast/golden-hour/internal/quality"
	"github.com/neexbeast/golden-hour/internal/report"
	"github.com/neexbeast/golden-hour/internal/solar"
)

const maxBodyBytes = 1 << 20

var errSpotNotFound = errors.New("spot not found")

// Deps holds the collaborators handlers need. Clock and Metrics may be nil.
type Deps struct {
	Spots   SpotRepo
	Cache   ReportCache
	Builder ReportBuilder
	Places  PlaceSearcher
	Solar   SolarCalculator
	Clock   report.Clock
	Metrics *metrics.Metrics
	Log     *slog.Logger
}

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	spots   SpotRepo
	cache   ReportCache
	builder ReportBuilder
	places  PlaceSearcher
	solar   SolarCalculator
	clock   report.Clock
	metrics *metrics.Metrics
	log     *slog.Logger
}

// NewHandlers constructs Handlers with all required dependencies.
func NewHandlers(d Deps) *Handlers {
	clock := d.Clock
	if clock == nil {
		clock = report.RealClock{}
	}
	return &Handlers{
		spots:   d.Spots,
		cache:   d.Cache,
		builder: d.Builder,
		places:  d.Places,
		solar:   d.Solar,
		clock:   clock,
		metrics: d.Metrics,
		log:     d.Log,
	}
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps an error onto the HTTP status that describes it.
func statusFor(err error) int {
	switch {
	case errors.Is(err, fault.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, report.ErrPlaceNotFound), errors.Is(err, errSpotNotFound):
		return http.StatusNotFound
	case errors.Is(err, fault.ErrUndefinedSolarEvent):
		return http.StatusUnprocessableEntity
	case errors.Is(err, fault.ErrUpstreamUnavailable):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeError logs err and writes it as {"error": ...}. Server-side failures
// get a generic message.
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	switch status {
	case http.StatusBadGateway:
		msg = "weather provider unavailable"
		h.log.Warn("upstream failure", "path", r.URL.Path, "err", err)
	case http.StatusInternalServerError:
		msg = "internal server error"
		h.log.Error("request failed", "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

// parseCoordinate reads the lat and lon query parameters.
func parseCoordinate(r *http.Request) (solar.Coordinate, error) {
	q := r.URL.Query()
	lat, err := parseFloatParam(q.Get("lat"), "lat")
	if err != nil {
		return solar.Coordinate{}, err
	}
	lon, err := parseFloatParam(q.Get("lon"), "lon")
	if err != nil {
		return solar.Coordinate{}, err
	}
	c := solar.Coordinate{Latitude: lat, Longitude: lon}
	if err := c.Validate(); err != nil {
		return solar.Coordinate{}, err
	}
	return c, nil
}

func parseFloatParam(raw, name string) (float64, error) {
	if raw == "" {
		return 0, fmt.Errorf("query parameter %s is required: %w", name, fault.ErrInvalidArgument)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("query parameter %s is not a number: %w", name, fault.ErrInvalidArgument)
	}
	return v, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decoding request body: %v: %w", err, fault.ErrInvalidArgument)
	}
	return nil
}

// goldenHourResponse is the window plus what it means right now.
type goldenHourResponse struct {
	*solar.GoldenHourWindow
	InProgress    bool                 `json:"in_progress"`
	CurrentPeriod solar.Period         `json:"current_period,omitempty"`
	Next          solar.NextGoldenHour `json:"next"`
	FocusAzimuth  float64              `json:"focus_azimuth"`
	FocusCompass  string               `json:"focus_compass"`
}

// GoldenHour handles GET /api/v1/golden-hour?lat&lon.
func (h *Handlers) GoldenHour(w http.ResponseWriter, r *http.Request) {
	coord, err := parseCoordinate(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	now := h.clock.Now()
	window, err := h.solar.ComputeGoldenHour(coord, now)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := goldenHourResponse{
		GoldenHourWindow: window,
		Next:             window.Next(now),
		FocusAzimuth:     window.FocusAzimuth(now),
	}
	resp.CurrentPeriod, resp.InProgress = window.InProgress(now)
	resp.FocusCompass = solar.CompassPoint(resp.FocusAzimuth)

	writeJSON(w, http.StatusOK, resp)
}

// Report handles GET /api/v1/report?lat&lon&policy.
// Cache hit → return. Miss → build, cache, return.
func (h *Handlers) Report(w http.ResponseWriter, r *http.Request) {
	coord, err := parseCoordinate(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	policy, err := forecast.ParsePolicy(r.URL.Query().Get("policy"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.serveReport(w, r, coord, policy)
}

// RefreshReport handles POST /api/v1/report/refresh?lat&lon&policy.
// Builds fresh data, invalidates + repopulates cache.
func (h *Handlers) RefreshReport(w http.ResponseWriter, r *http.Request) {
	coord, err := parseCoordinate(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	policy, err := forecast.ParsePolicy(r.URL.Query().Get("policy"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	rep, err := h.build(r.Context(), coord, policy)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.cache.Delete(r.Context(), policy, coord); err != nil {
		h.log.Warn("cache delete failed", "coord", coord.String(), "err", err)
	}
	if err := h.cache.Set(r.Context(), rep); err != nil {
		h.log.Warn("cache set failed after refresh", "coord", coord.String(), "err", err)
	}

	writeJSON(w, http.StatusOK, rep)
}

func (h *Handlers) serveReport(w http.ResponseWriter, r *http.Request, coord solar.Coordinate, policy forecast.Policy) {
	cached, err := h.cache.Get(r.Context(), policy, coord)
	if err != nil {
		h.log.Error("cache get failed", "coord", coord.String(), "err", err)
	}
	if cached != nil {
		h.metrics.ReportServed(metrics.SourceCache)
		writeJSON(w, http.StatusOK, cached)
		return
	}

	rep, err := h.build(r.Context(), coord, policy)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.cache.Set(r.Context(), rep); err != nil {
		h.log.Warn("cache set failed after build", "coord", coord.String(), "err", err)
	}

	writeJSON(w, http.StatusOK, rep)
}

func (h *Handlers) build(ctx context.Context, coord solar.Coordinate, policy forecast.Policy) (*report.Report, error) {
	rep, err := h.builder.Build(ctx, coord, policy)
	if err != nil {
		h.metrics.ReportServed(metrics.SourceError)
		return nil, err
	}
	h.metrics.ReportServed(metrics.SourceBuilt)
	return rep, nil
}

// Score handles POST /api/v1/score with a forecast sample body.
func (h *Handlers) Score(w http.ResponseWriter, r *http.Request) {
	var s forecast.Sample
	if err := decodeBody(w, r, &s); err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := quality.Score(s)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// SearchPlace handles GET /api/v1/places?q=.
func (h *Handlers) SearchPlace(w http.ResponseWriter, r *http.Request) {
	place, err := h.places.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, place)
}

// HealthCheck handles GET /api/v1/health.
// Pings DB and Redis; returns 200 if both ok, 503 otherwise.
type dbPinger interface {
	Ping(ctx context.Context) error
}

type redisPinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlerFunc returns an http.HandlerFunc that checks db and redis connectivity.
func HealthHandlerFunc(db dbPinger, redis redisPinger, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		dbStatus := "ok"
		redisStatus := "ok"

		if err := db.Ping(ctx); err != nil {
			log.Error("health check: db ping failed", "err", err)
			dbStatus = "error"
			status = http.StatusServiceUnavailable
		}

		if err := redis.Ping(ctx); err != nil {
			log.Error("health check: redis ping failed", "err", err)
			redisStatus = "error"
			status = http.StatusServiceUnavailable
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}
		writeJSON(w, status, map[string]string{
			"status": overall,
			"db":     dbStatus,
			"redis":  redisStatus,
		})
	}
}
