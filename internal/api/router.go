package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
)

// NewRouter builds and returns the Chi router with all routes configured.
// Health and metrics are unauthenticated; everything else requires bearer auth.
// Rate limiting is applied globally: 60 requests per minute per IP.
// A nil metricsHandler leaves /metrics unregistered.
func NewRouter(handlers *Handlers, token string, db dbPinger, redisClient redisPinger, metricsHandler http.Handler, log *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(httprate.LimitByIP(60, time.Minute))

	r.Get("/api/v1/health", HealthHandlerFunc(db, redisClient, log))
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(token))

		r.Get("/api/v1/golden-hour", handlers.GoldenHour)
		r.Get("/api/v1/report", handlers.Report)
		r.Post("/api/v1/report/refresh", handlers.RefreshReport)
		r.Post("/api/v1/score", handlers.Score)
		r.Get("/api/v1/places", handlers.SearchPlace)

		r.Get("/api/v1/spots", handlers.ListSpots)
		r.Put("/api/v1/spots/{name}", handlers.PutSpot)
		r.Delete("/api/v1/spots/{name}", handlers.DeleteSpot)
		r.Get("/api/v1/spots/{name}/report", handlers.SpotReport)
	})

	return r
}

// Ensure chi.Mux implements http.Handler.
var _ http.Handler = (*chi.Mux)(nil)
