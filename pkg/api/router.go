// Package api provides the introspection HTTP server.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/scriptd/scriptd/pkg/api/handlers"
	"github.com/scriptd/scriptd/pkg/api/middleware"
	"github.com/scriptd/scriptd/pkg/logger"
)

// Handlers holds all HTTP handlers.
type Handlers struct {
	// Health handles liveness and version endpoints.
	Health *handlers.HealthHandler

	// Threads exposes the script-thread registry.
	Threads *handlers.ThreadHandler

	// Multicasts streams live pool messages over websockets.
	Multicasts *handlers.MulticastHandler

	// Metrics serves the Prometheus exposition endpoint.
	Metrics http.Handler

	// MetricsRecorder is the optional HTTP metrics recorder.
	MetricsRecorder middleware.MetricsRecorder
}

// NewRouter creates a new chi router with middleware and routes.
func NewRouter(log logger.Logger, h *Handlers) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	if h.MetricsRecorder != nil {
		r.Use(middleware.Metrics(h.MetricsRecorder))
	}

	RegisterRoutes(r, h)
	return r
}

// RegisterRoutes registers all API routes.
func RegisterRoutes(r chi.Router, h *Handlers) {
	r.Route("/api/v1", func(r chi.Router) {
		if h.Threads != nil {
			r.Route("/threads", func(r chi.Router) {
				r.Get("/", h.Threads.List)
				r.Get("/{name}", h.Threads.Get)
				r.Post("/{name}/start", h.Threads.Start)
				r.Post("/{name}/stop", h.Threads.Stop)
			})
		}
	})

	if h.Health != nil {
		r.Get("/healthz", h.Health.Health)
		r.Get("/version", h.Health.Version)
	}

	if h.Multicasts != nil {
		r.Get("/ws/multicasts", h.Multicasts.Stream)
	}

	if h.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.Metrics)
	}
}
