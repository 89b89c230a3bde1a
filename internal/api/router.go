// Package api assembles the HTTP surface of the proxy.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Togather-Foundation/mozdef-proxy/internal/api/handlers"
	"github.com/Togather-Foundation/mozdef-proxy/internal/api/middleware"
	"github.com/Togather-Foundation/mozdef-proxy/internal/config"
	"github.com/Togather-Foundation/mozdef-proxy/internal/metrics"
)

// IngestPaths are the routes that accept events.
var IngestPaths = []string{"/events", "/api/v1/events"}

// NewRouter wires ingest, probe and metrics routes. The returned stop
// function releases background resources held by the middleware.
func NewRouter(cfg config.Config, logger zerolog.Logger, ingest http.Handler, health *handlers.HealthChecker) (http.Handler, func()) {
	r := chi.NewRouter()

	r.Use(middleware.CorrelationID(logger))
	r.Use(middleware.Tracing)
	r.Use(middleware.RequestLogging("/healthz", "/readyz", "/metrics"))
	r.Use(metrics.HTTPMiddleware)
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecurityHeaders)

	r.Get("/healthz", health.Healthz())
	r.Get("/readyz", health.Readyz())
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{
		Registry: metrics.Registry,
	}))

	rateLimit, stop := middleware.RateLimit(cfg.RateLimit)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequestSize(middleware.DefaultMaxBodySize))
		r.Use(rateLimit)
		for _, path := range IngestPaths {
			r.Method(http.MethodPost, path, ingest)
		}
	})

	return r, stop
}
