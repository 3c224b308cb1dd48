// Package httptransport assembles the public HTTP surface: middleware
// chain, domain routes, and the Prometheus scrape endpoint. Handlers
// delegate to domain services; no business logic lives here.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	individualhandler "github.com/brighthive/master-client-index/internal/individual/handler"
	"github.com/brighthive/master-client-index/internal/platform/metrics"
	"github.com/brighthive/master-client-index/internal/platform/middleware"
)

// NewRouter wires all public endpoints behind the shared middleware chain.
func NewRouter(svc individualhandler.Service, logger *slog.Logger, m *metrics.Metrics) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Latency(m))

	router.Handle("/metrics", promhttp.Handler())
	router.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		individualhandler.New(svc, logger).Register(r)
	})
	return router
}
