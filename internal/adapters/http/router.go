package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter mounts the public download routes, operational endpoints,
// and (when an admin token is configured) the audit routes. The two
// download paths are the two historical entry points into one core
// operation; they must never diverge.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", handler.readyz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Get("/download", handler.download("api"))
	r.Post("/download", handler.download("api"))
	r.Get("/functions/v1/download-source", handler.download("edge"))
	r.Post("/functions/v1/download-source", handler.download("edge"))

	if handler.adminToken != "" {
		r.Route("/api/v1/admin", func(r chi.Router) {
			r.Use(handler.adminMiddleware)
			r.Get("/downloads", handler.listDownloadEvents)
		})
	}

	return r
}
