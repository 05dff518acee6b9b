package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mrusso19/picshuttle/internal/logger"
	"github.com/mrusso19/picshuttle/pkg/api/handlers"
	"github.com/mrusso19/picshuttle/pkg/journal"
	"github.com/mrusso19/picshuttle/pkg/metrics"
)

// NewRouter creates and configures the chi router with all middleware and
// routes.
//
// Routes:
//   - GET /health - Liveness probe
//   - GET /health/ready - Journal readiness probe
//   - GET /uploads - Journaled upload sessions, newest first
//   - GET /uploads/{id} - One journaled session
//   - GET /metrics - Prometheus metrics (404 when metrics are disabled)
func NewRouter(j *journal.Journal) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	healthHandler := handlers.NewHealthHandler(j)
	uploadsHandler := handlers.NewUploadsHandler(j)

	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
	})

	r.Route("/uploads", func(r chi.Router) {
		r.Get("/", uploadsHandler.List)
		r.Get("/{id}", uploadsHandler.Get)
	})

	if reg := metrics.GetRegistry(); reg != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	// Root redirect to health for convenience
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	return r
}

// requestLogger logs requests using the internal logger: start at DEBUG,
// completion at INFO with status and duration.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		logger.Debug("request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logger.Info("request completed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
		)
	})
}
