package chi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
	"github.com/lancerhub/webhook-guard/authz"
	"github.com/lancerhub/webhook-guard/metrics"
)

// Handlers sets up the authorization API routes
func Handlers(ctx context.Context, gateway authz.UseCase, recorder *metrics.RedisRecorder, metricsHandler http.Handler) *chi.Mux {
	logger := httplog.NewLogger("webhook-guard", httplog.Options{
		JSON: true,
	})

	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// Prometheus metrics
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	// Authorization API routes
	r.Route("/v1", func(r chi.Router) {
		// List supported providers
		r.Get("/providers", getProviders().ServeHTTP)

		// Authorize one inbound webhook delivery
		r.Post("/authorize", postAuthorize(gateway, recorder).ServeHTTP)
	})

	return r
}
