// Package httptransport composes the feature handlers into one chi router
// with the shared middleware chain and operational endpoints.
package httptransport

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"procurement/internal/platform/middleware"
	"procurement/internal/platform/redis"
	"procurement/pkg/platform/httputil"
)

// Registerer is the per-feature route mounting hook.
type Registerer interface {
	Register(r chi.Router)
}

// Deps carries everything the router composes. DB and Redis are only used
// by the health endpoint; Redis may be nil.
type Deps struct {
	Logger         *slog.Logger
	Handlers       []Registerer
	DB             *sql.DB
	Redis          *redis.Client
	RequestTimeout time.Duration
}

// NewRouter builds the service router: recovery, request ID, request time,
// logging and timeout middleware around the feature routes, plus /health and
// /metrics outside the timeout wrapper.
func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(d.Logger))

	r.Get("/health", handleHealth(d.DB, d.Redis))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(api chi.Router) {
		api.Use(middleware.Timeout(d.RequestTimeout))
		api.Use(middleware.ContentTypeJSON)
		for _, h := range d.Handlers {
			h.Register(api)
		}
	})
	return r
}

func handleHealth(db *sql.DB, cache *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		checks := map[string]string{}

		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				checks["postgres"] = "down"
				status = http.StatusServiceUnavailable
			} else {
				checks["postgres"] = "up"
			}
		}
		if cache != nil {
			if err := cache.Health(ctx); err != nil {
				checks["redis"] = "down"
				status = http.StatusServiceUnavailable
			} else {
				checks["redis"] = "up"
			}
		}

		body := map[string]any{"status": "ok", "checks": checks}
		if status != http.StatusOK {
			body["status"] = "degraded"
		}
		httputil.WriteJSON(w, status, body)
	}
}
