// Package handler exposes the dashboard snapshot over HTTP.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"procurement/internal/dashboard"
	"procurement/pkg/platform/httputil"
)

// Service serves the dashboard snapshot.
type Service interface {
	Stats(ctx context.Context) (*dashboard.Stats, error)
}

type Handler struct {
	service Service
}

func New(service Service) *Handler {
	return &Handler{service: service}
}

// Register mounts dashboard endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/dashboard/stats", h.HandleStats)
}

// HandleStats handles GET /dashboard/stats.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}
