package stats_api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-booking/internal/api"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	"ms-booking/internal/stats"
)

type StatsService interface {
	DashboardStats(ctx context.Context, actor models.Actor) (*stats.DashboardStats, error)
}

type Handler struct {
	Service StatsService
	Logger  *logger.Logger
}

func NewHandler(service StatsService, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

// RegisterRoutes registers the stats routes. The router must already run auth.Middleware.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/stats/dashboard", h.Dashboard)
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	actor, ok := api.Actor(w, r)
	if !ok {
		return
	}

	out, err := h.Service.DashboardStats(r.Context(), actor)
	if err != nil {
		api.SendError(w, h.Logger, "STATS", err)
		return
	}
	api.SendJSON(w, http.StatusOK, out)
}
