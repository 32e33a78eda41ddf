package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/payflow/payflow/application/port/inbound"
	"github.com/payflow/payflow/infrastructure/http/middleware"
	"github.com/payflow/payflow/infrastructure/http/response"
	"github.com/payflow/payflow/infrastructure/service/logger"
)

type DashboardHandler struct {
	dashboardUseCase inbound.DashboardUseCase
	auth             *middleware.AuthMiddleware
	logger           logger.Logger
}

func NewDashboardHandler(dashboardUseCase inbound.DashboardUseCase, auth *middleware.AuthMiddleware, log logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardUseCase: dashboardUseCase,
		auth:             auth,
		logger:           log,
	}
}

func (h *DashboardHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/dashboard", h.auth.RequireAuth(h.Metrics)).Methods(http.MethodGet)
}

// Metrics handles GET /api/dashboard.
func (h *DashboardHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r)
	if !ok {
		return
	}

	metrics, err := h.dashboardUseCase.Metrics(r.Context(), actor)
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	response.Success(w, http.StatusOK, response.Fields{"data": metrics})
}
