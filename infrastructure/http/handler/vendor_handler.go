package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/payflow/payflow/application/port/inbound"
	"github.com/payflow/payflow/domain/entity"
	"github.com/payflow/payflow/infrastructure/http/middleware"
	"github.com/payflow/payflow/infrastructure/http/response"
	"github.com/payflow/payflow/infrastructure/service/logger"
)

type VendorHandler struct {
	vendorUseCase inbound.VendorUseCase
	auth          *middleware.AuthMiddleware
	logger        logger.Logger
}

func NewVendorHandler(vendorUseCase inbound.VendorUseCase, auth *middleware.AuthMiddleware, log logger.Logger) *VendorHandler {
	return &VendorHandler{
		vendorUseCase: vendorUseCase,
		auth:          auth,
		logger:        log,
	}
}

func (h *VendorHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/vendors", h.auth.RequireAuth(h.Create)).Methods(http.MethodPost)
	router.HandleFunc("/api/vendors", h.auth.RequireAuth(h.List)).Methods(http.MethodGet)
}

// Create handles POST /api/vendors (OPS only).
func (h *VendorHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r)
	if !ok {
		return
	}

	var req inbound.CreateVendorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	vendor, err := h.vendorUseCase.Create(r.Context(), actor, req)
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	response.Success(w, http.StatusCreated, response.Fields{"vendor": vendor})
}

// List handles GET /api/vendors?page=&limit= (active vendors only).
func (h *VendorHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	req := inbound.ListVendorsRequest{
		Page:  parseIntOrDefault(query.Get("page"), 1),
		Limit: parseIntOrDefault(query.Get("limit"), 10),
	}

	res, err := h.vendorUseCase.List(r.Context(), actor, req)
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	vendors := res.Vendors
	if vendors == nil {
		vendors = []*entity.Vendor{}
	}

	response.Success(w, http.StatusOK, response.Fields{
		"vendors":     vendors,
		"totalPages":  res.TotalPages,
		"currentPage": res.CurrentPage,
	})
}
