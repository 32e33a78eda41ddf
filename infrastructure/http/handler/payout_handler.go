package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/payflow/payflow/application/port/inbound"
	"github.com/payflow/payflow/domain/entity"
	"github.com/payflow/payflow/infrastructure/http/middleware"
	"github.com/payflow/payflow/infrastructure/http/response"
	"github.com/payflow/payflow/infrastructure/service/logger"
)

// PayoutHandler exposes the payout lifecycle over HTTP. The unified action
// endpoint and the per-action endpoints funnel into the same use case call,
// so their semantics cannot diverge.
type PayoutHandler struct {
	payoutUseCase inbound.PayoutUseCase
	auth          *middleware.AuthMiddleware
	logger        logger.Logger
}

func NewPayoutHandler(payoutUseCase inbound.PayoutUseCase, auth *middleware.AuthMiddleware, log logger.Logger) *PayoutHandler {
	return &PayoutHandler{
		payoutUseCase: payoutUseCase,
		auth:          auth,
		logger:        log,
	}
}

func (h *PayoutHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/payouts", h.auth.RequireAuth(h.Create)).Methods(http.MethodPost)
	router.HandleFunc("/api/payouts", h.auth.RequireAuth(h.List)).Methods(http.MethodGet)
	router.HandleFunc("/api/payouts/{id}", h.auth.RequireAuth(h.Get)).Methods(http.MethodGet)
	router.HandleFunc("/api/payouts/{id}/action", h.auth.RequireAuth(h.Action)).Methods(http.MethodPost)
	router.HandleFunc("/api/payouts/{id}/submit", h.auth.RequireAuth(h.Submit)).Methods(http.MethodPost)
	router.HandleFunc("/api/payouts/{id}/approve", h.auth.RequireAuth(h.Approve)).Methods(http.MethodPost)
	router.HandleFunc("/api/payouts/{id}/reject", h.auth.RequireAuth(h.Reject)).Methods(http.MethodPost)
}

// Create handles POST /api/payouts (OPS only).
func (h *PayoutHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r)
	if !ok {
		return
	}

	var req inbound.CreatePayoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	payout, err := h.payoutUseCase.Create(r.Context(), actor, req)
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	response.Success(w, http.StatusCreated, response.Fields{"payout": payout})
}

// List handles GET /api/payouts?status=&vendor_id=&page=&limit=.
func (h *PayoutHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	req := inbound.ListPayoutsRequest{
		Status:   query.Get("status"),
		VendorID: query.Get("vendor_id"),
		Page:     parseIntOrDefault(query.Get("page"), 1),
		Limit:    parseIntOrDefault(query.Get("limit"), 10),
	}

	res, err := h.payoutUseCase.List(r.Context(), actor, req)
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	payouts := res.Payouts
	if payouts == nil {
		payouts = []*entity.Payout{}
	}

	response.Success(w, http.StatusOK, response.Fields{
		"payouts":     payouts,
		"totalPages":  res.TotalPages,
		"currentPage": res.CurrentPage,
	})
}

// Get handles GET /api/payouts/{id}: the payout, its vendor and the full
// audit trail in ascending timestamp order.
func (h *PayoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r)
	if !ok {
		return
	}

	id := mux.Vars(r)["id"]
	detail, err := h.payoutUseCase.Get(r.Context(), actor, id)
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	audits := detail.Audits
	if audits == nil {
		audits = []*entity.AuditEntry{}
	}

	response.Success(w, http.StatusOK, response.Fields{
		"payout": detail.Payout,
		"vendor": detail.Vendor,
		"audits": audits,
	})
}

type actionRequest struct {
	Action         string `json:"action"`
	DecisionReason string `json:"decision_reason"`
}

// Action handles POST /api/payouts/{id}/action with {action, decision_reason}.
// An absent body is treated as an empty one so the use case reports what is
// actually missing.
func (h *PayoutHandler) Action(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		response.BadRequest(w, "Invalid request body")
		return
	}

	h.transition(w, r, entity.Action{
		Type:   entity.ActionType(req.Action),
		Reason: req.DecisionReason,
	})
}

// Submit handles POST /api/payouts/{id}/submit (OPS, Draft -> Submitted).
func (h *PayoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, entity.Action{Type: entity.ActionSubmit})
}

// Approve handles POST /api/payouts/{id}/approve (FINANCE, Submitted -> Approved).
func (h *PayoutHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, entity.Action{Type: entity.ActionApprove})
}

// Reject handles POST /api/payouts/{id}/reject (FINANCE, Submitted -> Rejected,
// decision_reason mandatory).
func (h *PayoutHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DecisionReason string `json:"decision_reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		response.BadRequest(w, "Invalid request body")
		return
	}

	h.transition(w, r, entity.Action{Type: entity.ActionReject, Reason: req.DecisionReason})
}

func (h *PayoutHandler) transition(w http.ResponseWriter, r *http.Request, action entity.Action) {
	actor, ok := requestActor(w, r)
	if !ok {
		return
	}

	id := mux.Vars(r)["id"]
	payout, err := h.payoutUseCase.Transition(r.Context(), actor, id, action)
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	response.Success(w, http.StatusOK, response.Fields{"payout": payout})
}

func parseIntOrDefault(value string, defaultValue int) int {
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
