package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/payflow/payflow/application/port/inbound"
	"github.com/payflow/payflow/application/port/outbound"
	"github.com/payflow/payflow/domain/entity"
	"github.com/payflow/payflow/infrastructure/http/middleware"
	"github.com/payflow/payflow/infrastructure/service/logger"
	"github.com/payflow/payflow/pkg/apperror"
)

// MockPayoutUseCase is a mock implementation of inbound.PayoutUseCase
type MockPayoutUseCase struct {
	mock.Mock
}

func (m *MockPayoutUseCase) Create(ctx context.Context, actor entity.Actor, req inbound.CreatePayoutRequest) (*entity.Payout, error) {
	args := m.Called(ctx, actor, req)
	payout, _ := args.Get(0).(*entity.Payout)
	return payout, args.Error(1)
}

func (m *MockPayoutUseCase) List(ctx context.Context, actor entity.Actor, req inbound.ListPayoutsRequest) (*inbound.ListPayoutsResponse, error) {
	args := m.Called(ctx, actor, req)
	res, _ := args.Get(0).(*inbound.ListPayoutsResponse)
	return res, args.Error(1)
}

func (m *MockPayoutUseCase) Get(ctx context.Context, actor entity.Actor, id string) (*inbound.PayoutDetail, error) {
	args := m.Called(ctx, actor, id)
	detail, _ := args.Get(0).(*inbound.PayoutDetail)
	return detail, args.Error(1)
}

func (m *MockPayoutUseCase) Transition(ctx context.Context, actor entity.Actor, id string, action entity.Action) (*entity.Payout, error) {
	args := m.Called(ctx, actor, id, action)
	payout, _ := args.Get(0).(*entity.Payout)
	return payout, args.Error(1)
}

// stubTokenService resolves two fixed tokens to an OPS and a FINANCE session.
type stubTokenService struct{}

func (s *stubTokenService) Generate(claims outbound.SessionClaims) (string, error) {
	return "stub", nil
}

func (s *stubTokenService) Validate(token string) (*outbound.SessionClaims, error) {
	switch token {
	case "ops-token":
		return &outbound.SessionClaims{UserID: "ops-1", Email: "ops@demo.com", Role: entity.RoleOps}, nil
	case "finance-token":
		return &outbound.SessionClaims{UserID: "fin-1", Email: "finance@demo.com", Role: entity.RoleFinance}, nil
	}
	return nil, outbound.ErrInvalidToken
}

func newPayoutRouter(useCase inbound.PayoutUseCase) *mux.Router {
	auth := middleware.NewAuthMiddleware(&stubTokenService{})
	handler := NewPayoutHandler(useCase, auth, logger.Noop())
	router := mux.NewRouter()
	handler.RegisterRoutes(router)
	return router
}

func doRequest(router *mux.Router, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if token != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestPayoutHandler_Auth(t *testing.T) {
	router := newPayoutRouter(&MockPayoutUseCase{})

	t.Run("NoToken", func(t *testing.T) {
		rec := doRequest(router, http.MethodGet, "/api/payouts", "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), `"success":false`)
	})

	t.Run("InvalidToken", func(t *testing.T) {
		rec := doRequest(router, http.MethodGet, "/api/payouts", "garbage", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid or expired token")
	})

	t.Run("BearerFallback", func(t *testing.T) {
		useCase := &MockPayoutUseCase{}
		useCase.On("List", mock.Anything, mock.Anything, mock.Anything).
			Return(&inbound.ListPayoutsResponse{TotalPages: 0, CurrentPage: 1}, nil)
		router := newPayoutRouter(useCase)

		req := httptest.NewRequest(http.MethodGet, "/api/payouts", nil)
		req.Header.Set("Authorization", "Bearer ops-token")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestPayoutHandler_Create(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		useCase := &MockPayoutUseCase{}
		ops := entity.Actor{ID: "ops-1", Email: "ops@demo.com", Role: entity.RoleOps}
		payout := entity.NewPayout("vendor-1", 1500, entity.PayoutModeUPI, "supplies", ops)
		useCase.On("Create", mock.Anything, ops, inbound.CreatePayoutRequest{
			VendorID: "vendor-1", Amount: 1500, Mode: "UPI", Note: "supplies",
		}).Return(payout, nil)
		router := newPayoutRouter(useCase)

		rec := doRequest(router, http.MethodPost, "/api/payouts", "ops-token",
			`{"vendor_id":"vendor-1","amount":1500,"mode":"UPI","note":"supplies"}`)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), `"success":true`)
		assert.Contains(t, rec.Body.String(), `"status":"Draft"`)
		useCase.AssertExpectations(t)
	})

	t.Run("ForbiddenForFinance", func(t *testing.T) {
		useCase := &MockPayoutUseCase{}
		useCase.On("Create", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, apperror.NewForbidden("Forbidden — requires role: OPS"))
		router := newPayoutRouter(useCase)

		rec := doRequest(router, http.MethodPost, "/api/payouts", "finance-token",
			`{"vendor_id":"vendor-1","amount":1500,"mode":"UPI"}`)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("MalformedBody", func(t *testing.T) {
		router := newPayoutRouter(&MockPayoutUseCase{})
		rec := doRequest(router, http.MethodPost, "/api/payouts", "ops-token", `{not json`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestPayoutHandler_List(t *testing.T) {
	t.Run("PassesQueryParams", func(t *testing.T) {
		useCase := &MockPayoutUseCase{}
		useCase.On("List", mock.Anything, mock.Anything, inbound.ListPayoutsRequest{
			Status: "Submitted", VendorID: "vendor-1", Page: 2, Limit: 5,
		}).Return(&inbound.ListPayoutsResponse{TotalPages: 4, CurrentPage: 2}, nil)
		router := newPayoutRouter(useCase)

		rec := doRequest(router, http.MethodGet, "/api/payouts?status=Submitted&vendor_id=vendor-1&page=2&limit=5", "finance-token", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		useCase.AssertExpectations(t)
	})

	t.Run("EmptyResultIsArray", func(t *testing.T) {
		useCase := &MockPayoutUseCase{}
		useCase.On("List", mock.Anything, mock.Anything, mock.Anything).
			Return(&inbound.ListPayoutsResponse{TotalPages: 0, CurrentPage: 1}, nil)
		router := newPayoutRouter(useCase)

		rec := doRequest(router, http.MethodGet, "/api/payouts", "ops-token", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"payouts":[]`)
	})
}

func TestPayoutHandler_Get(t *testing.T) {
	t.Run("NotFound", func(t *testing.T) {
		useCase := &MockPayoutUseCase{}
		useCase.On("Get", mock.Anything, mock.Anything, "missing").
			Return(nil, apperror.NewNotFound("Payout not found"))
		router := newPayoutRouter(useCase)

		rec := doRequest(router, http.MethodGet, "/api/payouts/missing", "ops-token", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "Payout not found")
	})

	t.Run("UnexpectedErrorIs500", func(t *testing.T) {
		useCase := &MockPayoutUseCase{}
		useCase.On("Get", mock.Anything, mock.Anything, "p-1").
			Return(nil, errors.New("connection reset"))
		router := newPayoutRouter(useCase)

		rec := doRequest(router, http.MethodGet, "/api/payouts/p-1", "ops-token", "")

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "An unexpected error occurred")
		assert.NotContains(t, rec.Body.String(), "connection reset")
	})

	t.Run("IncludesAuditTrail", func(t *testing.T) {
		ops := entity.Actor{ID: "ops-1", Email: "ops@demo.com", Role: entity.RoleOps}
		payout := entity.NewPayout("vendor-1", 1500, entity.PayoutModeUPI, "", ops)
		vendor := entity.NewVendor("Acme Supplies", "acme@upi", "", "")
		audits := []*entity.AuditEntry{
			entity.NewAuditEntry(payout.ID, entity.AuditActionCreated, ops),
			entity.NewAuditEntry(payout.ID, entity.AuditActionSubmitted, ops),
		}

		useCase := &MockPayoutUseCase{}
		useCase.On("Get", mock.Anything, mock.Anything, payout.ID).
			Return(&inbound.PayoutDetail{Payout: payout, Vendor: vendor, Audits: audits}, nil)
		router := newPayoutRouter(useCase)

		rec := doRequest(router, http.MethodGet, "/api/payouts/"+payout.ID, "finance-token", "")

		assert.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Success bool                     `json:"success"`
			Audits  []map[string]interface{} `json:"audits"`
		}
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.True(t, body.Success)
		assert.Len(t, body.Audits, 2)
	})
}

func TestPayoutHandler_Transitions(t *testing.T) {
	ops := entity.Actor{ID: "ops-1", Email: "ops@demo.com", Role: entity.RoleOps}
	finance := entity.Actor{ID: "fin-1", Email: "finance@demo.com", Role: entity.RoleFinance}

	t.Run("SubmitEndpoint", func(t *testing.T) {
		payout := entity.NewPayout("vendor-1", 100, entity.PayoutModeUPI, "", ops)
		payout.Status = entity.PayoutStatusSubmitted

		useCase := &MockPayoutUseCase{}
		useCase.On("Transition", mock.Anything, ops, "p-1", entity.Action{Type: entity.ActionSubmit}).
			Return(payout, nil)
		router := newPayoutRouter(useCase)

		rec := doRequest(router, http.MethodPost, "/api/payouts/p-1/submit", "ops-token", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"Submitted"`)
		useCase.AssertExpectations(t)
	})

	t.Run("RejectEndpointCarriesReason", func(t *testing.T) {
		payout := entity.NewPayout("vendor-1", 100, entity.PayoutModeUPI, "", ops)
		payout.Status = entity.PayoutStatusRejected
		payout.DecisionReason = "amount mismatch"

		useCase := &MockPayoutUseCase{}
		useCase.On("Transition", mock.Anything, finance, "p-1", entity.Action{Type: entity.ActionReject, Reason: "amount mismatch"}).
			Return(payout, nil)
		router := newPayoutRouter(useCase)

		rec := doRequest(router, http.MethodPost, "/api/payouts/p-1/reject", "finance-token",
			`{"decision_reason":"amount mismatch"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		useCase.AssertExpectations(t)
	})

	t.Run("UnifiedActionEndpoint", func(t *testing.T) {
		payout := entity.NewPayout("vendor-1", 100, entity.PayoutModeUPI, "", ops)
		payout.Status = entity.PayoutStatusApproved

		useCase := &MockPayoutUseCase{}
		useCase.On("Transition", mock.Anything, finance, "p-1", entity.Action{Type: entity.ActionApprove}).
			Return(payout, nil)
		router := newPayoutRouter(useCase)

		rec := doRequest(router, http.MethodPost, "/api/payouts/p-1/action", "finance-token",
			`{"action":"approve"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		useCase.AssertExpectations(t)
	})

	t.Run("InvalidTransitionIs422", func(t *testing.T) {
		useCase := &MockPayoutUseCase{}
		useCase.On("Transition", mock.Anything, mock.Anything, "p-1", mock.Anything).
			Return(nil, apperror.NewInvalidTransition(`Cannot approve — current status is "Draft".`))
		router := newPayoutRouter(useCase)

		rec := doRequest(router, http.MethodPost, "/api/payouts/p-1/approve", "finance-token", "")

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "current status")
	})

	t.Run("RejectWithEmptyBody", func(t *testing.T) {
		useCase := &MockPayoutUseCase{}
		useCase.On("Transition", mock.Anything, finance, "p-1", entity.Action{Type: entity.ActionReject}).
			Return(nil, apperror.NewMissingField("decision_reason is mandatory when rejecting a payout"))
		router := newPayoutRouter(useCase)

		rec := doRequest(router, http.MethodPost, "/api/payouts/p-1/reject", "finance-token", "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "decision_reason is mandatory")
		useCase.AssertExpectations(t)
	})

	t.Run("ActionWithEmptyBody", func(t *testing.T) {
		useCase := &MockPayoutUseCase{}
		useCase.On("Transition", mock.Anything, finance, "p-1", entity.Action{}).
			Return(nil, apperror.NewValidation("Invalid action"))
		router := newPayoutRouter(useCase)

		rec := doRequest(router, http.MethodPost, "/api/payouts/p-1/action", "finance-token", "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid action")
		useCase.AssertExpectations(t)
	})

	t.Run("MissingReasonIs400", func(t *testing.T) {
		useCase := &MockPayoutUseCase{}
		useCase.On("Transition", mock.Anything, mock.Anything, "p-1", mock.Anything).
			Return(nil, apperror.NewMissingField("decision_reason is mandatory when rejecting a payout"))
		router := newPayoutRouter(useCase)

		rec := doRequest(router, http.MethodPost, "/api/payouts/p-1/reject", "finance-token", `{}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "decision_reason")
	})
}
