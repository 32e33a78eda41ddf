package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/payflow/payflow/application/port/inbound"
	"github.com/payflow/payflow/application/port/outbound"
	"github.com/payflow/payflow/infrastructure/http/middleware"
	"github.com/payflow/payflow/infrastructure/http/response"
	"github.com/payflow/payflow/infrastructure/http/validator"
	"github.com/payflow/payflow/infrastructure/service/logger"
)

type AuthHandler struct {
	authUseCase  inbound.AuthUseCase
	tokenService outbound.TokenService
	auth         *middleware.AuthMiddleware
	logger       logger.Logger
	sessionTTL   time.Duration
	secureCookie bool
}

func NewAuthHandler(
	authUseCase inbound.AuthUseCase,
	tokenService outbound.TokenService,
	auth *middleware.AuthMiddleware,
	log logger.Logger,
	sessionTTL time.Duration,
	secureCookie bool,
) *AuthHandler {
	return &AuthHandler{
		authUseCase:  authUseCase,
		tokenService: tokenService,
		auth:         auth,
		logger:       log,
		sessionTTL:   sessionTTL,
		secureCookie: secureCookie,
	}
}

func (h *AuthHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/auth/login", h.Login).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/me", h.Me).Methods(http.MethodGet)
	router.HandleFunc("/api/auth/me", h.Logout).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/profile", h.auth.RequireAuth(h.ChangePassword)).Methods(http.MethodPost)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials and sets the session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if !validator.ValidateRequired(req.Email) || !validator.ValidateRequired(req.Password) {
		response.BadRequest(w, "Email and password are required")
		return
	}
	if !validator.ValidateEmail(req.Email) {
		response.BadRequest(w, "Invalid email format")
		return
	}

	res, err := h.authUseCase.Login(r.Context(), inbound.LoginRequest{
		Email:    req.Email,
		Password: req.Password,
		ClientIP: clientIP(r),
	})
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    res.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.sessionTTL.Seconds()),
	})

	response.Success(w, http.StatusOK, response.Fields{
		"user": map[string]interface{}{
			"email": res.Email,
			"role":  res.Role,
		},
	})
}

// Me reports the identity carried by the session token. Absent or invalid
// tokens yield {"user": null}, not an error: the page shell probes this.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	token := middleware.ExtractToken(r)
	if token == "" {
		response.WriteJSON(w, http.StatusOK, true, response.Fields{"user": nil})
		return
	}

	claims, err := h.tokenService.Validate(token)
	if err != nil {
		response.WriteJSON(w, http.StatusOK, true, response.Fields{"user": nil})
		return
	}

	response.WriteJSON(w, http.StatusOK, true, response.Fields{
		"user": map[string]interface{}{
			"email": claims.Email,
			"role":  claims.Role,
		},
	})
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	response.Success(w, http.StatusOK, nil)
}

// ChangePassword rotates the caller's password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r)
	if !ok {
		return
	}

	var req inbound.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.authUseCase.ChangePassword(r.Context(), actor, req); err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	response.Success(w, http.StatusOK, response.Fields{"message": "Password updated successfully"})
}
