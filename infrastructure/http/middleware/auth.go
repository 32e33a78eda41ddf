package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/payflow/payflow/application/port/outbound"
	"github.com/payflow/payflow/domain/entity"
	"github.com/payflow/payflow/infrastructure/http/response"
)

const (
	// AuthUserKey is the context key the resolved session claims live under.
	AuthUserKey = "auth_user"
	// SessionCookieName is the cookie the session token is carried in.
	SessionCookieName = "token"
)

// AuthMiddleware is the access control gate: it resolves the calling
// identity from the session token. It is stateless per call; the token
// payload is self-describing and no database lookup happens here.
type AuthMiddleware struct {
	tokenService outbound.TokenService
}

func NewAuthMiddleware(tokenService outbound.TokenService) *AuthMiddleware {
	return &AuthMiddleware{tokenService: tokenService}
}

// RequireAuth rejects requests without a valid session token. Role checks
// happen in the use cases, where the required role is known per action.
func (m *AuthMiddleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := ExtractToken(r)
		if token == "" {
			response.Unauthorized(w, "Unauthorized")
			return
		}

		claims, err := m.tokenService.Validate(token)
		if err != nil {
			response.Unauthorized(w, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), AuthUserKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// ExtractToken reads the session token from the cookie, falling back to an
// Authorization: Bearer header for non-browser clients.
func ExtractToken(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// Actor retrieves the identity snapshot resolved by RequireAuth.
func Actor(ctx context.Context) (entity.Actor, bool) {
	claims, ok := ctx.Value(AuthUserKey).(*outbound.SessionClaims)
	if !ok || claims == nil {
		return entity.Actor{}, false
	}
	return claims.Actor(), true
}
