package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/payflow/payflow/domain/entity"
	"github.com/payflow/payflow/infrastructure/http/middleware"
	"github.com/payflow/payflow/infrastructure/http/response"
	"github.com/payflow/payflow/infrastructure/service/logger"
	"github.com/payflow/payflow/pkg/apperror"
)

// writeError maps any use-case error onto the response envelope. Unexpected
// errors are logged with the request context and reported generically.
func writeError(ctx context.Context, w http.ResponseWriter, log logger.Logger, err error) {
	appErr := apperror.Map(err)
	if appErr.Code == apperror.CodeInternal {
		log.Error(ctx, "request failed", err, nil)
	}
	response.Error(w, appErr.Status, appErr.Message)
}

// requestActor resolves the authenticated identity set by the auth
// middleware. Handlers behind RequireAuth can assume it is present.
func requestActor(w http.ResponseWriter, r *http.Request) (entity.Actor, bool) {
	actor, ok := middleware.Actor(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return entity.Actor{}, false
	}
	return actor, true
}

// clientIP extracts the originating IP, honoring proxy headers.
func clientIP(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	xri := r.Header.Get("X-Real-IP")
	if xri != "" {
		return xri
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
