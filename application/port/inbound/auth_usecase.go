package inbound

import (
	"context"

	"github.com/payflow/payflow/domain/entity"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	// ClientIP keys the login rate limiter.
	ClientIP string `json:"-"`
}

type LoginResponse struct {
	Token string      `json:"-"`
	Email string      `json:"email"`
	Role  entity.Role `json:"role"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type AuthUseCase interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	ChangePassword(ctx context.Context, actor entity.Actor, req ChangePasswordRequest) error
}
