package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/payflow/payflow/application/port/inbound"
	"github.com/payflow/payflow/application/port/outbound"
	"github.com/payflow/payflow/domain/entity"
	"github.com/payflow/payflow/infrastructure/service/logger"
	"github.com/payflow/payflow/pkg/apperror"
)

// AuthUseCase signs users in and lets them change their password. Sessions
// are stateless signed tokens; no server-side session record is kept.
type AuthUseCase struct {
	userRepo        outbound.UserRepository
	tokenService    outbound.TokenService
	passwordService outbound.PasswordService
	loginLimiter    outbound.LoginLimiter
	logger          logger.Logger
}

func NewAuthUseCase(
	userRepo outbound.UserRepository,
	tokenService outbound.TokenService,
	passwordService outbound.PasswordService,
	loginLimiter outbound.LoginLimiter,
	log logger.Logger,
) *AuthUseCase {
	return &AuthUseCase{
		userRepo:        userRepo,
		tokenService:    tokenService,
		passwordService: passwordService,
		loginLimiter:    loginLimiter,
		logger:          log,
	}
}

// Login verifies credentials and issues a session token. Unknown email and
// wrong password are indistinguishable to the caller.
func (uc *AuthUseCase) Login(ctx context.Context, req inbound.LoginRequest) (*inbound.LoginResponse, error) {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, apperror.NewValidation("Email and password are required")
	}

	limiterKey := fmt.Sprintf("login:ip:%s", req.ClientIP)
	blocked, err := uc.loginLimiter.IsBlocked(ctx, limiterKey)
	if err != nil {
		// Limiter outage must not lock everyone out; log and continue.
		uc.logger.Error(ctx, "login limiter check failed", err, map[string]interface{}{"ip": req.ClientIP})
	}
	if blocked {
		return nil, apperror.NewUnauthorized("Too many failed attempts. Please try again later.")
	}

	user, err := uc.userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, outbound.ErrUserNotFound) {
			uc.registerFailure(ctx, limiterKey)
			return nil, apperror.NewUnauthorized("Invalid credentials")
		}
		uc.logger.Error(ctx, "failed to load user for login", err, nil)
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	valid, err := uc.passwordService.Verify(req.Password, user.Password)
	if err != nil {
		uc.logger.Error(ctx, "password verification failed", err, map[string]interface{}{"user_id": user.ID})
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !valid {
		uc.registerFailure(ctx, limiterKey)
		uc.logger.Warn(ctx, "login rejected: wrong password", map[string]interface{}{"user_id": user.ID, "ip": req.ClientIP})
		return nil, apperror.NewUnauthorized("Invalid credentials")
	}

	token, err := uc.tokenService.Generate(outbound.SessionClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	})
	if err != nil {
		uc.logger.Error(ctx, "failed to issue session token", err, map[string]interface{}{"user_id": user.ID})
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	if err := uc.loginLimiter.Reset(ctx, limiterKey); err != nil {
		uc.logger.Warn(ctx, "failed to reset login limiter", map[string]interface{}{"ip": req.ClientIP})
	}

	uc.logger.Info(ctx, "user signed in", map[string]interface{}{"user_id": user.ID, "role": user.Role})
	return &inbound.LoginResponse{Token: token, Email: user.Email, Role: user.Role}, nil
}

// ChangePassword verifies the current password before storing a new hash.
func (uc *AuthUseCase) ChangePassword(ctx context.Context, actor entity.Actor, req inbound.ChangePasswordRequest) error {
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return apperror.NewValidation("Both current and new passwords are required")
	}
	if len(req.NewPassword) < 6 {
		return apperror.NewValidation("New password must be at least 6 characters")
	}

	user, err := uc.userRepo.FindByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, outbound.ErrUserNotFound) {
			return apperror.NewNotFound("User not found")
		}
		uc.logger.Error(ctx, "failed to load user for password change", err, map[string]interface{}{"user_id": actor.ID})
		return fmt.Errorf("failed to load user: %w", err)
	}

	valid, err := uc.passwordService.Verify(req.CurrentPassword, user.Password)
	if err != nil {
		return fmt.Errorf("failed to verify password: %w", err)
	}
	if !valid {
		return apperror.NewUnauthorized("Current password is incorrect")
	}

	hash, err := uc.passwordService.Hash(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := uc.userRepo.UpdatePassword(ctx, user.ID, hash); err != nil {
		uc.logger.Error(ctx, "failed to update password", err, map[string]interface{}{"user_id": user.ID})
		return fmt.Errorf("failed to update password: %w", err)
	}

	uc.logger.Info(ctx, "password changed", map[string]interface{}{"user_id": user.ID})
	return nil
}

func (uc *AuthUseCase) registerFailure(ctx context.Context, key string) {
	if err := uc.loginLimiter.RegisterFailure(ctx, key); err != nil {
		uc.logger.Warn(ctx, "failed to register login failure", map[string]interface{}{"key": key})
	}
}
