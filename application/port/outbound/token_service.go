package outbound

import (
	"errors"

	"github.com/payflow/payflow/domain/entity"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// SessionClaims is the self-describing session payload. Verification needs
// no database lookup, so an account altered after issuance keeps its old
// claims for the token's validity window.
type SessionClaims struct {
	UserID string
	Email  string
	Role   entity.Role
}

// Actor converts the claims into the identity snapshot used downstream.
func (c SessionClaims) Actor() entity.Actor {
	return entity.Actor{ID: c.UserID, Email: c.Email, Role: c.Role}
}

type TokenService interface {
	Generate(claims SessionClaims) (string, error)
	Validate(token string) (*SessionClaims, error)
}
