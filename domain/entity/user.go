package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is an account that can sign in. Password holds the bcrypt hash.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewUser(email, passwordHash string, role Role) *User {
	now := time.Now().UTC()
	return &User{
		ID:        uuid.NewString(),
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Password:  passwordHash,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Snapshot captures the actor view of this user for embedding into records.
func (u *User) Snapshot() Actor {
	return Actor{ID: u.ID, Email: u.Email, Role: u.Role}
}
