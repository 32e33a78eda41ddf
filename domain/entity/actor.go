package entity

// Role of a human actor. Fixed at account creation; never transitions.
type Role string

const (
	RoleOps     Role = "OPS"
	RoleFinance Role = "FINANCE"
)

// ValidRole reports whether r is a known role.
func ValidRole(r Role) bool {
	return r == RoleOps || r == RoleFinance
}

// Actor is an immutable snapshot of the identity performing an action.
// It is embedded into payouts and audit entries at action time so that
// historical records stay stable even if the underlying account changes.
type Actor struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}
