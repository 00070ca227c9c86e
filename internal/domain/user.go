package domain

type UserRole string

const (
	UserRoleAdmin    UserRole = "admin"
	UserRoleOperator UserRole = "operator"
	UserRoleUser     UserRole = "user"
)

// IsStaff returns true for roles allowed to act on other users' reservations.
func (r UserRole) IsStaff() bool {
	return r == UserRoleAdmin || r == UserRoleOperator
}

// Actor is the authenticated caller of an operation. Identity itself is
// managed by an external service; only the verified id and role reach here.
type Actor struct {
	ID   string   `json:"id"`
	Role UserRole `json:"role"`
}

// SystemActor is used for transitions made without a user or staff action.
var SystemActor = Actor{ID: "system", Role: UserRoleAdmin}
