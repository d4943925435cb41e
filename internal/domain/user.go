package domain

import "time"

// Role is an application role resolved from the user's directory group.
// Roles are opaque strings for authorization purposes: a route either lists
// a role in its allow-list or it does not. There is no role hierarchy.
type Role string

// Roles.
const (
	RoleAdmin      Role = "admin"
	RoleManager    Role = "manager"
	RoleSupervisor Role = "supervisor"
	RoleTechnician Role = "technician"
	RoleOperator   Role = "operator"
	RoleSupport    Role = "support"
	RoleSafety     Role = "safety"
	RoleViewer     Role = "viewer"
)

// IsValid checks if the role is one of the defined roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleSupervisor, RoleTechnician,
		RoleOperator, RoleSupport, RoleSafety, RoleViewer:
		return true
	}
	return false
}

// IsAuthorized reports whether role is non-empty and present in allowed.
func IsAuthorized(role Role, allowed []Role) bool {
	if role == "" {
		return false
	}
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}

// User is a directory entry: reference data for assignment pickers and the
// reporter field. Users are created through the directory, never by the
// incident workflow itself.
type User struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       Role   `json:"role"`
	Department string `json:"department"`
	Group      string `json:"group,omitempty"`

	Password  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
