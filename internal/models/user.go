package models

// RoleAdmin sees everything, including the full audit trail.
const RoleAdmin = "admin"

// RoleManager can create projects and manage their phases and assignees.
const RoleManager = "manager"

// RoleMember is the default role for new accounts.
const RoleMember = "member"

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleManager || role == RoleMember
}

type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Role         string `json:"role"`
}

// Identity is the resolved caller: who is making the request and with what
// role. Established by the JWT middleware before any handler runs.
type Identity struct {
	UserID int
	Role   string
}

// IsAdmin reports whether the identity carries the administrative role.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }
