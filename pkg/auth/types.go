package auth

import "time"

// Role is an organization-level role tag on a user. The set is closed;
// authorization is plain set membership with no hierarchy between roles.
type Role string

const (
	RoleAdmin   Role = "admin"   // Full access, including user management
	RoleManager Role = "manager" // Manages projects, tickets and audit entries
	RoleAgent   Role = "agent"   // Works tickets and projects
	RoleViewer  Role = "viewer"  // Read-only access
)

// Roles lists every valid role.
func Roles() []Role {
	return []Role{RoleAdmin, RoleManager, RoleAgent, RoleViewer}
}

// Valid reports whether r is a member of the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleAgent, RoleViewer:
		return true
	}
	return false
}

// User represents an OpsHub identity. Email is the unique, stable handle
// used as the token subject. An inactive user can never authenticate.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	IsActive     bool      `json:"is_active"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"` // Never expose the credential
	CreatedAt    time.Time `json:"created_at"`
}
