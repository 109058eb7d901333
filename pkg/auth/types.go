package auth

import "time"

// GlobalRole is a tenant-wide authority level.
type GlobalRole string

const (
	GlobalRoleAdmin  GlobalRole = "admin"
	GlobalRoleMember GlobalRole = "member"
)

// ValidGlobalRole reports whether r is one of the known global roles.
func ValidGlobalRole(r GlobalRole) bool {
	return r == GlobalRoleAdmin || r == GlobalRoleMember
}

// ProjectRole is an authority level scoped to a single project.
type ProjectRole string

const (
	ProjectRoleOwner     ProjectRole = "owner"
	ProjectRoleDeveloper ProjectRole = "developer"
	ProjectRoleViewer    ProjectRole = "viewer"
)

// ValidProjectRole reports whether r is one of the known project roles.
func ValidProjectRole(r ProjectRole) bool {
	switch r {
	case ProjectRoleOwner, ProjectRoleDeveloper, ProjectRoleViewer:
		return true
	}
	return false
}

// Tenant is an isolated company scope. Every other entity carries a TenantID
// that must resolve to an existing tenant.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// User is a registered account. TenantID is immutable after creation.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	GlobalRole   GlobalRole `json:"role"`
	TenantID     string     `json:"tenant_id"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Project belongs to exactly one tenant.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	TenantID    string    `json:"tenant_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Membership grants a user a role on a project. At most one membership
// exists per (ProjectID, UserID) pair.
type Membership struct {
	ID         string      `json:"id"`
	ProjectID  string      `json:"project_id"`
	UserID     string      `json:"user_id"`
	Role       ProjectRole `json:"role"`
	AssignedAt time.Time   `json:"assigned_at"`
}

// Principal is the authenticated identity attached to a request. Role and
// tenant come from the current user row, never from token claims.
type Principal struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	GlobalRole GlobalRole `json:"role"`
	TenantID   string     `json:"tenant_id"`
}

// IsAdmin reports whether the principal holds the tenant-wide admin role.
func (p *Principal) IsAdmin() bool {
	return p.GlobalRole == GlobalRoleAdmin
}
