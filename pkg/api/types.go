package api

import (
	"github.com/platinummonkey/taskhub/pkg/auth"
	"github.com/platinummonkey/taskhub/pkg/store"
)

// RegisterRequest creates a user account. Exactly one of CompanyName
// and TenantID must be set: a company name creates a new company with
// this user as its admin, a tenant id joins an existing company as a
// member.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	CompanyName string `json:"company_name,omitempty"`
	TenantID    string `json:"tenant_id,omitempty"`
}

// LoginRequest authenticates with email and password
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse carries a session token and the authenticated user
type AuthResponse struct {
	Token string     `json:"token"`
	User  *auth.User `json:"user"`
}

// CreateProjectRequest creates a project
type CreateProjectRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// UpdateProjectRequest patches a project. Nil fields are left
// unchanged; an empty description clears it.
type UpdateProjectRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// ProjectDetailResponse is a project with its team
type ProjectDetailResponse struct {
	Project *auth.Project   `json:"project"`
	Members []*store.Member `json:"members"`
}

// AssignMemberRequest adds a user to a project
type AssignMemberRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// ChangeRoleRequest changes a member's project role
type ChangeRoleRequest struct {
	Role string `json:"role"`
}
