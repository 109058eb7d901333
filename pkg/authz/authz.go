package authz

import (
	"context"
	"fmt"
	"strings"

	"github.com/platinummonkey/taskhub/pkg/apperr"
	"github.com/platinummonkey/taskhub/pkg/auth"
)

// MembershipGetter looks up the membership for a (project, user) pair.
// Implementations return a NotFound error when no membership exists.
type MembershipGetter interface {
	GetMembership(ctx context.Context, projectID, userID string) (*auth.Membership, error)
}

// UserGetter fetches the current user row by id.
type UserGetter interface {
	GetUser(ctx context.Context, id string) (*auth.User, error)
}

// Authorizer decides whether a principal may perform an action. It holds no
// cross-request state; every decision reads the current storage snapshot.
type Authorizer struct {
	memberships MembershipGetter
	users       UserGetter
}

// NewAuthorizer creates an authorizer over the given stores.
func NewAuthorizer(memberships MembershipGetter, users UserGetter) *Authorizer {
	return &Authorizer{memberships: memberships, users: users}
}

// RequireGlobalRole denies unless the principal's global role is one of
// allowed.
func (a *Authorizer) RequireGlobalRole(p *auth.Principal, allowed ...auth.GlobalRole) error {
	for _, role := range allowed {
		if p.GlobalRole == role {
			return nil
		}
	}
	return apperr.Forbidden(apperr.ReasonInsufficientGlobalRole,
		fmt.Sprintf("insufficient permissions, required roles: %s", joinGlobalRoles(allowed)))
}

// RequireTenantMatch denies unconditionally when the resource belongs to a
// different tenant. Call this before any role check on a project-scoped
// resource; the wording is identical regardless of what role-based denial
// would otherwise apply.
func (a *Authorizer) RequireTenantMatch(p *auth.Principal, resourceTenantID string) error {
	if p.TenantID != resourceTenantID {
		return apperr.Forbidden(apperr.ReasonCrossTenant,
			"access denied: this resource belongs to a different company")
	}
	return nil
}

// RequireProjectRole denies unless the principal is a global admin or holds
// one of the allowed roles on the project. Admins bypass the membership
// lookup entirely.
func (a *Authorizer) RequireProjectRole(ctx context.Context, p *auth.Principal, projectID string, allowed ...auth.ProjectRole) error {
	if p.IsAdmin() {
		return nil
	}

	membership, err := a.memberships.GetMembership(ctx, projectID, p.ID)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return apperr.Forbidden(apperr.ReasonNoProjectAccess,
				"access denied: you do not have access to this project")
		}
		return err
	}

	for _, role := range allowed {
		if membership.Role == role {
			return nil
		}
	}
	return apperr.Forbidden(apperr.ReasonInsufficientProjectRole,
		fmt.Sprintf("access denied: insufficient project permissions, required roles: %s", joinProjectRoles(allowed)))
}

// IsOwnerOrAdmin reports whether the user is a global admin or owns the
// project. It never returns an error; any lookup failure reads as false.
// Intended for conditional business logic, not for gating.
func (a *Authorizer) IsOwnerOrAdmin(ctx context.Context, projectID, userID string) bool {
	return a.hasProjectRole(ctx, projectID, userID, auth.ProjectRoleOwner)
}

// IsOwnerDeveloperOrAdmin is IsOwnerOrAdmin widened to also accept the
// developer role.
func (a *Authorizer) IsOwnerDeveloperOrAdmin(ctx context.Context, projectID, userID string) bool {
	return a.hasProjectRole(ctx, projectID, userID, auth.ProjectRoleOwner, auth.ProjectRoleDeveloper)
}

func (a *Authorizer) hasProjectRole(ctx context.Context, projectID, userID string, allowed ...auth.ProjectRole) bool {
	user, err := a.users.GetUser(ctx, userID)
	if err != nil {
		return false
	}
	if user.GlobalRole == auth.GlobalRoleAdmin {
		return true
	}

	membership, err := a.memberships.GetMembership(ctx, projectID, userID)
	if err != nil {
		return false
	}
	for _, role := range allowed {
		if membership.Role == role {
			return true
		}
	}
	return false
}

func joinGlobalRoles(roles []auth.GlobalRole) string {
	parts := make([]string, len(roles))
	for i, r := range roles {
		parts[i] = string(r)
	}
	return strings.Join(parts, ", ")
}

func joinProjectRoles(roles []auth.ProjectRole) string {
	parts := make([]string, len(roles))
	for i, r := range roles {
		parts[i] = string(r)
	}
	return strings.Join(parts, ", ")
}
