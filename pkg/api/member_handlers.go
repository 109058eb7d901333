package api

import (
	"context"
	"net/http"

	"github.com/platinummonkey/taskhub/pkg/apperr"
	"github.com/platinummonkey/taskhub/pkg/audit"
	"github.com/platinummonkey/taskhub/pkg/auth"
	"github.com/platinummonkey/taskhub/pkg/authz"
	"github.com/platinummonkey/taskhub/pkg/httputil"
	"github.com/platinummonkey/taskhub/pkg/store"
)

// MemberStore is the storage surface used by membership handlers
type MemberStore interface {
	GetProject(ctx context.Context, id string) (*auth.Project, error)
	GetUser(ctx context.Context, id string) (*auth.User, error)
	GetMembership(ctx context.Context, projectID, userID string) (*auth.Membership, error)
	ListMembers(ctx context.Context, projectID string) ([]*store.Member, error)
	AssignMember(ctx context.Context, projectID, userID string, role auth.ProjectRole) (*auth.Membership, error)
	ChangeMemberRole(ctx context.Context, projectID, userID string, role auth.ProjectRole, enforceOwnerFloor bool) error
	RemoveMember(ctx context.Context, projectID, userID string, enforceOwnerFloor bool) error
}

// MemberHandlers handles project membership endpoints
type MemberHandlers struct {
	handlerDeps
	store MemberStore
	authz *authz.Authorizer
}

// NewMemberHandlers creates a new MemberHandlers
func NewMemberHandlers(store MemberStore, authorizer *authz.Authorizer, deps handlerDeps) *MemberHandlers {
	return &MemberHandlers{
		handlerDeps: deps,
		store:       store,
		authz:       authorizer,
	}
}

// loadGuardedProject fetches the project from the path and applies the
// tenant guard, which runs before any role check
func (h *MemberHandlers) loadGuardedProject(w http.ResponseWriter, r *http.Request, operation string, principal *auth.Principal) (*auth.Project, bool) {
	projectID, ok := httputil.ParsePathUUIDOrError(w, r, "id")
	if !ok {
		return nil, false
	}

	project, err := h.store.GetProject(r.Context(), projectID)
	if err != nil {
		httputil.WriteAppError(w, err)
		return nil, false
	}

	if !h.authorized(r.Context(), w, operation, principal, projectID,
		h.authz.RequireTenantMatch(principal, project.TenantID)) {
		return nil, false
	}
	return project, true
}

// ListMembers returns the project's team, ordered by role then
// assignment time
func (h *MemberHandlers) ListMembers(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	project, ok := h.loadGuardedProject(w, r, "member.list", principal)
	if !ok {
		return
	}

	if !h.authorized(r.Context(), w, "member.list", principal, project.ID,
		h.authz.RequireProjectRole(r.Context(), principal, project.ID,
			auth.ProjectRoleOwner, auth.ProjectRoleDeveloper, auth.ProjectRoleViewer)) {
		return
	}

	members, err := h.store.ListMembers(r.Context(), project.ID)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	if members == nil {
		members = []*store.Member{}
	}

	httputil.WriteSuccess(w, members)
}

// AssignMember adds a company user to the project. Owners and admins
// only; the target must belong to the project's company.
func (h *MemberHandlers) AssignMember(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	project, ok := h.loadGuardedProject(w, r, "member.assign", principal)
	if !ok {
		return
	}

	if !h.authorized(r.Context(), w, "member.assign", principal, project.ID,
		h.authz.RequireProjectRole(r.Context(), principal, project.ID, auth.ProjectRoleOwner)) {
		return
	}

	var req AssignMemberRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	role := auth.ProjectRole(req.Role)
	if !auth.ValidProjectRole(role) {
		httputil.WriteAppError(w, apperr.Validation(apperr.ReasonInvalidEnum,
			"role must be one of owner, developer, viewer"))
		return
	}

	if err := httputil.ValidateUUID(req.UserID, "user_id"); err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	target, err := h.store.GetUser(r.Context(), req.UserID)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	if target.TenantID != project.TenantID {
		h.authorized(r.Context(), w, "member.assign", principal, project.ID,
			apperr.Forbidden(apperr.ReasonCrossTenant,
				"access denied: this resource belongs to a different company"))
		return
	}

	membership, err := h.store.AssignMember(r.Context(), project.ID, target.ID, role)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	h.recordAudit(r.Context(), audit.Event{
		Type:       audit.EventMemberAssigned,
		ActorID:    principal.ID,
		TenantID:   principal.TenantID,
		ResourceID: project.ID,
		Detail:     "user=" + target.ID + " role=" + string(role),
	})

	httputil.WriteCreated(w, membership)
}

// ChangeMemberRole changes a member's project role. Owners and admins
// only; non-admins cannot downgrade the last owner.
func (h *MemberHandlers) ChangeMemberRole(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	project, ok := h.loadGuardedProject(w, r, "member.change_role", principal)
	if !ok {
		return
	}

	if !h.authorized(r.Context(), w, "member.change_role", principal, project.ID,
		h.authz.RequireProjectRole(r.Context(), principal, project.ID, auth.ProjectRoleOwner)) {
		return
	}

	userID, ok := httputil.ParsePathUUIDOrError(w, r, "userId")
	if !ok {
		return
	}

	var req ChangeRoleRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	role := auth.ProjectRole(req.Role)
	if !auth.ValidProjectRole(role) {
		httputil.WriteAppError(w, apperr.Validation(apperr.ReasonInvalidEnum,
			"role must be one of owner, developer, viewer"))
		return
	}

	err := h.store.ChangeMemberRole(r.Context(), project.ID, userID, role, !principal.IsAdmin())
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	h.recordAudit(r.Context(), audit.Event{
		Type:       audit.EventMemberRoleChanged,
		ActorID:    principal.ID,
		TenantID:   principal.TenantID,
		ResourceID: project.ID,
		Detail:     "user=" + userID + " role=" + string(role),
	})

	membership, err := h.store.GetMembership(r.Context(), project.ID, userID)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteSuccess(w, membership)
}

// RemoveMember removes a member from the project. Owners and admins
// only; non-admins cannot remove the last owner.
func (h *MemberHandlers) RemoveMember(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	project, ok := h.loadGuardedProject(w, r, "member.remove", principal)
	if !ok {
		return
	}

	if !h.authorized(r.Context(), w, "member.remove", principal, project.ID,
		h.authz.RequireProjectRole(r.Context(), principal, project.ID, auth.ProjectRoleOwner)) {
		return
	}

	userID, ok := httputil.ParsePathUUIDOrError(w, r, "userId")
	if !ok {
		return
	}

	if err := h.store.RemoveMember(r.Context(), project.ID, userID, !principal.IsAdmin()); err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	h.recordAudit(r.Context(), audit.Event{
		Type:       audit.EventMemberRemoved,
		ActorID:    principal.ID,
		TenantID:   principal.TenantID,
		ResourceID: project.ID,
		Detail:     "user=" + userID,
	})

	httputil.WriteNoContent(w)
}
