package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/platinummonkey/taskhub/pkg/audit"
	"github.com/platinummonkey/taskhub/pkg/auth"
	"github.com/platinummonkey/taskhub/pkg/authz"
	"github.com/platinummonkey/taskhub/pkg/httputil"
	"github.com/platinummonkey/taskhub/pkg/store"
)

// ProjectStore is the storage surface used by project handlers
type ProjectStore interface {
	CreateProject(ctx context.Context, project *auth.Project, creatorID string) error
	GetProject(ctx context.Context, id string) (*auth.Project, error)
	ListProjectSummaries(ctx context.Context, tenantID, userID string, membersOnly bool) ([]*store.ProjectSummary, error)
	UpdateProject(ctx context.Context, project *auth.Project) error
	DeleteProject(ctx context.Context, id string) error
	ListMembers(ctx context.Context, projectID string) ([]*store.Member, error)
}

// ProjectHandlers handles project CRUD endpoints
type ProjectHandlers struct {
	handlerDeps
	store ProjectStore
	authz *authz.Authorizer
}

// NewProjectHandlers creates a new ProjectHandlers
func NewProjectHandlers(store ProjectStore, authorizer *authz.Authorizer, deps handlerDeps) *ProjectHandlers {
	return &ProjectHandlers{
		handlerDeps: deps,
		store:       store,
		authz:       authorizer,
	}
}

// ListProjects returns the caller's visible projects, newest first.
// Admins see every project of their company, members only those they
// belong to.
func (h *ProjectHandlers) ListProjects(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	summaries, err := h.store.ListProjectSummaries(
		r.Context(), principal.TenantID, principal.ID, !principal.IsAdmin())
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	if summaries == nil {
		summaries = []*store.ProjectSummary{}
	}

	httputil.WriteSuccess(w, summaries)
}

// CreateProject creates a project in the caller's company. Admin only;
// the creator receives the owner role atomically.
func (h *ProjectHandlers) CreateProject(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	if !h.authorized(r.Context(), w, "project.create", principal, "",
		h.authz.RequireGlobalRole(principal, auth.GlobalRoleAdmin)) {
		return
	}

	var req CreateProjectRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if !httputil.RequireNonEmpty(w, req.Name, "name") {
		return
	}
	if !httputil.RequireMaxLength(w, req.Name, "name", 255) {
		return
	}

	project := &auth.Project{
		Name:        req.Name,
		Description: req.Description,
		TenantID:    principal.TenantID,
	}
	if err := h.store.CreateProject(r.Context(), project, principal.ID); err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	h.recordAudit(r.Context(), audit.Event{
		Type:       audit.EventProjectCreated,
		ActorID:    principal.ID,
		TenantID:   principal.TenantID,
		ResourceID: project.ID,
	})

	httputil.WriteCreated(w, project)
}

// GetProject returns a project with its team list
func (h *ProjectHandlers) GetProject(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	projectID, ok := httputil.ParsePathUUIDOrError(w, r, "id")
	if !ok {
		return
	}

	project, err := h.store.GetProject(r.Context(), projectID)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	if !h.authorized(r.Context(), w, "project.get", principal, projectID,
		h.authz.RequireTenantMatch(principal, project.TenantID)) {
		return
	}

	// Same access rule as the team listing: any project role, or admin.
	if !h.authorized(r.Context(), w, "project.get", principal, projectID,
		h.authz.RequireProjectRole(r.Context(), principal, projectID,
			auth.ProjectRoleOwner, auth.ProjectRoleDeveloper, auth.ProjectRoleViewer)) {
		return
	}

	members, err := h.store.ListMembers(r.Context(), projectID)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	if members == nil {
		members = []*store.Member{}
	}

	httputil.WriteSuccess(w, ProjectDetailResponse{Project: project, Members: members})
}

// UpdateProject patches a project's name and description. Owners,
// developers and admins may update.
func (h *ProjectHandlers) UpdateProject(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	projectID, ok := httputil.ParsePathUUIDOrError(w, r, "id")
	if !ok {
		return
	}

	project, err := h.store.GetProject(r.Context(), projectID)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	if !h.authorized(r.Context(), w, "project.update", principal, projectID,
		h.authz.RequireTenantMatch(principal, project.TenantID)) {
		return
	}
	if !h.authorized(r.Context(), w, "project.update", principal, projectID,
		h.authz.RequireProjectRole(r.Context(), principal, projectID,
			auth.ProjectRoleOwner, auth.ProjectRoleDeveloper)) {
		return
	}

	var req UpdateProjectRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if !httputil.RequireNonEmpty(w, name, "name") {
			return
		}
		if !httputil.RequireMaxLength(w, name, "name", 255) {
			return
		}
		project.Name = name
	}
	if req.Description != nil {
		if *req.Description == "" {
			project.Description = nil
		} else {
			project.Description = req.Description
		}
	}

	if err := h.store.UpdateProject(r.Context(), project); err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	h.recordAudit(r.Context(), audit.Event{
		Type:       audit.EventProjectUpdated,
		ActorID:    principal.ID,
		TenantID:   principal.TenantID,
		ResourceID: projectID,
	})

	httputil.WriteSuccess(w, project)
}

// DeleteProject removes a project and its memberships. Owners and
// admins only.
func (h *ProjectHandlers) DeleteProject(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	projectID, ok := httputil.ParsePathUUIDOrError(w, r, "id")
	if !ok {
		return
	}

	project, err := h.store.GetProject(r.Context(), projectID)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	if !h.authorized(r.Context(), w, "project.delete", principal, projectID,
		h.authz.RequireTenantMatch(principal, project.TenantID)) {
		return
	}
	if !h.authorized(r.Context(), w, "project.delete", principal, projectID,
		h.authz.RequireProjectRole(r.Context(), principal, projectID, auth.ProjectRoleOwner)) {
		return
	}

	if err := h.store.DeleteProject(r.Context(), projectID); err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	h.recordAudit(r.Context(), audit.Event{
		Type:       audit.EventProjectDeleted,
		ActorID:    principal.ID,
		TenantID:   principal.TenantID,
		ResourceID: projectID,
	})

	httputil.WriteNoContent(w)
}

