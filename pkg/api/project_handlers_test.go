package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/taskhub/pkg/audit"
	"github.com/platinummonkey/taskhub/pkg/auth"
	"github.com/platinummonkey/taskhub/pkg/store"
)

type projectFixture struct {
	*fixture
	handlers *ProjectHandlers
	admin    *auth.User
	member   *auth.User
	outsider *auth.User
}

func newProjectFixture(t *testing.T) *projectFixture {
	t.Helper()
	f := newFixture(t)
	return &projectFixture{
		fixture:  f,
		handlers: NewProjectHandlers(f.store, f.authz, f.deps),
		admin:    f.store.addUser("00000000-0000-4000-8000-00000000000a", "admin@acme.test", auth.GlobalRoleAdmin, f.tenantID),
		member:   f.store.addUser("00000000-0000-4000-8000-00000000000b", "member@acme.test", auth.GlobalRoleMember, f.tenantID),
		outsider: f.store.addUser("00000000-0000-4000-8000-00000000000c", "spy@rival.test", auth.GlobalRoleAdmin, f.otherTenantID),
	}
}

func (pf *projectFixture) seedProject(t *testing.T, name, ownerID string) *auth.Project {
	t.Helper()
	p := &auth.Project{Name: name, TenantID: pf.tenantID}
	require.NoError(t, pf.store.CreateProject(context.Background(), p, ownerID))
	return p
}

func TestCreateProjectHandler(t *testing.T) {
	t.Run("admin creates with owner grant", func(t *testing.T) {
		pf := newProjectFixture(t)

		req := authedRequest(t, http.MethodPost, "/projects", principalFor(pf.admin), nil,
			CreateProjectRequest{Name: "  Apollo  "})
		rec := httptest.NewRecorder()
		pf.handlers.CreateProject(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var got auth.Project
		decodeJSON(t, rec, &got)
		assert.Equal(t, "Apollo", got.Name)
		assert.Equal(t, pf.tenantID, got.TenantID)

		m, err := pf.store.GetMembership(context.Background(), got.ID, pf.admin.ID)
		require.NoError(t, err)
		assert.Equal(t, auth.ProjectRoleOwner, m.Role)
		assert.True(t, pf.audit.hasEvent(audit.EventProjectCreated))
	})

	t.Run("member is forbidden", func(t *testing.T) {
		pf := newProjectFixture(t)

		req := authedRequest(t, http.MethodPost, "/projects", principalFor(pf.member), nil,
			CreateProjectRequest{Name: "Apollo"})
		rec := httptest.NewRecorder()
		pf.handlers.CreateProject(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.True(t, pf.audit.hasEvent(audit.EventAccessDenied))
	})

	t.Run("blank name is rejected", func(t *testing.T) {
		pf := newProjectFixture(t)

		req := authedRequest(t, http.MethodPost, "/projects", principalFor(pf.admin), nil,
			CreateProjectRequest{Name: "   "})
		rec := httptest.NewRecorder()
		pf.handlers.CreateProject(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestListProjectsHandler(t *testing.T) {
	pf := newProjectFixture(t)
	p1 := pf.seedProject(t, "Apollo", pf.admin.ID)
	pf.seedProject(t, "Borealis", pf.admin.ID)
	_, err := pf.store.AssignMember(context.Background(), p1.ID, pf.member.ID, auth.ProjectRoleViewer)
	require.NoError(t, err)

	t.Run("admin sees all tenant projects", func(t *testing.T) {
		req := authedRequest(t, http.MethodGet, "/projects", principalFor(pf.admin), nil, nil)
		rec := httptest.NewRecorder()
		pf.handlers.ListProjects(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var got []*store.ProjectSummary
		decodeJSON(t, rec, &got)
		assert.Len(t, got, 2)
	})

	t.Run("member sees only joined projects", func(t *testing.T) {
		req := authedRequest(t, http.MethodGet, "/projects", principalFor(pf.member), nil, nil)
		rec := httptest.NewRecorder()
		pf.handlers.ListProjects(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var got []*store.ProjectSummary
		decodeJSON(t, rec, &got)
		require.Len(t, got, 1)
		assert.Equal(t, "Apollo", got[0].Name)
		assert.Equal(t, string(auth.ProjectRoleViewer), got[0].ViewerRole)
		assert.Equal(t, 2, got[0].MemberCount)
	})

	t.Run("outsider sees nothing from this company", func(t *testing.T) {
		req := authedRequest(t, http.MethodGet, "/projects", principalFor(pf.outsider), nil, nil)
		rec := httptest.NewRecorder()
		pf.handlers.ListProjects(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String())
	})
}

func TestGetProjectHandler(t *testing.T) {
	pf := newProjectFixture(t)
	p := pf.seedProject(t, "Apollo", pf.admin.ID)

	t.Run("returns project with team", func(t *testing.T) {
		req := authedRequest(t, http.MethodGet, "/projects/"+p.ID, principalFor(pf.admin),
			map[string]string{"id": p.ID}, nil)
		rec := httptest.NewRecorder()
		pf.handlers.GetProject(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got ProjectDetailResponse
		decodeJSON(t, rec, &got)
		assert.Equal(t, p.ID, got.Project.ID)
		require.Len(t, got.Members, 1)
		assert.Equal(t, pf.admin.ID, got.Members[0].UserID)
	})

	t.Run("cross-tenant caller gets uniform denial", func(t *testing.T) {
		req := authedRequest(t, http.MethodGet, "/projects/"+p.ID, principalFor(pf.outsider),
			map[string]string{"id": p.ID}, nil)
		rec := httptest.NewRecorder()
		pf.handlers.GetProject(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "different company")
	})

	t.Run("same-tenant non-member is denied like the team listing", func(t *testing.T) {
		req := authedRequest(t, http.MethodGet, "/projects/"+p.ID, principalFor(pf.member),
			map[string]string{"id": p.ID}, nil)
		rec := httptest.NewRecorder()
		pf.handlers.GetProject(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "do not have access to this project")
	})

	t.Run("viewer membership grants access", func(t *testing.T) {
		pf := newProjectFixture(t)
		p := pf.seedProject(t, "Borealis", pf.admin.ID)
		_, err := pf.store.AssignMember(context.Background(), p.ID, pf.member.ID, auth.ProjectRoleViewer)
		require.NoError(t, err)

		req := authedRequest(t, http.MethodGet, "/projects/"+p.ID, principalFor(pf.member),
			map[string]string{"id": p.ID}, nil)
		rec := httptest.NewRecorder()
		pf.handlers.GetProject(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("malformed id is 400 before lookup", func(t *testing.T) {
		req := authedRequest(t, http.MethodGet, "/projects/not-a-uuid", principalFor(pf.admin),
			map[string]string{"id": "not-a-uuid"}, nil)
		rec := httptest.NewRecorder()
		pf.handlers.GetProject(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown id is 404", func(t *testing.T) {
		missing := "99999999-9999-4999-8999-999999999999"
		req := authedRequest(t, http.MethodGet, "/projects/"+missing, principalFor(pf.admin),
			map[string]string{"id": missing}, nil)
		rec := httptest.NewRecorder()
		pf.handlers.GetProject(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestUpdateProjectHandler(t *testing.T) {
	desc := "launch tooling"
	empty := ""
	newName := "Apollo 2"

	t.Run("owner patches name and description", func(t *testing.T) {
		pf := newProjectFixture(t)
		p := pf.seedProject(t, "Apollo", pf.member.ID)

		req := authedRequest(t, http.MethodPut, "/projects/"+p.ID, principalFor(pf.member),
			map[string]string{"id": p.ID}, UpdateProjectRequest{Name: &newName, Description: &desc})
		rec := httptest.NewRecorder()
		pf.handlers.UpdateProject(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got auth.Project
		decodeJSON(t, rec, &got)
		assert.Equal(t, "Apollo 2", got.Name)
		require.NotNil(t, got.Description)
		assert.Equal(t, desc, *got.Description)
	})

	t.Run("empty description clears it", func(t *testing.T) {
		pf := newProjectFixture(t)
		p := pf.seedProject(t, "Apollo", pf.member.ID)
		p.Description = &desc

		req := authedRequest(t, http.MethodPut, "/projects/"+p.ID, principalFor(pf.member),
			map[string]string{"id": p.ID}, UpdateProjectRequest{Description: &empty})
		rec := httptest.NewRecorder()
		pf.handlers.UpdateProject(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var got auth.Project
		decodeJSON(t, rec, &got)
		assert.Nil(t, got.Description)
		assert.Equal(t, "Apollo", got.Name)
	})

	t.Run("viewer is forbidden but admin bypasses", func(t *testing.T) {
		pf := newProjectFixture(t)
		p := pf.seedProject(t, "Apollo", pf.member.ID)
		viewer := pf.store.addUser("00000000-0000-4000-8000-00000000000d", "viewer@acme.test", auth.GlobalRoleMember, pf.tenantID)
		_, err := pf.store.AssignMember(context.Background(), p.ID, viewer.ID, auth.ProjectRoleViewer)
		require.NoError(t, err)

		req := authedRequest(t, http.MethodPut, "/projects/"+p.ID, principalFor(viewer),
			map[string]string{"id": p.ID}, UpdateProjectRequest{Name: &newName})
		rec := httptest.NewRecorder()
		pf.handlers.UpdateProject(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		req = authedRequest(t, http.MethodPut, "/projects/"+p.ID, principalFor(pf.admin),
			map[string]string{"id": p.ID}, UpdateProjectRequest{Name: &newName})
		rec = httptest.NewRecorder()
		pf.handlers.UpdateProject(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("tenant guard runs before role check", func(t *testing.T) {
		pf := newProjectFixture(t)
		p := pf.seedProject(t, "Apollo", pf.member.ID)

		req := authedRequest(t, http.MethodPut, "/projects/"+p.ID, principalFor(pf.outsider),
			map[string]string{"id": p.ID}, UpdateProjectRequest{Name: &newName})
		rec := httptest.NewRecorder()
		pf.handlers.UpdateProject(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "different company")
	})
}

func TestDeleteProjectHandler(t *testing.T) {
	t.Run("owner deletes with cascade", func(t *testing.T) {
		pf := newProjectFixture(t)
		p := pf.seedProject(t, "Apollo", pf.member.ID)

		req := authedRequest(t, http.MethodDelete, "/projects/"+p.ID, principalFor(pf.member),
			map[string]string{"id": p.ID}, nil)
		rec := httptest.NewRecorder()
		pf.handlers.DeleteProject(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		_, err := pf.store.GetProject(context.Background(), p.ID)
		assert.Error(t, err)
		assert.True(t, pf.audit.hasEvent(audit.EventProjectDeleted))
	})

	t.Run("developer is forbidden", func(t *testing.T) {
		pf := newProjectFixture(t)
		p := pf.seedProject(t, "Apollo", pf.admin.ID)
		_, err := pf.store.AssignMember(context.Background(), p.ID, pf.member.ID, auth.ProjectRoleDeveloper)
		require.NoError(t, err)

		req := authedRequest(t, http.MethodDelete, "/projects/"+p.ID, principalFor(pf.member),
			map[string]string{"id": p.ID}, nil)
		rec := httptest.NewRecorder()
		pf.handlers.DeleteProject(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
