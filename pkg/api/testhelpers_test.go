package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/platinummonkey/taskhub/pkg/apperr"
	"github.com/platinummonkey/taskhub/pkg/audit"
	"github.com/platinummonkey/taskhub/pkg/auth"
	"github.com/platinummonkey/taskhub/pkg/authz"
	"github.com/platinummonkey/taskhub/pkg/contextkeys"
	"github.com/platinummonkey/taskhub/pkg/observability"
	"github.com/platinummonkey/taskhub/pkg/store"
)

// fakeStore is an in-memory implementation of the handler storage
// interfaces and the authorizer's lookup interfaces
type fakeStore struct {
	tenants     map[string]*auth.Tenant
	users       map[string]*auth.User
	projects    map[string]*auth.Project
	memberships map[string]map[string]*auth.Membership
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tenants:     make(map[string]*auth.Tenant),
		users:       make(map[string]*auth.User),
		projects:    make(map[string]*auth.Project),
		memberships: make(map[string]map[string]*auth.Membership),
	}
}

func (f *fakeStore) CreateTenantWithAdmin(ctx context.Context, name string, user *auth.User) (*auth.Tenant, error) {
	for _, t := range f.tenants {
		if t.Name == name {
			return nil, apperr.Conflict(apperr.ReasonDuplicateTenantName, "a company with this name already exists")
		}
	}
	for _, u := range f.users {
		if u.Email == user.Email {
			return nil, apperr.Conflict(apperr.ReasonDuplicateEmail, "a user with this email already exists")
		}
	}
	tenant := &auth.Tenant{ID: uuid.NewString(), Name: name, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	f.tenants[tenant.ID] = tenant

	user.ID = uuid.NewString()
	user.TenantID = tenant.ID
	user.GlobalRole = auth.GlobalRoleAdmin
	f.users[user.ID] = user
	return tenant, nil
}

func (f *fakeStore) GetTenant(ctx context.Context, id string) (*auth.Tenant, error) {
	if t, ok := f.tenants[id]; ok {
		return t, nil
	}
	return nil, apperr.NotFound(apperr.ReasonTenantNotFound, "company not found")
}

func (f *fakeStore) CreateUser(ctx context.Context, user *auth.User) error {
	for _, u := range f.users {
		if u.Email == user.Email {
			return apperr.Conflict(apperr.ReasonDuplicateEmail, "a user with this email already exists")
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeStore) GetUser(ctx context.Context, id string) (*auth.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, apperr.NotFound(apperr.ReasonUserNotFound, "user not found")
}

func (f *fakeStore) GetUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperr.NotFound(apperr.ReasonUserNotFound, "user not found")
}

func (f *fakeStore) ListUsersByTenant(ctx context.Context, tenantID string) ([]*auth.User, error) {
	var users []*auth.User
	for _, u := range f.users {
		if u.TenantID == tenantID {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	return users, nil
}

func (f *fakeStore) CreateProject(ctx context.Context, project *auth.Project, creatorID string) error {
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	project.CreatedAt = time.Now()
	project.UpdatedAt = project.CreatedAt
	f.projects[project.ID] = project
	f.addMembership(project.ID, creatorID, auth.ProjectRoleOwner)
	return nil
}

func (f *fakeStore) GetProject(ctx context.Context, id string) (*auth.Project, error) {
	if p, ok := f.projects[id]; ok {
		return p, nil
	}
	return nil, apperr.NotFound(apperr.ReasonProjectNotFound, "project not found")
}

func (f *fakeStore) ListProjectSummaries(ctx context.Context, tenantID, userID string, membersOnly bool) ([]*store.ProjectSummary, error) {
	var summaries []*store.ProjectSummary
	for _, p := range f.projects {
		if p.TenantID != tenantID {
			continue
		}
		viewer := ""
		if m, ok := f.memberships[p.ID][userID]; ok {
			viewer = string(m.Role)
		}
		if membersOnly && viewer == "" {
			continue
		}
		summaries = append(summaries, &store.ProjectSummary{
			Project:     *p,
			MemberCount: len(f.memberships[p.ID]),
			ViewerRole:  viewer,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries, nil
}

func (f *fakeStore) UpdateProject(ctx context.Context, project *auth.Project) error {
	if _, ok := f.projects[project.ID]; !ok {
		return apperr.NotFound(apperr.ReasonProjectNotFound, "project not found")
	}
	project.UpdatedAt = time.Now()
	f.projects[project.ID] = project
	return nil
}

func (f *fakeStore) DeleteProject(ctx context.Context, id string) error {
	if _, ok := f.projects[id]; !ok {
		return apperr.NotFound(apperr.ReasonProjectNotFound, "project not found")
	}
	delete(f.projects, id)
	delete(f.memberships, id)
	return nil
}

func (f *fakeStore) GetMembership(ctx context.Context, projectID, userID string) (*auth.Membership, error) {
	if m, ok := f.memberships[projectID][userID]; ok {
		return m, nil
	}
	return nil, apperr.NotFound(apperr.ReasonMembershipNotFound, "membership not found")
}

func (f *fakeStore) ListMembers(ctx context.Context, projectID string) ([]*store.Member, error) {
	var members []*store.Member
	for _, m := range f.memberships[projectID] {
		email := ""
		if u, ok := f.users[m.UserID]; ok {
			email = u.Email
		}
		members = append(members, &store.Member{
			ID:         m.ID,
			ProjectID:  m.ProjectID,
			UserID:     m.UserID,
			Email:      email,
			Role:       m.Role,
			AssignedAt: m.AssignedAt,
		})
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].Role != members[j].Role {
			return members[i].Role < members[j].Role
		}
		return members[i].AssignedAt.Before(members[j].AssignedAt)
	})
	return members, nil
}

func (f *fakeStore) AssignMember(ctx context.Context, projectID, userID string, role auth.ProjectRole) (*auth.Membership, error) {
	if _, ok := f.memberships[projectID][userID]; ok {
		return nil, apperr.Conflict(apperr.ReasonDuplicateMembership, "user is already a member of this project")
	}
	return f.addMembership(projectID, userID, role), nil
}

func (f *fakeStore) ChangeMemberRole(ctx context.Context, projectID, userID string, role auth.ProjectRole, enforceOwnerFloor bool) error {
	m, ok := f.memberships[projectID][userID]
	if !ok {
		return apperr.NotFound(apperr.ReasonMembershipNotFound, "membership not found")
	}
	if enforceOwnerFloor && m.Role == auth.ProjectRoleOwner && role != auth.ProjectRoleOwner &&
		f.ownerCount(projectID) <= 1 {
		return apperr.BusinessRule(apperr.ReasonLastOwner, "cannot demote the last owner of the project")
	}
	m.Role = role
	return nil
}

func (f *fakeStore) RemoveMember(ctx context.Context, projectID, userID string, enforceOwnerFloor bool) error {
	m, ok := f.memberships[projectID][userID]
	if !ok {
		return apperr.NotFound(apperr.ReasonMembershipNotFound, "membership not found")
	}
	if enforceOwnerFloor && m.Role == auth.ProjectRoleOwner && f.ownerCount(projectID) <= 1 {
		return apperr.BusinessRule(apperr.ReasonLastOwner, "cannot remove the last owner of the project")
	}
	delete(f.memberships[projectID], userID)
	return nil
}

func (f *fakeStore) addMembership(projectID, userID string, role auth.ProjectRole) *auth.Membership {
	if f.memberships[projectID] == nil {
		f.memberships[projectID] = make(map[string]*auth.Membership)
	}
	m := &auth.Membership{
		ID:         uuid.NewString(),
		ProjectID:  projectID,
		UserID:     userID,
		Role:       role,
		AssignedAt: time.Now(),
	}
	f.memberships[projectID][userID] = m
	return m
}

func (f *fakeStore) ownerCount(projectID string) int {
	count := 0
	for _, m := range f.memberships[projectID] {
		if m.Role == auth.ProjectRoleOwner {
			count++
		}
	}
	return count
}

// addUser seeds a user with a fixed id
func (f *fakeStore) addUser(id, email string, role auth.GlobalRole, tenantID string) *auth.User {
	u := &auth.User{
		ID:         id,
		Email:      email,
		GlobalRole: role,
		TenantID:   tenantID,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	f.users[id] = u
	return u
}

// captureRecorder collects audit events for assertions
type captureRecorder struct {
	events []audit.Event
}

func (c *captureRecorder) Record(ctx context.Context, event audit.Event) error {
	c.events = append(c.events, event)
	return nil
}

func (c *captureRecorder) hasEvent(eventType audit.EventType) bool {
	for _, e := range c.events {
		if e.Type == eventType {
			return true
		}
	}
	return false
}

// fixture bundles everything a handler test needs
type fixture struct {
	store    *fakeStore
	audit    *captureRecorder
	deps     handlerDeps
	authz    *authz.Authorizer
	tenantID string
	otherTenantID string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	fs := newFakeStore()
	rec := &captureRecorder{}
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	logger := observability.NewLogger(observability.ErrorLevel, &bytes.Buffer{})

	tenant := &auth.Tenant{ID: uuid.NewString(), Name: "Acme Corp"}
	other := &auth.Tenant{ID: uuid.NewString(), Name: "Rival Inc"}
	fs.tenants[tenant.ID] = tenant
	fs.tenants[other.ID] = other

	return &fixture{
		store:         fs,
		audit:         rec,
		deps:          handlerDeps{audit: rec, metrics: metrics, logger: logger},
		authz:         authz.NewAuthorizer(fs, fs),
		tenantID:      tenant.ID,
		otherTenantID: other.ID,
	}
}

func principalFor(u *auth.User) *auth.Principal {
	return &auth.Principal{
		ID:         u.ID,
		Email:      u.Email,
		GlobalRole: u.GlobalRole,
		TenantID:   u.TenantID,
	}
}

// authedRequest builds a request carrying a principal and optional mux
// path vars and JSON body
func authedRequest(t *testing.T, method, target string, principal *auth.Principal, vars map[string]string, body interface{}) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, target, &buf)
	if principal != nil {
		req = req.WithContext(contextkeys.WithPrincipal(req.Context(), principal))
	}
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	return req
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dest); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
}
