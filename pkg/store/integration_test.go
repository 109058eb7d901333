package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/taskhub/pkg/apperr"
	"github.com/platinummonkey/taskhub/pkg/auth"
)

// Exercises the full store lifecycle against a real database. Skipped
// unless TEST_POSTGRES_URL is set.
func TestStoreIntegration(t *testing.T) {
	db := RequireDatabase(t)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, RunMigrations(ctx, db))

	st := New(db)
	suffix := time.Now().UnixNano()

	admin := &auth.User{
		Email:        fmt.Sprintf("admin-%d@example.com", suffix),
		PasswordHash: "x",
	}
	tenant, err := st.CreateTenantWithAdmin(ctx, fmt.Sprintf("Integration Co %d", suffix), admin)
	require.NoError(t, err)
	assert.Equal(t, auth.GlobalRoleAdmin, admin.GlobalRole)

	t.Cleanup(func() {
		db.Exec("DELETE FROM projects WHERE tenant_id = $1", tenant.ID)
		db.Exec("DELETE FROM users WHERE tenant_id = $1", tenant.ID)
		db.Exec("DELETE FROM tenants WHERE id = $1", tenant.ID)
	})

	dev := &auth.User{
		Email:        fmt.Sprintf("dev-%d@example.com", suffix),
		PasswordHash: "x",
		GlobalRole:   auth.GlobalRoleMember,
		TenantID:     tenant.ID,
	}
	require.NoError(t, st.CreateUser(ctx, dev))

	project := &auth.Project{Name: "Integration", TenantID: tenant.ID}
	require.NoError(t, st.CreateProject(ctx, project, admin.ID))

	// Creator gets the owner membership atomically.
	membership, err := st.GetMembership(ctx, project.ID, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, auth.ProjectRoleOwner, membership.Role)

	_, err = st.AssignMember(ctx, project.ID, dev.ID, auth.ProjectRoleDeveloper)
	require.NoError(t, err)

	summaries, err := st.ListProjectSummaries(ctx, tenant.ID, dev.ID, true)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 2, summaries[0].MemberCount)
	assert.Equal(t, string(auth.ProjectRoleDeveloper), summaries[0].ViewerRole)

	// Sole owner cannot be demoted or removed while the floor is enforced.
	err = st.ChangeMemberRole(ctx, project.ID, admin.ID, auth.ProjectRoleViewer, true)
	assert.True(t, apperr.IsKind(err, apperr.KindBusinessRule))
	err = st.RemoveMember(ctx, project.ID, admin.ID, true)
	assert.True(t, apperr.IsKind(err, apperr.KindBusinessRule))

	// With a second owner the original one can leave.
	require.NoError(t, st.ChangeMemberRole(ctx, project.ID, dev.ID, auth.ProjectRoleOwner, true))
	require.NoError(t, st.RemoveMember(ctx, project.ID, admin.ID, true))

	require.NoError(t, st.DeleteProject(ctx, project.ID))
	_, err = st.GetMembership(ctx, project.ID, dev.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
