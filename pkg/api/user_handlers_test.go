package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/taskhub/pkg/auth"
)

func TestListUsersHandler(t *testing.T) {
	f := newFixture(t)
	h := NewUserHandlers(f.store, f.deps)

	caller := f.store.addUser("00000000-0000-4000-8000-00000000000a", "zed@acme.test", auth.GlobalRoleMember, f.tenantID)
	f.store.addUser("00000000-0000-4000-8000-00000000000b", "ann@acme.test", auth.GlobalRoleAdmin, f.tenantID)
	f.store.addUser("00000000-0000-4000-8000-00000000000c", "spy@rival.test", auth.GlobalRoleAdmin, f.otherTenantID)

	t.Run("lists own tenant only, email ascending", func(t *testing.T) {
		req := authedRequest(t, http.MethodGet, "/users", principalFor(caller), nil, nil)
		rec := httptest.NewRecorder()
		h.ListUsers(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var got []*auth.User
		decodeJSON(t, rec, &got)
		require.Len(t, got, 2)
		assert.Equal(t, "ann@acme.test", got[0].Email)
		assert.Equal(t, "zed@acme.test", got[1].Email)
		assert.NotContains(t, rec.Body.String(), "password_hash")
	})

	t.Run("unauthenticated is 401", func(t *testing.T) {
		req := authedRequest(t, http.MethodGet, "/users", nil, nil, nil)
		rec := httptest.NewRecorder()
		h.ListUsers(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
