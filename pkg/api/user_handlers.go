package api

import (
	"context"
	"net/http"

	"github.com/platinummonkey/taskhub/pkg/auth"
	"github.com/platinummonkey/taskhub/pkg/httputil"
)

// UserStore is the storage surface used by user handlers
type UserStore interface {
	ListUsersByTenant(ctx context.Context, tenantID string) ([]*auth.User, error)
}

// UserHandlers handles user listing endpoints
type UserHandlers struct {
	handlerDeps
	store UserStore
}

// NewUserHandlers creates a new UserHandlers
func NewUserHandlers(store UserStore, deps handlerDeps) *UserHandlers {
	return &UserHandlers{
		handlerDeps: deps,
		store:       store,
	}
}

// ListUsers returns all users of the caller's company, email ascending.
// Password hashes never serialize.
func (h *UserHandlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	users, err := h.store.ListUsersByTenant(r.Context(), principal.TenantID)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	if users == nil {
		users = []*auth.User{}
	}

	httputil.WriteSuccess(w, users)
}
