package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want int
	}{
		{"unauthenticated", Unauthenticated(ReasonTokenExpired, "token expired"), http.StatusUnauthorized},
		{"forbidden", Forbidden(ReasonCrossTenant, "different company"), http.StatusForbidden},
		{"validation", Validation(ReasonMalformedID, "bad id"), http.StatusBadRequest},
		{"business rule", BusinessRule(ReasonLastOwner, "cannot remove the last owner"), http.StatusBadRequest},
		{"not found", NotFound(ReasonProjectNotFound, "project not found"), http.StatusNotFound},
		{"conflict", Conflict(ReasonDuplicateMembership, "already assigned"), http.StatusConflict},
		{"internal", Internal(errors.New("connection refused")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Status())
			assert.Equal(t, tt.want, StatusOf(tt.err))
		})
	}
}

func TestInternalNeverLeaksCause(t *testing.T) {
	cause := errors.New("pq: password authentication failed for user postgres")
	err := Internal(cause)

	assert.Equal(t, "internal server error", err.PublicMessage())
	// The cause stays reachable for logging.
	assert.True(t, errors.Is(err, cause))
}

func TestFromUnwrapsWrappedErrors(t *testing.T) {
	inner := Forbidden(ReasonNoProjectAccess, "no access to this project")
	wrapped := fmt.Errorf("checking project access: %w", inner)

	got := From(wrapped)
	require.NotNil(t, got)
	assert.Equal(t, KindForbidden, got.Kind)
	assert.Equal(t, ReasonNoProjectAccess, got.Reason)

	assert.True(t, IsKind(wrapped, KindForbidden))
	assert.Equal(t, ReasonNoProjectAccess, ReasonOf(wrapped))
	assert.Equal(t, http.StatusForbidden, StatusOf(wrapped))
}

func TestUntypedErrorsTreatedAsInternal(t *testing.T) {
	err := errors.New("boom")

	assert.Nil(t, From(err))
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(err))
	assert.Equal(t, "", ReasonOf(err))
}
