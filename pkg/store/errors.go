package store

import (
	"errors"

	"github.com/lib/pq"

	"github.com/platinummonkey/taskhub/pkg/apperr"
)

const pqUniqueViolation = "23505"

// conflictError maps a unique-constraint violation to the typed
// conflict it represents, or returns nil for any other error.
func conflictError(err error) *apperr.Error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || string(pqErr.Code) != pqUniqueViolation {
		return nil
	}
	switch pqErr.Constraint {
	case "tenants_name_key":
		return apperr.Conflict(apperr.ReasonDuplicateTenantName, "a company with this name already exists")
	case "users_email_key":
		return apperr.Conflict(apperr.ReasonDuplicateEmail, "a user with this email already exists")
	case "project_members_project_id_user_id_key":
		return apperr.Conflict(apperr.ReasonDuplicateMembership, "user is already a member of this project")
	}
	return apperr.Conflict("", "duplicate record")
}
