// Package store implements PostgreSQL-backed persistence for tenants,
// users, projects, and project memberships.
//
// All methods return *apperr.Error values for domain outcomes (not
// found, duplicates, ownership floor violations) and wrapped driver
// errors for infrastructure failures. Multi-row invariants are enforced
// inside transactions with row locks so concurrent requests cannot
// observe or create inconsistent states.
package store
