// Package authz implements the authorization engine: pure decision
// functions over (principal, resource, requested action) layered across two
// scopes — the tenant-wide global role and the per-project role held
// through a membership.
//
// Decision order matters. On any project-scoped resource the tenant match
// is checked first and short-circuits with a uniform "different company"
// denial, so callers can never distinguish a cross-tenant resource that
// exists from one that does not.
package authz
