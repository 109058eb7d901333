// Package api implements the HTTP surface of the service.
//
// Handlers are grouped per resource (auth, users, projects, members)
// and registered on a gorilla/mux router by NewServer. Every handler
// resolves the authenticated principal from the request context, runs
// the tenant guard before any role check on project-scoped resources,
// and maps typed errors to HTTP statuses through pkg/httputil.
//
// Authorization denials are counted in Prometheus and written to the
// audit trail; audit failures never fail the request that produced
// them.
package api
