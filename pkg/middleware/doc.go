// Package middleware provides HTTP middleware for authentication and
// request throttling.
//
// Authenticate resolves the bearer token (or session cookie) to a live
// principal on every request. Role and tenant always come from the
// current user row, so a revoked role applies to the very next request,
// not at token expiry.
package middleware
