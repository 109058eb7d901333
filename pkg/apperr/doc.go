// Package apperr defines the typed error taxonomy shared by the
// authorization core and the HTTP layer.
//
// Every operation in the core either returns a success value or exactly one
// *apperr.Error. The HTTP layer maps each error kind 1:1 to a transport
// status; nothing inside the core retries or swallows failures.
//
// Kinds and their status codes:
//
//	Unauthenticated -> 401
//	Forbidden       -> 403
//	Validation      -> 400
//	BusinessRule    -> 400
//	NotFound        -> 404
//	Conflict        -> 409
//	Internal        -> 500 (message never leaked to the caller)
package apperr
