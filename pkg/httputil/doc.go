// Package httputil provides HTTP utilities for standardized request/response handling.
//
// # Response Helpers
//
// JSON responses:
//
//	httputil.WriteJSON(w, http.StatusOK, data)
//	httputil.WriteCreated(w, resource)
//
// Error responses map typed application errors to status codes:
//
//	httputil.WriteAppError(w, err)
//	httputil.WriteBadRequest(w, "Invalid input")
//	httputil.WriteUnauthorized(w, "Token expired")
//
// # Request Parsing
//
// JSON parsing:
//
//	var req CreateProjectRequest
//	if !httputil.ParseJSONOrError(w, r, &req) {
//		return // Error response already written
//	}
//
// Path parameters with ID format validation:
//
//	projectID, ok := httputil.ParsePathUUIDOrError(w, r, "id")
//
// # Related Packages
//
//   - pkg/middleware: Authentication middleware
//   - pkg/apperr: Typed application errors
package httputil
