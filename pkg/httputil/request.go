package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/platinummonkey/taskhub/pkg/apperr"
)

// ParseJSON decodes JSON from the request body into the destination
func ParseJSON(r *http.Request, dest interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return apperr.Validation(apperr.ReasonBadType, fmt.Sprintf("invalid JSON: %v", err))
	}
	return nil
}

// ParseJSONOrError decodes JSON and writes error response on failure
func ParseJSONOrError(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	if err := ParseJSON(r, dest); err != nil {
		WriteAppError(w, err)
		return false
	}
	return true
}

// ParsePathString extracts a string path parameter
func ParsePathString(r *http.Request, key string) (string, error) {
	vars := mux.Vars(r)
	str := vars[key]
	if str == "" {
		return "", apperr.Validation(apperr.ReasonMissingField, fmt.Sprintf("missing path parameter: %s", key))
	}
	return str, nil
}

// ValidateUUID checks an entity id for UUID shape. Malformed ids are
// rejected before any storage lookup happens, whether the id arrived in
// the path or in a request body.
func ValidateUUID(id, field string) error {
	if _, err := uuid.Parse(id); err != nil || len(id) != 36 {
		return apperr.Validation(apperr.ReasonMalformedID, fmt.Sprintf("invalid id format for %s", field))
	}
	return nil
}

// ParsePathUUID extracts a path parameter and validates the UUID format.
func ParsePathUUID(r *http.Request, key string) (string, error) {
	str, err := ParsePathString(r, key)
	if err != nil {
		return "", err
	}
	if err := ValidateUUID(str, key); err != nil {
		return "", err
	}
	return str, nil
}

// ParsePathUUIDOrError extracts a UUID path parameter and writes error on failure
func ParsePathUUIDOrError(w http.ResponseWriter, r *http.Request, key string) (string, bool) {
	val, err := ParsePathUUID(r, key)
	if err != nil {
		WriteAppError(w, err)
		return "", false
	}
	return val, true
}

// ParseQueryString extracts a string query parameter
func ParseQueryString(r *http.Request, key string, defaultVal string) string {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// RequireNonEmpty validates that a string field is not empty
func RequireNonEmpty(w http.ResponseWriter, value, fieldName string) bool {
	if value == "" {
		WriteAppError(w, apperr.Validation(apperr.ReasonMissingField, fmt.Sprintf("%s is required", fieldName)))
		return false
	}
	return true
}

// RequireMaxLength validates that a string does not exceed a limit
func RequireMaxLength(w http.ResponseWriter, value, fieldName string, max int) bool {
	if len(value) > max {
		WriteAppError(w, apperr.Validation(apperr.ReasonLengthLimit,
			fmt.Sprintf("%s must be at most %d characters", fieldName, max)))
		return false
	}
	return true
}
