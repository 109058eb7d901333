package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error into one of the transport-mappable categories.
type Kind string

const (
	KindUnauthenticated Kind = "unauthenticated"
	KindForbidden       Kind = "forbidden"
	KindValidation      Kind = "validation"
	KindConflict        Kind = "conflict"
	KindNotFound        Kind = "not_found"
	KindBusinessRule    Kind = "business_rule"
	KindInternal        Kind = "internal"
)

// Machine-readable sub-reasons. Handlers and tests match on these rather
// than on message text.
const (
	ReasonTokenMissing      = "missing"
	ReasonTokenInvalid      = "invalid"
	ReasonTokenExpired      = "expired"
	ReasonPrincipalNotFound = "not-found"

	ReasonCrossTenant             = "cross-tenant"
	ReasonInsufficientGlobalRole  = "insufficient-global-role"
	ReasonInsufficientProjectRole = "insufficient-project-role"
	ReasonNoProjectAccess         = "no-project-access"

	ReasonMalformedID   = "malformed-id"
	ReasonMissingField  = "missing-field"
	ReasonBadType       = "bad-type"
	ReasonLengthLimit   = "length-violation"
	ReasonInvalidEnum   = "invalid-enum-value"

	ReasonDuplicateEmail      = "duplicate-email"
	ReasonDuplicateTenantName = "duplicate-company-name"
	ReasonDuplicateMembership = "duplicate-membership"

	ReasonTenantNotFound     = "tenant-not-found"
	ReasonProjectNotFound    = "project-not-found"
	ReasonUserNotFound       = "user-not-found"
	ReasonMembershipNotFound = "membership-not-found"

	ReasonLastOwner = "last-owner-violation"
)

// Error is the single error type returned by the core packages.
type Error struct {
	Kind    Kind
	Reason  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Status returns the HTTP status class for the error kind.
func (e *Error) Status() int {
	switch e.Kind {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindValidation, KindBusinessRule:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to send to the caller. Internal
// errors get a generic description; the cause stays in logs only.
func (e *Error) PublicMessage() string {
	if e.Kind == KindInternal {
		return "internal server error"
	}
	return e.Error()
}

func Unauthenticated(reason, message string) *Error {
	return &Error{Kind: KindUnauthenticated, Reason: reason, Message: message}
}

func Forbidden(reason, message string) *Error {
	return &Error{Kind: KindForbidden, Reason: reason, Message: message}
}

func Validation(reason, message string) *Error {
	return &Error{Kind: KindValidation, Reason: reason, Message: message}
}

func Conflict(reason, message string) *Error {
	return &Error{Kind: KindConflict, Reason: reason, Message: message}
}

func NotFound(reason, message string) *Error {
	return &Error{Kind: KindNotFound, Reason: reason, Message: message}
}

func BusinessRule(reason, message string) *Error {
	return &Error{Kind: KindBusinessRule, Reason: reason, Message: message}
}

// Internal wraps an unexpected failure (storage, crypto, encoding). The
// wrapped cause is preserved for logging but never serialized to a response.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Err: err}
}

// From extracts an *Error from err's chain, or nil if none is present.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

// KindOf returns the kind of err, treating untyped errors as internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	if e := From(err); e != nil {
		return e.Kind
	}
	return KindInternal
}

// ReasonOf returns the machine-readable sub-reason, or "" for untyped errors.
func ReasonOf(err error) string {
	if e := From(err); e != nil {
		return e.Reason
	}
	return ""
}

// IsKind reports whether err's chain contains an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// StatusOf returns the HTTP status for err, defaulting to 500 for untyped
// errors.
func StatusOf(err error) int {
	if e := From(err); e != nil {
		return e.Status()
	}
	return http.StatusInternalServerError
}
