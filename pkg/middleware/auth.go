package middleware

import (
	"net/http"
	"strings"

	"github.com/platinummonkey/taskhub/pkg/apperr"
	"github.com/platinummonkey/taskhub/pkg/audit"
	"github.com/platinummonkey/taskhub/pkg/auth"
	"github.com/platinummonkey/taskhub/pkg/contextkeys"
	"github.com/platinummonkey/taskhub/pkg/httputil"
	"github.com/platinummonkey/taskhub/pkg/observability"
)

// SessionCookieName is the cookie used as a fallback token carrier for
// browser clients.
const SessionCookieName = "token"

// AuthMiddleware provides authentication middleware
type AuthMiddleware struct {
	authenticator *auth.Authenticator
	audit         audit.Recorder
	metrics       *observability.Metrics
}

// NewAuthMiddleware creates a new authentication middleware. Rejected
// tokens are counted and audited; recorder and metrics may be nil.
func NewAuthMiddleware(authenticator *auth.Authenticator, recorder audit.Recorder, metrics *observability.Metrics) *AuthMiddleware {
	return &AuthMiddleware{
		authenticator: authenticator,
		audit:         recorder,
		metrics:       metrics,
	}
}

// Handler wraps an HTTP handler with authentication. The resolved
// principal is stored in the request context.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := extractToken(r)
		if err != nil {
			m.rejected(r, err)
			httputil.WriteAppError(w, err)
			return
		}

		principal, err := m.authenticator.Authenticate(r.Context(), token)
		if err != nil {
			m.rejected(r, err)
			httputil.WriteAppError(w, err)
			return
		}

		ctx := contextkeys.WithPrincipal(r.Context(), principal)
		ctx = contextkeys.WithUserID(ctx, principal.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// rejected records a failed authentication attempt. Recording is
// best-effort and never changes the response.
func (m *AuthMiddleware) rejected(r *http.Request, err error) {
	reason := apperr.ReasonOf(err)
	if m.metrics != nil {
		m.metrics.RecordTokenRejection(reason)
	}
	if m.audit != nil {
		event := audit.Event{
			Type:   audit.EventTokenRejected,
			Detail: reason,
		}
		if err := m.audit.Record(r.Context(), event); err != nil {
			observability.GetLogger(r.Context()).WithError(err).Warn("failed to record audit event")
		}
	}
}

// extractToken pulls the raw token from the Authorization header,
// falling back to the session cookie. An absent token returns "" so
// the authenticator can produce the canonical missing-token error.
func extractToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			return "", apperr.Unauthenticated(apperr.ReasonTokenInvalid, "invalid authorization header format")
		}
		return parts[1], nil
	}

	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return cookie.Value, nil
	}

	return "", nil
}

// GetPrincipal extracts the authenticated principal from the request
func GetPrincipal(r *http.Request) *auth.Principal {
	val := r.Context().Value(contextkeys.PrincipalKey)
	if val == nil {
		return nil
	}
	principal, ok := val.(*auth.Principal)
	if !ok {
		return nil
	}
	return principal
}
