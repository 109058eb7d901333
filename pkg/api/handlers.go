package api

import (
	"context"
	"net/http"

	"github.com/platinummonkey/taskhub/pkg/apperr"
	"github.com/platinummonkey/taskhub/pkg/audit"
	"github.com/platinummonkey/taskhub/pkg/auth"
	"github.com/platinummonkey/taskhub/pkg/httputil"
	"github.com/platinummonkey/taskhub/pkg/middleware"
	"github.com/platinummonkey/taskhub/pkg/observability"
)

// handlerDeps carries the cross-cutting dependencies shared by all
// handler groups
type handlerDeps struct {
	audit   audit.Recorder
	metrics *observability.Metrics
	logger  *observability.Logger
}

// recordAudit writes an audit event. Failures are logged and swallowed.
func (d *handlerDeps) recordAudit(ctx context.Context, event audit.Event) {
	if err := d.audit.Record(ctx, event); err != nil {
		d.logger.WithError(err).WithField("event_type", string(event.Type)).
			Warn("failed to record audit event")
	}
}

// requirePrincipal resolves the authenticated principal or writes a 401
func requirePrincipal(w http.ResponseWriter, r *http.Request) (*auth.Principal, bool) {
	principal := middleware.GetPrincipal(r)
	if principal == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return nil, false
	}
	return principal, true
}

// authorized handles the outcome of an authorization check: nil errors
// count as allowed, forbidden errors are counted and audited, and the
// error response is written for the caller.
func (d *handlerDeps) authorized(ctx context.Context, w http.ResponseWriter, operation string, p *auth.Principal, resourceID string, err error) bool {
	if err == nil {
		d.metrics.RecordAuthzDecision(operation, "allowed")
		return true
	}

	if apperr.KindOf(err) == apperr.KindForbidden {
		d.metrics.RecordAuthzDecision(operation, "denied")
		d.recordAudit(ctx, audit.Event{
			Type:       audit.EventAccessDenied,
			ActorID:    p.ID,
			TenantID:   p.TenantID,
			ResourceID: resourceID,
			Detail:     operation + ": " + apperr.ReasonOf(err),
		})
	}

	httputil.WriteAppError(w, err)
	return false
}
