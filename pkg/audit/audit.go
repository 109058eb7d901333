// Package audit records security-relevant events to a durable log.
//
// Every authentication outcome, authorization denial, and membership
// change produces an audit event. Recording is best-effort: a failed
// audit write is logged but never fails the request that produced it.
package audit

import (
	"context"
	"time"
)

// EventType identifies the kind of audit event
type EventType string

const (
	EventUserRegistered    EventType = "user.registered"
	EventLoginSucceeded    EventType = "auth.login_succeeded"
	EventLoginFailed       EventType = "auth.login_failed"
	EventTokenRejected     EventType = "auth.token_rejected"
	EventAccessDenied      EventType = "authz.access_denied"
	EventProjectCreated    EventType = "project.created"
	EventProjectUpdated    EventType = "project.updated"
	EventProjectDeleted    EventType = "project.deleted"
	EventMemberAssigned    EventType = "membership.assigned"
	EventMemberRoleChanged EventType = "membership.role_changed"
	EventMemberRemoved     EventType = "membership.removed"
)

// Event is a single audit log entry
type Event struct {
	ID         int64     `json:"id"`
	Type       EventType `json:"event_type"`
	ActorID    string    `json:"actor_id,omitempty"`
	TenantID   string    `json:"tenant_id,omitempty"`
	ResourceID string    `json:"resource_id,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Recorder persists audit events
type Recorder interface {
	Record(ctx context.Context, event Event) error
}

// NoopRecorder discards all events. Used in tests and when auditing is
// disabled.
type NoopRecorder struct{}

func (NoopRecorder) Record(ctx context.Context, event Event) error {
	return nil
}
