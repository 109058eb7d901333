package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// DBRecorder writes audit events to the audit_log table
type DBRecorder struct {
	db *sql.DB
}

// NewDBRecorder creates a database-backed audit recorder
func NewDBRecorder(db *sql.DB) *DBRecorder {
	return &DBRecorder{db: db}
}

// Record inserts an audit event
func (r *DBRecorder) Record(ctx context.Context, event Event) error {
	query := `
		INSERT INTO audit_log (event_type, actor_id, tenant_id, resource_id, detail, created_at)
		VALUES ($1, NULLIF($2, '')::uuid, NULLIF($3, '')::uuid, $4, $5, NOW())
	`

	_, err := r.db.ExecContext(ctx, query,
		string(event.Type), event.ActorID, event.TenantID, event.ResourceID, event.Detail)
	if err != nil {
		return fmt.Errorf("failed to record audit event: %w", err)
	}
	return nil
}

// ListByTenant returns the most recent audit events for a tenant
func (r *DBRecorder) ListByTenant(ctx context.Context, tenantID string, limit int) ([]Event, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	query := `
		SELECT id, event_type, COALESCE(actor_id::text, ''), COALESCE(tenant_id::text, ''),
		       resource_id, detail, created_at
		FROM audit_log
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Type, &e.ActorID, &e.TenantID, &e.ResourceID, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit events: %w", err)
	}
	return events, nil
}

// Purge deletes audit events older than the cutoff and returns the
// number of rows removed
func (r *DBRecorder) Purge(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM audit_log WHERE created_at < $1`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to purge audit log: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get purged row count: %w", err)
	}
	return deleted, nil
}
