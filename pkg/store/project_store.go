package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/platinummonkey/taskhub/pkg/apperr"
	"github.com/platinummonkey/taskhub/pkg/auth"
)

// CreateProject inserts a project and grants the creator the owner role
// in a single transaction. Either both rows exist afterwards or neither.
func (s *Store) CreateProject(ctx context.Context, project *auth.Project, creatorID string) error {
	if project.ID == "" {
		project.ID = uuid.NewString()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO projects (id, name, description, tenant_id)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`
	err = tx.QueryRowContext(ctx, query,
		project.ID, project.Name, project.Description, project.TenantID).
		Scan(&project.CreatedAt, &project.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	query = `
		INSERT INTO project_members (id, project_id, user_id, role)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := tx.ExecContext(ctx, query,
		uuid.NewString(), project.ID, creatorID, auth.ProjectRoleOwner); err != nil {
		return fmt.Errorf("failed to create owner membership: %w", err)
	}

	return tx.Commit()
}

// GetProject retrieves a project by ID
func (s *Store) GetProject(ctx context.Context, id string) (*auth.Project, error) {
	query := `
		SELECT id, name, description, tenant_id, created_at, updated_at
		FROM projects
		WHERE id = $1
	`
	project := &auth.Project{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&project.ID, &project.Name, &project.Description,
		&project.TenantID, &project.CreatedAt, &project.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound(apperr.ReasonProjectNotFound, "project not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return project, nil
}

// ProjectSummary is a project row enriched with its member count and
// the viewing user's role, empty when the viewer holds no membership
type ProjectSummary struct {
	auth.Project
	MemberCount int    `json:"member_count"`
	ViewerRole  string `json:"viewer_role,omitempty"`
}

// ListProjectSummaries retrieves the tenant's projects, newest first.
// When membersOnly is set only projects where the user holds a
// membership are returned.
func (s *Store) ListProjectSummaries(ctx context.Context, tenantID, userID string, membersOnly bool) ([]*ProjectSummary, error) {
	query := `
		SELECT p.id, p.name, p.description, p.tenant_id, p.created_at, p.updated_at,
		       (SELECT COUNT(*) FROM project_members mc WHERE mc.project_id = p.id) AS member_count,
		       COALESCE(pm.role, '') AS viewer_role
		FROM projects p
		LEFT JOIN project_members pm ON pm.project_id = p.id AND pm.user_id = $2
		WHERE p.tenant_id = $1
	`
	if membersOnly {
		query += ` AND pm.user_id IS NOT NULL`
	}
	query += ` ORDER BY p.created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, tenantID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var summaries []*ProjectSummary
	for rows.Next() {
		summary := &ProjectSummary{}
		if err := rows.Scan(
			&summary.ID, &summary.Name, &summary.Description,
			&summary.TenantID, &summary.CreatedAt, &summary.UpdatedAt,
			&summary.MemberCount, &summary.ViewerRole,
		); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate projects: %w", err)
	}

	return summaries, nil
}

// UpdateProject updates a project's name and description
func (s *Store) UpdateProject(ctx context.Context, project *auth.Project) error {
	query := `
		UPDATE projects
		SET name = $1, description = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING updated_at
	`
	err := s.db.QueryRowContext(ctx, query,
		project.Name, project.Description, project.ID).
		Scan(&project.UpdatedAt)
	if err == sql.ErrNoRows {
		return apperr.NotFound(apperr.ReasonProjectNotFound, "project not found")
	}
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}

	return nil
}

// DeleteProject removes a project and all of its memberships in a
// single transaction.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM project_members WHERE project_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete memberships: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperr.NotFound(apperr.ReasonProjectNotFound, "project not found")
	}

	return tx.Commit()
}
