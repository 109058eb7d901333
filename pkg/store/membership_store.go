package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/platinummonkey/taskhub/pkg/apperr"
	"github.com/platinummonkey/taskhub/pkg/auth"
)

// Member is a membership row joined with the member's account fields.
type Member struct {
	ID         string           `json:"id"`
	ProjectID  string           `json:"project_id"`
	UserID     string           `json:"user_id"`
	Email      string           `json:"email"`
	Role       auth.ProjectRole `json:"role"`
	AssignedAt time.Time        `json:"assigned_at"`
}

// GetMembership retrieves the membership of a user on a project
func (s *Store) GetMembership(ctx context.Context, projectID, userID string) (*auth.Membership, error) {
	query := `
		SELECT id, project_id, user_id, role, assigned_at
		FROM project_members
		WHERE project_id = $1 AND user_id = $2
	`
	membership := &auth.Membership{}
	err := s.db.QueryRowContext(ctx, query, projectID, userID).Scan(
		&membership.ID, &membership.ProjectID, &membership.UserID,
		&membership.Role, &membership.AssignedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound(apperr.ReasonMembershipNotFound, "membership not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}

	return membership, nil
}

// ListMembers retrieves all members of a project with their emails,
// owners first, then by assignment time
func (s *Store) ListMembers(ctx context.Context, projectID string) ([]*Member, error) {
	query := `
		SELECT pm.id, pm.project_id, pm.user_id, u.email, pm.role, pm.assigned_at
		FROM project_members pm
		JOIN users u ON u.id = pm.user_id
		WHERE pm.project_id = $1
		ORDER BY pm.role ASC, pm.assigned_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*Member
	for rows.Next() {
		member := &Member{}
		if err := rows.Scan(
			&member.ID, &member.ProjectID, &member.UserID,
			&member.Email, &member.Role, &member.AssignedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	return members, nil
}

// AssignMember grants a user a role on a project
func (s *Store) AssignMember(ctx context.Context, projectID, userID string, role auth.ProjectRole) (*auth.Membership, error) {
	membership := &auth.Membership{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		UserID:    userID,
		Role:      role,
	}

	query := `
		INSERT INTO project_members (id, project_id, user_id, role)
		VALUES ($1, $2, $3, $4)
		RETURNING assigned_at
	`
	err := s.db.QueryRowContext(ctx, query,
		membership.ID, membership.ProjectID, membership.UserID, membership.Role).
		Scan(&membership.AssignedAt)
	if c := conflictError(err); c != nil {
		return nil, c
	}
	if err != nil {
		return nil, fmt.Errorf("failed to assign member: %w", err)
	}

	return membership, nil
}

// ChangeMemberRole updates a member's role. When enforceOwnerFloor is
// set, demoting the project's only owner is rejected. The decision and
// the update happen under row locks so concurrent demotions cannot
// leave the project ownerless.
func (s *Store) ChangeMemberRole(ctx context.Context, projectID, userID string, role auth.ProjectRole, enforceOwnerFloor bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, owners, err := lockMemberships(ctx, tx, projectID, userID)
	if err != nil {
		return err
	}

	if enforceOwnerFloor && *current == auth.ProjectRoleOwner && role != auth.ProjectRoleOwner && owners <= 1 {
		return apperr.BusinessRule(apperr.ReasonLastOwner, "cannot demote the last owner of the project")
	}

	query := `UPDATE project_members SET role = $1 WHERE project_id = $2 AND user_id = $3`
	if _, err := tx.ExecContext(ctx, query, role, projectID, userID); err != nil {
		return fmt.Errorf("failed to update member role: %w", err)
	}

	return tx.Commit()
}

// RemoveMember removes a user from a project. When enforceOwnerFloor is
// set, removing the project's only owner is rejected.
func (s *Store) RemoveMember(ctx context.Context, projectID, userID string, enforceOwnerFloor bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, owners, err := lockMemberships(ctx, tx, projectID, userID)
	if err != nil {
		return err
	}

	if enforceOwnerFloor && *current == auth.ProjectRoleOwner && owners <= 1 {
		return apperr.BusinessRule(apperr.ReasonLastOwner, "cannot remove the last owner of the project")
	}

	query := `DELETE FROM project_members WHERE project_id = $1 AND user_id = $2`
	if _, err := tx.ExecContext(ctx, query, projectID, userID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	return tx.Commit()
}

// lockMemberships locks every membership row of the project and returns
// the target user's current role plus the project's owner count.
func lockMemberships(ctx context.Context, tx *sql.Tx, projectID, userID string) (*auth.ProjectRole, int, error) {
	query := `
		SELECT user_id, role
		FROM project_members
		WHERE project_id = $1
		FOR UPDATE
	`
	rows, err := tx.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to lock memberships: %w", err)
	}
	defer rows.Close()

	var current *auth.ProjectRole
	owners := 0
	for rows.Next() {
		var memberID string
		var role auth.ProjectRole
		if err := rows.Scan(&memberID, &role); err != nil {
			return nil, 0, fmt.Errorf("failed to scan membership: %w", err)
		}
		if role == auth.ProjectRoleOwner {
			owners++
		}
		if memberID == userID {
			r := role
			current = &r
		}
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to lock memberships: %w", err)
	}

	if current == nil {
		return nil, 0, apperr.NotFound(apperr.ReasonMembershipNotFound, "membership not found")
	}

	return current, owners, nil
}
