package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/platinummonkey/taskhub/pkg/apperr"
	"github.com/platinummonkey/taskhub/pkg/auth"
)

// CreateTenantWithAdmin creates a tenant and its first admin user in a
// single transaction. The user's TenantID and GlobalRole are set here.
func (s *Store) CreateTenantWithAdmin(ctx context.Context, name string, user *auth.User) (*auth.Tenant, error) {
	tenant := &auth.Tenant{
		ID:   uuid.NewString(),
		Name: name,
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.TenantID = tenant.ID
	user.GlobalRole = auth.GlobalRoleAdmin

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO tenants (id, name)
		VALUES ($1, $2)
		RETURNING created_at, updated_at
	`
	err = tx.QueryRowContext(ctx, query, tenant.ID, tenant.Name).
		Scan(&tenant.CreatedAt, &tenant.UpdatedAt)
	if c := conflictError(err); c != nil {
		return nil, c
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create tenant: %w", err)
	}

	query = `
		INSERT INTO users (id, email, password_hash, role, tenant_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`
	err = tx.QueryRowContext(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.GlobalRole, user.TenantID).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	if c := conflictError(err); c != nil {
		return nil, c
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return tenant, nil
}

// GetTenant retrieves a tenant by ID
func (s *Store) GetTenant(ctx context.Context, id string) (*auth.Tenant, error) {
	query := `
		SELECT id, name, created_at, updated_at
		FROM tenants
		WHERE id = $1
	`
	tenant := &auth.Tenant{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&tenant.ID, &tenant.Name, &tenant.CreatedAt, &tenant.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound(apperr.ReasonTenantNotFound, "company not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}

	return tenant, nil
}
