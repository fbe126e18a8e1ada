package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/scms/clinic-api/internal/model"
)

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `
		SELECT id, full_name, email, phone, role, active, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	var user model.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, wrapErr("get user", err)
	}
	return &user, nil
}

func (r *userRepository) ExistsWithRole(ctx context.Context, id uuid.UUID, role model.Role) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM users
			WHERE id = $1 AND role = $2 AND active
		)
	`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, id, role); err != nil {
		return false, wrapErr("check user role", err)
	}
	return exists, nil
}

func (r *userRepository) List(ctx context.Context, role model.Role) ([]*model.User, error) {
	query := `
		SELECT id, full_name, email, phone, role, active, created_at, updated_at
		FROM users
		WHERE role = $1 AND active
		ORDER BY full_name ASC
	`
	var users []*model.User
	if err := r.db.SelectContext(ctx, &users, query, role); err != nil {
		return nil, wrapErr("list users", err)
	}
	return users, nil
}
