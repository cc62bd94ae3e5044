package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/tradeops/factory-message-service/internal/domain"
)

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetAdmin returns the system admin user used as the author of
// auto-generated team notes.
func (r *UserRepository) GetAdmin(ctx context.Context) (*domain.User, error) {
	query := `SELECT * FROM users WHERE is_admin = 1 ORDER BY id LIMIT 1`

	var user domain.User
	if err := r.db.GetContext(ctx, &user, query); err != nil {
		return nil, fmt.Errorf("failed to get admin user: %w", err)
	}

	return &user, nil
}

// ListAssigned returns the users assigned to an order whose role is in the
// given set. An empty role set returns no users.
func (r *UserRepository) ListAssigned(ctx context.Context, orderID int64, roles []domain.Role) ([]domain.User, error) {
	if len(roles) == 0 {
		return nil, nil
	}

	query := `
		SELECT u.*
		FROM users u
		JOIN purchase_order_assignments a ON a.user_id = u.id
		WHERE a.order_id = ? AND u.role IN (?)
		ORDER BY u.id
	`

	query, args, err := sqlx.In(query, orderID, roles)
	if err != nil {
		return nil, fmt.Errorf("failed to build assigned users query: %w", err)
	}

	var users []domain.User
	if err := r.db.SelectContext(ctx, &users, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list assigned users: %w", err)
	}

	return users, nil
}
