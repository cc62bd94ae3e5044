package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/tradeops/factory-message-service/internal/domain"
	"github.com/tradeops/factory-message-service/internal/health"
)

type SupplierRepository struct {
	db *sqlx.DB
}

func NewSupplierRepository(db *sqlx.DB) *SupplierRepository {
	return &SupplierRepository{db: db}
}

const supplierColumns = `id, name, webhook_url, token, status, error_count, last_error, last_test_at, created_at, updated_at`

// GetByID returns nil when the supplier does not exist.
func (r *SupplierRepository) GetByID(ctx context.Context, id int64) (*domain.Supplier, error) {
	query := `SELECT ` + supplierColumns + ` FROM suppliers WHERE id = ?`

	var supplier domain.Supplier
	if err := r.db.GetContext(ctx, &supplier, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get supplier: %w", err)
	}

	return &supplier, nil
}

func (r *SupplierRepository) List(ctx context.Context) ([]domain.Supplier, error) {
	query := `SELECT ` + supplierColumns + ` FROM suppliers ORDER BY name ASC`

	var suppliers []domain.Supplier
	if err := r.db.SelectContext(ctx, &suppliers, query); err != nil {
		return nil, fmt.Errorf("failed to list suppliers: %w", err)
	}

	return suppliers, nil
}

// UpdateHealth persists the health slice computed by the health package.
// Last-write-wins; the counters are advisory.
func (r *SupplierRepository) UpdateHealth(ctx context.Context, id int64, st health.State) error {
	query := `
		UPDATE suppliers
		SET status = ?, error_count = ?, last_error = ?, last_test_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	if _, err := r.db.ExecContext(ctx, query, st.Status, st.ErrorCount, st.LastError, st.LastTestAt, id); err != nil {
		return fmt.Errorf("failed to update supplier health: %w", err)
	}

	return nil
}
