package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tradeops/factory-message-service/internal/domain"
)

type OrderRepository struct {
	db *sqlx.DB
}

func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `id, order_no, supplier_id, status, total_value, currency, delivery_date,
	payment_terms, sales_order_no, confirmed_at, production_started_at, production_completed_at,
	shipped_at, qc_status, tracking_no, last_reply_at, last_factory_message_at, created_at, updated_at`

func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*domain.PurchaseOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM purchase_orders WHERE id = ?`

	var po domain.PurchaseOrder
	if err := r.db.GetContext(ctx, &po, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get purchase order: %w", err)
	}

	return &po, nil
}

// GetByOrderNo resolves the stable external key exactly (case-sensitive
// collation on the unique index).
func (r *OrderRepository) GetByOrderNo(ctx context.Context, orderNo string) (*domain.PurchaseOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM purchase_orders WHERE BINARY order_no = ?`

	var po domain.PurchaseOrder
	if err := r.db.GetContext(ctx, &po, query, orderNo); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get purchase order by number: %w", err)
	}

	return &po, nil
}

func (r *OrderRepository) GetItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	query := `
		SELECT id, order_id, product_name, quantity, unit, unit_price
		FROM purchase_order_items
		WHERE order_id = ?
		ORDER BY id ASC
	`

	var items []domain.OrderItem
	if err := r.db.SelectContext(ctx, &items, query, orderID); err != nil {
		return nil, fmt.Errorf("failed to get order items: %w", err)
	}

	return items, nil
}

// UpdateLifecycle writes the status/milestone fields mutated by
// lifecycle.Apply back in one statement.
func (r *OrderRepository) UpdateLifecycle(ctx context.Context, po *domain.PurchaseOrder) error {
	query := `
		UPDATE purchase_orders
		SET status = ?,
		    confirmed_at = ?,
		    production_started_at = ?,
		    production_completed_at = ?,
		    shipped_at = ?,
		    qc_status = ?,
		    tracking_no = ?,
		    last_reply_at = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	_, err := r.db.ExecContext(ctx, query,
		po.Status,
		po.ConfirmedAt,
		po.ProductionStartedAt,
		po.ProductionCompletedAt,
		po.ShippedAt,
		po.QCStatus,
		po.TrackingNo,
		po.LastReplyAt,
		po.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update purchase order lifecycle: %w", err)
	}

	return nil
}

// TouchFactoryMessage refreshes the last outbound-contact timestamp. Runs on
// both successful and failed sends.
func (r *OrderRepository) TouchFactoryMessage(ctx context.Context, orderID int64, at time.Time) error {
	query := `
		UPDATE purchase_orders
		SET last_factory_message_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	if _, err := r.db.ExecContext(ctx, query, at, orderID); err != nil {
		return fmt.Errorf("failed to touch purchase order: %w", err)
	}

	return nil
}

// ListActiveForReminders returns orders in non-terminal states belonging to
// suppliers that have a configured webhook, for the reminder sweep.
func (r *OrderRepository) ListActiveForReminders(ctx context.Context) ([]domain.PurchaseOrder, error) {
	query := `
		SELECT po.*
		FROM purchase_orders po
		JOIN suppliers s ON s.id = po.supplier_id
		WHERE po.status IN ('pending', 'confirmed', 'in_production', 'production_complete', 'shipped')
		  AND s.webhook_url <> ''
		ORDER BY po.id ASC
	`

	var orders []domain.PurchaseOrder
	if err := r.db.SelectContext(ctx, &orders, query); err != nil {
		return nil, fmt.Errorf("failed to list orders for reminders: %w", err)
	}

	return orders, nil
}
