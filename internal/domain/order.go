package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the purchase-order lifecycle. Webhook-driven transitions
// only ever move it forward; cancelled is set manually elsewhere.
type OrderStatus string

const (
	OrderDraft              OrderStatus = "draft"
	OrderPending            OrderStatus = "pending"
	OrderConfirmed          OrderStatus = "confirmed"
	OrderInProduction       OrderStatus = "in_production"
	OrderProductionComplete OrderStatus = "production_complete"
	OrderShipped            OrderStatus = "shipped"
	OrderDelivered          OrderStatus = "delivered"
	OrderCancelled          OrderStatus = "cancelled"
)

type PurchaseOrder struct {
	ID           int64           `db:"id" json:"id"`
	OrderNo      string          `db:"order_no" json:"orderNo"`
	SupplierID   int64           `db:"supplier_id" json:"supplierId"`
	Status       OrderStatus     `db:"status" json:"status"`
	TotalValue   decimal.Decimal `db:"total_value" json:"totalValue"`
	Currency     string          `db:"currency" json:"currency"`
	DeliveryDate *time.Time      `db:"delivery_date" json:"deliveryDate,omitempty"`
	PaymentTerms *string         `db:"payment_terms" json:"paymentTerms,omitempty"`
	SalesOrderNo *string         `db:"sales_order_no" json:"salesOrderNo,omitempty"`

	// Milestones reported by the factory.
	ConfirmedAt           *time.Time `db:"confirmed_at" json:"confirmedAt,omitempty"`
	ProductionStartedAt   *time.Time `db:"production_started_at" json:"productionStartedAt,omitempty"`
	ProductionCompletedAt *time.Time `db:"production_completed_at" json:"productionCompletedAt,omitempty"`
	ShippedAt             *time.Time `db:"shipped_at" json:"shippedAt,omitempty"`
	QCStatus              *string    `db:"qc_status" json:"qcStatus,omitempty"`
	TrackingNo            *string    `db:"tracking_no" json:"trackingNo,omitempty"`

	LastReplyAt          *time.Time `db:"last_reply_at" json:"lastReplyAt,omitempty"`
	LastFactoryMessageAt *time.Time `db:"last_factory_message_at" json:"lastFactoryMessageAt,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

type OrderItem struct {
	ID          int64           `db:"id" json:"id"`
	OrderID     int64           `db:"order_id" json:"orderId"`
	ProductName string          `db:"product_name" json:"productName"`
	Quantity    int             `db:"quantity" json:"quantity"`
	Unit        string          `db:"unit" json:"unit"`
	UnitPrice   decimal.Decimal `db:"unit_price" json:"unitPrice"`
}
