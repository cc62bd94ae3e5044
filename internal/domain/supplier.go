package domain

import "time"

// SupplierStatus reflects the health of a supplier's chat integration, not
// the supplier's commercial standing.
type SupplierStatus string

const (
	SupplierUnconfigured SupplierStatus = "unconfigured"
	SupplierActive       SupplierStatus = "active"
	SupplierFailed       SupplierStatus = "failed"
)

type Supplier struct {
	ID         int64          `db:"id" json:"id"`
	Name       string         `db:"name" json:"name"`
	WebhookURL string         `db:"webhook_url" json:"webhookUrl"`
	Token      string         `db:"token" json:"-"`
	Status     SupplierStatus `db:"status" json:"status"`
	ErrorCount int            `db:"error_count" json:"errorCount"`
	LastError  *string        `db:"last_error" json:"lastError,omitempty"`
	LastTestAt *time.Time     `db:"last_test_at" json:"lastTestAt,omitempty"`
	CreatedAt  time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updatedAt"`
}
