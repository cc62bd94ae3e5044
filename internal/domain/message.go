package domain

import "time"

type MessageDirection string

const (
	DirectionInbound  MessageDirection = "inbound"
	DirectionOutbound MessageDirection = "outbound"
)

type MessageStatus string

const (
	// Shared initial state.
	StatusPending MessageStatus = "pending"

	// Outbound terminal states.
	StatusSent   MessageStatus = "sent"
	StatusFailed MessageStatus = "failed"

	// Inbound terminal states. Delivered means the reply changed order
	// state; read means it was recorded but nothing was applied.
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
)

// Message is the audit record of one communication attempt, in either
// direction. Created before delivery/processing, finalized once, never
// deleted.
type Message struct {
	ID         int64            `db:"id" json:"id"`
	UID        string           `db:"uid" json:"uid"`
	Direction  MessageDirection `db:"direction" json:"direction"`
	SupplierID int64            `db:"supplier_id" json:"supplierId"`
	OrderID    *int64           `db:"order_id" json:"orderId,omitempty"`
	Kind       string           `db:"kind" json:"kind"`
	Content    string           `db:"content" json:"content"`
	Status     MessageStatus    `db:"status" json:"status"`

	// Inbound only: what the grammar extracted.
	ParsedAction   *string `db:"parsed_action" json:"parsedAction,omitempty"`
	ParsedOrderNo  *string `db:"parsed_order_no" json:"parsedOrderNo,omitempty"`
	ParsedArgument *string `db:"parsed_argument" json:"parsedArgument,omitempty"`
	FromUser       *string `db:"from_user" json:"fromUser,omitempty"`

	// Outbound only.
	RetryCount       int     `db:"retry_count" json:"retryCount"`
	ProviderResponse *string `db:"provider_response" json:"providerResponse,omitempty"`

	// Provider-assigned message id, used as the inbound dedup key.
	ProviderMsgID *string `db:"provider_msg_id" json:"providerMsgId,omitempty"`

	NoteID    *int64    `db:"note_id" json:"noteId,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// SendOutcome summarizes one outbound delivery for callers and the scheduler.
type SendOutcome struct {
	MessageID   int64
	MessageUID  string
	Success     bool
	Attempts    int
	ProviderRaw string
	Err         error
}
