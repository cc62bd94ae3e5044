package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Int64List stores a list of user ids as a JSON array in a TEXT column.
type Int64List []int64

func (l Int64List) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (l *Int64List) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("cannot scan %T into Int64List", src)
	}
}

// TeamNote is an internal annotation on a purchase order, auto-generated
// from a parsed factory reply. Never edited after creation.
type TeamNote struct {
	ID             int64     `db:"id" json:"id"`
	OrderID        int64     `db:"order_id" json:"orderId"`
	MessageID      int64     `db:"message_id" json:"messageId"`
	AuthorID       int64     `db:"author_id" json:"authorId"`
	Content        string    `db:"content" json:"content"`
	MentionedUsers Int64List `db:"mentioned_users" json:"mentionedUsers"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}

// Notification is the per-user fan-out record created for each mention on a
// TeamNote. Read/dismissal is handled by the notification UI.
type Notification struct {
	ID        int64      `db:"id" json:"id"`
	UserID    int64      `db:"user_id" json:"userId"`
	Title     string     `db:"title" json:"title"`
	Body      string     `db:"body" json:"body"`
	Link      string     `db:"link" json:"link"`
	ReadAt    *time.Time `db:"read_at" json:"readAt,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
}
