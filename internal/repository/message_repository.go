package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tradeops/factory-message-service/internal/domain"
)

// MessageRepository handles the communication audit trail. Messages are
// created pending, finalized at most once, and never deleted.
type MessageRepository struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

const messageColumns = `id, uid, direction, supplier_id, order_id, kind, content, status,
	parsed_action, parsed_order_no, parsed_argument, from_user, retry_count,
	provider_response, provider_msg_id, note_id, created_at, updated_at`

// Create persists a new message with status pending and assigns its public
// uid. The passed struct is returned re-read so timestamps are authoritative.
func (r *MessageRepository) Create(ctx context.Context, msg *domain.Message) (*domain.Message, error) {
	msg.UID = uuid.NewString()

	query := `
		INSERT INTO messages
			(uid, direction, supplier_id, order_id, kind, content, status,
			 parsed_action, parsed_order_no, parsed_argument, from_user, provider_msg_id)
		VALUES (?, ?, ?, ?, ?, ?, 'pending', ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		msg.UID, msg.Direction, msg.SupplierID, msg.OrderID, msg.Kind, msg.Content,
		msg.ParsedAction, msg.ParsedOrderNo, msg.ParsedArgument, msg.FromUser, msg.ProviderMsgID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return r.GetByID(ctx, id)
}

func (r *MessageRepository) GetByID(ctx context.Context, id int64) (*domain.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = ?`

	var message domain.Message
	if err := r.db.GetContext(ctx, &message, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}

	return &message, nil
}

// FinalizeOutbound records the delivery outcome of one outbound message.
func (r *MessageRepository) FinalizeOutbound(ctx context.Context, id int64, status domain.MessageStatus, retryCount int, providerResponse string) error {
	query := `
		UPDATE messages
		SET status = ?, retry_count = ?, provider_response = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query, status, retryCount, providerResponse, id)
	if err != nil {
		return fmt.Errorf("failed to finalize outbound message: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("no message found with id %d", id)
	}

	return nil
}

// FinalizeInbound links an inbound message to its resolved order and note.
func (r *MessageRepository) FinalizeInbound(ctx context.Context, id int64, status domain.MessageStatus, orderID, noteID *int64) error {
	query := `
		UPDATE messages
		SET status = ?, order_id = ?, note_id = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	if _, err := r.db.ExecContext(ctx, query, status, orderID, noteID, id); err != nil {
		return fmt.Errorf("failed to finalize inbound message: %w", err)
	}

	return nil
}

// GetPendingOutbound feeds the scheduler's delivery sweep for messages that
// were created or replayed but not yet delivered.
func (r *MessageRepository) GetPendingOutbound(ctx context.Context, limit int) ([]domain.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE direction = 'outbound' AND status = 'pending'
		ORDER BY created_at ASC
		LIMIT ?
	`

	var messages []domain.Message
	if err := r.db.SelectContext(ctx, &messages, query, limit); err != nil {
		return nil, fmt.Errorf("failed to get pending outbound messages: %w", err)
	}

	return messages, nil
}

func (r *MessageRepository) GetAll(
	ctx context.Context,
	direction *domain.MessageDirection,
	status *domain.MessageStatus,
	page, pageSize int,
) ([]domain.Message, int64, error) {
	offset := (page - 1) * pageSize

	where := "WHERE 1=1"
	args := []any{}
	if direction != nil {
		where += " AND direction = ?"
		args = append(args, *direction)
	}
	if status != nil {
		where += " AND status = ?"
		args = append(args, *status)
	}

	var totalCount int64
	countQuery := "SELECT COUNT(*) FROM messages " + where
	if err := r.db.GetContext(ctx, &totalCount, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}

	query := `SELECT ` + messageColumns + ` FROM messages ` + where + `
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`

	var messages []domain.Message
	listArgs := append(args, pageSize, offset)
	if err := r.db.SelectContext(ctx, &messages, query, listArgs...); err != nil {
		return nil, 0, fmt.Errorf("failed to get messages: %w", err)
	}

	return messages, totalCount, nil
}

// GetStats returns message counts grouped by direction and status.
func (r *MessageRepository) GetStats(ctx context.Context) (map[string]int64, error) {
	query := `
		SELECT CONCAT(direction, '_', status) AS bucket, COUNT(*) AS cnt
		FROM messages
		GROUP BY direction, status
	`

	rows := []struct {
		Bucket string `db:"bucket"`
		Cnt    int64  `db:"cnt"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	stats := make(map[string]int64, len(rows))
	for _, row := range rows {
		stats[row.Bucket] = row.Cnt
	}

	return stats, nil
}

// ReplayFailedByID requeues one failed outbound message for the scheduler.
func (r *MessageRepository) ReplayFailedByID(ctx context.Context, id int64) error {
	query := `
		UPDATE messages
		SET status = 'pending',
		    retry_count = 0,
		    provider_response = NULL,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND direction = 'outbound' AND status = 'failed'
	`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to replay failed message: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("no failed outbound message found with id %d", id)
	}

	return nil
}

func (r *MessageRepository) ReplayAllFailed(ctx context.Context) (int64, error) {
	query := `
		UPDATE messages
		SET status = 'pending',
		    retry_count = 0,
		    provider_response = NULL,
		    updated_at = CURRENT_TIMESTAMP
		WHERE direction = 'outbound' AND status = 'failed'
	`

	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to replay failed messages: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return rows, nil
}

// HasInboundProviderMsgID is the durable half of inbound dedup, used when
// the cache is unavailable.
func (r *MessageRepository) HasInboundProviderMsgID(ctx context.Context, providerMsgID string) (bool, error) {
	var count int64
	query := `SELECT COUNT(*) FROM messages WHERE direction = 'inbound' AND provider_msg_id = ?`
	if err := r.db.GetContext(ctx, &count, query, providerMsgID); err != nil {
		return false, fmt.Errorf("failed to check provider message id: %w", err)
	}

	return count > 0, nil
}
