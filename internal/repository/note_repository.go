package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/tradeops/factory-message-service/internal/domain"
)

type NoteRepository struct {
	db *sqlx.DB
}

func NewNoteRepository(db *sqlx.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

func (r *NoteRepository) CreateNote(ctx context.Context, note *domain.TeamNote) (int64, error) {
	query := `
		INSERT INTO team_notes (order_id, message_id, author_id, content, mentioned_users)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		note.OrderID, note.MessageID, note.AuthorID, note.Content, note.MentionedUsers,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create team note: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return id, nil
}

// CreateNotifications inserts the fan-out batch for one note.
func (r *NoteRepository) CreateNotifications(ctx context.Context, notifications []domain.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	query := `INSERT INTO notifications (user_id, title, body, link) VALUES (?, ?, ?, ?)`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, n := range notifications {
		if _, err := tx.ExecContext(ctx, query, n.UserID, n.Title, n.Body, n.Link); err != nil {
			return fmt.Errorf("failed to create notification: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit notifications: %w", err)
	}

	return nil
}

func (r *NoteRepository) ListByOrder(ctx context.Context, orderID int64) ([]domain.TeamNote, error) {
	query := `
		SELECT id, order_id, message_id, author_id, content, mentioned_users, created_at
		FROM team_notes
		WHERE order_id = ?
		ORDER BY created_at DESC
	`

	var notes []domain.TeamNote
	if err := r.db.SelectContext(ctx, &notes, query, orderID); err != nil {
		return nil, fmt.Errorf("failed to list team notes: %w", err)
	}

	return notes, nil
}
