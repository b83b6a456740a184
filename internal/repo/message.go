package repo

import (
	"context"
	"database/sql"

	"github.com/vireo-pm/vireo/internal/models"
)

// MessageRepo persists inbox messages.
type MessageRepo struct {
	DB *sql.DB
}

// NewMessageRepo returns a new MessageRepo.
func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{DB: db}
}

const messageColumns = `id, sender_id, recipient_id, COALESCE(subject,''), body, read, created_at`

// Send inserts a message. senderID nil denotes a system message.
func (r *MessageRepo) Send(ctx context.Context, senderID *int, recipientID int, subject, body string) (*models.Message, error) {
	query := `
		INSERT INTO messages (sender_id, recipient_id, subject, body)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + messageColumns
	m := &models.Message{}
	err := r.DB.QueryRowContext(ctx, query, senderID, recipientID, subject, body).
		Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Subject, &m.Body, &m.Read, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ListForRecipient returns the recipient's messages, newest first.
func (r *MessageRepo) ListForRecipient(ctx context.Context, recipientID int, limit, offset int) ([]models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE recipient_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.DB.QueryContext(ctx, query, recipientID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Subject, &m.Body, &m.Read, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// MarkRead marks a message read, only if it belongs to recipientID.
func (r *MessageRepo) MarkRead(ctx context.Context, id, recipientID int) error {
	result, err := r.DB.ExecContext(ctx,
		`UPDATE messages SET read = TRUE WHERE id = $1 AND recipient_id = $2`,
		id, recipientID,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
