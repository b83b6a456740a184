package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestMessageRepo_Send_System(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO messages \(sender_id, recipient_id, subject, body\)`).
		WithArgs(nil, 4, "hello", "body text").
		WillReturnRows(sqlmock.NewRows([]string{"id", "sender_id", "recipient_id", "subject", "body", "read", "created_at"}).
			AddRow(1, nil, 4, "hello", "body text", false, now))

	repo := NewMessageRepo(db)
	m, err := repo.Send(context.Background(), nil, 4, "hello", "body text")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if m.ID != 1 || m.SenderID != nil || m.RecipientID != 4 || m.Read {
		t.Errorf("unexpected message: %+v", m)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestMessageRepo_MarkRead_WrongRecipient(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`UPDATE messages SET read = TRUE WHERE id = \$1 AND recipient_id = \$2`).
		WithArgs(1, 9).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewMessageRepo(db)
	if err := repo.MarkRead(context.Background(), 1, 9); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestMessageRepo_ListForRecipient(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT id, sender_id, recipient_id, COALESCE\(subject,''\), body, read, created_at FROM messages WHERE recipient_id = \$1 ORDER BY created_at DESC LIMIT \$2 OFFSET \$3`).
		WithArgs(4, 50, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "sender_id", "recipient_id", "subject", "body", "read", "created_at"}).
			AddRow(2, 1, 4, "re: bug", "ack", false, now).
			AddRow(1, nil, 4, "digest", "stats", true, now.Add(-time.Hour)))

	repo := NewMessageRepo(db)
	msgs, err := repo.ListForRecipient(context.Background(), 4, 50, 0)
	if err != nil {
		t.Fatalf("ListForRecipient: %v", err)
	}
	if len(msgs) != 2 || msgs[0].ID != 2 || msgs[1].SenderID != nil {
		t.Errorf("unexpected messages: %+v", msgs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
