package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"group-chat/internal/domain"
)

// MessageRepository implements domain.MessageRepository for PostgreSQL
type MessageRepository struct {
	db DBTX
}

// NewMessageRepository creates a new PostgreSQL message repository
func NewMessageRepository(db DBTX) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create inserts a new message into the database. created_at is taken from
// the message, never defaulted by the database.
func (r *MessageRepository) Create(ctx context.Context, message *domain.Message) error {
	defer observeQuery("insert", "messages", time.Now())

	if message.CreatedAt.IsZero() {
		return fmt.Errorf("message created_at must be set: %w", domain.ErrInvalidInput)
	}

	query := `
		INSERT INTO messages (room_id, sender_id, sender_nickname, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		message.RoomID,
		message.SenderID,
		message.SenderNickname,
		message.Content,
		message.CreatedAt,
	).Scan(&message.ID)

	if err != nil {
		if IsForeignKeyViolation(err, "messages_room_id_fkey") {
			return domain.ErrRoomNotFound
		}
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// ListSince retrieves room messages created at or after since, oldest first
func (r *MessageRepository) ListSince(ctx context.Context, roomID int64, since time.Time) ([]*domain.Message, error) {
	defer observeQuery("select", "messages", time.Now())

	query := `
		SELECT id, room_id, sender_id, sender_nickname, content, created_at
		FROM messages
		WHERE room_id = $1 AND created_at >= $2
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, roomID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*domain.Message, 0)
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}
	return messages, nil
}

// LatestSince retrieves the newest room message created at or after since
func (r *MessageRepository) LatestSince(ctx context.Context, roomID int64, since time.Time) (*domain.Message, error) {
	defer observeQuery("select", "messages", time.Now())

	query := `
		SELECT id, room_id, sender_id, sender_nickname, content, created_at
		FROM messages
		WHERE room_id = $1 AND created_at >= $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`
	msg, err := scanMessage(r.db.QueryRowContext(ctx, query, roomID, since))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest message: %w", err)
	}
	return msg, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*domain.Message, error) {
	msg := &domain.Message{}
	err := row.Scan(
		&msg.ID,
		&msg.RoomID,
		&msg.SenderID,
		&msg.SenderNickname,
		&msg.Content,
		&msg.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return msg, nil
}
