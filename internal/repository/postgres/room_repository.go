package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"group-chat/internal/domain"
	"group-chat/internal/observability"
)

// RoomRepository implements domain.RoomRepository for PostgreSQL
type RoomRepository struct {
	db DBTX
}

// NewRoomRepository creates a new PostgreSQL room repository
func NewRoomRepository(db DBTX) *RoomRepository {
	return &RoomRepository{db: db}
}

// Create inserts a new room into the database
func (r *RoomRepository) Create(ctx context.Context, room *domain.Room) error {
	defer observeQuery("insert", "rooms", time.Now())

	query := `
		INSERT INTO rooms (name, owner_id)
		VALUES ($1, $2)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		room.Name,
		room.OwnerID,
	).Scan(&room.ID, &room.CreatedAt)

	if err != nil {
		if IsForeignKeyViolation(err, "rooms_owner_id_fkey") {
			return domain.ErrMemberNotFound
		}
		return fmt.Errorf("failed to create room: %w", err)
	}
	return nil
}

// GetByID retrieves a room by ID
func (r *RoomRepository) GetByID(ctx context.Context, id int64) (*domain.Room, error) {
	defer observeQuery("select", "rooms", time.Now())

	query := `
		SELECT id, name, owner_id, created_at
		FROM rooms
		WHERE id = $1
	`
	room := &domain.Room{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&room.ID,
		&room.Name,
		&room.OwnerID,
		&room.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	return room, nil
}

func observeQuery(operation, table string, start time.Time) {
	observability.DBQueryDuration.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
}
