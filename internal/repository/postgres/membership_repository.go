package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"group-chat/internal/domain"
)

// MembershipRepository implements domain.MembershipRepository for PostgreSQL
type MembershipRepository struct {
	db DBTX
}

// NewMembershipRepository creates a new PostgreSQL membership repository
func NewMembershipRepository(db DBTX) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// Upsert inserts the membership, or resets joined_at when the member is
// already in the room. joined_at always comes from the caller.
func (r *MembershipRepository) Upsert(ctx context.Context, m *domain.Membership) error {
	defer observeQuery("upsert", "room_memberships", time.Now())

	if m.JoinedAt.IsZero() {
		return fmt.Errorf("membership joined_at must be set: %w", domain.ErrInvalidInput)
	}

	query := `
		INSERT INTO room_memberships (room_id, member_id, joined_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (room_id, member_id) DO UPDATE SET joined_at = EXCLUDED.joined_at
	`
	_, err := r.db.ExecContext(ctx, query, m.RoomID, m.MemberID, m.JoinedAt)
	if err != nil {
		switch {
		case IsForeignKeyViolation(err, "room_memberships_room_id_fkey"):
			return domain.ErrRoomNotFound
		case IsForeignKeyViolation(err, "room_memberships_member_id_fkey"):
			return domain.ErrMemberNotFound
		}
		return fmt.Errorf("failed to upsert membership: %w", err)
	}
	return nil
}

// Get retrieves the membership of a member in a room
func (r *MembershipRepository) Get(ctx context.Context, roomID, memberID int64) (*domain.Membership, error) {
	defer observeQuery("select", "room_memberships", time.Now())

	query := `
		SELECT room_id, member_id, joined_at
		FROM room_memberships
		WHERE room_id = $1 AND member_id = $2
	`
	m := &domain.Membership{}
	err := r.db.QueryRowContext(ctx, query, roomID, memberID).Scan(
		&m.RoomID,
		&m.MemberID,
		&m.JoinedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrMembershipNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return m, nil
}

// ListByMember retrieves every membership of a member, ordered by room ID
func (r *MembershipRepository) ListByMember(ctx context.Context, memberID int64) ([]*domain.Membership, error) {
	defer observeQuery("select", "room_memberships", time.Now())

	query := `
		SELECT room_id, member_id, joined_at
		FROM room_memberships
		WHERE member_id = $1
		ORDER BY room_id
	`
	rows, err := r.db.QueryContext(ctx, query, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to query memberships: %w", err)
	}
	defer rows.Close()

	memberships := make([]*domain.Membership, 0)
	for rows.Next() {
		m := &domain.Membership{}
		if err := rows.Scan(&m.RoomID, &m.MemberID, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		memberships = append(memberships, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating memberships: %w", err)
	}
	return memberships, nil
}

// Delete removes a membership
func (r *MembershipRepository) Delete(ctx context.Context, roomID, memberID int64) error {
	defer observeQuery("delete", "room_memberships", time.Now())

	query := `
		DELETE FROM room_memberships
		WHERE room_id = $1 AND member_id = $2
	`
	result, err := r.db.ExecContext(ctx, query, roomID, memberID)
	if err != nil {
		return fmt.Errorf("failed to delete membership: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return domain.ErrMembershipNotFound
	}
	return nil
}
