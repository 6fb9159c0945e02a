package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"group-chat/internal/domain"
)

// MemberRepository implements domain.MemberDirectory for PostgreSQL
type MemberRepository struct {
	db DBTX
}

// NewMemberRepository creates a new PostgreSQL member repository
func NewMemberRepository(db DBTX) *MemberRepository {
	return &MemberRepository{db: db}
}

// Create inserts a new member. Used by tooling and tests; member
// management itself lives outside the chat service.
func (r *MemberRepository) Create(ctx context.Context, member *domain.Member) error {
	defer observeQuery("insert", "members", time.Now())

	query := `
		INSERT INTO members (nickname)
		VALUES ($1)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, member.Nickname).Scan(&member.ID, &member.CreatedAt)
	if err != nil {
		if IsUniqueViolation(err, "members_nickname_key") {
			return fmt.Errorf("nickname %q already taken: %w", member.Nickname, domain.ErrInvalidInput)
		}
		return fmt.Errorf("failed to create member: %w", err)
	}
	return nil
}

// GetByID retrieves a member by ID
func (r *MemberRepository) GetByID(ctx context.Context, id int64) (*domain.Member, error) {
	defer observeQuery("select", "members", time.Now())

	query := `
		SELECT id, nickname, created_at
		FROM members
		WHERE id = $1
	`
	return r.getOne(ctx, query, id)
}

// GetByNickname retrieves a member by nickname
func (r *MemberRepository) GetByNickname(ctx context.Context, nickname string) (*domain.Member, error) {
	defer observeQuery("select", "members", time.Now())

	query := `
		SELECT id, nickname, created_at
		FROM members
		WHERE nickname = $1
	`
	return r.getOne(ctx, query, nickname)
}

func (r *MemberRepository) getOne(ctx context.Context, query string, arg any) (*domain.Member, error) {
	member := &domain.Member{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&member.ID,
		&member.Nickname,
		&member.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return member, nil
}
