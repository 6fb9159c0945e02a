package domain

import (
	"context"
	"time"
)

// Member is a chat participant. Members are managed elsewhere; the chat
// service only reads them.
type Member struct {
	ID        int64     `json:"id"`
	Nickname  string    `json:"nickname"`
	CreatedAt time.Time `json:"created_at"`
}

// MemberDirectory resolves members by ID or nickname
type MemberDirectory interface {
	GetByID(ctx context.Context, id int64) (*Member, error)
	GetByNickname(ctx context.Context, nickname string) (*Member, error)
}
