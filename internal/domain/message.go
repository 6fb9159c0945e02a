package domain

import (
	"context"
	"time"
)

// Message represents a chat message. Messages are never updated.
type Message struct {
	ID             int64     `json:"id"`
	RoomID         int64     `json:"room_id"`
	SenderID       int64     `json:"sender_id"`
	SenderNickname string    `json:"sender_nickname"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// PostMessageRequest is the input of a group chat post
type PostMessageRequest struct {
	RoomID         int64     `json:"room_id" validate:"gt=0"`
	SenderNickname string    `json:"sender_nickname" validate:"required"`
	Content        string    `json:"content" validate:"required,max=1000"`
	CreatedAt      time.Time `json:"created_at"`
}

// MessageRepository defines the interface for message data access
type MessageRepository interface {
	Create(ctx context.Context, message *Message) error
	// ListSince returns room messages created at or after since, oldest first
	ListSince(ctx context.Context, roomID int64, since time.Time) ([]*Message, error)
	// LatestSince returns the newest room message created at or after since,
	// or nil when there is none
	LatestSince(ctx context.Context, roomID int64, since time.Time) (*Message, error)
}
