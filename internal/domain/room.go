package domain

import (
	"context"
	"time"
)

// Room represents a group chat room
type Room struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	OwnerID   int64     `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

// RoomSummary is a joined room with the newest message the member can see
type RoomSummary struct {
	Room
	LastMessage *Message `json:"last_message,omitempty"`
}

// RoomRepository defines the interface for room data access
type RoomRepository interface {
	Create(ctx context.Context, room *Room) error
	GetByID(ctx context.Context, id int64) (*Room, error)
}
