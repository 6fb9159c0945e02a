package domain

import (
	"context"
	"time"
)

// Membership records that a member joined a room and since when.
// There is at most one membership per (member, room).
type Membership struct {
	RoomID   int64     `json:"room_id"`
	MemberID int64     `json:"member_id"`
	JoinedAt time.Time `json:"joined_at"`
}

// MembershipRepository defines the interface for membership data access
type MembershipRepository interface {
	// Upsert creates the membership or moves JoinedAt if it already exists
	Upsert(ctx context.Context, membership *Membership) error
	Get(ctx context.Context, roomID, memberID int64) (*Membership, error)
	ListByMember(ctx context.Context, memberID int64) ([]*Membership, error)
	Delete(ctx context.Context, roomID, memberID int64) error
}
