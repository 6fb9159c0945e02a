package testutil

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"group-chat/internal/domain"
)

// Counter for generating unique IDs
var idCounter atomic.Int64

// MemberOptions allows customizing member fixture creation
type MemberOptions struct {
	ID        int64
	Nickname  string
	CreatedAt time.Time
}

// NewTestMember creates a test member with sensible defaults
// Pass options to override specific fields
func NewTestMember(opts ...func(*MemberOptions)) *domain.Member {
	id := idCounter.Add(1)
	o := &MemberOptions{
		ID:       id,
		Nickname: fmt.Sprintf("member%d", id),
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}

	return &domain.Member{
		ID:        o.ID,
		Nickname:  o.Nickname,
		CreatedAt: o.CreatedAt,
	}
}

// WithMemberID sets the member ID
func WithMemberID(id int64) func(*MemberOptions) {
	return func(o *MemberOptions) {
		o.ID = id
	}
}

// WithNickname sets the nickname
func WithNickname(nickname string) func(*MemberOptions) {
	return func(o *MemberOptions) {
		o.Nickname = nickname
	}
}

// RoomOptions allows customizing room fixture creation
type RoomOptions struct {
	ID        int64
	Name      string
	OwnerID   int64
	CreatedAt time.Time
}

// NewTestRoom creates a test room with sensible defaults
func NewTestRoom(opts ...func(*RoomOptions)) *domain.Room {
	o := &RoomOptions{
		Name:      fmt.Sprintf("room%d", idCounter.Add(1)),
		OwnerID:   1,
		CreatedAt: time.Now(),
	}

	for _, opt := range opts {
		opt(o)
	}

	return &domain.Room{
		ID:        o.ID,
		Name:      o.Name,
		OwnerID:   o.OwnerID,
		CreatedAt: o.CreatedAt,
	}
}

// WithRoomID sets the room ID
func WithRoomID(id int64) func(*RoomOptions) {
	return func(o *RoomOptions) {
		o.ID = id
	}
}

// WithRoomName sets the room name
func WithRoomName(name string) func(*RoomOptions) {
	return func(o *RoomOptions) {
		o.Name = name
	}
}

// WithOwnerID sets the room owner
func WithOwnerID(id int64) func(*RoomOptions) {
	return func(o *RoomOptions) {
		o.OwnerID = id
	}
}

// NewTestMessage creates a message from sender in room at createdAt
func NewTestMessage(roomID int64, sender *domain.Member, content string, createdAt time.Time) *domain.Message {
	return &domain.Message{
		RoomID:         roomID,
		SenderID:       sender.ID,
		SenderNickname: sender.Nickname,
		Content:        content,
		CreatedAt:      createdAt,
	}
}

// Clock is a manually driven time source
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock creates a clock frozen at start
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current fake time
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance moves the clock forward by d
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
