// Package testutil provides shared test utilities, mocks, and fixtures
// for testing the group-chat application.
package testutil

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"group-chat/internal/domain"
)

// Common test errors
var (
	ErrMockPublish = errors.New("mock: broker unavailable")
)

// MockStore is an in-memory entity store implementing domain.TxRunner.
// A failing WithinTx callback rolls every change back.
type MockStore struct {
	mu sync.Mutex

	// Function overrides
	WithinTxFunc func(ctx context.Context, fn func(repos domain.Repositories) error) error

	Rooms       map[int64]*domain.Room
	Memberships map[membershipKey]*domain.Membership
	Messages    []*domain.Message

	nextRoomID    int64
	nextMessageID int64
	TxCount       int
}

type membershipKey struct {
	roomID   int64
	memberID int64
}

// NewMockStore creates a new MockStore with initialized maps
func NewMockStore() *MockStore {
	return &MockStore{
		Rooms:       make(map[int64]*domain.Room),
		Memberships: make(map[membershipKey]*domain.Membership),
	}
}

func (s *MockStore) WithinTx(ctx context.Context, fn func(repos domain.Repositories) error) error {
	if s.WithinTxFunc != nil {
		return s.WithinTxFunc(ctx, fn)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.TxCount++

	snapshot := s.snapshot()
	repos := domain.Repositories{
		Rooms:       mockRooms{s},
		Memberships: mockMemberships{s},
		Messages:    mockMessages{s},
	}
	if err := fn(repos); err != nil {
		s.restore(snapshot)
		return err
	}
	return nil
}

type storeSnapshot struct {
	rooms         map[int64]*domain.Room
	memberships   map[membershipKey]*domain.Membership
	messages      []*domain.Message
	nextRoomID    int64
	nextMessageID int64
}

func (s *MockStore) snapshot() storeSnapshot {
	snap := storeSnapshot{
		rooms:         make(map[int64]*domain.Room, len(s.Rooms)),
		memberships:   make(map[membershipKey]*domain.Membership, len(s.Memberships)),
		messages:      append([]*domain.Message(nil), s.Messages...),
		nextRoomID:    s.nextRoomID,
		nextMessageID: s.nextMessageID,
	}
	for k, v := range s.Rooms {
		room := *v
		snap.rooms[k] = &room
	}
	for k, v := range s.Memberships {
		m := *v
		snap.memberships[k] = &m
	}
	return snap
}

func (s *MockStore) restore(snap storeSnapshot) {
	s.Rooms = snap.rooms
	s.Memberships = snap.memberships
	s.Messages = snap.messages
	s.nextRoomID = snap.nextRoomID
	s.nextMessageID = snap.nextMessageID
}

// AddRoom seeds a room outside any transaction
func (s *MockStore) AddRoom(room *domain.Room) *domain.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	if room.ID == 0 {
		s.nextRoomID++
		room.ID = s.nextRoomID
	} else if room.ID > s.nextRoomID {
		s.nextRoomID = room.ID
	}
	s.Rooms[room.ID] = room
	return room
}

// AddMessage seeds a message outside any transaction
func (s *MockStore) AddMessage(msg *domain.Message) *domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextMessageID++
	msg.ID = s.nextMessageID
	s.Messages = append(s.Messages, msg)
	return msg
}

// Membership returns the membership of a member in a room, if any
func (s *MockStore) Membership(roomID, memberID int64) (*domain.Membership, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.Memberships[membershipKey{roomID, memberID}]
	return m, ok
}

// MessageCount returns the number of stored messages
func (s *MockStore) MessageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Messages)
}

type mockRooms struct{ s *MockStore }

func (r mockRooms) Create(ctx context.Context, room *domain.Room) error {
	r.s.nextRoomID++
	room.ID = r.s.nextRoomID
	if room.CreatedAt.IsZero() {
		room.CreatedAt = time.Now()
	}
	stored := *room
	r.s.Rooms[room.ID] = &stored
	return nil
}

func (r mockRooms) GetByID(ctx context.Context, id int64) (*domain.Room, error) {
	room, ok := r.s.Rooms[id]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	cp := *room
	return &cp, nil
}

type mockMemberships struct{ s *MockStore }

func (r mockMemberships) Upsert(ctx context.Context, m *domain.Membership) error {
	if m.JoinedAt.IsZero() {
		return domain.ErrInvalidInput
	}
	if _, ok := r.s.Rooms[m.RoomID]; !ok {
		return domain.ErrRoomNotFound
	}
	stored := *m
	r.s.Memberships[membershipKey{m.RoomID, m.MemberID}] = &stored
	return nil
}

func (r mockMemberships) Get(ctx context.Context, roomID, memberID int64) (*domain.Membership, error) {
	m, ok := r.s.Memberships[membershipKey{roomID, memberID}]
	if !ok {
		return nil, domain.ErrMembershipNotFound
	}
	cp := *m
	return &cp, nil
}

func (r mockMemberships) ListByMember(ctx context.Context, memberID int64) ([]*domain.Membership, error) {
	result := make([]*domain.Membership, 0)
	for _, m := range r.s.Memberships {
		if m.MemberID == memberID {
			cp := *m
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].RoomID < result[j].RoomID })
	return result, nil
}

func (r mockMemberships) Delete(ctx context.Context, roomID, memberID int64) error {
	key := membershipKey{roomID, memberID}
	if _, ok := r.s.Memberships[key]; !ok {
		return domain.ErrMembershipNotFound
	}
	delete(r.s.Memberships, key)
	return nil
}

type mockMessages struct{ s *MockStore }

func (r mockMessages) Create(ctx context.Context, msg *domain.Message) error {
	if msg.CreatedAt.IsZero() {
		return domain.ErrInvalidInput
	}
	if _, ok := r.s.Rooms[msg.RoomID]; !ok {
		return domain.ErrRoomNotFound
	}
	r.s.nextMessageID++
	msg.ID = r.s.nextMessageID
	stored := *msg
	r.s.Messages = append(r.s.Messages, &stored)
	return nil
}

func (r mockMessages) ListSince(ctx context.Context, roomID int64, since time.Time) ([]*domain.Message, error) {
	result := make([]*domain.Message, 0)
	for _, msg := range r.s.Messages {
		if msg.RoomID == roomID && !msg.CreatedAt.Before(since) {
			cp := *msg
			result = append(result, &cp)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (r mockMessages) LatestSince(ctx context.Context, roomID int64, since time.Time) (*domain.Message, error) {
	msgs, _ := r.ListSince(ctx, roomID, since)
	if len(msgs) == 0 {
		return nil, nil
	}
	return msgs[len(msgs)-1], nil
}

// MockMemberDirectory implements domain.MemberDirectory for testing
type MockMemberDirectory struct {
	mu sync.RWMutex

	// Function overrides
	GetByIDFunc       func(ctx context.Context, id int64) (*domain.Member, error)
	GetByNicknameFunc func(ctx context.Context, nickname string) (*domain.Member, error)

	Members map[int64]*domain.Member
	Calls   int
}

// NewMockMemberDirectory creates a new MockMemberDirectory with initialized maps
func NewMockMemberDirectory() *MockMemberDirectory {
	return &MockMemberDirectory{
		Members: make(map[int64]*domain.Member),
	}
}

// Add registers a member
func (m *MockMemberDirectory) Add(id int64, nickname string) *domain.Member {
	m.mu.Lock()
	defer m.mu.Unlock()
	member := NewTestMember(WithMemberID(id), WithNickname(nickname))
	m.Members[id] = member
	return member
}

func (m *MockMemberDirectory) GetByID(ctx context.Context, id int64) (*domain.Member, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++

	if member, ok := m.Members[id]; ok {
		return member, nil
	}
	return nil, domain.ErrMemberNotFound
}

func (m *MockMemberDirectory) GetByNickname(ctx context.Context, nickname string) (*domain.Member, error) {
	if m.GetByNicknameFunc != nil {
		return m.GetByNicknameFunc(ctx, nickname)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++

	for _, member := range m.Members {
		if member.Nickname == nickname {
			return member, nil
		}
	}
	return nil, domain.ErrMemberNotFound
}

// PublishedEvent is one recorded MockPublisher call
type PublishedEvent struct {
	Topic string
	Event domain.ChatEvent
}

// MockPublisher implements domain.EventPublisher for testing
type MockPublisher struct {
	mu sync.Mutex

	// Function overrides
	PublishFunc func(ctx context.Context, topic string, event *domain.ChatEvent) error

	// Err is returned from every Publish call when set
	Err    error
	Events []PublishedEvent
}

// NewMockPublisher creates a new MockPublisher
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (p *MockPublisher) Publish(ctx context.Context, topic string, event *domain.ChatEvent) error {
	if p.PublishFunc != nil {
		return p.PublishFunc(ctx, topic, event)
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Err != nil {
		return p.Err
	}
	p.Events = append(p.Events, PublishedEvent{Topic: topic, Event: *event})
	return nil
}

// Topics returns the topics published so far, in order
func (p *MockPublisher) Topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	topics := make([]string, 0, len(p.Events))
	for _, e := range p.Events {
		topics = append(topics, e.Topic)
	}
	return topics
}
