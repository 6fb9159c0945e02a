package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"group-chat/internal/domain"
	"group-chat/internal/observability"

	"github.com/go-playground/validator/v10"
)

const maxRoomNameLength = 100

// GroupChatService orchestrates rooms, memberships and messages over the
// entity store, the member directory and the event publisher.
//
// Store work for one call runs in a single transaction. Publishing is
// best-effort and outside that transaction: a failed publish is logged and
// counted but never fails the call, and a failed store write does not
// retract an event that was already sent.
type GroupChatService struct {
	tx        domain.TxRunner
	members   domain.MemberDirectory
	publisher domain.EventPublisher
	validate  *validator.Validate
	now       func() time.Time
}

// Option configures a GroupChatService
type Option func(*GroupChatService)

// WithClock replaces the wall clock used for join and message timestamps
func WithClock(now func() time.Time) Option {
	return func(s *GroupChatService) {
		s.now = now
	}
}

func NewGroupChatService(tx domain.TxRunner, members domain.MemberDirectory, publisher domain.EventPublisher, opts ...Option) *GroupChatService {
	s := &GroupChatService{
		tx:        tx,
		members:   members,
		publisher: publisher,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateRoom creates a room owned by ownerID and enters the owner into it
func (s *GroupChatService) CreateRoom(ctx context.Context, ownerID int64, name string) (roomID int64, err error) {
	defer s.record("create_room", &err)

	name = strings.TrimSpace(name)
	if err := s.validate.Var(name, fmt.Sprintf("required,max=%d", maxRoomNameLength)); err != nil {
		return 0, fmt.Errorf("%w: room name: %v", domain.ErrInvalidInput, err)
	}

	owner, err := s.members.GetByID(ctx, ownerID)
	if err != nil {
		return 0, err
	}

	err = s.tx.WithinTx(ctx, func(repos domain.Repositories) error {
		room := &domain.Room{Name: name, OwnerID: owner.ID}
		if err := repos.Rooms.Create(ctx, room); err != nil {
			return err
		}
		roomID = room.ID
		return s.enter(ctx, repos, room, owner)
	})
	if err != nil {
		return 0, err
	}

	observability.FromContext(ctx).Info("room created",
		slog.Int64("room_id", roomID),
		slog.Int64("owner_id", owner.ID))
	return roomID, nil
}

// EnterRoom joins memberID to roomID. Entering again resets the join time
// and with it the visible history.
func (s *GroupChatService) EnterRoom(ctx context.Context, roomID, memberID int64) (err error) {
	defer s.record("enter_room", &err)

	member, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		return err
	}

	return s.tx.WithinTx(ctx, func(repos domain.Repositories) error {
		room, err := repos.Rooms.GetByID(ctx, roomID)
		if err != nil {
			return err
		}
		return s.enter(ctx, repos, room, member)
	})
}

// enter publishes the system enter event, then records the membership.
// JoinedAt is stamped here, before the write.
func (s *GroupChatService) enter(ctx context.Context, repos domain.Repositories, room *domain.Room, member *domain.Member) error {
	now := s.stamp()

	s.publish(ctx, domain.TopicEnter, &domain.ChatEvent{
		ChatRoomID:     room.ID,
		SenderID:       member.ID,
		SenderNickname: member.Nickname,
		Content:        EnterMessage(member.Nickname),
		CreatedAt:      now,
	})

	if err := repos.Memberships.Upsert(ctx, &domain.Membership{
		RoomID:   room.ID,
		MemberID: member.ID,
		JoinedAt: now,
	}); err != nil {
		return err
	}

	observability.FromContext(ctx).Info("member entered room",
		slog.Int64("room_id", room.ID),
		slog.Int64("member_id", member.ID),
		slog.Time("joined_at", now))
	return nil
}

// PostMessage stamps the request, resolves the sender by nickname,
// publishes it on the group-chat topic and stores it
func (s *GroupChatService) PostMessage(ctx context.Context, req *domain.PostMessageRequest) (msg *domain.Message, err error) {
	defer s.record("post_message", &err)

	if req == nil {
		return nil, fmt.Errorf("%w: empty request", domain.ErrInvalidInput)
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	req.CreatedAt = s.stamp()

	sender, err := s.members.GetByNickname(ctx, req.SenderNickname)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(repos domain.Repositories) error {
		if _, err := repos.Rooms.GetByID(ctx, req.RoomID); err != nil {
			return err
		}

		msg = &domain.Message{
			RoomID:         req.RoomID,
			SenderID:       sender.ID,
			SenderNickname: sender.Nickname,
			Content:        req.Content,
			CreatedAt:      req.CreatedAt,
		}

		s.publish(ctx, domain.TopicGroupChat, &domain.ChatEvent{
			ChatRoomID:     msg.RoomID,
			SenderID:       msg.SenderID,
			SenderNickname: msg.SenderNickname,
			Content:        msg.Content,
			CreatedAt:      msg.CreatedAt,
		})

		return repos.Messages.Create(ctx, msg)
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// ListRooms returns every room memberID has joined, each with the newest
// message visible to the member
func (s *GroupChatService) ListRooms(ctx context.Context, memberID int64) (summaries []*domain.RoomSummary, err error) {
	defer s.record("list_rooms", &err)

	if _, err := s.members.GetByID(ctx, memberID); err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(repos domain.Repositories) error {
		memberships, err := repos.Memberships.ListByMember(ctx, memberID)
		if err != nil {
			return err
		}

		summaries = make([]*domain.RoomSummary, 0, len(memberships))
		for _, m := range memberships {
			room, err := repos.Rooms.GetByID(ctx, m.RoomID)
			if err != nil {
				return err
			}
			last, err := repos.Messages.LatestSince(ctx, m.RoomID, m.JoinedAt)
			if err != nil {
				return err
			}
			summaries = append(summaries, &domain.RoomSummary{Room: *room, LastMessage: last})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(summaries, func(i, j int) bool { return summaries[i].ID < summaries[j].ID })
	return summaries, nil
}

// ListMessages returns the room messages created since memberID joined,
// oldest first
func (s *GroupChatService) ListMessages(ctx context.Context, roomID, memberID int64) (messages []*domain.Message, err error) {
	defer s.record("list_messages", &err)

	err = s.tx.WithinTx(ctx, func(repos domain.Repositories) error {
		membership, err := repos.Memberships.Get(ctx, roomID, memberID)
		if err != nil {
			return err
		}
		messages, err = repos.Messages.ListSince(ctx, roomID, membership.JoinedAt)
		return err
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// LeaveRoom publishes the system leave event and removes the membership
func (s *GroupChatService) LeaveRoom(ctx context.Context, roomID, memberID int64) (err error) {
	defer s.record("leave_room", &err)

	member, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		return err
	}

	return s.tx.WithinTx(ctx, func(repos domain.Repositories) error {
		if _, err := repos.Rooms.GetByID(ctx, roomID); err != nil {
			return err
		}
		if _, err := repos.Memberships.Get(ctx, roomID, memberID); err != nil {
			return err
		}

		s.publish(ctx, domain.TopicLeave, &domain.ChatEvent{
			ChatRoomID:     roomID,
			SenderID:       member.ID,
			SenderNickname: member.Nickname,
			Content:        LeaveMessage(member.Nickname),
			CreatedAt:      s.stamp(),
		})

		if err := repos.Memberships.Delete(ctx, roomID, memberID); err != nil {
			return err
		}

		observability.FromContext(ctx).Info("member left room",
			slog.Int64("room_id", roomID),
			slog.Int64("member_id", memberID))
		return nil
	})
}

// stamp reads the clock at the store's timestamp precision so returned
// values, events and stored rows carry the same instant
func (s *GroupChatService) stamp() time.Time {
	return s.now().Truncate(time.Microsecond)
}

func (s *GroupChatService) publish(ctx context.Context, topic string, event *domain.ChatEvent) {
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		observability.EventsPublishedTotal.WithLabelValues(topic, "error").Inc()
		observability.FromContext(ctx).Warn("chat event not delivered",
			slog.String("topic", topic),
			slog.Int64("chat_room_id", event.ChatRoomID),
			slog.String("error", err.Error()))
		return
	}
	observability.EventsPublishedTotal.WithLabelValues(topic, "ok").Inc()
}

func (s *GroupChatService) record(operation string, errp *error) {
	observability.GroupChatOperationsTotal.WithLabelValues(operation, resultLabel(*errp)).Inc()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrRoomNotFound),
		errors.Is(err, domain.ErrMemberNotFound),
		errors.Is(err, domain.ErrMembershipNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid"
	default:
		return "error"
	}
}
