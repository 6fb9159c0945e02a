package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"group-chat/internal/domain"
	"group-chat/internal/observability"

	"golang.org/x/time/rate"
)

// relay logs every chat event together with the name of its room
type relay struct {
	rooms   domain.RoomRepository
	limiter *rate.Limiter
	now     func() time.Time
}

// newRelay caps room lookups at perSecond; zero means unlimited
func newRelay(rooms domain.RoomRepository, perSecond float64) *relay {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &relay{
		rooms:   rooms,
		limiter: rate.NewLimiter(limit, max(1, int(perSecond))),
		now:     time.Now,
	}
}

// handle returns an error only for store failures, so the broker can retry.
// Events for rooms that no longer exist are dropped.
func (r *relay) handle(ctx context.Context, topic string, event *domain.ChatEvent) error {
	ctx = observability.WithMemberID(ctx, event.SenderID)
	logger := observability.FromContext(ctx)

	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}

	room, err := r.rooms.GetByID(ctx, event.ChatRoomID)
	if errors.Is(err, domain.ErrRoomNotFound) {
		logger.Warn("event for unknown room",
			slog.String("topic", topic),
			slog.Int64("chat_room_id", event.ChatRoomID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to resolve room %d: %w", event.ChatRoomID, err)
	}

	attrs := []any{
		slog.String("topic", topic),
		slog.Int64("chat_room_id", room.ID),
		slog.String("room", room.Name),
		slog.String("sender", event.SenderNickname),
		slog.String("content", event.Content),
	}
	if !event.CreatedAt.IsZero() {
		attrs = append(attrs, slog.Duration("lag", r.now().Sub(event.CreatedAt)))
	}
	logger.Info("chat event", attrs...)
	return nil
}
