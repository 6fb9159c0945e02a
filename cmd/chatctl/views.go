package main

import (
	"time"

	"group-chat/internal/domain"

	"github.com/samber/lo"
)

// messageView is the JSON shape of a message on stdout. Field names follow
// the broker envelope.
type messageView struct {
	ID             int64     `json:"id"`
	RoomID         int64     `json:"chatRoomId"`
	SenderID       int64     `json:"senderId"`
	SenderNickname string    `json:"senderNickname"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

type roomView struct {
	RoomID      int64        `json:"roomId"`
	Name        string       `json:"name"`
	OwnerID     int64        `json:"ownerId"`
	LastMessage *messageView `json:"lastMessage,omitempty"`
}

func newMessageView(m *domain.Message) messageView {
	return messageView{
		ID:             m.ID,
		RoomID:         m.RoomID,
		SenderID:       m.SenderID,
		SenderNickname: m.SenderNickname,
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
	}
}

func messageViews(messages []*domain.Message) []messageView {
	return lo.Map(messages, func(m *domain.Message, _ int) messageView {
		return newMessageView(m)
	})
}

func roomViews(rooms []*domain.RoomSummary) []roomView {
	return lo.Map(rooms, func(r *domain.RoomSummary, _ int) roomView {
		v := roomView{RoomID: r.ID, Name: r.Name, OwnerID: r.OwnerID}
		if r.LastMessage != nil {
			last := newMessageView(r.LastMessage)
			v.LastMessage = &last
		}
		return v
	})
}
