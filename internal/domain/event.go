package domain

import (
	"context"
	"time"
)

// Broker topics. The names double as routing keys / channel names.
const (
	TopicEnter     = "enter"
	TopicGroupChat = "group-chat"
	TopicLeave     = "leave"
)

// Topics lists every topic the chat service publishes to
var Topics = []string{TopicEnter, TopicGroupChat, TopicLeave}

// ChatEvent is the envelope published for every topic
type ChatEvent struct {
	ChatRoomID     int64     `json:"chatRoomId"`
	SenderID       int64     `json:"senderId"`
	SenderNickname string    `json:"senderNickname"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

// EventPublisher delivers fire-and-forget events keyed by topic
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event *ChatEvent) error
}
