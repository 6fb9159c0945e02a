package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"group-chat/internal/domain"
)

// EventHandler receives every decoded event from a subscription
type EventHandler func(ctx context.Context, topic string, event *domain.ChatEvent) error

// EncodeEvent marshals an event for the given topic
func EncodeEvent(topic string, event *domain.ChatEvent) ([]byte, error) {
	if !IsKnownTopic(topic) {
		return nil, fmt.Errorf("unknown topic %q", topic)
	}
	if event == nil {
		return nil, fmt.Errorf("nil event for topic %q", topic)
	}
	body, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return body, nil
}

// DecodeEvent unmarshals an event envelope
func DecodeEvent(body []byte) (*domain.ChatEvent, error) {
	var event domain.ChatEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if event.ChatRoomID == 0 {
		return nil, fmt.Errorf("event without chatRoomId")
	}
	return &event, nil
}

// IsKnownTopic reports whether topic is one of the chat topics
func IsKnownTopic(topic string) bool {
	return slices.Contains(domain.Topics, topic)
}
