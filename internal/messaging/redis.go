package messaging

import (
	"context"
	"fmt"
	"log/slog"

	"group-chat/internal/domain"
	"group-chat/internal/observability"

	"github.com/redis/go-redis/v9"
)

type redisPublisherClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// RedisPublisher publishes chat events on Redis channels named after the topic
type RedisPublisher struct {
	client redisPublisherClient
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// Publish implements domain.EventPublisher
func (p *RedisPublisher) Publish(ctx context.Context, topic string, event *domain.ChatEvent) error {
	body, err := EncodeEvent(topic, event)
	if err != nil {
		return err
	}

	receivers, err := p.client.Publish(ctx, topic, body).Result()
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", topic, err)
	}

	slog.Debug("published chat event",
		slog.String("topic", topic),
		slog.Int64("chat_room_id", event.ChatRoomID),
		slog.Int64("receivers", receivers))
	return nil
}

func (p *RedisPublisher) Name() string {
	return "redis"
}

// Ping reports whether the Redis server answers
func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// RedisSubscriber delivers chat events received on the Redis topic channels
type RedisSubscriber struct {
	client  *redis.Client
	handler EventHandler
}

func NewRedisSubscriber(client *redis.Client, handler EventHandler) *RedisSubscriber {
	return &RedisSubscriber{client: client, handler: handler}
}

func (s *RedisSubscriber) Name() string {
	return "redis"
}

// Ping reports whether the Redis server answers
func (s *RedisSubscriber) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Run subscribes to every chat topic and blocks until ctx is cancelled
func (s *RedisSubscriber) Run(ctx context.Context) error {
	pubsub := s.client.Subscribe(ctx, domain.Topics...)
	defer pubsub.Close()

	// Wait for the subscription confirmation before reading messages
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	slog.Info("subscribed to chat topics", slog.Any("topics", domain.Topics))

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			slog.Info("stopping redis subscriber")
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("redis subscription closed")
			}
			handlePayload(ctx, msg.Channel, msg.Payload, s.handler)
		}
	}
}

// handlePayload decodes one pub/sub payload. Redis has no redelivery, so
// failures are only logged and counted.
func handlePayload(ctx context.Context, topic, payload string, handler EventHandler) {
	event, err := DecodeEvent([]byte(payload))
	if err != nil {
		slog.Error("dropping malformed event",
			slog.String("topic", topic),
			slog.String("error", err.Error()))
		observability.EventsConsumedTotal.WithLabelValues(topic, "malformed").Inc()
		return
	}

	if err := handler(ctx, topic, event); err != nil {
		slog.Error("event handler failed",
			slog.String("topic", topic),
			slog.Int64("chat_room_id", event.ChatRoomID),
			slog.String("error", err.Error()))
		observability.EventsConsumedTotal.WithLabelValues(topic, "error").Inc()
		return
	}
	observability.EventsConsumedTotal.WithLabelValues(topic, "ok").Inc()
}
