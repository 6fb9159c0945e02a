package messaging

import (
	"context"
	"log/slog"
	"sync"

	"group-chat/internal/domain"
	"group-chat/internal/observability"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultRelayGroup prefixes the relay queue names
const DefaultRelayGroup = "group-chat.relay"

// topicSource opens a delivery stream for one topic
type topicSource interface {
	ConsumeTopic(group, topic string) (<-chan amqp.Delivery, error)
}

// EventConsumer reads the chat topics from RabbitMQ and hands every
// envelope to a handler
type EventConsumer struct {
	source  topicSource
	group   string
	handler EventHandler
	wg      sync.WaitGroup
}

func NewEventConsumer(rmq *RabbitMQ, group string, handler EventHandler) *EventConsumer {
	return newEventConsumer(rmq, group, handler)
}

func newEventConsumer(source topicSource, group string, handler EventHandler) *EventConsumer {
	if group == "" {
		group = DefaultRelayGroup
	}
	return &EventConsumer{
		source:  source,
		group:   group,
		handler: handler,
	}
}

// Start subscribes to every chat topic. Deliveries are processed until ctx
// is cancelled or the broker closes the channel.
func (c *EventConsumer) Start(ctx context.Context) error {
	for _, topic := range domain.Topics {
		msgs, err := c.source.ConsumeTopic(c.group, topic)
		if err != nil {
			return err
		}

		c.wg.Add(1)
		go func(topic string, msgs <-chan amqp.Delivery) {
			defer c.wg.Done()
			c.run(ctx, topic, msgs)
		}(topic, msgs)
	}
	return nil
}

// Wait blocks until every topic loop has stopped
func (c *EventConsumer) Wait() {
	c.wg.Wait()
}

func (c *EventConsumer) run(ctx context.Context, topic string, msgs <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			slog.Info("stopping event consumer", slog.String("topic", topic))
			return
		case msg, ok := <-msgs:
			if !ok {
				slog.Warn("event consumer channel closed", slog.String("topic", topic))
				return
			}
			c.handleDelivery(ctx, topic, msg)
		}
	}
}

func (c *EventConsumer) handleDelivery(ctx context.Context, topic string, msg amqp.Delivery) {
	event, err := DecodeEvent(msg.Body)
	if err != nil {
		slog.Error("dropping malformed event",
			slog.String("topic", topic),
			slog.String("error", err.Error()),
			slog.String("body", string(msg.Body)))
		observability.EventsConsumedTotal.WithLabelValues(topic, "malformed").Inc()
		if nackErr := msg.Nack(false, false); nackErr != nil {
			slog.Error("nack failed", slog.String("error", nackErr.Error()))
		}
		return
	}

	if msg.MessageId != "" {
		ctx = observability.WithRequestID(ctx, msg.MessageId)
	}

	if err := c.handler(ctx, topic, event); err != nil {
		observability.FromContext(ctx).Error("event handler failed, requeueing",
			slog.String("topic", topic),
			slog.Int64("chat_room_id", event.ChatRoomID),
			slog.String("error", err.Error()))
		observability.EventsConsumedTotal.WithLabelValues(topic, "error").Inc()
		if nackErr := msg.Nack(false, !msg.Redelivered); nackErr != nil {
			slog.Error("nack failed", slog.String("error", nackErr.Error()))
		}
		return
	}

	observability.EventsConsumedTotal.WithLabelValues(topic, "ok").Inc()
	if err := msg.Ack(false); err != nil {
		slog.Error("ack failed", slog.String("error", err.Error()))
	}
}
