package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"group-chat/internal/domain"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// EventsExchange is the topic exchange every chat event is published to.
// The routing key is the topic name.
const EventsExchange = "group-chat.events"

type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewRabbitMQ(url string) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	rmq := &RabbitMQ{
		conn:    conn,
		channel: ch,
	}

	if err := rmq.Setup(); err != nil {
		rmq.Close()
		return nil, err
	}

	return rmq, nil
}

// NewRabbitMQWithRetry keeps dialing until it succeeds or ctx is done
func NewRabbitMQWithRetry(ctx context.Context, url string) (*RabbitMQ, error) {
	delay := 500 * time.Millisecond
	for attempt := 1; ; attempt++ {
		rmq, err := NewRabbitMQ(url)
		if err == nil {
			return rmq, nil
		}

		slog.Warn("rabbitmq not ready, retrying",
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()))

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("giving up on rabbitmq after %d attempts: %w", attempt, err)
		case <-time.After(delay):
		}

		if delay < 8*time.Second {
			delay *= 2
		}
	}
}

func (r *RabbitMQ) Setup() error {
	if err := r.channel.ExchangeDeclare(
		EventsExchange, // name
		"topic",        // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	); err != nil {
		return fmt.Errorf("failed to declare events exchange: %w", err)
	}

	slog.Info("rabbitmq setup completed successfully")
	return nil
}

// Publish implements domain.EventPublisher
func (r *RabbitMQ) Publish(ctx context.Context, topic string, event *domain.ChatEvent) error {
	body, err := EncodeEvent(topic, event)
	if err != nil {
		return err
	}

	err = r.channel.PublishWithContext(
		ctx,
		EventsExchange,
		topic,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			MessageId:    uuid.NewString(),
			Timestamp:    event.CreatedAt,
			Type:         topic,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", topic, err)
	}

	slog.Debug("published chat event",
		slog.String("topic", topic),
		slog.Int64("chat_room_id", event.ChatRoomID))

	return nil
}

// RelayQueueName is the durable queue bound to one topic for a relay group
func RelayQueueName(group, topic string) string {
	return group + "." + topic
}

// ConsumeTopic declares the relay queue for topic, binds it to the events
// exchange and starts a manual-ack consumer on it
func (r *RabbitMQ) ConsumeTopic(group, topic string) (<-chan amqp.Delivery, error) {
	queue := RelayQueueName(group, topic)

	if _, err := r.channel.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	); err != nil {
		return nil, fmt.Errorf("failed to declare %s queue: %w", queue, err)
	}

	if err := r.channel.QueueBind(
		queue,          // queue name
		topic,          // routing key
		EventsExchange, // exchange
		false,
		nil,
	); err != nil {
		return nil, fmt.Errorf("failed to bind %s queue: %w", queue, err)
	}

	msgs, err := r.channel.Consume(
		queue, // queue
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register consumer: %w", err)
	}

	slog.Info("started consuming chat events",
		slog.String("queue", queue),
		slog.String("topic", topic))

	return msgs, nil
}

func (r *RabbitMQ) IsClosed() bool {
	return r.conn == nil || r.conn.IsClosed()
}

func (r *RabbitMQ) Name() string {
	return "rabbitmq"
}

// Ping reports whether the AMQP connection is still open
func (r *RabbitMQ) Ping(ctx context.Context) error {
	if r.IsClosed() {
		return errors.New("connection closed")
	}
	return nil
}

func (r *RabbitMQ) Close() error {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
