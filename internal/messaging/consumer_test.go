package messaging

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"group-chat/internal/domain"
	"group-chat/internal/observability"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ackCall struct {
	ack     bool
	requeue bool
}

// fakeAcknowledger records the ack/nack decisions of the consumer
type fakeAcknowledger struct {
	mu    sync.Mutex
	calls []ackCall
}

func (f *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, ackCall{ack: true})
	return nil
}

func (f *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, ackCall{requeue: requeue})
	return nil
}

func (f *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return f.Nack(tag, false, requeue)
}

func (f *fakeAcknowledger) last() ackCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

type fakeTopicSource struct {
	channels map[string]chan amqp.Delivery
	groups   []string
	err      error
}

func newFakeTopicSource() *fakeTopicSource {
	src := &fakeTopicSource{channels: make(map[string]chan amqp.Delivery)}
	for _, topic := range domain.Topics {
		src.channels[topic] = make(chan amqp.Delivery, 4)
	}
	return src
}

func (f *fakeTopicSource) ConsumeTopic(group, topic string) (<-chan amqp.Delivery, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.groups = append(f.groups, group)
	return f.channels[topic], nil
}

func TestEventConsumer_HandleDelivery(t *testing.T) {
	t.Run("acks after handler success", func(t *testing.T) {
		var got *domain.ChatEvent
		consumer := newEventConsumer(nil, "", func(ctx context.Context, topic string, event *domain.ChatEvent) error {
			assert.Equal(t, domain.TopicEnter, topic)
			got = event
			return nil
		})
		ack := &fakeAcknowledger{}

		consumer.handleDelivery(context.Background(), domain.TopicEnter, amqp.Delivery{
			Acknowledger: ack,
			Body:         []byte(`{"chatRoomId":1,"senderId":2,"senderNickname":"alice","content":"alice has entered the room."}`),
		})

		require.NotNil(t, got)
		assert.Equal(t, int64(1), got.ChatRoomID)
		assert.Equal(t, ackCall{ack: true}, ack.last())
	})

	t.Run("message id becomes the request id", func(t *testing.T) {
		var requestID string
		consumer := newEventConsumer(nil, "", func(ctx context.Context, topic string, event *domain.ChatEvent) error {
			requestID = observability.RequestID(ctx)
			return nil
		})

		consumer.handleDelivery(context.Background(), domain.TopicGroupChat, amqp.Delivery{
			Acknowledger: &fakeAcknowledger{},
			MessageId:    "0b6c5a9e-3f0e-4b51-9f3c-6f1d2a7e8c44",
			Body:         []byte(`{"chatRoomId":1,"content":"hi"}`),
		})

		assert.Equal(t, "0b6c5a9e-3f0e-4b51-9f3c-6f1d2a7e8c44", requestID)
	})

	t.Run("drops malformed body", func(t *testing.T) {
		called := false
		consumer := newEventConsumer(nil, "", func(ctx context.Context, topic string, event *domain.ChatEvent) error {
			called = true
			return nil
		})
		ack := &fakeAcknowledger{}

		consumer.handleDelivery(context.Background(), domain.TopicGroupChat, amqp.Delivery{
			Acknowledger: ack,
			Body:         []byte(`garbage`),
		})

		assert.False(t, called)
		assert.Equal(t, ackCall{ack: false, requeue: false}, ack.last())
	})

	t.Run("requeues handler failure once", func(t *testing.T) {
		consumer := newEventConsumer(nil, "", func(ctx context.Context, topic string, event *domain.ChatEvent) error {
			return errors.New("downstream unavailable")
		})
		body := []byte(`{"chatRoomId":1}`)

		first := &fakeAcknowledger{}
		consumer.handleDelivery(context.Background(), domain.TopicLeave, amqp.Delivery{Acknowledger: first, Body: body})
		assert.Equal(t, ackCall{requeue: true}, first.last())

		second := &fakeAcknowledger{}
		consumer.handleDelivery(context.Background(), domain.TopicLeave, amqp.Delivery{Acknowledger: second, Body: body, Redelivered: true})
		assert.Equal(t, ackCall{requeue: false}, second.last())
	})
}

func TestEventConsumer_Start(t *testing.T) {
	t.Run("consumes every topic until cancelled", func(t *testing.T) {
		src := newFakeTopicSource()
		received := make(chan string, len(domain.Topics))
		consumer := newEventConsumer(src, "test-group", func(ctx context.Context, topic string, event *domain.ChatEvent) error {
			received <- topic
			return nil
		})

		ctx, cancel := context.WithCancel(context.Background())
		require.NoError(t, consumer.Start(ctx))
		assert.Equal(t, []string{"test-group", "test-group", "test-group"}, src.groups)

		for _, topic := range domain.Topics {
			src.channels[topic] <- amqp.Delivery{Acknowledger: &fakeAcknowledger{}, Body: []byte(`{"chatRoomId":3}`)}
		}

		seen := map[string]bool{}
		for range domain.Topics {
			select {
			case topic := <-received:
				seen[topic] = true
			case <-time.After(2 * time.Second):
				t.Fatal("timeout waiting for events")
			}
		}
		assert.Len(t, seen, 3)

		cancel()
		consumer.Wait()
	})

	t.Run("stops when channel closes", func(t *testing.T) {
		src := newFakeTopicSource()
		consumer := newEventConsumer(src, "", func(ctx context.Context, topic string, event *domain.ChatEvent) error {
			return nil
		})

		require.NoError(t, consumer.Start(context.Background()))
		assert.Equal(t, DefaultRelayGroup, src.groups[0])

		for _, ch := range src.channels {
			close(ch)
		}
		consumer.Wait()
	})

	t.Run("returns source error", func(t *testing.T) {
		src := newFakeTopicSource()
		src.err = errors.New("channel closed")
		consumer := newEventConsumer(src, "", nil)

		err := consumer.Start(context.Background())
		assert.EqualError(t, err, "channel closed")
	})
}

func TestRelayQueueName(t *testing.T) {
	assert.Equal(t, "group-chat.relay.group-chat", RelayQueueName(DefaultRelayGroup, domain.TopicGroupChat))
}
