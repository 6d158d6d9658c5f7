package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/omnitool-ai/omnitool-sub002/pkg/events"
)

type header interface {
	Header() events.BaseEvent
}

// Option configures a WatermillEventBus.
type Option func(*WatermillEventBus)

// WithTopic overrides events.Topic.
func WithTopic(topic string) Option {
	return func(eb *WatermillEventBus) {
		eb.topic = topic
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(eb *WatermillEventBus) {
		eb.logger = logger
	}
}

// WatermillEventBus fans component events out to every handler registered
// for their type. Messages are acked once all handlers succeed.
type WatermillEventBus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	topic      string
	logger     *slog.Logger

	mu       sync.RWMutex
	handlers map[events.EventType][]EventHandler
}

func NewWatermillEventBus(pub message.Publisher, sub message.Subscriber, opts ...Option) *WatermillEventBus {
	eb := &WatermillEventBus{
		publisher:  pub,
		subscriber: sub,
		topic:      events.Topic,
		logger:     slog.Default(),
		handlers:   make(map[events.EventType][]EventHandler),
	}

	for _, opt := range opts {
		opt(eb)
	}

	eb.logger = eb.logger.With("module", "eventbus", "topic", eb.topic)

	return eb
}

func (eb *WatermillEventBus) GenerateID() string {
	return watermill.NewULID()
}

// Publish sends event keyed by key, usually the session id. Node and
// component identifiers travel as metadata when the event carries them.
func (eb *WatermillEventBus) Publish(ctx context.Context, key string, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event.GetType(), err)
	}

	msg := message.NewMessage(eb.GenerateID(), body)
	msg.SetContext(ctx)
	msg.Metadata.Set(events.EventMetadataKey, key)
	msg.Metadata.Set(events.EventTypeMetadataKey, string(event.GetType()))

	if h, ok := event.(header); ok {
		base := h.Header()
		msg.Metadata.Set(events.NodeIDMetadataKey, base.NodeID)
		msg.Metadata.Set(events.ComponentKeyMetadataKey, base.ComponentKey)
	}

	return eb.publisher.Publish(eb.topic, msg)
}

// Handle appends handler to the handlers of eventType.
func (eb *WatermillEventBus) Handle(eventType events.EventType, handler EventHandler) error {
	if handler == nil {
		return fmt.Errorf("nil handler for %s", eventType)
	}

	eb.mu.Lock()
	eb.handlers[eventType] = append(eb.handlers[eventType], handler)
	eb.mu.Unlock()

	return nil
}

// Subscribe starts delivering messages until ctx is done.
func (eb *WatermillEventBus) Subscribe(ctx context.Context) error {
	messages, err := eb.subscriber.Subscribe(ctx, eb.topic)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", eb.topic, err)
	}

	go func() {
		for msg := range messages {
			if eb.dispatch(ctx, msg) {
				msg.Ack()
			} else {
				msg.Nack()
			}
		}
	}()

	return nil
}

func (eb *WatermillEventBus) dispatch(ctx context.Context, msg *message.Message) bool {
	eventType := events.EventType(msg.Metadata.Get(events.EventTypeMetadataKey))

	eb.mu.RLock()
	handlers := eb.handlers[eventType]
	eb.mu.RUnlock()

	if len(handlers) == 0 {
		return true
	}

	logger := eb.logger.With("event_type", eventType, "message_uuid", msg.UUID)

	event, err := events.New(eventType)
	if err != nil {
		logger.Error("dropping event", "error", err)

		return false
	}

	if err := json.Unmarshal(msg.Payload, event); err != nil {
		logger.Error("decoding event", "error", err)

		return false
	}

	ok := true

	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			logger.Warn("event handler failed", "error", err)

			ok = false
		}
	}

	return ok
}

func (eb *WatermillEventBus) Close() error {
	if err := eb.publisher.Close(); err != nil {
		return err
	}

	return eb.subscriber.Close()
}
