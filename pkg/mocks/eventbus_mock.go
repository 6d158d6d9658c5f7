package mocks

import (
	"context"

	"github.com/omnitool-ai/omnitool-sub002/pkg/eventbus"
	"github.com/omnitool-ai/omnitool-sub002/pkg/events"
	"github.com/stretchr/testify/mock"
)

// MockEventPublisher is a mock eventbus.EventPublisher.
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, key string, event eventbus.Event) error {
	return m.Called(ctx, key, event).Error(0)
}

// Published returns the events of eventType passed to Publish, in call order.
func (m *MockEventPublisher) Published(eventType events.EventType) []eventbus.Event {
	var out []eventbus.Event

	for _, call := range m.Calls {
		if call.Method != "Publish" {
			continue
		}

		if event, ok := call.Arguments.Get(2).(eventbus.Event); ok && event.GetType() == eventType {
			out = append(out, event)
		}
	}

	return out
}
