package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/omnitool-ai/omnitool-sub002/pkg/channels/gochannel"
	"github.com/omnitool-ai/omnitool-sub002/pkg/channels/kafka"
	"github.com/omnitool-ai/omnitool-sub002/pkg/eventbus"
)

// EventBusProviders are the accepted --event-bus values.
var EventBusProviders = []string{"gochannel", "kafka"}

// NewEventBus creates the bus component events are published on. brokers is
// only read by the kafka provider.
func NewEventBus(provider, brokers string, logger *slog.Logger) (eventbus.EventBus, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	switch provider {
	case "", "gochannel":
		pub, sub, err := gochannel.CreateChannel(wmLogger)
		if err != nil {
			return nil, fmt.Errorf("failed to create in-process pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(pub, sub, eventbus.WithLogger(logger)), nil
	case "kafka":
		pub, sub, err := kafka.CreateChannel(wmLogger, kafka.NewConfig(kafka.ParseBrokers(brokers), "omnitool"))
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(pub, sub, eventbus.WithLogger(logger)), nil
	default:
		return nil, fmt.Errorf("unsupported event bus provider %q (want one of %v)", provider, EventBusProviders)
	}
}
