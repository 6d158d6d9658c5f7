// Package kafka builds watermill Kafka publishers and subscribers for the event bus.
package kafka

import (
	"errors"
	"strings"

	"github.com/IBM/sarama"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/omnitool-ai/omnitool-sub002/pkg/events"
)

var ErrNoBrokers = errors.New("no Kafka brokers configured")

// Config selects the cluster and the consumer group events are read with.
type Config struct {
	Brokers       []string
	ConsumerGroup string
	ClientID      string
	// FromNewest skips the backlog a new consumer group would otherwise replay.
	FromNewest bool
	OTEL       bool
}

// NewConfig returns the configuration a service named serviceName runs with.
func NewConfig(brokers []string, serviceName string) Config {
	return Config{
		Brokers:       brokers,
		ConsumerGroup: "cg-" + serviceName,
		ClientID:      serviceName,
		OTEL:          true,
	}
}

// ParseBrokers splits a comma separated broker list, dropping blanks.
func ParseBrokers(raw string) []string {
	var brokers []string

	for _, b := range strings.Split(raw, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}

	return brokers
}

// partitionKey keeps every event of one session on one partition, so a
// session sees its nodes' events in publish order.
func partitionKey(_ string, msg *message.Message) (string, error) {
	return msg.Metadata.Get(events.EventMetadataKey), nil
}

func subscriberSaramaConfig(cfg Config) *sarama.Config {
	sc := kafka.DefaultSaramaSubscriberConfig()
	sc.ClientID = cfg.ClientID
	sc.Consumer.Offsets.Initial = sarama.OffsetOldest

	if cfg.FromNewest {
		sc.Consumer.Offsets.Initial = sarama.OffsetNewest
	}

	return sc
}

func publisherSaramaConfig(cfg Config) *sarama.Config {
	pc := sarama.NewConfig()
	pc.ClientID = cfg.ClientID
	pc.Producer.Return.Successes = true
	pc.Producer.Partitioner = sarama.NewHashPartitioner

	return pc
}

// CreateChannel connects a publisher and a subscriber to the cluster.
func CreateChannel(logger watermill.LoggerAdapter, cfg Config) (*kafka.Publisher, *kafka.Subscriber, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil, ErrNoBrokers
	}

	marshaler := kafka.NewWithPartitioningMarshaler(partitionKey)

	subscriber, err := kafka.NewSubscriber(
		kafka.SubscriberConfig{
			Brokers:               cfg.Brokers,
			Unmarshaler:           marshaler,
			OverwriteSaramaConfig: subscriberSaramaConfig(cfg),
			ConsumerGroup:         cfg.ConsumerGroup,
			OTELEnabled:           cfg.OTEL,
		},
		logger,
	)
	if err != nil {
		return nil, nil, err
	}

	publisher, err := kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers:               cfg.Brokers,
			Marshaler:             marshaler,
			OverwriteSaramaConfig: publisherSaramaConfig(cfg),
			OTELEnabled:           cfg.OTEL,
		},
		logger,
	)
	if err != nil {
		_ = subscriber.Close()

		return nil, nil, err
	}

	return publisher, subscriber, nil
}
