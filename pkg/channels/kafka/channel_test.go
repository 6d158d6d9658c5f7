package kafka

import (
	"testing"

	"github.com/IBM/sarama"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/omnitool-ai/omnitool-sub002/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, ParseBrokers(" a:9092, ,b:9092 "))
	assert.Empty(t, ParseBrokers(""))
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig([]string{"a:9092"}, "omnitool")

	assert.Equal(t, "cg-omnitool", cfg.ConsumerGroup)
	assert.Equal(t, "omnitool", cfg.ClientID)
	assert.True(t, cfg.OTEL)
	assert.False(t, cfg.FromNewest)
}

func TestSaramaConfigs(t *testing.T) {
	cfg := NewConfig([]string{"a:9092"}, "omnitool")

	sub := subscriberSaramaConfig(cfg)
	assert.Equal(t, sarama.OffsetOldest, sub.Consumer.Offsets.Initial)
	assert.Equal(t, "omnitool", sub.ClientID)

	cfg.FromNewest = true
	assert.Equal(t, sarama.OffsetNewest, subscriberSaramaConfig(cfg).Consumer.Offsets.Initial)

	pub := publisherSaramaConfig(cfg)
	assert.True(t, pub.Producer.Return.Successes)
	require.NoError(t, pub.Validate())
}

func TestPartitionKey(t *testing.T) {
	msg := message.NewMessage(watermill.NewUUID(), nil)
	msg.Metadata.Set(events.EventMetadataKey, "session-1")

	key, err := partitionKey(events.Topic, msg)
	require.NoError(t, err)
	assert.Equal(t, "session-1", key)
}

func TestCreateChannel_RequiresBrokers(t *testing.T) {
	_, _, err := CreateChannel(watermill.NopLogger{}, Config{})
	require.ErrorIs(t, err, ErrNoBrokers)
}
