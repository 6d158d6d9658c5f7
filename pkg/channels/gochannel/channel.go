// Package gochannel provides the in-process event channel used by single-node hosts and tests.
package gochannel

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Options tune the in-process pub/sub.
type Options struct {
	Buffer int64
	// Replay keeps published events so late subscribers still see them.
	Replay bool
	// Ack makes Publish wait until a subscriber acknowledged the event.
	Ack bool
}

// DefaultOptions is what `omnitool serve` runs with.
var DefaultOptions = Options{Buffer: 1000}

// CreateChannel returns one GoChannel acting as both publisher and subscriber.
func CreateChannel(logger watermill.LoggerAdapter, opts ...Options) (*gochannel.GoChannel, *gochannel.GoChannel, error) {
	o := DefaultOptions
	if len(opts) > 0 {
		o = opts[0]
	}

	pubSub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer:            o.Buffer,
		Persistent:                     o.Replay,
		BlockPublishUntilSubscriberAck: o.Ack,
	}, logger)

	return pubSub, pubSub, nil
}
