// Package gochannel provides an in-memory pub/sub channel for development and
// tests.
package gochannel

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const outputBuffer = 1000

// CreateChannel creates a GoChannel-backed publisher and subscriber for
// single-process deployments. Publishes never block and messages published
// before a subscriber attaches are dropped.
func CreateChannel(logger watermill.LoggerAdapter) (*gochannel.GoChannel, *gochannel.GoChannel, error) {
	return newChannel(gochannel.Config{
		OutputChannelBuffer: outputBuffer,
	}, logger)
}

// CreateTestChannel creates a GoChannel where publishes block until every
// subscriber acks, so tests observe messages deterministically.
func CreateTestChannel(logger watermill.LoggerAdapter) (*gochannel.GoChannel, *gochannel.GoChannel, error) {
	return newChannel(gochannel.Config{
		OutputChannelBuffer:            10,
		Persistent:                     true,
		BlockPublishUntilSubscriberAck: true,
	}, logger)
}

// newChannel returns the same GoChannel instance in both roles; a subscriber
// backed by a different instance would never see the publisher's messages.
func newChannel(config gochannel.Config, logger watermill.LoggerAdapter) (*gochannel.GoChannel, *gochannel.GoChannel, error) {
	pubSub := gochannel.NewGoChannel(config, logger)

	return pubSub, pubSub, nil
}
