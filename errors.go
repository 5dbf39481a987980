package consumer

import (
	"errors"
)

var (
	// ErrNoTopics is returned by SubscribeTopics when the topic list is empty.
	ErrNoTopics = errors.New("consumer: no topics to subscribe to")

	// ErrClosed is returned for operations issued after Close.
	ErrClosed = errors.New("consumer: closed")

	// ErrPartitionRevoked is returned by a partition stream's Fetch when the
	// partition is no longer assigned to this consumer.
	ErrPartitionRevoked = errors.New("consumer: partition revoked")
)
